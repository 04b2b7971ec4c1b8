package service

import (
	"context"
	"errors"

	"chirp-go/internal/api/dto"
	"chirp-go/internal/model"
	"chirp-go/internal/repository"
	"chirp-go/pkg/logger"
	"chirp-go/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameExists    = errors.New("user with that name already exists")
	ErrEmailExists       = errors.New("user with that email already exists")
	ErrInvalidCredential = errors.New("your email or password doesn't match")
)

// SessionStore 会话存储
type SessionStore interface {
	Create(ctx context.Context, userID int64) (string, error)
	Resolve(ctx context.Context, token string) (int64, error)
	Destroy(ctx context.Context, token string) error
}

type AuthService struct {
	userRepo *repository.UserRepository
	sessions SessionStore
}

func NewAuthService(userRepo *repository.UserRepository, sessions SessionStore) *AuthService {
	return &AuthService{userRepo: userRepo, sessions: sessions}
}

// Register 用户注册
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*model.User, error) {
	return s.CreateUser(ctx, req.Username, req.Email, req.Password, false)
}

// CreateUser 创建用户，用户名或邮箱重复时返回 ErrUsernameExists / ErrEmailExists
func (s *AuthService) CreateUser(ctx context.Context, username, email, password string, isAdmin bool) (*model.User, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameExists
	}

	exists, err = s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
		IsAdmin:  isAdmin,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 并发注册时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.conflictCause(ctx, username)
		}
		return nil, err
	}

	logger.Info("User created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *AuthService) conflictCause(ctx context.Context, username string) error {
	if exists, err := s.userRepo.ExistsByUsername(ctx, username); err == nil && exists {
		return ErrUsernameExists
	}
	return ErrEmailExists
}

// VerifyCredentials 校验邮箱与密码，邮箱不存在与密码错误返回同一个错误
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.BurnPasswordCheck(password)
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	if !utils.VerifyPassword(password, user.Password) {
		return nil, ErrInvalidCredential
	}
	return user, nil
}

// Login 校验凭据并建立会话，返回会话令牌
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return user, token, nil
}

// Logout 销毁会话，没有会话时什么也不做
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// CurrentUser 解析会话令牌，任何失败都视为匿名用户
func (s *AuthService) CurrentUser(ctx context.Context, token string) *model.User {
	if token == "" {
		return model.AnonymousUser
	}

	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return model.AnonymousUser
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Load session user failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		return model.AnonymousUser
	}
	return user
}

// GetByUsername 根据用户名获取用户
func (s *AuthService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin 创建初始管理员，已存在时忽略
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if username == "" {
		return nil
	}

	_, err := s.CreateUser(ctx, username, email, password, true)
	if errors.Is(err, ErrUsernameExists) || errors.Is(err, ErrEmailExists) {
		logger.Info("Admin account already exists", zap.String("username", username))
		return nil
	}
	return err
}
