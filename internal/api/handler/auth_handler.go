package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"chirp-go/internal/api/dto"
	"chirp-go/internal/api/flash"
	"chirp-go/internal/api/response"
	"chirp-go/internal/config"
	"chirp-go/internal/service"
	"chirp-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	sessionCfg  *config.SessionConfig
}

func NewAuthHandler(authService *service.AuthService, sessionCfg *config.SessionConfig) *AuthHandler {
	return &AuthHandler{authService: authService, sessionCfg: sessionCfg}
}

// RegisterForm 注册页面
func (h *AuthHandler) RegisterForm(c *gin.Context) {
	response.OK(c, "register.html", gin.H{"Form": &dto.RegisterRequest{}})
}

// Register 用户注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.OK(c, "register.html", gin.H{"Form": &req, "Errors": bindErrors(err)})
		return
	}

	if _, err := h.authService.Register(c.Request.Context(), &req); err != nil {
		errs := response.FieldErrors{}
		switch {
		case errors.Is(err, service.ErrUsernameExists):
			errs.Add("username", "User with that name already exists.")
		case errors.Is(err, service.ErrEmailExists):
			errs.Add("email", "User with that email already exists.")
		default:
			logger.Error("Register failed", zap.Error(err))
			response.InternalError(c)
			return
		}
		response.OK(c, "register.html", gin.H{"Form": &req, "Errors": errs})
		return
	}

	flash.Success(c, "Yay! you registered!")
	response.Redirect(c, "/")
}

// LoginForm 登录页面
func (h *AuthHandler) LoginForm(c *gin.Context) {
	response.OK(c, "login.html", gin.H{"Next": c.Query("next"), "Email": ""})
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.OK(c, "login.html", gin.H{"Next": req.Next, "Email": req.Email, "Errors": bindErrors(err)})
		return
	}

	_, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredential) {
			flash.Error(c, "Your email or password doesn't match")
			response.OK(c, "login.html", gin.H{"Next": req.Next, "Email": req.Email})
			return
		}
		logger.Error("Login failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	h.setSessionCookie(c, token, int(h.sessionCfg.TTL().Seconds()))
	flash.Success(c, "You've been logged in!")
	response.Redirect(c, safeNext(req.Next))
}

// Logout 用户登出
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.sessionCfg.CookieName); err == nil {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			logger.Warn("Destroy session failed", zap.Error(err))
		}
	}

	h.setSessionCookie(c, "", -1)
	flash.Success(c, "You've been logged out! Come back soon.")
	response.Redirect(c, "/login/")
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.sessionCfg.CookieName, value, maxAge, "/", "", h.sessionCfg.Secure, true)
}

// safeNext 只允许跳转到站内路径
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
