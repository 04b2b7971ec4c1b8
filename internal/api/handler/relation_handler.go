package handler

import (
	"errors"
	"fmt"
	"net/url"

	"chirp-go/internal/api/flash"
	"chirp-go/internal/api/middleware"
	"chirp-go/internal/api/response"
	"chirp-go/internal/model"
	"chirp-go/internal/service"
	"chirp-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RelationHandler struct {
	relationService *service.RelationService
	authService     *service.AuthService
}

func NewRelationHandler(relationService *service.RelationService, authService *service.AuthService) *RelationHandler {
	return &RelationHandler{
		relationService: relationService,
		authService:     authService,
	}
}

// Follow 关注用户
func (h *RelationHandler) Follow(c *gin.Context) {
	currentUserID, _ := middleware.GetCurrentUserID(c)
	target, ok := h.lookupTarget(c)
	if !ok {
		return
	}

	created, err := h.relationService.Follow(c.Request.Context(), currentUserID, target.ID)
	if err != nil {
		handleRelationError(c, err)
		if !c.Writer.Written() {
			response.Redirect(c, userStreamPath(target))
		}
		return
	}

	if created {
		flash.Success(c, fmt.Sprintf("You're now following %s!", target.Username))
	}
	response.Redirect(c, userStreamPath(target))
}

// Unfollow 取消关注
func (h *RelationHandler) Unfollow(c *gin.Context) {
	currentUserID, _ := middleware.GetCurrentUserID(c)
	target, ok := h.lookupTarget(c)
	if !ok {
		return
	}

	removed, err := h.relationService.Unfollow(c.Request.Context(), currentUserID, target.ID)
	if err != nil {
		handleRelationError(c, err)
		return
	}

	if removed {
		flash.Success(c, fmt.Sprintf("You've unfollowed %s!", target.Username))
	}
	response.Redirect(c, userStreamPath(target))
}

func (h *RelationHandler) lookupTarget(c *gin.Context) (*model.User, bool) {
	target, err := h.authService.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		handleRelationError(c, err)
		return nil, false
	}
	return target, true
}

func userStreamPath(u *model.User) string {
	return "/stream/" + url.PathEscape(u.Username) + "/"
}

// handleRelationError 统一处理关注相关错误
func handleRelationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c)
	case errors.Is(err, service.ErrCannotFollowSelf):
		flash.Error(c, "You can't follow yourself.")
	default:
		logger.Error("Relation operation failed", zap.Error(err))
		response.InternalError(c)
	}
}
