package handler

import (
	"errors"

	"chirp-go/internal/api/flash"
	"chirp-go/internal/api/middleware"
	"chirp-go/internal/api/response"
	"chirp-go/internal/service"
	"chirp-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AvatarHandler struct {
	avatarService *service.AvatarService
}

func NewAvatarHandler(avatarService *service.AvatarService) *AvatarHandler {
	return &AvatarHandler{avatarService: avatarService}
}

// AvatarForm 头像上传页面
func (h *AvatarHandler) AvatarForm(c *gin.Context) {
	if !h.avatarService.Enabled() {
		response.NotFound(c)
		return
	}
	response.OK(c, "avatar.html", nil)
}

// Upload 上传头像
func (h *AvatarHandler) Upload(c *gin.Context) {
	if !h.avatarService.Enabled() {
		response.NotFound(c)
		return
	}

	errs := response.FieldErrors{}
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		errs.Add("avatar", "Please choose an image to upload.")
		response.OK(c, "avatar.html", gin.H{"Errors": errs})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Open avatar upload failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	defer file.Close()

	userID, _ := middleware.GetCurrentUserID(c)
	if _, err := h.avatarService.Upload(c.Request.Context(), userID, fileHeader.Filename, file, fileHeader.Size); err != nil {
		switch {
		case errors.Is(err, service.ErrAvatarFormat), errors.Is(err, service.ErrAvatarSize):
			errs.Add("avatar", err.Error())
			response.OK(c, "avatar.html", gin.H{"Errors": errs})
		default:
			logger.Error("Upload avatar failed", zap.Error(err), zap.Int64("user_id", userID))
			response.InternalError(c)
		}
		return
	}

	flash.Success(c, "Avatar updated!")
	response.Redirect(c, "/avatar/")
}
