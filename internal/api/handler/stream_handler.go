package handler

import (
	"errors"
	"strconv"

	"chirp-go/internal/api/middleware"
	"chirp-go/internal/api/response"
	"chirp-go/internal/model"
	"chirp-go/internal/service"
	"chirp-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StreamHandler struct {
	streamService *service.StreamService
	postService   *service.PostService
}

func NewStreamHandler(streamService *service.StreamService, postService *service.PostService) *StreamHandler {
	return &StreamHandler{
		streamService: streamService,
		postService:   postService,
	}
}

// Index 全站最新帖子
func (h *StreamHandler) Index(c *gin.Context) {
	posts, err := h.streamService.GetGlobalStream(c.Request.Context(), service.DefaultStreamLimit)
	if err != nil {
		handleStreamError(c, err)
		return
	}
	response.OK(c, "stream.html", gin.H{"Posts": posts})
}

// Stream 当前用户的信息流
func (h *StreamHandler) Stream(c *gin.Context) {
	userID, _ := middleware.GetCurrentUserID(c)

	posts, err := h.streamService.GetStream(c.Request.Context(), userID, service.DefaultStreamLimit)
	if err != nil {
		handleStreamError(c, err)
		return
	}
	response.OK(c, "stream.html", gin.H{"Posts": posts, "Title": "Your stream"})
}

// UserStream 用户主页
func (h *StreamHandler) UserStream(c *gin.Context) {
	viewer := middleware.GetCurrentUser(c)

	profile, err := h.streamService.GetUserStream(c.Request.Context(), viewer, c.Param("username"), service.DefaultStreamLimit)
	if err != nil {
		handleStreamError(c, err)
		return
	}
	response.OK(c, "user_stream.html", gin.H{"Profile": profile})
}

// ViewPost 单个帖子
func (h *StreamHandler) ViewPost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.NotFound(c)
		return
	}

	post, err := h.postService.GetPost(c.Request.Context(), id)
	if err != nil {
		handleStreamError(c, err)
		return
	}
	response.OK(c, "stream.html", gin.H{"Posts": []model.Post{*post}, "Title": "Post"})
}

func handleStreamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrPostNotFound):
		response.NotFound(c)
	default:
		logger.Error("Load stream failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		response.InternalError(c)
	}
}
