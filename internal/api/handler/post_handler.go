package handler

import (
	"errors"

	"chirp-go/internal/api/dto"
	"chirp-go/internal/api/flash"
	"chirp-go/internal/api/middleware"
	"chirp-go/internal/api/response"
	"chirp-go/internal/service"
	"chirp-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// PostForm 发帖页面
func (h *PostHandler) PostForm(c *gin.Context) {
	response.OK(c, "post.html", gin.H{"Content": ""})
}

// CreatePost 发帖
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req dto.PostRequest
	if err := c.ShouldBind(&req); err != nil {
		response.OK(c, "post.html", gin.H{"Content": "", "Errors": bindErrors(err)})
		return
	}

	userID, _ := middleware.GetCurrentUserID(c)
	if _, err := h.postService.CreatePost(c.Request.Context(), userID, req.Content); err != nil {
		errs := response.FieldErrors{}
		switch {
		case errors.Is(err, service.ErrEmptyContent):
			errs.Add("content", "This field is required.")
		case errors.Is(err, service.ErrContentTooLong):
			errs.Add("content", "Post is too long.")
		default:
			logger.Error("Create post failed", zap.Error(err), zap.Int64("user_id", userID))
			response.InternalError(c)
			return
		}
		response.OK(c, "post.html", gin.H{"Content": req.Content, "Errors": errs})
		return
	}

	flash.Success(c, "Message posted! Thanks!")
	response.Redirect(c, "/")
}
