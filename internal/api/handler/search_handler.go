package handler

import (
	"errors"
	"fmt"

	"chirp-go/internal/api/dto"
	"chirp-go/internal/api/flash"
	"chirp-go/internal/api/response"
	"chirp-go/internal/service"
	"chirp-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SearchHandler struct {
	searchService *service.SearchService
}

func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 搜索帖子
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.OK(c, "search.html", gin.H{
			"Query":  req.Q,
			"Result": &dto.SearchResult{},
			"Errors": bindErrors(err),
		})
		return
	}

	result, err := h.searchService.SearchPosts(c.Request.Context(), req.Q, service.DefaultStreamLimit)
	if err != nil {
		logger.Error("Search posts failed", zap.Error(err), zap.String("query", req.Q))
		response.InternalError(c)
		return
	}

	response.OK(c, "search.html", gin.H{"Query": result.Query, "Result": result})
}

// Reindex 管理员重建搜索索引
func (h *SearchHandler) Reindex(c *gin.Context) {
	success, failed, err := h.searchService.ReindexAll(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrSearchDisabled) {
			flash.Error(c, "Search index is not configured.")
			response.Redirect(c, "/search/")
			return
		}
		logger.Error("Reindex posts failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	flash.Success(c, fmt.Sprintf("Reindexed %d posts (%d failed).", success, failed))
	response.Redirect(c, "/search/")
}
