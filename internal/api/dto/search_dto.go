package dto

import "chirp-go/internal/model"

// SearchRequest 搜索参数
type SearchRequest struct {
	Q string `form:"q" binding:"max=200"`
}

// SearchResult 搜索结果，Source 为 "elasticsearch" 或 "database"
type SearchResult struct {
	Query  string
	Posts  []model.Post
	Source string
}
