package dto

// PostRequest 发帖表单，内容的空白校验在 service 层完成
type PostRequest struct {
	Content string `form:"content"`
}
