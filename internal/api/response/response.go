package response

import (
	"net/http"

	"chirp-go/internal/api/flash"
	"chirp-go/internal/model"

	"github.com/gin-gonic/gin"
)

const contextKeyCurrentUser = "currentUser"

// SetCurrentUser 保存当前请求的用户（匿名用户为 model.AnonymousUser）
func SetCurrentUser(c *gin.Context, user *model.User) {
	c.Set(contextKeyCurrentUser, user)
}

// CurrentUser 获取当前请求的用户，未设置时返回匿名用户
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(contextKeyCurrentUser); ok {
		if user, ok := v.(*model.User); ok && user != nil {
			return user
		}
	}
	return model.AnonymousUser
}

// HTML 渲染页面，自动附带当前用户与闪现消息
func HTML(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	// 布局模板会读取这两个字段
	if _, ok := data["Query"]; !ok {
		data["Query"] = ""
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = FieldErrors{}
	}
	data["CurrentUser"] = CurrentUser(c)
	data["Flashes"] = flash.Pop(c)
	c.HTML(status, name, data)
}

func OK(c *gin.Context, name string, data gin.H) {
	HTML(c, http.StatusOK, name, data)
}

// Redirect 表单提交成功后的跳转
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

func NotFound(c *gin.Context) {
	HTML(c, http.StatusNotFound, "404.html", nil)
}

func InternalError(c *gin.Context) {
	HTML(c, http.StatusInternalServerError, "500.html", nil)
}

// JSON 健康检查等非页面接口
func JSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// FieldErrors 表单字段 -> 错误信息
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}
