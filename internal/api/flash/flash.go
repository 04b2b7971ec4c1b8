package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CategorySuccess = "success"
	CategoryError   = "error"

	cookieName      = "chirp_flash"
	contextPending  = "flash.pending"
	contextConsumed = "flash.consumed"
)

// Message 一条闪现消息
type Message struct {
	Category string `json:"c"`
	Text     string `json:"t"`
}

// Add 追加一条消息，下一次渲染页面时展示
func Add(c *gin.Context, category, text string) {
	pending := append(pendingMessages(c), Message{Category: category, Text: text})
	c.Set(contextPending, pending)

	value, err := encode(pending)
	if err != nil {
		return
	}
	setCookie(c, value, 0)
}

// Success 成功提示
func Success(c *gin.Context, text string) {
	Add(c, CategorySuccess, text)
}

// Error 错误提示
func Error(c *gin.Context, text string) {
	Add(c, CategoryError, text)
}

// Pop 取出并清空所有待展示的消息（上一个请求留下的 + 本请求新增的）
func Pop(c *gin.Context) []Message {
	var messages []Message

	if !c.GetBool(contextConsumed) {
		c.Set(contextConsumed, true)
		if raw, err := c.Cookie(cookieName); err == nil && raw != "" {
			messages = append(messages, decode(raw)...)
		}
	}

	pending := pendingMessages(c)
	if len(pending) > 0 {
		messages = append(messages, pending...)
		c.Set(contextPending, []Message(nil))
	}

	if len(messages) > 0 {
		setCookie(c, "", -1)
	}
	return messages
}

func pendingMessages(c *gin.Context) []Message {
	if v, ok := c.Get(contextPending); ok {
		if msgs, ok := v.([]Message); ok {
			return msgs
		}
	}
	return nil
}

func setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, value, maxAge, "/", "", false, true)
}

func encode(messages []Message) (string, error) {
	data, err := json.Marshal(messages)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// decode 无法解析的 cookie 直接丢弃
func decode(raw string) []Message {
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil
	}
	return messages
}
