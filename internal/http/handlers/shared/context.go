package shared

import (
	"github.com/kinoshop-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// RequestIDKey 上下文中的请求 ID 键
const RequestIDKey = response.RequestIDKey

// RequestID 读取当前请求 ID
func RequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(RequestIDKey)
}
