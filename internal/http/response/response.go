package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDKey gin 上下文中的请求 ID 键
const RequestIDKey = "request_id"

// Response 统一响应信封，HTTP 状态恒为 200，业务结果看 StatusCode
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, CodeOK, "success", data)
}

// SuccessWithMsg 成功响应（自定义提示）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	write(c, CodeOK, msg, data)
}

// Error 错误响应，data 中附带 request_id
func Error(c *gin.Context, code int, msg string) {
	write(c, code, msg, withRequestID(c, nil))
}

// ErrorWithData 错误响应（如表单字段错误）
func ErrorWithData(c *gin.Context, code int, msg string, data interface{}) {
	write(c, code, msg, withRequestID(c, data))
}

// Abort 中间件中断请求并返回错误
func Abort(c *gin.Context, code int, msg string) {
	Error(c, code, msg)
	c.Abort()
}

func write(c *gin.Context, code int, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{StatusCode: code, Msg: msg, Data: data})
}

func withRequestID(c *gin.Context, data interface{}) interface{} {
	id := c.GetString(RequestIDKey)
	if id == "" {
		return data
	}
	switch v := data.(type) {
	case nil:
		return gin.H{RequestIDKey: id}
	case gin.H:
		if _, ok := v[RequestIDKey]; !ok {
			v[RequestIDKey] = id
		}
		return v
	default:
		return gin.H{RequestIDKey: id, "data": data}
	}
}
