package remote

import (
	"errors"
	"strings"
)

var (
	// ErrNetwork 传输失败、非 2xx 状态或熔断打开
	ErrNetwork = errors.New("remote network error")
	// ErrInvalidResponse 响应无法解析或缺少必要字段
	ErrInvalidResponse = errors.New("remote invalid response")
)

// ServerError 远端返回 {success:false, error}
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return "remote reported failure"
	}
	return e.Message
}

// AsServerError 提取远端业务错误
func AsServerError(err error) (*ServerError, bool) {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr, true
	}
	return nil, false
}
