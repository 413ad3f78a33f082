package response

// AppError 接口错误，Key 为 i18n 键，Message 为已翻译文本
type AppError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

// NewAppError 创建接口错误
func NewAppError(code int, key, message string, err error) *AppError {
	return &AppError{Code: code, Key: key, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Internal 是否为服务端错误（需要记录日志）
func (e *AppError) Internal() bool {
	return e.Code >= CodeInternal
}
