package shared

import (
	"github.com/kinoshop-next/internal/http/response"
	"github.com/kinoshop-next/internal/i18n"
	"github.com/kinoshop-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if id := RequestID(c); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// TranslateError 按请求语言翻译错误键
func TranslateError(c *gin.Context, code int, key string, err error, args ...interface{}) *response.AppError {
	locale := i18n.ResolveLocale(c)
	msg := i18n.T(locale, key)
	if len(args) > 0 {
		msg = i18n.Sprintf(locale, key, args...)
	}
	return response.NewAppError(code, key, msg, err)
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error, args ...interface{}) {
	appErr := TranslateError(c, code, key, err, args...)
	logHandlerError(c, appErr)
	response.Error(c, appErr.Code, appErr.Message)
}

// RespondErrorWithData 返回带数据的国际化错误响应（如表单字段错误）。
func RespondErrorWithData(c *gin.Context, code int, key string, data interface{}, err error) {
	appErr := TranslateError(c, code, key, err)
	logHandlerError(c, appErr)
	response.ErrorWithData(c, appErr.Code, appErr.Message, data)
}

// AbortWithError 中间件中断请求并返回国际化错误
func AbortWithError(c *gin.Context, code int, key string, args ...interface{}) {
	appErr := TranslateError(c, code, key, nil, args...)
	response.Abort(c, appErr.Code, appErr.Message)
}

func logHandlerError(c *gin.Context, appErr *response.AppError) {
	if appErr.Err == nil {
		return
	}
	log := RequestLog(c)
	if appErr.Internal() {
		log.Errorw("handler_error", "code", appErr.Code, "key", appErr.Key, "error", appErr.Err)
		return
	}
	log.Warnw("handler_error", "code", appErr.Code, "key", appErr.Key, "error", appErr.Err)
}
