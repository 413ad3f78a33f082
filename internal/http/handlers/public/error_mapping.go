package public

import (
	"errors"

	"github.com/kinoshop-next/internal/catalog"
	"github.com/kinoshop-next/internal/http/response"
	"github.com/kinoshop-next/internal/i18n"
	"github.com/kinoshop-next/internal/remote"
	"github.com/kinoshop-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	if vErr, ok := service.AsValidationError(err); ok {
		respondValidationError(c, vErr)
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

// respondValidationError 按字段返回表单错误，远端原文优先
func respondValidationError(c *gin.Context, vErr *service.ValidationError) {
	locale := i18n.ResolveLocale(c)
	fields := make(map[string]string, len(vErr.Fields))
	for name, fe := range vErr.Fields {
		if fe.Message != "" {
			fields[name] = fe.Message
			continue
		}
		fields[name] = i18n.Sprintf(locale, fe.Key, fe.Args...)
	}
	respondErrorWithData(c, response.CodeBadRequest, "error.validation_failed", gin.H{"fields": fields}, nil)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var remoteErrorRules = []mappedHandlerError{
	{target: remote.ErrNetwork, code: response.CodeBadGateway, key: "error.network_unavailable"},
	{target: remote.ErrInvalidResponse, code: response.CodeBadGateway, key: "error.remote_invalid_response"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrProductInvalid, code: response.CodeBadRequest, key: "error.bad_request"},
	{target: service.ErrPromoCodeInvalid, code: response.CodeBadRequest, key: "error.promo_invalid"},
}

var metadataErrorRules = []mappedHandlerError{
	{target: catalog.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrMetadataNotFound, code: response.CodeNotFound, key: "error.metadata_not_found"},
	{target: service.ErrMetadataUnavailable, code: response.CodeBadGateway, key: "error.metadata_unavailable"},
}

func respondCartLoadError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(remoteErrorRules, cartErrorRules), response.CodeInternal, "error.cart_load_failed")
}

func respondCartUpdateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(remoteErrorRules, cartErrorRules), response.CodeInternal, "error.cart_update_failed")
}

func respondRegisterError(c *gin.Context, err error) {
	respondWithMappedError(c, err, remoteErrorRules, response.CodeInternal, "error.register_failed")
}

func respondLoginError(c *gin.Context, err error) {
	respondWithMappedError(c, err, remoteErrorRules, response.CodeInternal, "error.login_invalid")
}

func respondMetadataError(c *gin.Context, err error) {
	respondWithMappedError(c, err, metadataErrorRules, response.CodeInternal, "error.metadata_unavailable")
}
