package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kinoshop-next/internal/constants"
	"github.com/kinoshop-next/internal/remote"
)

var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrProductInvalid      = errors.New("product invalid")
	ErrPromoCodeInvalid    = errors.New("promo code invalid")
	ErrWeakPassword        = errors.New("weak password")
	ErrMetadataNotFound    = errors.New("metadata not found")
	ErrMetadataUnavailable = errors.New("metadata unavailable")
)

// FieldError 单个表单字段的错误
// Message 非空时为远端原文，否则按 Key/Args 翻译
type FieldError struct {
	Key     string        `json:"key,omitempty"`
	Args    []interface{} `json:"-"`
	Message string        `json:"message,omitempty"`
}

// ValidationError 表单校验错误（字段 -> 错误）
type ValidationError struct {
	Fields map[string]FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		fe := e.Fields[name]
		detail := fe.Key
		if fe.Message != "" {
			detail = fe.Message
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, detail))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) add(field string, fe FieldError) {
	if e.Fields == nil {
		e.Fields = make(map[string]FieldError)
	}
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = fe
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// AsValidationError 提取校验错误
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

var serverErrorFieldKeywords = []struct {
	field    string
	keywords []string
}{
	{field: constants.FieldUsername, keywords: []string{"имя", "username", "логин"}},
	{field: constants.FieldEmail, keywords: []string{"email", "почта", "e-mail"}},
}

// RouteServerError 按关键字把远端错误定位到表单字段
func RouteServerError(serverErr *remote.ServerError, fallback string) string {
	if serverErr == nil {
		return fallback
	}
	msg := strings.ToLower(serverErr.Message)
	for _, rule := range serverErrorFieldKeywords {
		for _, keyword := range rule.keywords {
			if strings.Contains(msg, keyword) {
				return rule.field
			}
		}
	}
	return fallback
}

func serverValidationError(err error, fallbackField, fallbackKey string) error {
	serverErr, ok := remote.AsServerError(err)
	if !ok {
		return err
	}
	field := RouteServerError(serverErr, fallbackField)
	fe := FieldError{Key: fallbackKey, Message: strings.TrimSpace(serverErr.Message)}
	vErr := &ValidationError{}
	vErr.add(field, fe)
	return vErr
}
