package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/kinoshop-next/internal/config"
	"github.com/kinoshop-next/internal/constants"
	"github.com/kinoshop-next/internal/logger"
	"github.com/kinoshop-next/internal/models"
	"github.com/kinoshop-next/internal/remote"

	"github.com/go-playground/validator/v10"
)

var looseEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RemoteAuth 远端认证接口
type RemoteAuth interface {
	Register(ctx context.Context, req remote.RegisterRequest) (*models.Identity, error)
	Login(ctx context.Context, req remote.LoginRequest) (*models.Identity, error)
	Logout(ctx context.Context) error
}

// GuestCartCleaner 登录成功后清理游客购物车
type GuestCartCleaner interface {
	ClearGuestCart(ctx context.Context) error
}

// RegisterInput 注册表单
type RegisterInput struct {
	Username        string `json:"username" validate:"required,min=3"`
	Email           string `json:"email" validate:"required,loose_email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
	Terms           bool   `json:"terms" validate:"required"`
}

// LoginInput 登录表单
type LoginInput struct {
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

// UserAuthService 用户认证服务
type UserAuthService struct {
	policy   config.PasswordPolicyConfig
	remote   RemoteAuth
	identity *IdentityService
	guest    GuestCartCleaner
	validate *validator.Validate
}

func newAuthValidator() (*validator.Validate, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	err := v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return looseEmailPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("register loose_email: %w", err)
	}
	return v, nil
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(policy config.PasswordPolicyConfig, remoteAuth RemoteAuth, identity *IdentityService, guest GuestCartCleaner) *UserAuthService {
	v, err := newAuthValidator()
	if err != nil {
		panic(err)
	}
	return &UserAuthService{
		policy:   policy,
		remote:   remoteAuth,
		identity: identity,
		guest:    guest,
		validate: v,
	}
}

// Register 注册并登录
func (s *UserAuthService) Register(ctx context.Context, input RegisterInput) (*models.Identity, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	vErr := s.validateForm(input)
	if input.Password != "" {
		if err := validatePassword(s.policy, input.Password); err != nil {
			var policyErr passwordPolicyError
			if errors.As(err, &policyErr) {
				vErr.add(constants.FieldPassword, policyErr.fieldError())
			}
		}
	}
	if err := vErr.orNil(); err != nil {
		return nil, err
	}

	identity, err := s.remote.Register(ctx, remote.RegisterRequest{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		logger.Warnw("auth_register_failed", "username", input.Username, "error", err)
		return nil, serverValidationError(err, constants.FieldGeneral, "error.register_failed")
	}
	if err := s.signIn(ctx, identity); err != nil {
		return nil, err
	}
	logger.Infow("auth_register_success", "user_id", identity.ID, "username", identity.Username)
	return identity, nil
}

// Login 登录，rememberMe 时记住用户名
func (s *UserAuthService) Login(ctx context.Context, input LoginInput) (*models.Identity, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := s.validateForm(input).orNil(); err != nil {
		return nil, err
	}

	identity, err := s.remote.Login(ctx, remote.LoginRequest{Username: input.Username, Password: input.Password})
	if err != nil {
		logger.Warnw("auth_login_failed", "username", input.Username, "error", err)
		return nil, serverValidationError(err, constants.FieldUsername, "error.login_invalid")
	}
	if err := s.signIn(ctx, identity); err != nil {
		return nil, err
	}
	if input.RememberMe {
		if err := s.identity.SetRemembered(ctx, identity.Username); err != nil {
			logger.Warnw("auth_remember_user_failed", "username", identity.Username, "error", err)
		}
	}
	logger.Infow("auth_login_success", "user_id", identity.ID, "username", identity.Username)
	return identity, nil
}

// Logout 退出登录，远端失败也会清理本地身份
// 返回值表示远端是否确认
func (s *UserAuthService) Logout(ctx context.Context) (bool, error) {
	confirmed := true
	if err := s.remote.Logout(ctx); err != nil {
		confirmed = false
		logger.Warnw("auth_logout_remote_failed", "error", err)
	}
	if err := s.identity.ClearRemembered(ctx); err != nil {
		logger.Warnw("auth_clear_remembered_failed", "error", err)
	}
	if err := s.identity.SetCurrent(ctx, nil); err != nil {
		return confirmed, err
	}
	return confirmed, nil
}

// Current 当前身份
func (s *UserAuthService) Current(ctx context.Context) (*models.Identity, error) {
	return s.identity.Current(ctx)
}

// Remembered 记住的用户名
func (s *UserAuthService) Remembered(ctx context.Context) (string, error) {
	return s.identity.Remembered(ctx)
}

func (s *UserAuthService) signIn(ctx context.Context, identity *models.Identity) error {
	if !identity.Valid() {
		return remote.ErrInvalidResponse
	}
	if s.guest != nil {
		if err := s.guest.ClearGuestCart(ctx); err != nil {
			logger.Warnw("auth_clear_guest_cart_failed", "error", err)
		}
	}
	return s.identity.SetCurrent(ctx, identity)
}

func (s *UserAuthService) validateForm(form interface{}) *ValidationError {
	vErr := &ValidationError{}
	err := s.validate.Struct(form)
	if err == nil {
		return vErr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add(constants.FieldGeneral, FieldError{Key: "error.validation_failed"})
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(fe.Field(), fieldErrorFor(fe))
	}
	return vErr
}

func fieldErrorFor(fe validator.FieldError) FieldError {
	switch fe.Field() {
	case constants.FieldUsername:
		if fe.Tag() == "min" {
			n, _ := strconv.Atoi(fe.Param())
			return FieldError{Key: "error.username_min_length", Args: []interface{}{n}}
		}
		return FieldError{Key: "error.username_required"}
	case constants.FieldEmail:
		return FieldError{Key: "error.email_invalid"}
	case constants.FieldPassword:
		return FieldError{Key: "error.password_required"}
	case constants.FieldConfirmPassword:
		return FieldError{Key: "error.password_mismatch"}
	case constants.FieldTerms:
		return FieldError{Key: "error.terms_required"}
	}
	return FieldError{Key: "error.validation_failed"}
}
