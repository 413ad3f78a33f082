package public

import (
	"github.com/kinoshop-next/internal/http/response"
	"github.com/kinoshop-next/internal/i18n"
	"github.com/kinoshop-next/internal/service"

	handlershared "github.com/kinoshop-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, err := h.UserAuthService.Register(requestContext(c), req)
	if err != nil {
		respondRegisterError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "message.register_success"), gin.H{"user": user})
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req service.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, err := h.UserAuthService.Login(requestContext(c), req)
	if err != nil {
		respondLoginError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "message.login_success"), gin.H{"user": user})
}

// UserLogout 退出登录，远端失败时仍清理本地身份
func (h *Handler) UserLogout(c *gin.Context) {
	confirmed, err := h.UserAuthService.Logout(requestContext(c))
	if err != nil {
		respondError(c, response.CodeInternal, "error.logout_failed", err)
		return
	}
	if !confirmed {
		handlershared.RequestLog(c).Warnw("logout_remote_unconfirmed")
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "message.logout_success"), gin.H{"confirmed": confirmed})
}

// UserMe 当前身份
func (h *Handler) UserMe(c *gin.Context) {
	ctx := requestContext(c)
	user, err := h.UserAuthService.Current(ctx)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	remembered, err := h.UserAuthService.Remembered(ctx)
	if err != nil {
		handlershared.RequestLog(c).Warnw("remembered_user_read_failed", "error", err)
	}
	response.Success(c, gin.H{
		"user":            user,
		"authenticated":   user != nil,
		"remembered_user": remembered,
	})
}
