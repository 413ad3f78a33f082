package public

import (
	"strings"

	"github.com/kinoshop-next/internal/http/response"
	"github.com/kinoshop-next/internal/i18n"
	"github.com/kinoshop-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartQuantityRequest 数量调整请求
type CartQuantityRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

// CartPromoRequest 促销码请求
type CartPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

// CartWarning 同步告警
type CartWarning struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// CartResponse 购物车响应
type CartResponse struct {
	Cart     service.CartSnapshot `json:"cart"`
	Changed  bool                 `json:"changed"`
	Warnings []CartWarning        `json:"warnings"`
}

func newCartResponse(c *gin.Context, result *service.CartResult) CartResponse {
	locale := i18n.ResolveLocale(c)
	warnings := make([]CartWarning, 0, len(result.Warnings))
	for _, key := range result.Warnings {
		warnings = append(warnings, CartWarning{Key: key, Message: i18n.T(locale, key)})
	}
	return CartResponse{Cart: result.Snapshot, Changed: result.Changed, Warnings: warnings}
}

// GetCart 获取当前身份的购物车
func (h *Handler) GetCart(c *gin.Context) {
	result, err := h.CartService.Snapshot(requestContext(c))
	if err != nil {
		respondCartLoadError(c, err)
		return
	}
	response.Success(c, newCartResponse(c, result))
}

// ReloadCart 重新加载购物车（远端优先）
func (h *Handler) ReloadCart(c *gin.Context) {
	result, err := h.CartService.Load(requestContext(c))
	if err != nil {
		respondCartLoadError(c, err)
		return
	}
	response.Success(c, newCartResponse(c, result))
}

// AddCartItem 加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.CartService.AddItem(requestContext(c), req)
	if err != nil {
		respondCartUpdateError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "message.item_added"), newCartResponse(c, result))
}

// UpdateCartItem 调整购物车项数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.CartService.UpdateQuantity(requestContext(c), strings.TrimSpace(c.Param("id")), *req.Delta)
	if err != nil {
		respondCartUpdateError(c, err)
		return
	}
	response.Success(c, newCartResponse(c, result))
}

// DeleteCartItem 删除购物车项
func (h *Handler) DeleteCartItem(c *gin.Context) {
	result, err := h.CartService.RemoveItem(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		respondCartUpdateError(c, err)
		return
	}
	response.Success(c, newCartResponse(c, result))
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	result, err := h.CartService.Clear(requestContext(c))
	if err != nil {
		respondCartUpdateError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "message.cart_cleared"), newCartResponse(c, result))
}

// ApplyCartPromo 应用促销码
func (h *Handler) ApplyCartPromo(c *gin.Context) {
	var req CartPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.CartService.ApplyPromoCode(requestContext(c), req.Code)
	if err != nil {
		respondCartUpdateError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "message.promo_applied"), newCartResponse(c, result))
}

// ClearCartPromo 取消促销码
func (h *Handler) ClearCartPromo(c *gin.Context) {
	result, err := h.CartService.ClearPromoCode(requestContext(c))
	if err != nil {
		respondCartUpdateError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "message.promo_cleared"), newCartResponse(c, result))
}
