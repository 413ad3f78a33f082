package public

import (
	"strings"

	"github.com/kinoshop-next/internal/http/response"
	"github.com/kinoshop-next/internal/i18n"

	"github.com/gin-gonic/gin"
)

// GetProducts 商品目录
func (h *Handler) GetProducts(c *gin.Context) {
	response.Success(c, gin.H{"items": h.Registry.List()})
}

// GetProductMetadata 商品的影片元数据
func (h *Handler) GetProductMetadata(c *gin.Context) {
	meta, err := h.MetadataService.Fetch(requestContext(c), strings.TrimSpace(c.Param("id")), i18n.ResolveLocale(c))
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	response.Success(c, meta)
}

// CheckPromoCode 校验促销码（不应用）
func (h *Handler) CheckPromoCode(c *gin.Context) {
	promo, ok := h.Promos.Lookup(c.Param("code"))
	if !ok {
		respondError(c, response.CodeNotFound, "error.promo_invalid", nil)
		return
	}
	response.Success(c, promo)
}
