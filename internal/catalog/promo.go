package catalog

import (
	"fmt"
	"strings"

	"github.com/kinoshop-next/internal/config"
)

// Promo 促销码定义
type Promo struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	Name     string  `json:"name"`
}

// PromoCatalog 静态促销码目录
type PromoCatalog struct {
	byCode map[string]Promo
}

// NewPromoCatalog 从配置构建促销码目录
func NewPromoCatalog(codes []config.PromoCodeConfig) (*PromoCatalog, error) {
	c := &PromoCatalog{byCode: make(map[string]Promo, len(codes))}
	for _, item := range codes {
		code := normalizeCode(item.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: empty promo code", ErrInvalidCatalog)
		}
		if item.Discount <= 0 || item.Discount >= 1 {
			return nil, fmt.Errorf("%w: promo %s discount %.4f out of range", ErrInvalidCatalog, code, item.Discount)
		}
		if _, exists := c.byCode[code]; exists {
			return nil, fmt.Errorf("%w: duplicate promo %s", ErrInvalidCatalog, code)
		}
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = code
		}
		c.byCode[code] = Promo{Code: code, Discount: item.Discount, Name: name}
	}
	return c, nil
}

// Lookup 大小写不敏感查找
func (c *PromoCatalog) Lookup(code string) (Promo, bool) {
	if c == nil {
		return Promo{}, false
	}
	promo, ok := c.byCode[normalizeCode(code)]
	return promo, ok
}

func normalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
