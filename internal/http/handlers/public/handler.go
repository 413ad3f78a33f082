package public

import "github.com/kinoshop-next/internal/provider"

// Handler 本地门店接口处理器入口
// 说明：该处理器供展示层（网页、终端、移动壳）渲染购物车与登录状态。
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
