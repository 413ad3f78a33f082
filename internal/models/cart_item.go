package models

import "time"

// CartItem 购物车项（本地镜像中的 JSON 结构）
// 同一购物车内 ID 唯一，Quantity 始终为正
type CartItem struct {
	ID       string    `json:"id"`                 // 商品标识（slug）
	Title    string    `json:"title"`              // 标题
	Price    int64     `json:"price"`              // 单价（整数货币单位）
	Image    string    `json:"image"`              // 海报地址
	Quantity int       `json:"quantity"`           // 数量
	AddedAt  time.Time `json:"addedAt"`            // 加入时间
	MovieID  uint      `json:"movie_id,omitempty"` // 远端影片 ID
	DBID     uint      `json:"db_id,omitempty"`    // 远端购物车行 ID
}

// LineTotal 行小计
func (i CartItem) LineTotal() Money {
	return NewMoney(i.Price).Mul(int64(i.Quantity))
}

// PromoCode 已应用的促销码
type PromoCode struct {
	Code      string    `json:"code"`
	Discount  float64   `json:"discount"` // 折扣比例，0 < f < 1
	Name      string    `json:"name"`
	AppliedAt time.Time `json:"appliedAt"`
}
