package remote

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/kinoshop-next/internal/models"

	"github.com/shopspring/decimal"
)

// FlexInt 兼容字符串与数字的整数
type FlexInt int64

// UnmarshalJSON 解析 "12" / 12 / null，无法解析时为 0
func (n *FlexInt) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(bytes.Trim(b, `"`)))
	if raw == "" || raw == "null" {
		*n = 0
		return nil
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*n = FlexInt(v)
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*n = FlexInt(int64(f))
		return nil
	}
	*n = 0
	return nil
}

// Uint 转为非负 uint
func (n FlexInt) Uint() uint {
	if n <= 0 {
		return 0
	}
	return uint(n)
}

var leadingNumber = regexp.MustCompile(`^-?\d+(?:[.,]\d+)?`)

// FlexPrice 宽松解析的价格，取前缀数字并四舍五入到整数
// 例如 "499 руб" 为 499，"N/A" / true / null 为 0
type FlexPrice int64

// UnmarshalJSON 无法识别的价格记为 0，不返回错误
func (p *FlexPrice) UnmarshalJSON(b []byte) error {
	*p = 0
	raw := strings.TrimSpace(string(b))
	if strings.HasPrefix(raw, `"`) {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return nil
		}
		raw = strings.TrimSpace(text)
	}
	match := leadingNumber.FindString(raw)
	if match == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.Replace(match, ",", ".", 1))
	if err != nil {
		return nil
	}
	*p = FlexPrice(d.Round(0).IntPart())
	return nil
}

// Int64 价格整数值
func (p FlexPrice) Int64() int64 {
	return int64(p)
}

// User 远端用户
type User struct {
	ID       FlexInt `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
}

// Identity 转为本地身份
func (u *User) Identity() *models.Identity {
	if u == nil {
		return nil
	}
	return &models.Identity{
		ID:       u.ID.Uint(),
		Username: strings.TrimSpace(u.Username),
		Email:    strings.TrimSpace(u.Email),
	}
}

// CartLine 远端购物车行
type CartLine struct {
	ID       FlexInt   `json:"id"`
	MovieID  FlexInt   `json:"movie_id"`
	Title    string    `json:"title"`
	Price    FlexPrice `json:"price"`
	ImageURL string    `json:"image_url"`
	Quantity FlexInt   `json:"quantity"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type checkUserRequest struct {
	UserID uint `json:"user_id"`
}

type cartRequest struct {
	Action   string `json:"action"`
	UserID   uint   `json:"user_id"`
	MovieID  uint   `json:"movie_id,omitempty"`
	Quantity *int   `json:"quantity,omitempty"`
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	User    *User           `json:"user"`
	Cart    json.RawMessage `json:"cart"`
}

func (e envelope) failure() *ServerError {
	msg := strings.TrimSpace(e.Error)
	if msg == "" {
		msg = strings.TrimSpace(e.Message)
	}
	return &ServerError{Message: msg}
}
