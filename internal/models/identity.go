package models

import "strings"

// Identity 已登录用户身份，nil 表示游客
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Valid 判断身份是否可用
func (i *Identity) Valid() bool {
	return i != nil && strings.TrimSpace(i.Username) != ""
}

// Same 判断两个身份是否指向同一用户（nil 视为游客）
func (i *Identity) Same(other *Identity) bool {
	if !i.Valid() || !other.Valid() {
		return !i.Valid() && !other.Valid()
	}
	return i.ID == other.ID && i.Username == other.Username
}
