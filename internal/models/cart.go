package models

import (
	"time"

	"gorm.io/gorm"
)

// Cart 购物车
// 登录用户的购物车 UserID 非空；游客购物车仅通过 SessionID 关联浏览器会话
type Cart struct {
	ID         uint      `gorm:"primarykey" json:"id"`                            // 主键
	UserID     *uint     `gorm:"index" json:"user_id"`                            // 所属用户（游客为空）
	SessionID  *string   `gorm:"type:varchar(128);index" json:"session_id"`       // 游客会话标识
	GuestEmail string    `gorm:"type:varchar(255);default:''" json:"guest_email"` // 游客结账邮箱
	GuestName  string    `gorm:"type:varchar(255);default:''" json:"guest_name"`  // 游客称呼
	Locale     string    `gorm:"type:varchar(16);default:''" json:"locale"`       // 游客语言偏好
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`                         // 最后修改时间

	Items []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"` // 购物车项
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// BeforeSave 时间字段统一转为 UTC
func (c *Cart) BeforeSave(_ *gorm.DB) error {
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return nil
}

// IsGuest 是否游客购物车
func (c *Cart) IsGuest() bool {
	return c == nil || c.UserID == nil || *c.UserID == 0
}
