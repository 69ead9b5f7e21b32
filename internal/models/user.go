package models

import (
	"time"
)

// User 用户表
// 身份由外部认证方签发，这里只保存挽回邮件需要的联系信息
type User struct {
	ID          uint      `gorm:"primarykey" json:"id"`              // 主键
	Email       string    `gorm:"uniqueIndex;not null" json:"email"` // 邮箱
	DisplayName string    `gorm:"default:''" json:"display_name"`    // 昵称
	Locale      string    `gorm:"default:'zh-CN'" json:"locale"`     // 语言偏好
	Status      string    `gorm:"default:'active'" json:"status"`    // 账号状态
	CreatedAt   time.Time `gorm:"index" json:"created_at"`           // 创建时间
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`           // 更新时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
