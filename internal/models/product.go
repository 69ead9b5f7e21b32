package models

import (
	"time"
)

// Product 商品（仅保留挽回邮件展示所需字段）
type Product struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                      // 主键
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`                          // 唯一标识
	TitleJSON   JSON      `gorm:"type:json;not null" json:"title"`                           // 多语言标题
	ImageURL    string    `gorm:"type:varchar(500);default:''" json:"image_url"`             // 主图
	PriceAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // 价格
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`                       // 是否上架
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`                                   // 更新时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
