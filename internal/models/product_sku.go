package models

import (
	"time"
)

// ProductSKU 商品规格
type ProductSKU struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                                                       // 主键
	ProductID      uint      `gorm:"not null;index;uniqueIndex:idx_product_sku_code" json:"product_id"`                          // 商品ID
	SKUCode        string    `gorm:"column:sku_code;type:varchar(64);not null;uniqueIndex:idx_product_sku_code" json:"sku_code"` // SKU 编码（同商品内唯一）
	SpecValuesJSON JSON      `gorm:"type:json" json:"spec_values"`                                                               // 规格值
	PriceAmount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"`                                  // SKU 价格
	IsActive       bool      `gorm:"default:true;index" json:"is_active"`                                                        // 是否启用
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                                                    // 创建时间
	UpdatedAt      time.Time `gorm:"index" json:"updated_at"`                                                                    // 更新时间
}

// TableName 指定表名
func (ProductSKU) TableName() string {
	return "product_skus"
}
