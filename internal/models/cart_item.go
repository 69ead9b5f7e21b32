package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartItem 购物车项
// 同一购物车内 (product_id, sku_id) 唯一；无规格商品 SKUID 为 0
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                                 // 主键
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_item_product_sku" json:"cart_id"`                        // 购物车ID
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_item_product_sku" json:"product_id"`                     // 商品ID
	SKUID     uint      `gorm:"column:sku_id;not null;default:0;uniqueIndex:idx_cart_item_product_sku" json:"sku_id"` // SKU ID
	Quantity  int       `gorm:"not null" json:"quantity"`                                                             // 数量（1-999）
	UnitPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`                              // 加购时单价快照
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                                              // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                                              // 更新时间
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}

// BeforeSave 时间字段统一转为 UTC
func (i *CartItem) BeforeSave(_ *gorm.DB) error {
	i.CreatedAt = i.CreatedAt.UTC()
	i.UpdatedAt = i.UpdatedAt.UTC()
	return nil
}

// LineTotal 行小计
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.LineTotal(i.Quantity)
}

// CartItemsTotal 汇总购物车项数量与金额
func CartItemsTotal(items []CartItem) (int, decimal.Decimal) {
	count := 0
	total := decimal.Zero
	for _, item := range items {
		count += item.Quantity
		total = total.Add(item.LineTotal())
	}
	return count, total
}
