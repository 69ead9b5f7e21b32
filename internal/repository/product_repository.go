package repository

import (
	"github.com/cartrecovery/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口（只读，供提醒邮件展示商品信息）
type ProductRepository interface {
	ListByIDs(ids []uint) ([]models.Product, error)
	ListSKUsByIDs(ids []uint) ([]models.ProductSKU, error)
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// ListByIDs 批量获取商品（含已下架商品，快照展示不受上架状态影响）
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	unique := dedupeIDs(ids)
	products := make([]models.Product, 0, len(unique))
	if len(unique) == 0 {
		return products, nil
	}
	if err := r.db.Where("id IN ?", unique).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListSKUsByIDs 批量获取 SKU
func (r *GormProductRepository) ListSKUsByIDs(ids []uint) ([]models.ProductSKU, error) {
	unique := dedupeIDs(ids)
	skus := make([]models.ProductSKU, 0, len(unique))
	if len(unique) == 0 {
		return skus, nil
	}
	if err := r.db.Where("id IN ?", unique).Find(&skus).Error; err != nil {
		return nil, err
	}
	return skus, nil
}
