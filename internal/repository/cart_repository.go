package repository

import (
	"errors"
	"time"

	"github.com/cartrecovery/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	Create(cart *models.Cart) error
	GetByID(id uint) (*models.Cart, error)
	GetUserCart(userID uint, excludeCartID uint) (*models.Cart, error)
	ListItems(cartID uint) ([]models.CartItem, error)
	FindAbandonmentCandidates(cutoff time.Time) ([]models.Cart, error)
	CreateItem(item *models.CartItem) error
	UpdateItemQuantity(itemID uint, quantity int, updatedAt time.Time) error
	ReassignOwner(cartID, userID uint, updatedAt time.Time) error
	Touch(cartID uint, updatedAt time.Time) error
	DeleteWithItems(cartID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// Create 创建购物车（含购物车项）
func (r *GormCartRepository) Create(cart *models.Cart) error {
	return r.db.Create(cart).Error
}

// GetByID 获取购物车及其购物车项
func (r *GormCartRepository) GetByID(id uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}).First(&cart, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetUserCart 获取用户最近修改的购物车，excludeCartID 非 0 时排除该购物车
func (r *GormCartRepository) GetUserCart(userID uint, excludeCartID uint) (*models.Cart, error) {
	if userID == 0 {
		return nil, nil
	}
	query := r.db.Preload("Items").Where("user_id = ?", userID)
	if excludeCartID != 0 {
		query = query.Where("id <> ?", excludeCartID)
	}
	var cart models.Cart
	if err := query.Order("updated_at desc").Order("id desc").First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// ListItems 获取购物车项
func (r *GormCartRepository) ListItems(cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Where("cart_id = ?", cartID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindAbandonmentCandidates 查询疑似弃购的购物车
// 条件：updated_at 严格早于 cutoff、至少一个购物车项、不存在未挽回的弃购记录
func (r *GormCartRepository) FindAbandonmentCandidates(cutoff time.Time) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}).
		Where("carts.updated_at < ?", cutoff.UTC()).
		Where("EXISTS (SELECT 1 FROM cart_items WHERE cart_items.cart_id = carts.id)").
		Where("NOT EXISTS (SELECT 1 FROM abandoned_carts WHERE abandoned_carts.cart_id = carts.id AND abandoned_carts.is_recovered = ?)", false).
		Order("carts.id asc").
		Find(&carts).Error
	if err != nil {
		return nil, err
	}
	return carts, nil
}

// CreateItem 创建购物车项
func (r *GormCartRepository) CreateItem(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	return r.db.Create(item).Error
}

// UpdateItemQuantity 更新购物车项数量
func (r *GormCartRepository) UpdateItemQuantity(itemID uint, quantity int, updatedAt time.Time) error {
	return r.db.Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": updatedAt.UTC(),
		}).Error
}

// ReassignOwner 将游客购物车归属到用户，同时解除浏览器会话关联
func (r *GormCartRepository) ReassignOwner(cartID, userID uint, updatedAt time.Time) error {
	return r.db.Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"user_id":    userID,
			"session_id": nil,
			"updated_at": updatedAt.UTC(),
		}).Error
}

// Touch 刷新购物车修改时间
func (r *GormCartRepository) Touch(cartID uint, updatedAt time.Time) error {
	return r.db.Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", updatedAt.UTC()).Error
}

// DeleteWithItems 删除购物车及其购物车项
func (r *GormCartRepository) DeleteWithItems(cartID uint) error {
	if err := r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Cart{}, cartID).Error
}
