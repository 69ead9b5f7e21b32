package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/logger"
	"github.com/cartrecovery/internal/models"
	"github.com/cartrecovery/internal/repository"

	"gorm.io/gorm"
)

// RecoveryIdentity 当前登录用户（匿名为 nil）
type RecoveryIdentity struct {
	UserID uint
}

// RecoveryResult 挽回结果
// Outcome 为 recovered / invalid_token / expired / already_recovered 之一
type RecoveryResult struct {
	Outcome         string `json:"outcome"`
	AbandonedCartID uint   `json:"abandoned_cart_id,omitempty"`
	CartID          uint   `json:"cart_id,omitempty"`
	Merged          bool   `json:"merged"`
}

// RecoveryPreview 只读校验令牌时返回的快照
type RecoveryPreview struct {
	AbandonedCartID uint              `json:"abandoned_cart_id"`
	CartID          uint              `json:"cart_id"`
	DisplayName     *string           `json:"display_name"`
	ItemCount       int               `json:"item_count"`
	CartTotal       models.Money      `json:"cart_total"`
	TokenExpiresAt  time.Time         `json:"token_expires_at"`
	Items           []models.CartItem `json:"items"`
}

// CartRecoveryService 通过挽回链接恢复购物车
type CartRecoveryService struct {
	abandonRepo repository.AbandonedCartRepository
	cartRepo    repository.CartRepository
	now         func() time.Time
}

// NewCartRecoveryService 创建挽回服务
func NewCartRecoveryService(abandonRepo repository.AbandonedCartRepository, cartRepo repository.CartRepository) *CartRecoveryService {
	return &CartRecoveryService{
		abandonRepo: abandonRepo,
		cartRepo:    cartRepo,
		now:         models.NowUTC,
	}
}

// resolveToken 依次校验：存在、未过期、未挽回
func (s *CartRecoveryService) resolveToken(token string) (*models.AbandonedCart, string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, constants.RecoveryOutcomeInvalidToken, nil
	}
	record, err := s.abandonRepo.GetByToken(token)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	if record == nil {
		return nil, constants.RecoveryOutcomeInvalidToken, nil
	}
	if record.IsTokenExpired(s.now()) {
		return record, constants.RecoveryOutcomeExpired, nil
	}
	if record.IsRecovered {
		return record, constants.RecoveryOutcomeAlreadyRecovered, nil
	}
	return record, "", nil
}

// Validate 只读校验令牌，不修改任何状态
func (s *CartRecoveryService) Validate(ctx context.Context, token string) (*RecoveryPreview, string, error) {
	record, outcome, err := s.resolveToken(token)
	if err != nil || outcome != "" {
		return nil, outcome, err
	}
	items, err := s.cartRepo.ListItems(record.CartID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	return &RecoveryPreview{
		AbandonedCartID: record.ID,
		CartID:          record.CartID,
		DisplayName:     record.DisplayName,
		ItemCount:       record.ItemCount,
		CartTotal:       record.CartTotal,
		TokenExpiresAt:  record.TokenExpiresAt,
		Items:           items,
	}, constants.RecoveryOutcomeValid, nil
}

// Recover 使用令牌挽回购物车
// 占用挽回与合并购物车在同一事务内完成，并发请求只有一个能成功
func (s *CartRecoveryService) Recover(ctx context.Context, token string, identity *RecoveryIdentity) (*RecoveryResult, error) {
	record, outcome, err := s.resolveToken(token)
	if err != nil {
		return nil, err
	}
	if outcome != "" {
		result := &RecoveryResult{Outcome: outcome}
		if record != nil {
			result.AbandonedCartID = record.ID
		}
		return result, nil
	}

	result := &RecoveryResult{AbandonedCartID: record.ID, CartID: record.CartID}
	recoveredAt := s.now()
	err = s.abandonRepo.Transaction(func(tx *gorm.DB) error {
		abandonRepo := s.abandonRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		locked, err := abandonRepo.GetByIDForUpdate(record.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			result.Outcome = constants.RecoveryOutcomeInvalidToken
			return nil
		}
		claimed, err := abandonRepo.ClaimRecovered(locked.ID, recoveredAt, constants.RecoveryChannelLink)
		if err != nil {
			return err
		}
		if !claimed {
			result.Outcome = constants.RecoveryOutcomeAlreadyRecovered
			return nil
		}
		targetCartID, merged, err := s.mergeCart(cartRepo, locked.CartID, identity, recoveredAt)
		if err != nil {
			return err
		}
		result.Outcome = constants.RecoveryOutcomeRecovered
		result.CartID = targetCartID
		result.Merged = merged
		return nil
	})
	if err != nil {
		logger.Errorw("cart_recovery_failed", "abandoned_cart_id", record.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	if result.Outcome == constants.RecoveryOutcomeRecovered {
		logger.Infow("cart_recovered",
			"abandoned_cart_id", record.ID,
			"cart_id", result.CartID,
			"merged", result.Merged,
			"authenticated", identity != nil,
		)
	}
	return result, nil
}

// mergeCart 把弃购购物车交给当前用户，返回最终承载商品的购物车ID
func (s *CartRecoveryService) mergeCart(cartRepo *repository.GormCartRepository, cartID uint, identity *RecoveryIdentity, at time.Time) (uint, bool, error) {
	cart, err := cartRepo.GetByID(cartID)
	if err != nil {
		return 0, false, err
	}
	if cart == nil {
		// 原购物车已被删除，仅标记挽回
		return 0, false, nil
	}
	if identity == nil || identity.UserID == 0 {
		// 匿名挽回只把购物车交还给浏览器会话，刷新修改时间避免再次被判定弃购
		return cart.ID, false, cartRepo.Touch(cart.ID, at)
	}
	if cart.UserID != nil && *cart.UserID == identity.UserID {
		return cart.ID, false, cartRepo.Touch(cart.ID, at)
	}

	userCart, err := cartRepo.GetUserCart(identity.UserID, cart.ID)
	if err != nil {
		return 0, false, err
	}
	if userCart == nil {
		return cart.ID, false, cartRepo.ReassignOwner(cart.ID, identity.UserID, at)
	}

	if err := mergeCartItems(cartRepo, userCart, cart.Items, at); err != nil {
		return 0, false, err
	}
	if err := cartRepo.DeleteWithItems(cart.ID); err != nil {
		return 0, false, err
	}
	return userCart.ID, true, cartRepo.Touch(userCart.ID, at)
}

// mergeCartItems 按 (product_id, sku_id) 合并，数量累加并截断到上限
func mergeCartItems(cartRepo *repository.GormCartRepository, target *models.Cart, incoming []models.CartItem, at time.Time) error {
	existing := make(map[cartItemKey]*models.CartItem, len(target.Items))
	for i := range target.Items {
		item := &target.Items[i]
		existing[cartItemKey{productID: item.ProductID, skuID: item.SKUID}] = item
	}
	for _, item := range incoming {
		key := cartItemKey{productID: item.ProductID, skuID: item.SKUID}
		if current, ok := existing[key]; ok {
			merged := clampCartQuantity(current.Quantity + item.Quantity)
			if merged == current.Quantity {
				continue
			}
			if err := cartRepo.UpdateItemQuantity(current.ID, merged, at); err != nil {
				return err
			}
			current.Quantity = merged
			continue
		}
		created := &models.CartItem{
			CartID:    target.ID,
			ProductID: item.ProductID,
			SKUID:     item.SKUID,
			Quantity:  clampCartQuantity(item.Quantity),
			UnitPrice: item.UnitPrice,
		}
		if err := cartRepo.CreateItem(created); err != nil {
			if repository.IsUniqueViolation(err) {
				return errors.New("cart item merge conflict")
			}
			return err
		}
		existing[key] = created
	}
	return nil
}

type cartItemKey struct {
	productID uint
	skuID     uint
}

func clampCartQuantity(quantity int) int {
	if quantity > constants.CartItemMaxQuantity {
		return constants.CartItemMaxQuantity
	}
	if quantity < 1 {
		return 1
	}
	return quantity
}
