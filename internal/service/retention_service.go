package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cartrecovery/internal/logger"
	"github.com/cartrecovery/internal/models"
	"github.com/cartrecovery/internal/repository"
)

// RetentionService 清理过期弃购记录，不触碰原购物车
type RetentionService struct {
	abandonRepo repository.AbandonedCartRepository
	now         func() time.Time
}

// NewRetentionService 创建清理服务
func NewRetentionService(abandonRepo repository.AbandonedCartRepository) *RetentionService {
	return &RetentionService{abandonRepo: abandonRepo, now: models.NowUTC}
}

// PurgeOlderThan 删除 abandoned_at 早于 now-days 的记录，不区分是否已挽回
func (s *RetentionService) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, ErrRetentionDaysInvalid
	}
	cutoff := s.now().AddDate(0, 0, -days)
	deleted, err := s.abandonRepo.DeleteAbandonedBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	logger.Infow("abandoned_cart_purged", "days", days, "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}
