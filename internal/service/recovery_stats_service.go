package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cartrecovery/internal/repository"

	"github.com/shopspring/decimal"
)

// RecoveryStats 挽回漏斗统计
// 转化率分母为弃购总数（不是已挽回数）
type RecoveryStats struct {
	StartAt          time.Time       `json:"start_at"`
	EndAt            time.Time       `json:"end_at"`
	TotalAbandoned   int64           `json:"total_abandoned"`
	Recovered        int64           `json:"recovered"`
	RecoveryRate     float64         `json:"recovery_rate"`
	OrdersCreated    int64           `json:"orders_created"`
	ConversionRate   float64         `json:"conversion_rate"`
	RevenueRecovered decimal.Decimal `json:"revenue_recovered"`
	TotalCarts       int64           `json:"total_carts"`
	AvgCartValue     decimal.Decimal `json:"avg_cart_value"`
	RecoveredValue   decimal.Decimal `json:"recovered_value"`
	TotalValue       decimal.Decimal `json:"total_value"`
}

// RecoveryStatsService 挽回统计
type RecoveryStatsService struct {
	abandonRepo repository.AbandonedCartRepository
}

// NewRecoveryStatsService 创建统计服务
func NewRecoveryStatsService(abandonRepo repository.AbandonedCartRepository) *RecoveryStatsService {
	return &RecoveryStatsService{abandonRepo: abandonRepo}
}

// GetRecoveryStats 统计 abandoned_at 落在 [startAt, endAt] 内的记录
func (s *RecoveryStatsService) GetRecoveryStats(ctx context.Context, startAt, endAt time.Time) (*RecoveryStats, error) {
	if startAt.IsZero() || endAt.IsZero() || startAt.After(endAt) {
		return nil, ErrStatsRangeInvalid
	}
	row, err := s.abandonRepo.GetStatsRow(startAt, endAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	return buildRecoveryStats(startAt, endAt, row), nil
}

func buildRecoveryStats(startAt, endAt time.Time, row repository.AbandonedCartStatsRow) *RecoveryStats {
	stats := &RecoveryStats{
		StartAt:          startAt,
		EndAt:            endAt,
		TotalAbandoned:   row.TotalAbandoned,
		Recovered:        row.Recovered,
		OrdersCreated:    row.OrdersCreated,
		RevenueRecovered: row.RecoveredValue.Round(2),
		TotalCarts:       row.TotalAbandoned,
		RecoveredValue:   row.RecoveredValue.Round(2),
		TotalValue:       row.TotalValue.Round(2),
		AvgCartValue:     decimal.Zero,
	}
	if row.TotalAbandoned == 0 {
		return stats
	}
	total := decimal.NewFromInt(row.TotalAbandoned)
	stats.RecoveryRate = percentOf(row.Recovered, total)
	stats.ConversionRate = percentOf(row.OrdersCreated, total)
	stats.AvgCartValue = row.TotalValue.Div(total).Round(2)
	return stats
}

func percentOf(part int64, total decimal.Decimal) float64 {
	value, _ := decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).Div(total).Round(2).Float64()
	return value
}
