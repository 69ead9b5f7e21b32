package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/logger"
	"github.com/cartrecovery/internal/models"
	"github.com/cartrecovery/internal/repository"

	"github.com/shopspring/decimal"
)

// AbandonedCartListInput 后台列表查询参数
type AbandonedCartListInput struct {
	Page          int
	PageSize      int
	Status        string
	Email         string
	MinCartTotal  string
	MaxCartTotal  string
	AbandonedFrom *time.Time
	AbandonedTo   *time.Time
}

// AbandonedCartView 后台展示的弃购记录
type AbandonedCartView struct {
	models.AbandonedCart
	State string `json:"state"`
}

// AbandonedCartAdminService 后台弃购记录查询与转化登记
type AbandonedCartAdminService struct {
	abandonRepo repository.AbandonedCartRepository
}

// NewAbandonedCartAdminService 创建后台服务
func NewAbandonedCartAdminService(abandonRepo repository.AbandonedCartRepository) *AbandonedCartAdminService {
	return &AbandonedCartAdminService{abandonRepo: abandonRepo}
}

var allowedAbandonedStatuses = map[string]struct{}{
	constants.AbandonedStatusOpen:      {},
	constants.AbandonedStatusPending:   {},
	constants.AbandonedStatusReminded:  {},
	constants.AbandonedStatusRecovered: {},
	constants.AbandonedStatusConverted: {},
}

// List 按状态、金额、时间范围筛选弃购记录
func (s *AbandonedCartAdminService) List(input AbandonedCartListInput) ([]AbandonedCartView, int64, error) {
	filter := repository.AbandonedCartListFilter{
		Page:          input.Page,
		PageSize:      input.PageSize,
		Email:         strings.TrimSpace(input.Email),
		AbandonedFrom: input.AbandonedFrom,
		AbandonedTo:   input.AbandonedTo,
	}
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status != "" {
		if _, ok := allowedAbandonedStatuses[status]; !ok {
			return nil, 0, fmt.Errorf("%w: status", ErrInvalidListFilter)
		}
		filter.Status = status
	}
	var err error
	if filter.MinCartTotal, err = parseOptionalAmount(input.MinCartTotal); err != nil {
		return nil, 0, err
	}
	if filter.MaxCartTotal, err = parseOptionalAmount(input.MaxCartTotal); err != nil {
		return nil, 0, err
	}
	if filter.AbandonedFrom != nil && filter.AbandonedTo != nil && filter.AbandonedFrom.After(*filter.AbandonedTo) {
		return nil, 0, fmt.Errorf("%w: date range", ErrInvalidListFilter)
	}

	records, total, err := s.abandonRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	views := make([]AbandonedCartView, 0, len(records))
	for _, record := range records {
		views = append(views, AbandonedCartView{AbandonedCart: record, State: record.State()})
	}
	return views, total, nil
}

// Get 获取单条弃购记录
func (s *AbandonedCartAdminService) Get(id uint) (*AbandonedCartView, error) {
	record, err := s.abandonRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	if record == nil {
		return nil, ErrAbandonedCartNotFound
	}
	return &AbandonedCartView{AbandonedCart: *record, State: record.State()}, nil
}

// RecordConversion 登记挽回后的下单结果，仅允许已挽回记录
func (s *AbandonedCartAdminService) RecordConversion(ctx context.Context, id uint, orderID uint) (*AbandonedCartView, error) {
	if orderID == 0 {
		return nil, ErrInvalidOrderID
	}
	record, err := s.abandonRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	if record == nil {
		return nil, ErrAbandonedCartNotFound
	}
	if !record.IsRecovered {
		return nil, ErrAbandonedCartNotRecovered
	}
	updated, err := s.abandonRepo.SetConversion(id, &orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	if !updated {
		return nil, ErrAbandonedCartNotRecovered
	}
	logger.Infow("abandoned_cart_conversion_recorded", "abandoned_cart_id", id, "order_id", orderID)
	return s.Get(id)
}

func parseOptionalAmount(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return nil, fmt.Errorf("%w: amount", ErrInvalidListFilter)
	}
	return &value, nil
}
