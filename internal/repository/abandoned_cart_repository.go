package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AbandonedCartRepository 弃购记录数据访问接口
type AbandonedCartRepository interface {
	Create(record *models.AbandonedCart) error
	GetByID(id uint) (*models.AbandonedCart, error)
	GetByIDForUpdate(id uint) (*models.AbandonedCart, error)
	GetByToken(token string) (*models.AbandonedCart, error)
	List(filter AbandonedCartListFilter) ([]models.AbandonedCart, int64, error)
	ListDueForSlot(remindersSent int, referenceBefore time.Time, limit int) ([]models.AbandonedCart, error)
	ClaimRecovered(id uint, recoveredAt time.Time, channel string) (bool, error)
	IncrementReminder(id uint, expectedSent int, sentAt time.Time) (bool, error)
	SetConversion(id uint, orderID *uint) (bool, error)
	GetStatsRow(startAt, endAt time.Time) (AbandonedCartStatsRow, error)
	DeleteAbandonedBefore(cutoff time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormAbandonedCartRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormAbandonedCartRepository GORM 实现
type GormAbandonedCartRepository struct {
	db *gorm.DB
}

// NewAbandonedCartRepository 创建弃购记录仓库
func NewAbandonedCartRepository(db *gorm.DB) *GormAbandonedCartRepository {
	return &GormAbandonedCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAbandonedCartRepository) WithTx(tx *gorm.DB) *GormAbandonedCartRepository {
	if tx == nil {
		return r
	}
	return &GormAbandonedCartRepository{db: tx}
}

// Transaction 执行事务
func (r *GormAbandonedCartRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 插入弃购记录，同一购物车已有未挽回记录时返回唯一约束错误
func (r *GormAbandonedCartRepository) Create(record *models.AbandonedCart) error {
	if record == nil {
		return nil
	}
	return r.db.Create(record).Error
}

// GetByID 根据 ID 获取弃购记录
func (r *GormAbandonedCartRepository) GetByID(id uint) (*models.AbandonedCart, error) {
	var record models.AbandonedCart
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByIDForUpdate 加行锁读取弃购记录（需在事务内调用）
func (r *GormAbandonedCartRepository) GetByIDForUpdate(id uint) (*models.AbandonedCart, error) {
	var record models.AbandonedCart
	if err := withRowLock(r.db).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByToken 根据挽回令牌获取弃购记录
func (r *GormAbandonedCartRepository) GetByToken(token string) (*models.AbandonedCart, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	var record models.AbandonedCart
	if err := r.db.Where("recovery_token = ?", token).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// List 弃购记录列表
func (r *GormAbandonedCartRepository) List(filter AbandonedCartListFilter) ([]models.AbandonedCart, int64, error) {
	query := r.db.Model(&models.AbandonedCart{})

	switch strings.ToLower(strings.TrimSpace(filter.Status)) {
	case constants.AbandonedStatusOpen:
		query = query.Where("is_recovered = ?", false)
	case constants.AbandonedStatusPending:
		query = query.Where("is_recovered = ? AND reminders_sent = 0", false)
	case constants.AbandonedStatusReminded:
		query = query.Where("is_recovered = ? AND reminders_sent > 0", false)
	case constants.AbandonedStatusRecovered:
		query = query.Where("is_recovered = ?", true)
	case constants.AbandonedStatusConverted:
		query = query.Where("is_recovered = ? AND order_created = ?", true, true)
	}
	if email := strings.TrimSpace(filter.Email); email != "" {
		operator := likeOperatorByDialect(dbDialectName(r.db))
		query = query.Where(fmt.Sprintf("email %s ?", operator), "%"+email+"%")
	}
	if filter.MinCartTotal != nil {
		query = query.Where("cart_total >= ?", filter.MinCartTotal.Round(2))
	}
	if filter.MaxCartTotal != nil {
		query = query.Where("cart_total <= ?", filter.MaxCartTotal.Round(2))
	}
	if filter.AbandonedFrom != nil {
		query = query.Where("abandoned_at >= ?", filter.AbandonedFrom.UTC())
	}
	if filter.AbandonedTo != nil {
		query = query.Where("abandoned_at <= ?", filter.AbandonedTo.UTC())
	}

	query, total, err := countAndPaginate(query, filter.Page, filter.PageSize)
	if err != nil {
		return nil, 0, err
	}
	var records []models.AbandonedCart
	if err := query.Order("abandoned_at desc").Order("id desc").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListDueForSlot 查询已发送 remindersSent 封提醒、参考时间不晚于 referenceBefore 的未挽回记录
// 参考时间：首封提醒取 abandoned_at，之后取 last_reminder_sent
func (r *GormAbandonedCartRepository) ListDueForSlot(remindersSent int, referenceBefore time.Time, limit int) ([]models.AbandonedCart, error) {
	query := r.db.Model(&models.AbandonedCart{}).
		Where("is_recovered = ? AND reminders_sent = ?", false, remindersSent)
	if remindersSent == 0 {
		query = query.Where("abandoned_at <= ?", referenceBefore.UTC())
	} else {
		query = query.Where("last_reminder_sent IS NOT NULL AND last_reminder_sent <= ?", referenceBefore.UTC())
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []models.AbandonedCart
	if err := query.Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ClaimRecovered 以条件更新占用挽回，返回是否由本次调用完成
func (r *GormAbandonedCartRepository) ClaimRecovered(id uint, recoveredAt time.Time, channel string) (bool, error) {
	result := r.db.Model(&models.AbandonedCart{}).
		Where("id = ? AND is_recovered = ?", id, false).
		Updates(map[string]interface{}{
			"is_recovered":     true,
			"recovered_at":     recoveredAt.UTC(),
			"recovery_channel": channel,
			"updated_at":       recoveredAt.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IncrementReminder 提醒计数 +1，仅当当前计数等于 expectedSent 且记录未挽回时生效
func (r *GormAbandonedCartRepository) IncrementReminder(id uint, expectedSent int, sentAt time.Time) (bool, error) {
	result := r.db.Model(&models.AbandonedCart{}).
		Where("id = ? AND reminders_sent = ? AND is_recovered = ?", id, expectedSent, false).
		Updates(map[string]interface{}{
			"reminders_sent":     gorm.Expr("reminders_sent + 1"),
			"last_reminder_sent": sentAt.UTC(),
			"updated_at":         sentAt.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetConversion 记录挽回后的下单结果，仅对已挽回记录生效
func (r *GormAbandonedCartRepository) SetConversion(id uint, orderID *uint) (bool, error) {
	result := r.db.Model(&models.AbandonedCart{}).
		Where("id = ? AND is_recovered = ?", id, true).
		Updates(map[string]interface{}{
			"order_created": true,
			"order_id":      orderID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GetStatsRow 聚合 abandoned_at 落在 [startAt, endAt] 内的记录
// 时间边界按 UTC 比较，与写入时的归一化一致
func (r *GormAbandonedCartRepository) GetStatsRow(startAt, endAt time.Time) (AbandonedCartStatsRow, error) {
	var scanned abandonedCartStatsScan
	err := r.db.Model(&models.AbandonedCart{}).
		Select(`COUNT(*) AS total_abandoned,
			COALESCE(SUM(CASE WHEN is_recovered = ? THEN 1 ELSE 0 END), 0) AS recovered,
			COALESCE(SUM(CASE WHEN is_recovered = ? AND order_created = ? THEN 1 ELSE 0 END), 0) AS orders_created,
			COALESCE(SUM(cart_total), 0) AS total_value,
			COALESCE(SUM(CASE WHEN is_recovered = ? THEN cart_total ELSE 0 END), 0) AS recovered_value`,
			true, true, true, true).
		Where("abandoned_at >= ? AND abandoned_at <= ?", startAt.UTC(), endAt.UTC()).
		Scan(&scanned).Error
	if err != nil {
		return AbandonedCartStatsRow{}, err
	}

	row := AbandonedCartStatsRow{
		TotalAbandoned: scanned.TotalAbandoned,
		Recovered:      scanned.Recovered,
		OrdersCreated:  scanned.OrdersCreated,
	}
	if row.TotalValue, err = parseAggregateDecimal(scanned.TotalValue.String, scanned.TotalValue.Valid); err != nil {
		return AbandonedCartStatsRow{}, err
	}
	if row.RecoveredValue, err = parseAggregateDecimal(scanned.RecoveredValue.String, scanned.RecoveredValue.Valid); err != nil {
		return AbandonedCartStatsRow{}, err
	}
	return row, nil
}

// DeleteAbandonedBefore 删除 abandoned_at 早于 cutoff 的记录（不区分状态）
func (r *GormAbandonedCartRepository) DeleteAbandonedBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("abandoned_at < ?", cutoff.UTC()).Delete(&models.AbandonedCart{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func parseAggregateDecimal(raw string, valid bool) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if !valid || raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse aggregate amount %q: %w", raw, err)
	}
	return value.Round(2), nil
}
