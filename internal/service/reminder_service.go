package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cartrecovery/internal/cache"
	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/logger"
	"github.com/cartrecovery/internal/mailer"
	"github.com/cartrecovery/internal/models"
	"github.com/cartrecovery/internal/queue"
	"github.com/cartrecovery/internal/repository"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	reminderLockTTL      = 2 * time.Minute
	reminderDueBatchSize = 500
)

// ReminderResult 单条提醒的处理结果
type ReminderResult struct {
	AbandonedCartID uint   `json:"abandoned_cart_id"`
	Status          string `json:"status"`
	Reason          string `json:"reason,omitempty"`
	Slot            int    `json:"slot,omitempty"`
}

// ReminderBatchSummary 批量提醒汇总，单条失败不影响其它记录
type ReminderBatchSummary struct {
	Due      int      `json:"due"`
	Sent     int      `json:"sent"`
	Skipped  int      `json:"skipped"`
	Enqueued int      `json:"enqueued"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// DueReminder 到期待发送的提醒
type DueReminder struct {
	AbandonedCartID uint
	Slot            int
}

// ReminderService 挽回提醒活动
type ReminderService struct {
	setting     RecoverySetting
	abandonRepo repository.AbandonedCartRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	sender      mailer.Sender
	renderer    *ReminderRenderer
	queueClient *queue.Client
	limiter     *rate.Limiter
	now         func() time.Time
}

// NewReminderService 创建提醒服务，queueClient 可为空（同步发送）
func NewReminderService(
	setting RecoverySetting,
	abandonRepo repository.AbandonedCartRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	sender mailer.Sender,
	queueClient *queue.Client,
) *ReminderService {
	burst := int(setting.SendRatePerSecond)
	if burst < 1 {
		burst = 1
	}
	return &ReminderService{
		setting:     setting,
		abandonRepo: abandonRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		sender:      sender,
		renderer:    NewReminderRenderer(),
		queueClient: queueClient,
		limiter:     rate.NewLimiter(rate.Limit(setting.SendRatePerSecond), burst),
		now:         models.NowUTC,
	}
}

func skippedReminder(id uint, reason string, slot int) *ReminderResult {
	return &ReminderResult{AbandonedCartID: id, Status: constants.ReminderStatusSkipped, Reason: reason, Slot: slot}
}

// SendNextReminder 发送下一封提醒（管理端手动触发）
// 依次校验：记录存在、未挽回、未达到上限；发送成功后才增加计数
func (s *ReminderService) SendNextReminder(ctx context.Context, abandonedCartID uint) (*ReminderResult, error) {
	return s.sendReminder(ctx, abandonedCartID, 0)
}

// SendReminderSlot 发送指定序号的提醒，记录的下一封已不是该序号时跳过
// 用于到期扫描与队列任务：任务入队后计数可能已被手动发送推进
func (s *ReminderService) SendReminderSlot(ctx context.Context, abandonedCartID uint, slot int) (*ReminderResult, error) {
	if slot < 1 {
		return nil, fmt.Errorf("%w: reminder slot %d", ErrReminderSlotInvalid, slot)
	}
	return s.sendReminder(ctx, abandonedCartID, slot)
}

// sendReminder expectedSlot 为 0 时发送下一封
func (s *ReminderService) sendReminder(ctx context.Context, abandonedCartID uint, expectedSlot int) (*ReminderResult, error) {
	record, err := s.abandonRepo.GetByID(abandonedCartID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	if record == nil {
		return skippedReminder(abandonedCartID, constants.ReminderSkipNotFound, 0), nil
	}
	if record.IsRecovered {
		return skippedReminder(record.ID, constants.ReminderSkipRecovered, 0), nil
	}
	if record.RemindersSent >= s.setting.MaxReminders {
		return skippedReminder(record.ID, constants.ReminderSkipExhausted, 0), nil
	}
	slot := record.RemindersSent + 1
	if expectedSlot > 0 && expectedSlot != slot {
		logger.Debugw("reminder_slot_stale",
			"abandoned_cart_id", record.ID,
			"expected_slot", expectedSlot,
			"next_slot", slot,
		)
		return skippedReminder(record.ID, constants.ReminderSkipStaleSlot, expectedSlot), nil
	}

	lock, acquired, err := cache.AcquireLock(ctx, cache.ReminderLockKey(record.ID, slot), reminderLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	if !acquired {
		return skippedReminder(record.ID, constants.ReminderSkipInProgress, slot), nil
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			logger.Warnw("reminder_lock_release_failed", "abandoned_cart_id", record.ID, "slot", slot, "error", err)
		}
	}()

	message, err := s.buildMessage(record, slot)
	if err != nil {
		return nil, err
	}
	if err := s.sender.Send(ctx, *message); err != nil {
		logger.Warnw("reminder_send_failed",
			"abandoned_cart_id", record.ID,
			"slot", slot,
			"email", logger.MaskEmail(record.Email),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrMailSendFailed, err)
	}

	updated, err := s.abandonRepo.IncrementReminder(record.ID, record.RemindersSent, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	if !updated {
		// 发送期间记录被挽回或被其它 worker 计数，邮件已发出但不再计数
		logger.Warnw("reminder_counter_not_updated", "abandoned_cart_id", record.ID, "slot", slot)
	}
	logger.Infow("reminder_sent",
		"abandoned_cart_id", record.ID,
		"slot", slot,
		"final", slot == s.setting.MaxReminders,
		"driver", s.sender.Driver(),
	)
	return &ReminderResult{AbandonedCartID: record.ID, Status: constants.ReminderStatusSent, Slot: slot}, nil
}

func (s *ReminderService) buildMessage(record *models.AbandonedCart, slot int) (*mailer.Message, error) {
	items, err := s.loadReminderItems(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	recoveryURL, err := BuildRecoveryURL(s.setting.RecoveryBaseURL, record.RecoveryToken)
	if err != nil {
		return nil, err
	}
	finalSlot := slot == s.setting.MaxReminders
	content := ReminderContent{
		Locale:      record.Locale,
		Slot:        slot,
		FinalSlot:   finalSlot,
		ItemCount:   record.ItemCount,
		CartTotal:   record.CartTotal.StringFixed(2),
		Items:       items,
		RecoveryURL: recoveryURL,
		ExpiresAt:   record.TokenExpiresAt.UTC().Format("2006-01-02 15:04 UTC"),
	}
	if record.DisplayName != nil {
		content.Name = *record.DisplayName
	}
	if finalSlot && s.setting.HasDiscount() {
		content.DiscountCode = s.setting.DiscountCode
		content.DiscountPercent = strconv.FormatFloat(s.setting.DiscountPercent, 'f', -1, 64)
	}
	rendered, err := s.renderer.Render(content)
	if err != nil {
		return nil, err
	}
	return &mailer.Message{
		To:      record.Email,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	}, nil
}

// loadReminderItems 读取原购物车当前的商品，购物车已删除时返回空列表
func (s *ReminderService) loadReminderItems(record *models.AbandonedCart) ([]ReminderItem, error) {
	cartItems, err := s.cartRepo.ListItems(record.CartID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, nil
	}
	productIDs := make([]uint, 0, len(cartItems))
	skuIDs := make([]uint, 0, len(cartItems))
	for _, item := range cartItems {
		productIDs = append(productIDs, item.ProductID)
		if item.SKUID > 0 {
			skuIDs = append(skuIDs, item.SKUID)
		}
	}
	products, err := s.productRepo.ListByIDs(productIDs)
	if err != nil {
		return nil, err
	}
	titles := make(map[uint]string, len(products))
	for _, product := range products {
		titles[product.ID] = product.TitleJSON.LocalizedText(record.Locale)
	}
	skuCodes := make(map[uint]string, len(skuIDs))
	if len(skuIDs) > 0 {
		skus, err := s.productRepo.ListSKUsByIDs(skuIDs)
		if err != nil {
			return nil, err
		}
		for _, sku := range skus {
			skuCodes[sku.ID] = sku.SKUCode
		}
	}

	items := make([]ReminderItem, 0, len(cartItems))
	for _, item := range cartItems {
		title := titles[item.ProductID]
		if title == "" {
			title = "#" + strconv.FormatUint(uint64(item.ProductID), 10)
		}
		if code := skuCodes[item.SKUID]; code != "" {
			title = title + " (" + code + ")"
		}
		items = append(items, ReminderItem{
			Title:     title,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal().StringFixed(2),
		})
	}
	return items, nil
}

// BuildRecoveryURL 拼接挽回链接
func BuildRecoveryURL(baseURL, token string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: recovery_base_url %v", ErrRecoverySettingInvalid, err)
	}
	query := parsed.Query()
	query.Set("token", token)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// ListDue 列出到期的提醒
// 第 n+1 封在参考时间 + ReminderIntervalsHours[n] 之后到期
func (s *ReminderService) ListDue(ctx context.Context, now time.Time) ([]DueReminder, error) {
	due := make([]DueReminder, 0)
	for sent := 0; sent < s.setting.MaxReminders; sent++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slot := sent + 1
		referenceBefore := now.Add(-time.Duration(s.setting.IntervalHours(slot)) * time.Hour)
		records, err := s.abandonRepo.ListDueForSlot(sent, referenceBefore, reminderDueBatchSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
		}
		for _, record := range records {
			due = append(due, DueReminder{AbandonedCartID: record.ID, Slot: slot})
		}
	}
	return due, nil
}

// SendDueReminders 发送所有到期提醒
// 队列启用时只入队，由队列消费者调用 SendReminderSlot
func (s *ReminderService) SendDueReminders(ctx context.Context) (ReminderBatchSummary, error) {
	due, err := s.ListDue(ctx, s.now())
	if err != nil {
		return ReminderBatchSummary{}, err
	}
	summary := ReminderBatchSummary{Due: len(due)}
	if len(due) == 0 {
		return summary, nil
	}
	if s.queueClient != nil && s.queueClient.Enabled() {
		s.enqueueDue(due, &summary)
		return summary, nil
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.setting.ReminderWorkers)
	for _, item := range due {
		item := item
		group.Go(func() error {
			var result *ReminderResult
			err := s.limiter.Wait(groupCtx)
			if err == nil {
				result, err = s.SendReminderSlot(groupCtx, item.AbandonedCartID, item.Slot)
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				summary.Errors = append(summary.Errors, fmt.Sprintf("abandoned cart %d: %v", item.AbandonedCartID, err))
			case result.Status == constants.ReminderStatusSent:
				summary.Sent++
			default:
				summary.Skipped++
			}
			return nil
		})
	}
	_ = group.Wait()
	logger.Infow("reminder_batch_finished",
		"due", summary.Due,
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (s *ReminderService) enqueueDue(due []DueReminder, summary *ReminderBatchSummary) {
	for _, item := range due {
		enqueued, err := s.queueClient.EnqueueReminderSend(queue.ReminderSendPayload{
			AbandonedCartID: item.AbandonedCartID,
			Slot:            item.Slot,
		})
		switch {
		case err != nil:
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("abandoned cart %d: %v", item.AbandonedCartID, err))
		case enqueued:
			summary.Enqueued++
		default:
			summary.Skipped++
		}
	}
	logger.Infow("reminder_batch_enqueued", "due", summary.Due, "enqueued", summary.Enqueued, "failed", summary.Failed)
}

// IsReminderRetryable 判断队列任务失败后是否需要重试
func IsReminderRetryable(err error) bool {
	return errors.Is(err, ErrMailSendFailed) || errors.Is(err, ErrDependencyFailure)
}
