package worker

import (
	"context"
	"fmt"

	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/logger"
	"github.com/cartrecovery/internal/provider"
	"github.com/cartrecovery/internal/queue"
	"github.com/cartrecovery/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskReminderSend, c.handleReminderSend)
}

// handleReminderSend 消费提醒发送任务
// 邮件通道或数据库失败交给 asynq 重试，其它错误直接丢弃
func (c *Consumer) handleReminderSend(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || c.ReminderService == nil {
		logger.Warnw("worker_reminder_send_skip_service_nil")
		return nil
	}
	payload, err := queue.ParseReminderSendPayload(task)
	if err != nil {
		logger.Warnw("worker_reminder_send_payload_invalid", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	result, err := c.ReminderService.SendReminderSlot(ctx, payload.AbandonedCartID, payload.Slot)
	if err != nil {
		if service.IsReminderRetryable(err) {
			logger.Warnw("worker_reminder_send_failed",
				"abandoned_cart_id", payload.AbandonedCartID,
				"slot", payload.Slot,
				"error", err,
			)
			return err
		}
		logger.Errorw("worker_reminder_send_dropped",
			"abandoned_cart_id", payload.AbandonedCartID,
			"slot", payload.Slot,
			"error", err,
		)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if result.Status == constants.ReminderStatusSkipped {
		// 入队后计数已被推进（手动触发或重复扫描）时按 stale_slot 跳过
		logger.Debugw("worker_reminder_send_skipped",
			"abandoned_cart_id", payload.AbandonedCartID,
			"slot", payload.Slot,
			"reason", result.Reason,
		)
	}
	return nil
}
