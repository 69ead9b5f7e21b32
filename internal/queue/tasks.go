package queue

import (
	"encoding/json"
	"fmt"

	"github.com/cartrecovery/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskReminderSend 挽回提醒发送任务
	TaskReminderSend = constants.TaskReminderSend
)

// ReminderSendPayload 提醒发送任务载荷
// Slot 为入队时预期发送的序号，消费时计数已推进则跳过
type ReminderSendPayload struct {
	AbandonedCartID uint `json:"abandoned_cart_id"`
	Slot            int  `json:"slot"`
}

// ReminderTaskID 同一记录同一序号只入队一次
func ReminderTaskID(abandonedCartID uint, slot int) string {
	return fmt.Sprintf("reminder:%d:%d", abandonedCartID, slot)
}

// NewReminderSendTask 创建提醒发送任务
func NewReminderSendTask(payload ReminderSendPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReminderSend, body), nil
}

// ParseReminderSendPayload 解析提醒发送任务载荷
func ParseReminderSendPayload(task *asynq.Task) (ReminderSendPayload, error) {
	var payload ReminderSendPayload
	if task == nil {
		return payload, fmt.Errorf("empty task")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	if payload.AbandonedCartID == 0 {
		return payload, fmt.Errorf("invalid abandoned_cart_id")
	}
	if payload.Slot < 1 {
		return payload, fmt.Errorf("invalid slot")
	}
	return payload, nil
}
