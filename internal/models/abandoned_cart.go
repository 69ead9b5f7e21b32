package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/cartrecovery/internal/constants"

	"gorm.io/gorm"
)

// AbandonedCart 弃购记录
// 检测时对购物车做一次快照；cart_id 不建外键，原购物车被删除后记录仍保留
// 同一购物车最多一条未挽回记录（部分唯一索引 idx_abandoned_open_cart）
type AbandonedCart struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                                                         // 主键
	CartID           uint       `gorm:"not null;index;uniqueIndex:idx_abandoned_open_cart,where:is_recovered = false" json:"cart_id"` // 购物车ID
	UserID           *uint      `gorm:"index" json:"user_id"`                                                                         // 检测时的购物车所有者
	Email            string     `gorm:"type:varchar(255);not null;index" json:"email"`                                                // 收件邮箱快照
	DisplayName      *string    `gorm:"type:varchar(255)" json:"display_name"`                                                        // 称呼快照
	Locale           string     `gorm:"type:varchar(16);default:''" json:"locale"`                                                    // 语言快照
	ItemCount        int        `gorm:"not null;default:0" json:"item_count"`                                                         // 商品件数快照
	CartTotal        Money      `gorm:"type:decimal(20,2);not null;default:0" json:"cart_total"`                                      // 购物车金额快照
	RemindersSent    int        `gorm:"not null;default:0" json:"reminders_sent"`                                                     // 已发送提醒数
	LastReminderSent *time.Time `json:"last_reminder_sent"`                                                                           // 最近一次提醒时间
	IsRecovered      bool       `gorm:"not null;default:false;index" json:"is_recovered"`                                             // 是否已挽回
	RecoveredAt      *time.Time `gorm:"index" json:"recovered_at"`                                                                    // 挽回时间
	OrderCreated     *bool      `json:"order_created"`                                                                                // 挽回后是否下单
	OrderID          *uint      `gorm:"index" json:"order_id"`                                                                        // 下游订单ID
	RecoveryChannel  *string    `gorm:"type:varchar(32)" json:"recovery_channel"`                                                     // 挽回渠道
	RecoveryToken    string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`                                               // 挽回令牌（单次有效）
	TokenExpiresAt   time.Time  `gorm:"not null" json:"token_expires_at"`                                                             // 令牌过期时间
	AbandonedAt      time.Time  `gorm:"not null;index" json:"abandoned_at"`                                                           // 判定弃购时间
	CreatedAt        time.Time  `json:"created_at"`                                                                                   // 创建时间
	UpdatedAt        time.Time  `json:"updated_at"`                                                                                   // 更新时间
}

// TableName 指定表名
func (AbandonedCart) TableName() string {
	return "abandoned_carts"
}

// BeforeSave 时间字段统一转为 UTC
func (a *AbandonedCart) BeforeSave(_ *gorm.DB) error {
	a.TokenExpiresAt = a.TokenExpiresAt.UTC()
	a.AbandonedAt = a.AbandonedAt.UTC()
	a.LastReminderSent = utcPtr(a.LastReminderSent)
	a.RecoveredAt = utcPtr(a.RecoveredAt)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return nil
}

// ErrAbandonedCartInvariant 弃购记录字段组合非法
var ErrAbandonedCartInvariant = errors.New("abandoned cart invariant violated")

// State 推导记录当前状态（pending / reminded / recovered），已清理的记录不再存在
func (a *AbandonedCart) State() string {
	if a.IsRecovered {
		return constants.AbandonedStatusRecovered
	}
	if a.RemindersSent > 0 {
		return constants.AbandonedStatusReminded
	}
	return constants.AbandonedStatusPending
}

// IsConverted 挽回后是否已经下单
func (a *AbandonedCart) IsConverted() bool {
	return a.IsRecovered && a.OrderCreated != nil && *a.OrderCreated
}

// IsTokenExpired 令牌在 now 时刻是否已过期（严格晚于过期时间才算过期）
func (a *AbandonedCart) IsTokenExpired(now time.Time) bool {
	return now.After(a.TokenExpiresAt)
}

// CheckInvariants 校验字段组合，maxReminders 为当前配置的提醒上限
func (a *AbandonedCart) CheckInvariants(maxReminders int) error {
	if a.RemindersSent < 0 || (maxReminders > 0 && a.RemindersSent > maxReminders) {
		return fmt.Errorf("%w: reminders_sent=%d max=%d", ErrAbandonedCartInvariant, a.RemindersSent, maxReminders)
	}
	if a.IsRecovered != (a.RecoveredAt != nil) {
		return fmt.Errorf("%w: is_recovered=%t recovered_at_set=%t", ErrAbandonedCartInvariant, a.IsRecovered, a.RecoveredAt != nil)
	}
	if !a.IsRecovered && (a.OrderID != nil || (a.OrderCreated != nil && *a.OrderCreated)) {
		return fmt.Errorf("%w: conversion recorded on open record", ErrAbandonedCartInvariant)
	}
	if !a.TokenExpiresAt.After(a.AbandonedAt) {
		return fmt.Errorf("%w: token_expires_at must be after abandoned_at", ErrAbandonedCartInvariant)
	}
	if a.RemindersSent > 0 && a.LastReminderSent == nil {
		return fmt.Errorf("%w: last_reminder_sent missing", ErrAbandonedCartInvariant)
	}
	return nil
}
