package service

import "errors"

// 挽回流程错误
var (
	ErrAbandonedCartNotFound     = errors.New("abandoned cart not found")
	ErrAbandonedCartNotRecovered = errors.New("abandoned cart not recovered")
)

// 参数校验错误
var (
	ErrRecoverySettingInvalid = errors.New("recovery setting invalid")
	ErrRetentionDaysInvalid   = errors.New("retention days must be positive")
	ErrStatsRangeInvalid      = errors.New("stats range invalid")
	ErrInvalidOrderID         = errors.New("order id invalid")
	ErrInvalidListFilter      = errors.New("list filter invalid")
	ErrReminderSlotInvalid    = errors.New("reminder slot invalid")
)

// 依赖错误（数据库、邮件通道、队列）
var (
	ErrDependencyFailure = errors.New("dependency failure")
	ErrMailSendFailed    = errors.New("mail send failed")
)

// 认证错误
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)
