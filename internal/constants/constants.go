package constants

// 挽回记录状态常量
const (
	AbandonedStatusPending   = "pending"
	AbandonedStatusReminded  = "reminded"
	AbandonedStatusRecovered = "recovered"
	// 仅用于列表筛选：尚未挽回（pending + reminded）
	AbandonedStatusOpen = "open"
	// 仅用于列表筛选：已挽回且已下单
	AbandonedStatusConverted = "converted"
)

// 挽回渠道常量
const (
	RecoveryChannelLink = "recovery_link"
)

// 挽回结果常量
const (
	RecoveryOutcomeRecovered        = "recovered"
	RecoveryOutcomeInvalidToken     = "invalid_token"
	RecoveryOutcomeExpired          = "expired"
	RecoveryOutcomeAlreadyRecovered = "already_recovered"

	// 仅用于只读校验：令牌有效
	RecoveryOutcomeValid = "valid"
)

// 提醒发送结果常量
const (
	ReminderStatusSent    = "sent"
	ReminderStatusSkipped = "skipped"

	ReminderSkipNotFound   = "not_found"
	ReminderSkipRecovered  = "recovered"
	ReminderSkipExhausted  = "exhausted"
	ReminderSkipInProgress = "in_progress"
	ReminderSkipStaleSlot  = "stale_slot"
)

// 购物车常量
const (
	CartItemMaxQuantity = 999
)

// 邮件驱动常量
const (
	MailDriverSMTP     = "smtp"
	MailDriverSES      = "ses"
	MailDriverSendGrid = "sendgrid"
	MailDriverLog      = "log"
)

// 队列名称与任务类型
const (
	QueueDefault = "default"

	TaskReminderSend = "recovery:reminder_send"
)

// 设置键
const (
	SettingKeyRecoveryConfig = "recovery_config"
)

// 默认值
const (
	DefaultRetentionDays = 90
)
