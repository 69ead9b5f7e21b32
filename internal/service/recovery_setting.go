package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cartrecovery/internal/config"
	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var recoverySettingValidator = validator.New()

// RecoverySetting 挽回策略配置（启动时加载并校验一次，之后只读）
// ReminderIntervalsHours[i] 为第 i+1 封提醒的等待时长：
// 第 1 封从 abandoned_at 起算，之后从上一封发送时间起算
type RecoverySetting struct {
	AbandonmentThresholdHours int             `json:"abandonment_threshold_hours" validate:"min=1,max=8760"`
	MinCartValue              decimal.Decimal `json:"min_cart_value" validate:"-"`
	TokenValidityDays         int             `json:"token_validity_days" validate:"min=1,max=365"`
	MaxReminders              int             `json:"max_reminders" validate:"min=1,max=10"`
	ReminderIntervalsHours    []int           `json:"reminder_intervals_hours" validate:"required,dive,min=1"`
	DiscountCode              string          `json:"discount_code" validate:"max=64"`
	DiscountPercent           float64         `json:"discount_percent" validate:"min=0,max=100"`
	RetentionDays             int             `json:"retention_days" validate:"min=1"`
	RecoveryBaseURL           string          `json:"recovery_base_url" validate:"required,url"`
	DetectWorkers             int             `json:"detect_workers" validate:"min=1,max=64"`
	ReminderWorkers           int             `json:"reminder_workers" validate:"min=1,max=64"`
	SendRatePerSecond         float64         `json:"send_rate_per_second" validate:"gt=0"`
}

// RecoveryDefaultSetting 根据静态配置生成挽回策略，金额无法解析时返回错误
func RecoveryDefaultSetting(cfg config.RecoveryConfig) (RecoverySetting, error) {
	minValue, err := decimal.NewFromString(strings.TrimSpace(cfg.MinCartValue))
	if err != nil {
		return RecoverySetting{}, fmt.Errorf("%w: min_cart_value %q 不是合法金额", ErrRecoverySettingInvalid, cfg.MinCartValue)
	}
	intervals := make([]int, len(cfg.ReminderIntervalsHours))
	copy(intervals, cfg.ReminderIntervalsHours)
	return NormalizeRecoverySetting(RecoverySetting{
		AbandonmentThresholdHours: cfg.AbandonmentThresholdHours,
		MinCartValue:              minValue,
		TokenValidityDays:         cfg.TokenValidityDays,
		MaxReminders:              cfg.MaxReminders,
		ReminderIntervalsHours:    intervals,
		DiscountCode:              cfg.DiscountCode,
		DiscountPercent:           cfg.DiscountPercent,
		RetentionDays:             cfg.RetentionDays,
		RecoveryBaseURL:           cfg.RecoveryBaseURL,
		DetectWorkers:             cfg.DetectWorkers,
		ReminderWorkers:           cfg.ReminderWorkers,
		SendRatePerSecond:         cfg.SendRatePerSecond,
	}), nil
}

// NormalizeRecoverySetting 归一化字符串与金额，补齐并发参数默认值
// 业务阈值不做静默修正，非法值留给 ValidateRecoverySetting 拒绝
func NormalizeRecoverySetting(setting RecoverySetting) RecoverySetting {
	setting.DiscountCode = strings.TrimSpace(setting.DiscountCode)
	setting.RecoveryBaseURL = strings.TrimSpace(setting.RecoveryBaseURL)
	setting.MinCartValue = setting.MinCartValue.Round(2)
	if setting.RetentionDays == 0 {
		setting.RetentionDays = constants.DefaultRetentionDays
	}
	if setting.DetectWorkers <= 0 {
		setting.DetectWorkers = 4
	}
	if setting.ReminderWorkers <= 0 {
		setting.ReminderWorkers = 4
	}
	if setting.SendRatePerSecond <= 0 {
		setting.SendRatePerSecond = 10
	}
	return setting
}

// ValidateRecoverySetting 校验挽回策略
func ValidateRecoverySetting(setting RecoverySetting) error {
	if err := recoverySettingValidator.Struct(setting); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok && len(fieldErrors) > 0 {
			first := fieldErrors[0]
			return fmt.Errorf("%w: 字段 %s 不满足 %s=%s", ErrRecoverySettingInvalid, first.Field(), first.Tag(), first.Param())
		}
		return fmt.Errorf("%w: %v", ErrRecoverySettingInvalid, err)
	}
	if setting.MinCartValue.IsNegative() {
		return fmt.Errorf("%w: 最小购物车金额不能为负数", ErrRecoverySettingInvalid)
	}
	if len(setting.ReminderIntervalsHours) != setting.MaxReminders {
		return fmt.Errorf("%w: 提醒间隔数量(%d)必须等于提醒次数(%d)", ErrRecoverySettingInvalid, len(setting.ReminderIntervalsHours), setting.MaxReminders)
	}
	if setting.DiscountPercent > 0 && setting.DiscountCode == "" {
		return fmt.Errorf("%w: 设置折扣比例时必须提供折扣码", ErrRecoverySettingInvalid)
	}
	return nil
}

// HasDiscount 末封提醒是否附带折扣
func (s RecoverySetting) HasDiscount() bool {
	return s.DiscountCode != ""
}

// IntervalHours 返回第 slot 封提醒（1 起）的等待小时数
func (s RecoverySetting) IntervalHours(slot int) int {
	if slot < 1 || slot > len(s.ReminderIntervalsHours) {
		return 0
	}
	return s.ReminderIntervalsHours[slot-1]
}

// RecoverySettingToMap 转换为 settings 表结构
func RecoverySettingToMap(setting RecoverySetting) map[string]interface{} {
	normalized := NormalizeRecoverySetting(setting)
	intervals := make([]interface{}, 0, len(normalized.ReminderIntervalsHours))
	for _, hours := range normalized.ReminderIntervalsHours {
		intervals = append(intervals, hours)
	}
	return map[string]interface{}{
		"abandonment_threshold_hours": normalized.AbandonmentThresholdHours,
		"min_cart_value":              normalized.MinCartValue.StringFixed(2),
		"token_validity_days":         normalized.TokenValidityDays,
		"max_reminders":               normalized.MaxReminders,
		"reminder_intervals_hours":    intervals,
		"discount_code":               normalized.DiscountCode,
		"discount_percent":            normalized.DiscountPercent,
		"retention_days":              normalized.RetentionDays,
		"recovery_base_url":           normalized.RecoveryBaseURL,
		"detect_workers":              normalized.DetectWorkers,
		"reminder_workers":            normalized.ReminderWorkers,
		"send_rate_per_second":        normalized.SendRatePerSecond,
	}
}

// recoverySettingFromJSON 以 fallback 为底，覆盖 settings 表中存在的字段
// 字段类型不符时整体拒绝，不保留旧值
func recoverySettingFromJSON(raw models.JSON, fallback RecoverySetting) (RecoverySetting, error) {
	next := fallback
	if raw == nil {
		return next, nil
	}
	r := settingReader{source: raw}
	r.readInt("abandonment_threshold_hours", &next.AbandonmentThresholdHours)
	r.readDecimal("min_cart_value", &next.MinCartValue)
	r.readInt("token_validity_days", &next.TokenValidityDays)
	r.readInt("max_reminders", &next.MaxReminders)
	r.readIntSlice("reminder_intervals_hours", &next.ReminderIntervalsHours)
	r.readString("discount_code", &next.DiscountCode)
	r.readFloat("discount_percent", &next.DiscountPercent)
	r.readInt("retention_days", &next.RetentionDays)
	r.readString("recovery_base_url", &next.RecoveryBaseURL)
	r.readInt("detect_workers", &next.DetectWorkers)
	r.readInt("reminder_workers", &next.ReminderWorkers)
	r.readFloat("send_rate_per_second", &next.SendRatePerSecond)
	if r.err != nil {
		return RecoverySetting{}, r.err
	}
	return next, nil
}

// settingReader 按字段读取 settings JSON，记录第一个类型错误
type settingReader struct {
	source map[string]interface{}
	err    error
}

func (r *settingReader) lookup(key string) (interface{}, bool) {
	if r.err != nil {
		return nil, false
	}
	value, ok := r.source[key]
	return value, ok
}

func (r *settingReader) fail(key string, value interface{}) {
	r.err = fmt.Errorf("%w: 字段 %s 的值 %v 类型不正确", ErrRecoverySettingInvalid, key, value)
}

func (r *settingReader) readString(key string, dest *string) {
	value, ok := r.lookup(key)
	if !ok {
		return
	}
	text, ok := value.(string)
	if !ok {
		r.fail(key, value)
		return
	}
	*dest = strings.TrimSpace(text)
}

func (r *settingReader) readInt(key string, dest *int) {
	value, ok := r.lookup(key)
	if !ok {
		return
	}
	parsed, err := parseSettingInt(value)
	if err != nil {
		r.fail(key, value)
		return
	}
	*dest = parsed
}

func (r *settingReader) readFloat(key string, dest *float64) {
	value, ok := r.lookup(key)
	if !ok {
		return
	}
	switch v := value.(type) {
	case float64:
		*dest = v
	case float32:
		*dest = float64(v)
	case int:
		*dest = float64(v)
	case int64:
		*dest = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			r.fail(key, value)
			return
		}
		*dest = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			r.fail(key, value)
			return
		}
		*dest = f
	default:
		r.fail(key, value)
	}
}

func (r *settingReader) readDecimal(key string, dest *decimal.Decimal) {
	value, ok := r.lookup(key)
	if !ok {
		return
	}
	switch v := value.(type) {
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			r.fail(key, value)
			return
		}
		*dest = parsed
	case float64:
		*dest = decimal.NewFromFloat(v)
	case int:
		*dest = decimal.NewFromInt(int64(v))
	case json.Number:
		parsed, err := decimal.NewFromString(v.String())
		if err != nil {
			r.fail(key, value)
			return
		}
		*dest = parsed
	default:
		r.fail(key, value)
	}
}

func (r *settingReader) readIntSlice(key string, dest *[]int) {
	value, ok := r.lookup(key)
	if !ok {
		return
	}
	switch v := value.(type) {
	case []int:
		*dest = append([]int(nil), v...)
	case []interface{}:
		result := make([]int, 0, len(v))
		for _, item := range v {
			parsed, err := parseSettingInt(item)
			if err != nil {
				r.fail(key, value)
				return
			}
			result = append(result, parsed)
		}
		*dest = result
	default:
		r.fail(key, value)
	}
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("invalid json number")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}
