package shared

import (
	"strconv"
	"strings"
	"time"
)

// ParseUintParam 解析正整数路径参数。
func ParseUintParam(raw string) (uint, bool) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}

// ParseTimeParam 解析时间查询参数，支持 RFC3339 与 2006-01-02。
// 仅有日期且 endOfDay 为 true 时取次日零点前 1 纳秒，结果统一为 UTC。
func ParseTimeParam(raw string, endOfDay bool) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		parsed = parsed.UTC()
		return &parsed, true
	}
	parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return nil, false
	}
	if endOfDay {
		parsed = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &parsed, true
}
