package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cartrecovery/internal/http/response"
	"github.com/cartrecovery/internal/i18n"
	"github.com/cartrecovery/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
}

// 首次计数时设置窗口过期，返回 {当前计数, 剩余秒数}
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) buildKey(raw string) string {
	if r.Prefix == "" {
		return raw
	}
	return fmt.Sprintf("%s:%s", r.Prefix, raw)
}

// hit 计数一次，返回是否超限以及需要等待的秒数
func (r RateLimitRule) hit(ctx context.Context, client *redis.Client, key string) (bool, int, error) {
	result, err := rateLimitScript.Run(ctx, client, []string{key}, r.WindowSeconds).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(result) < 2 {
		return false, 0, fmt.Errorf("unexpected rate limit reply: %v", result)
	}
	if result[0] <= int64(r.MaxRequests) {
		return false, 0, nil
	}
	wait := int(result[1])
	if wait < 1 {
		wait = r.WindowSeconds
	}
	return true, wait, nil
}

// RateLimitMiddleware Redis 频率限制中间件，未启用 Redis 时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	msgKey := strings.TrimSpace(rule.MessageKey)
	if msgKey == "" {
		msgKey = "error.rate_limited"
	}
	return func(c *gin.Context) {
		if client == nil || !rule.enabled() {
			c.Next()
			return
		}
		raw := ""
		if keyFunc != nil {
			raw = strings.TrimSpace(keyFunc(c))
		}
		if raw == "" {
			raw = c.ClientIP()
		}

		limited, wait, err := rule.hit(c.Request.Context(), client, rule.buildKey(raw))
		if err != nil {
			logger.Warnw("rate_limit_eval_failed", "prefix", rule.Prefix, "error", err)
			response.Error(c, response.CodeInternal, i18n.T(i18n.ResolveLocale(c), "error.rate_limit_unavailable"))
			c.Abort()
			return
		}
		if limited {
			response.TooManyRequests(c, i18n.Sprintf(i18n.ResolveLocale(c), msgKey, wait), wait)
			c.Abort()
			return
		}
		c.Next()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 JSON 字段 + IP 作为限流 key，读取后还原请求体
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(readJSONField(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	text, _ := payload[field].(string)
	return strings.TrimSpace(text)
}
