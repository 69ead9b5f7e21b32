package shared

import (
	"github.com/cartrecovery/internal/http/response"
	"github.com/cartrecovery/internal/i18n"
	"github.com/cartrecovery/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 带 request_id 的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString("request_id"); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RespondError 按请求语言返回错误响应
// 5xx 记 error 日志，其余只在带原始错误时记 warn
func RespondError(c *gin.Context, code int, key string, err error) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	switch {
	case code >= response.CodeInternal:
		RequestLog(c).Errorw("handler_error", "code", code, "key", key, "path", c.FullPath(), "error", err)
	case err != nil:
		RequestLog(c).Warnw("handler_rejected", "code", code, "key", key, "path", c.FullPath(), "error", err)
	}
	response.Error(c, code, msg)
}
