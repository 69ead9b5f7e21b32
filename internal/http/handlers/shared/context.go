package shared

import (
	"github.com/cartrecovery/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ContextUint 读取鉴权中间件写入的 uint 标识
// 缺失按未登录处理，类型不符说明中间件配置有误
func ContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	id, ok := value.(uint)
	if !ok {
		RespondError(c, response.CodeInternal, "error.internal_error", nil)
		return 0, false
	}
	return id, true
}
