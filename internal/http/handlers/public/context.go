package public

import (
	"github.com/cartrecovery/internal/service"

	handlershared "github.com/cartrecovery/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// recoveryIdentity 读取可选的登录用户，未登录返回 nil
func recoveryIdentity(c *gin.Context) (*service.RecoveryIdentity, bool) {
	if _, exists := c.Get("user_id"); !exists {
		return nil, true
	}
	userID, ok := handlershared.ContextUint(c, "user_id")
	if !ok {
		return nil, false
	}
	if userID == 0 {
		return nil, true
	}
	return &service.RecoveryIdentity{UserID: userID}, true
}
