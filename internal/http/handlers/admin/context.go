package admin

import (
	handlershared "github.com/cartrecovery/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.ContextUint(c, "admin_id")
}

func isSuperAdmin(c *gin.Context) bool {
	return c.GetBool("admin_is_super")
}
