package public

import (
	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/http/response"
	"github.com/cartrecovery/internal/i18n"
	"github.com/cartrecovery/internal/logger"

	"github.com/gin-gonic/gin"
)

// GetRecovery 校验挽回链接并返回购物车快照，不修改任何数据
func (h *Handler) GetRecovery(c *gin.Context) {
	preview, outcome, err := h.CartRecoveryService.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, response.CodeInternal, "error.dependency_failure", err)
		return
	}
	if respondRecoveryOutcome(c, outcome) {
		return
	}
	response.Success(c, preview)
}

// Recover 使用挽回链接恢复购物车，登录用户会合并到自己的购物车
func (h *Handler) Recover(c *gin.Context) {
	identity, ok := recoveryIdentity(c)
	if !ok {
		return
	}
	result, err := h.CartRecoveryService.Recover(c.Request.Context(), c.Param("token"), identity)
	if err != nil {
		respondError(c, response.CodeInternal, "error.dependency_failure", err)
		return
	}
	if result.Outcome != constants.RecoveryOutcomeRecovered {
		logger.Debugw("public_recovery_rejected", "outcome", result.Outcome, "abandoned_cart_id", result.AbandonedCartID)
	}
	if respondRecoveryOutcome(c, result.Outcome) {
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "success.recovered"), result)
}
