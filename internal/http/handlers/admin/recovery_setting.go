package admin

import (
	"github.com/cartrecovery/internal/http/response"
	"github.com/cartrecovery/internal/service"

	"github.com/gin-gonic/gin"
)

// GetRecoverySetting 返回生效中的挽回策略与已保存待生效的策略
func (h *Handler) GetRecoverySetting(c *gin.Context) {
	stored, err := h.SettingService.GetRecoverySetting(h.Config.Recovery)
	if err != nil {
		respondError(c, response.CodeInternal, "error.dependency_failure", err)
		return
	}
	response.Success(c, gin.H{
		"active": service.RecoverySettingToMap(h.RecoverySetting),
		"stored": service.RecoverySettingToMap(stored),
	})
}

// UpdateRecoverySetting 校验并保存挽回策略，进程重启后生效
func (h *Handler) UpdateRecoverySetting(c *gin.Context) {
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	saved, err := h.SettingService.UpdateRecoverySetting(h.Config.Recovery, req)
	if err != nil {
		respondWithMappedError(c, err, recoverySettingErrorRules)
		return
	}
	requestLog(c).Infow("recovery_setting_updated", "admin_id", c.GetUint("admin_id"))
	response.Success(c, gin.H{
		"stored":          service.RecoverySettingToMap(saved),
		"restart_pending": true,
	})
}
