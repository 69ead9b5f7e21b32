package admin

import (
	"github.com/cartrecovery/internal/http/response"
	"github.com/cartrecovery/internal/service"

	handlershared "github.com/cartrecovery/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondWithMappedError(c *gin.Context, err error, rules []handlershared.MappedError) {
	handlershared.RespondWithMappedError(c, err, rules, response.CodeInternal, "error.internal_error")
}

var abandonedCartErrorRules = []handlershared.MappedError{
	{Target: service.ErrAbandonedCartNotFound, Code: response.CodeNotFound, Key: "error.abandoned_cart_missing"},
	{Target: service.ErrAbandonedCartNotRecovered, Code: response.CodeConflict, Key: "error.abandoned_cart_open"},
	{Target: service.ErrInvalidOrderID, Code: response.CodeBadRequest, Key: "error.order_id_invalid"},
	{Target: service.ErrInvalidListFilter, Code: response.CodeBadRequest, Key: "error.list_filter_invalid"},
	{Target: service.ErrStatsRangeInvalid, Code: response.CodeBadRequest, Key: "error.stats_range_invalid"},
	{Target: service.ErrRetentionDaysInvalid, Code: response.CodeBadRequest, Key: "error.retention_days_invalid"},
	{Target: service.ErrMailSendFailed, Code: response.CodeInternal, Key: "error.mail_send_failed"},
	{Target: service.ErrDependencyFailure, Code: response.CodeInternal, Key: "error.dependency_failure"},
}

var recoverySettingErrorRules = []handlershared.MappedError{
	{Target: service.ErrRecoverySettingInvalid, Code: response.CodeBadRequest, Key: "error.recovery_setting_invalid"},
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}
