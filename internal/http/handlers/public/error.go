package public

import (
	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/http/response"

	handlershared "github.com/cartrecovery/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

type outcomeResponse struct {
	code int
	key  string
}

// 令牌无效、过期、已使用三种结果分别给出提示
var recoveryOutcomeResponses = map[string]outcomeResponse{
	constants.RecoveryOutcomeInvalidToken:     {code: response.CodeNotFound, key: "error.recovery_link_invalid"},
	constants.RecoveryOutcomeExpired:          {code: response.CodeBadRequest, key: "error.recovery_link_expired"},
	constants.RecoveryOutcomeAlreadyRecovered: {code: response.CodeConflict, key: "error.recovery_link_used"},
}

// respondRecoveryOutcome 非成功结果写入错误响应，返回是否已响应
func respondRecoveryOutcome(c *gin.Context, outcome string) bool {
	mapped, ok := recoveryOutcomeResponses[outcome]
	if !ok {
		return false
	}
	respondError(c, mapped.code, mapped.key, nil)
	return true
}
