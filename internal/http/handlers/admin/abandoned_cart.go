package admin

import (
	"time"

	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/http/response"
	"github.com/cartrecovery/internal/service"

	handlershared "github.com/cartrecovery/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

const defaultStatsRangeDays = 30

// RecordConversionRequest 登记转化请求
type RecordConversionRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// PurgeRequest 清理请求，days 为空时使用配置的保留天数
type PurgeRequest struct {
	Days *int `json:"days"`
}

func parseAbandonedCartID(c *gin.Context) (uint, bool) {
	id, ok := handlershared.ParseUintParam(c.Param("id"))
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return id, true
}

// ListAbandonedCarts 弃购记录列表
func (h *Handler) ListAbandonedCarts(c *gin.Context) {
	page, pageSize := handlershared.ReadPagination(c)
	from, okFrom := handlershared.ParseTimeParam(c.Query("from"), false)
	to, okTo := handlershared.ParseTimeParam(c.Query("to"), true)
	if !okFrom || !okTo {
		respondError(c, response.CodeBadRequest, "error.list_filter_invalid", nil)
		return
	}

	records, total, err := h.AbandonedCartAdminService.List(service.AbandonedCartListInput{
		Page:          page,
		PageSize:      pageSize,
		Status:        c.Query("status"),
		Email:         c.Query("email"),
		MinCartTotal:  c.Query("min_total"),
		MaxCartTotal:  c.Query("max_total"),
		AbandonedFrom: from,
		AbandonedTo:   to,
	})
	if err != nil {
		respondWithMappedError(c, err, abandonedCartErrorRules)
		return
	}
	response.SuccessWithPage(c, records, handlershared.BuildPagination(page, pageSize, total))
}

// GetAbandonedCart 弃购记录详情
func (h *Handler) GetAbandonedCart(c *gin.Context) {
	id, ok := parseAbandonedCartID(c)
	if !ok {
		return
	}
	record, err := h.AbandonedCartAdminService.Get(id)
	if err != nil {
		respondWithMappedError(c, err, abandonedCartErrorRules)
		return
	}
	response.Success(c, record)
}

// DetectAbandonedCarts 立即执行一轮弃购检测
func (h *Handler) DetectAbandonedCarts(c *gin.Context) {
	summary, err := h.AbandonedCartDetector.Run(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err, abandonedCartErrorRules)
		return
	}
	requestLog(c).Infow("admin_detect_triggered",
		"admin_id", c.GetUint("admin_id"),
		"candidates", summary.Candidates,
		"created", summary.Created,
	)
	response.Success(c, summary)
}

// SendReminder 手动发送下一封提醒
func (h *Handler) SendReminder(c *gin.Context) {
	id, ok := parseAbandonedCartID(c)
	if !ok {
		return
	}
	result, err := h.ReminderService.SendNextReminder(c.Request.Context(), id)
	if err != nil {
		respondWithMappedError(c, err, abandonedCartErrorRules)
		return
	}
	if result.Status == constants.ReminderStatusSkipped && result.Reason == constants.ReminderSkipNotFound {
		respondError(c, response.CodeNotFound, "error.abandoned_cart_missing", nil)
		return
	}
	response.Success(c, result)
}

// RunDueReminders 立即处理所有到期提醒
func (h *Handler) RunDueReminders(c *gin.Context) {
	summary, err := h.ReminderService.SendDueReminders(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err, abandonedCartErrorRules)
		return
	}
	response.Success(c, summary)
}

// RecordConversion 登记挽回后的订单
func (h *Handler) RecordConversion(c *gin.Context) {
	id, ok := parseAbandonedCartID(c)
	if !ok {
		return
	}
	var req RecordConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.order_id_invalid", nil)
		return
	}
	record, err := h.AbandonedCartAdminService.RecordConversion(c.Request.Context(), id, req.OrderID)
	if err != nil {
		respondWithMappedError(c, err, abandonedCartErrorRules)
		return
	}
	response.Success(c, record)
}

// GetRecoveryStats 挽回漏斗统计，默认最近 30 天
func (h *Handler) GetRecoveryStats(c *gin.Context) {
	from, okFrom := handlershared.ParseTimeParam(c.Query("from"), false)
	to, okTo := handlershared.ParseTimeParam(c.Query("to"), true)
	if !okFrom || !okTo {
		respondError(c, response.CodeBadRequest, "error.stats_range_invalid", nil)
		return
	}
	endAt := time.Now().UTC()
	if to != nil {
		endAt = *to
	}
	startAt := endAt.AddDate(0, 0, -defaultStatsRangeDays)
	if from != nil {
		startAt = *from
	}
	stats, err := h.RecoveryStatsService.GetRecoveryStats(c.Request.Context(), startAt, endAt)
	if err != nil {
		respondWithMappedError(c, err, abandonedCartErrorRules)
		return
	}
	response.Success(c, stats)
}

// PurgeAbandonedCarts 删除早于保留期的弃购记录
func (h *Handler) PurgeAbandonedCarts(c *gin.Context) {
	var req PurgeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.retention_days_invalid", nil)
			return
		}
	}
	days := h.RecoverySetting.RetentionDays
	if req.Days != nil {
		days = *req.Days
	}
	deleted, err := h.RetentionService.PurgeOlderThan(c.Request.Context(), days)
	if err != nil {
		respondWithMappedError(c, err, abandonedCartErrorRules)
		return
	}
	response.Success(c, gin.H{"days": days, "deleted": deleted})
}
