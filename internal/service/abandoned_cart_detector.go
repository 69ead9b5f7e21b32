package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cartrecovery/internal/logger"
	"github.com/cartrecovery/internal/models"
	"github.com/cartrecovery/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const recoveryTokenBytes = 32

// AbandonmentCandidate 满足弃购条件的购物车快照
type AbandonmentCandidate struct {
	CartID      uint
	UserID      *uint
	Email       string
	DisplayName *string
	Locale      string
	ItemCount   int
	CartTotal   decimal.Decimal
}

// DetectionSummary 一次标记批次的结果汇总
type DetectionSummary struct {
	Candidates      int      `json:"candidates"`
	Created         int      `json:"created"`
	AlreadyDetected int      `json:"already_detected"`
	Failed          int      `json:"failed"`
	Errors          []string `json:"errors,omitempty"`
}

// AbandonedCartDetector 弃购检测
type AbandonedCartDetector struct {
	setting     RecoverySetting
	cartRepo    repository.CartRepository
	userRepo    repository.UserRepository
	abandonRepo repository.AbandonedCartRepository
	now         func() time.Time
}

// NewAbandonedCartDetector 创建弃购检测服务
func NewAbandonedCartDetector(
	setting RecoverySetting,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	abandonRepo repository.AbandonedCartRepository,
) *AbandonedCartDetector {
	return &AbandonedCartDetector{
		setting:     setting,
		cartRepo:    cartRepo,
		userRepo:    userRepo,
		abandonRepo: abandonRepo,
		now:         models.NowUTC,
	}
}

// Detect 查找尚未登记的弃购购物车
// 最后修改时间严格早于 now-阈值，金额不低于最小值，至少一件商品
func (s *AbandonedCartDetector) Detect(ctx context.Context) ([]AbandonmentCandidate, error) {
	cutoff := s.now().Add(-time.Duration(s.setting.AbandonmentThresholdHours) * time.Hour)
	carts, err := s.cartRepo.FindAbandonmentCandidates(cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	if len(carts) == 0 {
		return nil, nil
	}

	users, err := s.loadOwners(carts)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	candidates := make([]AbandonmentCandidate, 0, len(carts))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.setting.DetectWorkers)
	for i := range carts {
		cart := carts[i]
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			candidate, ok := s.evaluate(&cart, users)
			if !ok {
				return nil
			}
			mu.Lock()
			candidates = append(candidates, candidate)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (s *AbandonedCartDetector) loadOwners(carts []models.Cart) (map[uint]models.User, error) {
	ids := make([]uint, 0, len(carts))
	for _, cart := range carts {
		if !cart.IsGuest() {
			ids = append(ids, *cart.UserID)
		}
	}
	users, err := s.userRepo.GetContactsByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	return users, nil
}

func (s *AbandonedCartDetector) evaluate(cart *models.Cart, users map[uint]models.User) (AbandonmentCandidate, bool) {
	if len(cart.Items) == 0 {
		return AbandonmentCandidate{}, false
	}
	count, total := models.CartItemsTotal(cart.Items)
	if total.LessThan(s.setting.MinCartValue) {
		return AbandonmentCandidate{}, false
	}

	candidate := AbandonmentCandidate{
		CartID:    cart.ID,
		UserID:    cart.UserID,
		ItemCount: count,
		CartTotal: total.Round(2),
	}
	if cart.IsGuest() {
		candidate.UserID = nil
		candidate.Email = strings.TrimSpace(cart.GuestEmail)
		candidate.DisplayName = optionalString(cart.GuestName)
		candidate.Locale = cart.Locale
	} else if user, ok := users[*cart.UserID]; ok {
		candidate.Email = strings.TrimSpace(user.Email)
		candidate.DisplayName = optionalString(user.DisplayName)
		candidate.Locale = user.Locale
	}
	if candidate.Email == "" {
		logger.Debugw("abandoned_cart_detect_skip_no_email", "cart_id", cart.ID)
		return AbandonmentCandidate{}, false
	}
	return candidate, true
}

// MarkAbandoned 为每个候选创建弃购记录
// 唯一约束冲突视为已被其它检测批次登记
func (s *AbandonedCartDetector) MarkAbandoned(ctx context.Context, candidates []AbandonmentCandidate) DetectionSummary {
	summary := DetectionSummary{Candidates: len(candidates)}
	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.setting.DetectWorkers)
	for i := range candidates {
		candidate := candidates[i]
		group.Go(func() error {
			var created bool
			err := groupCtx.Err()
			if err == nil {
				created, err = s.markOne(candidate)
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				summary.Errors = append(summary.Errors, fmt.Sprintf("cart %d: %v", candidate.CartID, err))
				logger.Warnw("abandoned_cart_mark_failed", "cart_id", candidate.CartID, "error", err)
			case created:
				summary.Created++
			default:
				summary.AlreadyDetected++
			}
			return nil
		})
	}
	_ = group.Wait()
	return summary
}

func (s *AbandonedCartDetector) markOne(candidate AbandonmentCandidate) (bool, error) {
	token, err := generateRecoveryToken()
	if err != nil {
		return false, err
	}
	abandonedAt := s.now()
	record := &models.AbandonedCart{
		CartID:         candidate.CartID,
		UserID:         candidate.UserID,
		Email:          candidate.Email,
		DisplayName:    candidate.DisplayName,
		Locale:         candidate.Locale,
		ItemCount:      candidate.ItemCount,
		CartTotal:      models.NewMoneyFromDecimal(candidate.CartTotal),
		RecoveryToken:  token,
		TokenExpiresAt: abandonedAt.AddDate(0, 0, s.setting.TokenValidityDays),
		AbandonedAt:    abandonedAt,
	}
	if err := s.abandonRepo.Create(record); err != nil {
		if repository.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
	}
	return true, nil
}

// Run 执行一次检测并登记
func (s *AbandonedCartDetector) Run(ctx context.Context) (DetectionSummary, error) {
	candidates, err := s.Detect(ctx)
	if err != nil {
		logger.Errorw("abandoned_cart_detect_failed", "error", err)
		return DetectionSummary{}, err
	}
	summary := s.MarkAbandoned(ctx, candidates)
	logger.Infow("abandoned_cart_detect_finished",
		"candidates", summary.Candidates,
		"created", summary.Created,
		"already_detected", summary.AlreadyDetected,
		"failed", summary.Failed,
	)
	return summary, nil
}

func generateRecoveryToken() (string, error) {
	buf := make([]byte, recoveryTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
