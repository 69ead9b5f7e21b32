package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var repoTestNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupRecoveryRepositoryTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}
	return db
}

func createTestCart(t *testing.T, db *gorm.DB, updatedAt time.Time, quantities ...int) *models.Cart {
	t.Helper()
	cart := &models.Cart{CreatedAt: updatedAt, UpdatedAt: updatedAt, GuestEmail: "guest@example.com"}
	for i, qty := range quantities {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: uint(i + 1),
			Quantity:  qty,
			UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			CreatedAt: updatedAt,
			UpdatedAt: updatedAt,
		})
	}
	if err := db.Create(cart).Error; err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	return cart
}

func newTestAbandonedCart(cartID uint, token string, abandonedAt time.Time, total int64) *models.AbandonedCart {
	return &models.AbandonedCart{
		CartID:         cartID,
		Email:          "buyer@example.com",
		ItemCount:      1,
		CartTotal:      models.NewMoneyFromDecimal(decimal.NewFromInt(total)),
		RecoveryToken:  token,
		TokenExpiresAt: abandonedAt.Add(30 * 24 * time.Hour),
		AbandonedAt:    abandonedAt,
	}
}

func TestAbandonedCartOpenRecordUniquePerCart(t *testing.T) {
	db := setupRecoveryRepositoryTest(t)
	repo := NewAbandonedCartRepository(db)

	first := newTestAbandonedCart(1, "token-1", repoTestNow, 100)
	if err := repo.Create(first); err != nil {
		t.Fatalf("create first record failed: %v", err)
	}
	if err := repo.Create(newTestAbandonedCart(1, "token-2", repoTestNow, 100)); !IsUniqueViolation(err) {
		t.Fatalf("second open record should violate unique index, got %v", err)
	}

	claimed, err := repo.ClaimRecovered(first.ID, repoTestNow, constants.RecoveryChannelLink)
	if err != nil || !claimed {
		t.Fatalf("claim recovered failed: claimed=%v err=%v", claimed, err)
	}
	if err := repo.Create(newTestAbandonedCart(1, "token-3", repoTestNow.Add(time.Hour), 100)); err != nil {
		t.Fatalf("new open record after recovery should be allowed: %v", err)
	}
}

func TestClaimRecoveredIsSingleUse(t *testing.T) {
	db := setupRecoveryRepositoryTest(t)
	repo := NewAbandonedCartRepository(db)
	record := newTestAbandonedCart(1, "token-claim", repoTestNow, 100)
	if err := repo.Create(record); err != nil {
		t.Fatalf("create record failed: %v", err)
	}

	claimed, err := repo.ClaimRecovered(record.ID, repoTestNow, constants.RecoveryChannelLink)
	if err != nil || !claimed {
		t.Fatalf("first claim should succeed: claimed=%v err=%v", claimed, err)
	}
	claimed, err = repo.ClaimRecovered(record.ID, repoTestNow, constants.RecoveryChannelLink)
	if err != nil {
		t.Fatalf("second claim error: %v", err)
	}
	if claimed {
		t.Fatalf("second claim should not succeed")
	}

	stored, err := repo.GetByToken("token-claim")
	if err != nil || stored == nil {
		t.Fatalf("get by token failed: %v", err)
	}
	if !stored.IsRecovered || stored.RecoveredAt == nil || stored.RecoveryChannel == nil {
		t.Fatalf("claimed record fields not persisted: %+v", stored)
	}
	if err := stored.CheckInvariants(3); err != nil {
		t.Fatalf("claimed record violates invariants: %v", err)
	}
}

func TestFindAbandonmentCandidatesStrictThreshold(t *testing.T) {
	db := setupRecoveryRepositoryTest(t)
	repo := NewCartRepository(db)
	cutoff := repoTestNow.Add(-time.Hour)

	atCutoff := createTestCart(t, db, cutoff, 1)
	stale := createTestCart(t, db, cutoff.Add(-time.Second), 2)
	createTestCart(t, db, cutoff.Add(-time.Hour)) // 空购物车
	withOpenRecord := createTestCart(t, db, cutoff.Add(-time.Hour), 1)
	if err := db.Create(newTestAbandonedCart(withOpenRecord.ID, "open-token", repoTestNow, 10)).Error; err != nil {
		t.Fatalf("create open record failed: %v", err)
	}

	carts, err := repo.FindAbandonmentCandidates(cutoff)
	if err != nil {
		t.Fatalf("find candidates failed: %v", err)
	}
	if len(carts) != 1 || carts[0].ID != stale.ID {
		t.Fatalf("candidates want only cart %d got %+v", stale.ID, carts)
	}
	if carts[0].ID == atCutoff.ID {
		t.Fatalf("cart updated exactly at cutoff should not be a candidate")
	}
	if len(carts[0].Items) != 1 || carts[0].Items[0].Quantity != 2 {
		t.Fatalf("candidate items not preloaded: %+v", carts[0].Items)
	}
}

func TestIncrementReminderConditional(t *testing.T) {
	db := setupRecoveryRepositoryTest(t)
	repo := NewAbandonedCartRepository(db)
	record := newTestAbandonedCart(1, "token-remind", repoTestNow, 100)
	if err := repo.Create(record); err != nil {
		t.Fatalf("create record failed: %v", err)
	}

	ok, err := repo.IncrementReminder(record.ID, 0, repoTestNow)
	if err != nil || !ok {
		t.Fatalf("first increment should succeed: ok=%v err=%v", ok, err)
	}
	ok, err = repo.IncrementReminder(record.ID, 0, repoTestNow)
	if err != nil {
		t.Fatalf("stale increment error: %v", err)
	}
	if ok {
		t.Fatalf("stale increment should not apply")
	}

	stored, _ := repo.GetByID(record.ID)
	if stored.RemindersSent != 1 || stored.LastReminderSent == nil {
		t.Fatalf("reminder counters want 1 with timestamp, got %+v", stored)
	}
}

func TestListDueForSlotUsesReferenceTime(t *testing.T) {
	db := setupRecoveryRepositoryTest(t)
	repo := NewAbandonedCartRepository(db)

	fresh := newTestAbandonedCart(1, "fresh", repoTestNow.Add(-30*time.Minute), 100)
	old := newTestAbandonedCart(2, "old", repoTestNow.Add(-2*time.Hour), 100)
	reminded := newTestAbandonedCart(3, "reminded", repoTestNow.Add(-48*time.Hour), 100)
	lastSent := repoTestNow.Add(-25 * time.Hour)
	reminded.RemindersSent = 1
	reminded.LastReminderSent = &lastSent
	for _, record := range []*models.AbandonedCart{fresh, old, reminded} {
		if err := repo.Create(record); err != nil {
			t.Fatalf("create record failed: %v", err)
		}
	}

	due, err := repo.ListDueForSlot(0, repoTestNow.Add(-time.Hour), 0)
	if err != nil {
		t.Fatalf("list due slot 1 failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != old.ID {
		t.Fatalf("slot 1 due want record %d got %+v", old.ID, due)
	}

	due, err = repo.ListDueForSlot(1, repoTestNow.Add(-24*time.Hour), 0)
	if err != nil {
		t.Fatalf("list due slot 2 failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != reminded.ID {
		t.Fatalf("slot 2 due want record %d got %+v", reminded.ID, due)
	}
}

func TestGetStatsRowAggregates(t *testing.T) {
	db := setupRecoveryRepositoryTest(t)
	repo := NewAbandonedCartRepository(db)

	yes := true
	recoveredValues := []int64{100, 150, 125, 125}
	for i := 0; i < 10; i++ {
		record := newTestAbandonedCart(uint(i+1), fmt.Sprintf("stats-%d", i), repoTestNow.Add(-time.Duration(i)*time.Hour), 70)
		if i < len(recoveredValues) {
			recoveredAt := repoTestNow
			record.CartTotal = models.NewMoneyFromDecimal(decimal.NewFromInt(recoveredValues[i]))
			record.IsRecovered = true
			record.RecoveredAt = &recoveredAt
			if i < 2 {
				record.OrderCreated = &yes
			}
		}
		if err := repo.Create(record); err != nil {
			t.Fatalf("create record %d failed: %v", i, err)
		}
	}
	outside := newTestAbandonedCart(99, "outside", repoTestNow.Add(-30*24*time.Hour), 1000)
	if err := repo.Create(outside); err != nil {
		t.Fatalf("create outside record failed: %v", err)
	}

	row, err := repo.GetStatsRow(repoTestNow.Add(-24*time.Hour), repoTestNow)
	if err != nil {
		t.Fatalf("get stats row failed: %v", err)
	}
	if row.TotalAbandoned != 10 || row.Recovered != 4 || row.OrdersCreated != 2 {
		t.Fatalf("counts want 10/4/2 got %d/%d/%d", row.TotalAbandoned, row.Recovered, row.OrdersCreated)
	}
	if !row.RecoveredValue.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("recovered value want 500 got %s", row.RecoveredValue)
	}
	if !row.TotalValue.Equal(decimal.NewFromInt(920)) {
		t.Fatalf("total value want 920 got %s", row.TotalValue)
	}
}

func TestDeleteAbandonedBefore(t *testing.T) {
	db := setupRecoveryRepositoryTest(t)
	repo := NewAbandonedCartRepository(db)

	oldRecord := newTestAbandonedCart(1, "old", repoTestNow.AddDate(0, 0, -91), 10)
	newRecord := newTestAbandonedCart(2, "new", repoTestNow.AddDate(0, 0, -89), 10)
	for _, record := range []*models.AbandonedCart{oldRecord, newRecord} {
		if err := repo.Create(record); err != nil {
			t.Fatalf("create record failed: %v", err)
		}
	}

	deleted, err := repo.DeleteAbandonedBefore(repoTestNow.AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted want 1 got %d", deleted)
	}
	if stored, _ := repo.GetByID(newRecord.ID); stored == nil {
		t.Fatalf("89-day-old record should remain")
	}
}

func TestListAbandonedCartsByStatus(t *testing.T) {
	db := setupRecoveryRepositoryTest(t)
	repo := NewAbandonedCartRepository(db)

	pending := newTestAbandonedCart(1, "pending", repoTestNow, 10)
	reminded := newTestAbandonedCart(2, "reminded", repoTestNow, 20)
	reminded.RemindersSent = 1
	reminded.LastReminderSent = &repoTestNow
	recovered := newTestAbandonedCart(3, "recovered", repoTestNow, 30)
	recovered.IsRecovered = true
	recovered.RecoveredAt = &repoTestNow
	for _, record := range []*models.AbandonedCart{pending, reminded, recovered} {
		if err := repo.Create(record); err != nil {
			t.Fatalf("create record failed: %v", err)
		}
	}

	cases := map[string]int64{
		constants.AbandonedStatusPending:   1,
		constants.AbandonedStatusReminded:  1,
		constants.AbandonedStatusOpen:      2,
		constants.AbandonedStatusRecovered: 1,
		constants.AbandonedStatusConverted: 0,
		"":                                 3,
	}
	for status, want := range cases {
		_, total, err := repo.List(AbandonedCartListFilter{Page: 1, PageSize: 20, Status: status})
		if err != nil {
			t.Fatalf("list status %q failed: %v", status, err)
		}
		if total != want {
			t.Fatalf("status %q total want %d got %d", status, want, total)
		}
	}

	minTotal := decimal.NewFromInt(15)
	records, total, err := repo.List(AbandonedCartListFilter{Page: 1, PageSize: 1, MinCartTotal: &minTotal})
	if err != nil {
		t.Fatalf("list by min total failed: %v", err)
	}
	if total != 2 || len(records) != 1 {
		t.Fatalf("min total filter want total 2 page 1 got total=%d len=%d", total, len(records))
	}
}
