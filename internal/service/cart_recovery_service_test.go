package service

import (
	"context"
	"testing"
	"time"

	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/models"
	"github.com/cartrecovery/internal/repository"

	"gorm.io/gorm"
)

func newTestRecoveryService(db *gorm.DB) *CartRecoveryService {
	svc := NewCartRecoveryService(repository.NewAbandonedCartRepository(db), repository.NewCartRepository(db))
	svc.now = fixedNow
	return svc
}

func TestRecoverUnknownTokenIsInvalid(t *testing.T) {
	db := setupRecoveryServiceDB(t)
	svc := newTestRecoveryService(db)

	for _, token := range []string{"", "   ", "does-not-exist"} {
		result, err := svc.Recover(context.Background(), token, nil)
		if err != nil {
			t.Fatalf("recover %q returned error: %v", token, err)
		}
		if result.Outcome != constants.RecoveryOutcomeInvalidToken {
			t.Fatalf("recover %q want invalid_token got %s", token, result.Outcome)
		}
	}
}

func TestRecoverExpiredTokenIsExpiredNotInvalid(t *testing.T) {
	db := setupRecoveryServiceDB(t)
	cart := seedCart(t, db, nil, serviceTestNow.AddDate(0, 0, -40), testCartItem{productID: 1, quantity: 1, price: "30.00"})
	record := seedAbandoned(t, db, cart.ID, "expired-token", serviceTestNow.AddDate(0, 0, -31), "30.00")
	if err := db.Model(record).Update("token_expires_at", serviceTestNow.Add(-time.Second)).Error; err != nil {
		t.Fatalf("update expiry failed: %v", err)
	}
	svc := newTestRecoveryService(db)

	result, err := svc.Recover(context.Background(), "expired-token", nil)
	if err != nil {
		t.Fatalf("recover failed: %v", err)
	}
	if result.Outcome != constants.RecoveryOutcomeExpired {
		t.Fatalf("want expired got %s", result.Outcome)
	}
	if reloadAbandoned(t, db, record.ID).IsRecovered {
		t.Fatalf("expired token must not recover")
	}

	// 恰好在过期时刻仍然有效
	if err := db.Model(record).Update("token_expires_at", serviceTestNow).Error; err != nil {
		t.Fatalf("update expiry failed: %v", err)
	}
	if _, outcome, err := svc.Validate(context.Background(), "expired-token"); err != nil || outcome != constants.RecoveryOutcomeValid {
		t.Fatalf("token at expiry instant should validate: outcome=%s err=%v", outcome, err)
	}
}

func TestRecoverIsSingleUseWithoutDoubleMerge(t *testing.T) {
	db := setupRecoveryServiceDB(t)
	user := seedUser(t, db, "bob@example.com", "Bob")
	old := serviceTestNow.Add(-5 * time.Hour)
	abandonedCart := seedCart(t, db, nil, old,
		testCartItem{productID: 1, quantity: 2, price: "10.00"},
		testCartItem{productID: 2, quantity: 1, price: "25.00"},
	)
	userCart := seedCart(t, db, &user.ID, serviceTestNow.Add(-10*time.Minute),
		testCartItem{productID: 1, quantity: 3, price: "10.00"},
	)
	record := seedAbandoned(t, db, abandonedCart.ID, "single-use", old, "45.00")
	svc := newTestRecoveryService(db)
	identity := &RecoveryIdentity{UserID: user.ID}

	first, err := svc.Recover(context.Background(), "single-use", identity)
	if err != nil {
		t.Fatalf("first recover failed: %v", err)
	}
	if first.Outcome != constants.RecoveryOutcomeRecovered || !first.Merged || first.CartID != userCart.ID {
		t.Fatalf("unexpected first result: %+v", first)
	}
	afterFirst := cartItemQuantities(t, db, userCart.ID)

	second, err := svc.Recover(context.Background(), "single-use", identity)
	if err != nil {
		t.Fatalf("second recover failed: %v", err)
	}
	if second.Outcome != constants.RecoveryOutcomeAlreadyRecovered {
		t.Fatalf("want already_recovered got %s", second.Outcome)
	}
	afterSecond := cartItemQuantities(t, db, userCart.ID)
	if afterFirst[1] != 5 || afterFirst[2] != 1 {
		t.Fatalf("unexpected merged quantities: %v", afterFirst)
	}
	if afterSecond[1] != afterFirst[1] || afterSecond[2] != afterFirst[2] {
		t.Fatalf("second recover must not merge again: first=%v second=%v", afterFirst, afterSecond)
	}

	stored := reloadAbandoned(t, db, record.ID)
	if !stored.IsRecovered || stored.RecoveredAt == nil || stored.RecoveryChannel == nil || *stored.RecoveryChannel != constants.RecoveryChannelLink {
		t.Fatalf("record should be recovered via link: %+v", stored)
	}
	if err := stored.CheckInvariants(3); err != nil {
		t.Fatalf("recovered record violates invariants: %v", err)
	}
	var remaining int64
	db.Model(&models.Cart{}).Where("id = ?", abandonedCart.ID).Count(&remaining)
	if remaining != 0 {
		t.Fatalf("merged abandoned cart should be deleted")
	}
}

func TestRecoverMergeClampsQuantity(t *testing.T) {
	db := setupRecoveryServiceDB(t)
	user := seedUser(t, db, "carol@example.com", "Carol")
	old := serviceTestNow.Add(-5 * time.Hour)
	abandonedCart := seedCart(t, db, nil, old, testCartItem{productID: 9, skuID: 3, quantity: 500, price: "1.00"})
	userCart := seedCart(t, db, &user.ID, serviceTestNow, testCartItem{productID: 9, skuID: 3, quantity: 600, price: "1.00"})
	seedAbandoned(t, db, abandonedCart.ID, "clamp", old, "500.00")
	svc := newTestRecoveryService(db)

	result, err := svc.Recover(context.Background(), "clamp", &RecoveryIdentity{UserID: user.ID})
	if err != nil || result.Outcome != constants.RecoveryOutcomeRecovered {
		t.Fatalf("recover failed: result=%+v err=%v", result, err)
	}
	if got := cartItemQuantities(t, db, userCart.ID)[9]; got != constants.CartItemMaxQuantity {
		t.Fatalf("merged quantity want 999 got %d", got)
	}
}

func TestRecoverReassignsOwnerWhenUserHasNoCart(t *testing.T) {
	db := setupRecoveryServiceDB(t)
	user := seedUser(t, db, "dan@example.com", "Dan")
	old := serviceTestNow.Add(-5 * time.Hour)
	cart := seedCart(t, db, nil, old, testCartItem{productID: 1, quantity: 2, price: "30.00"})
	seedAbandoned(t, db, cart.ID, "reassign", old, "60.00")
	svc := newTestRecoveryService(db)

	result, err := svc.Recover(context.Background(), "reassign", &RecoveryIdentity{UserID: user.ID})
	if err != nil || result.Outcome != constants.RecoveryOutcomeRecovered {
		t.Fatalf("recover failed: result=%+v err=%v", result, err)
	}
	if result.Merged || result.CartID != cart.ID {
		t.Fatalf("expected reassignment of cart %d, got %+v", cart.ID, result)
	}
	var stored models.Cart
	if err := db.First(&stored, cart.ID).Error; err != nil {
		t.Fatalf("load cart failed: %v", err)
	}
	if stored.UserID == nil || *stored.UserID != user.ID {
		t.Fatalf("cart owner should be reassigned")
	}
	if stored.SessionID != nil {
		t.Fatalf("session binding should be cleared")
	}
	if got := cartItemQuantities(t, db, cart.ID)[1]; got != 2 {
		t.Fatalf("items should be untouched, got %d", got)
	}
}

func TestRecoverAnonymousKeepsCartAndRefreshesActivity(t *testing.T) {
	db := setupRecoveryServiceDB(t)
	old := serviceTestNow.Add(-5 * time.Hour)
	cart := seedCart(t, db, nil, old, testCartItem{productID: 1, quantity: 1, price: "30.00"})
	seedAbandoned(t, db, cart.ID, "anonymous", old, "30.00")
	svc := newTestRecoveryService(db)

	result, err := svc.Recover(context.Background(), "anonymous", nil)
	if err != nil || result.Outcome != constants.RecoveryOutcomeRecovered {
		t.Fatalf("recover failed: result=%+v err=%v", result, err)
	}
	if result.CartID != cart.ID || result.Merged {
		t.Fatalf("anonymous recovery should surface the original cart: %+v", result)
	}

	detector := newTestDetector(db, testRecoverySetting())
	candidates, err := detector.Detect(context.Background())
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("recovered cart should not be detected again immediately")
	}
}

func TestRecoverWithDeletedCartStillMarksRecovered(t *testing.T) {
	db := setupRecoveryServiceDB(t)
	old := serviceTestNow.Add(-5 * time.Hour)
	cart := seedCart(t, db, nil, old, testCartItem{productID: 1, quantity: 1, price: "30.00"})
	record := seedAbandoned(t, db, cart.ID, "orphan", old, "30.00")
	if err := repository.NewCartRepository(db).DeleteWithItems(cart.ID); err != nil {
		t.Fatalf("delete cart failed: %v", err)
	}
	svc := newTestRecoveryService(db)

	result, err := svc.Recover(context.Background(), "orphan", &RecoveryIdentity{UserID: 42})
	if err != nil || result.Outcome != constants.RecoveryOutcomeRecovered {
		t.Fatalf("recover failed: result=%+v err=%v", result, err)
	}
	if !reloadAbandoned(t, db, record.ID).IsRecovered {
		t.Fatalf("record should be marked recovered")
	}
}

func TestValidateDoesNotConsumeToken(t *testing.T) {
	db := setupRecoveryServiceDB(t)
	old := serviceTestNow.Add(-5 * time.Hour)
	cart := seedCart(t, db, nil, old, testCartItem{productID: 1, quantity: 2, price: "30.00"})
	seedAbandoned(t, db, cart.ID, "preview", old, "60.00")
	svc := newTestRecoveryService(db)

	for i := 0; i < 2; i++ {
		preview, outcome, err := svc.Validate(context.Background(), "preview")
		if err != nil || outcome != constants.RecoveryOutcomeValid {
			t.Fatalf("validate #%d failed: outcome=%s err=%v", i, outcome, err)
		}
		if preview.CartID != cart.ID || len(preview.Items) != 1 || preview.CartTotal.StringFixed(2) != "60.00" {
			t.Fatalf("unexpected preview: %+v", preview)
		}
	}
	result, err := svc.Recover(context.Background(), "preview", nil)
	if err != nil || result.Outcome != constants.RecoveryOutcomeRecovered {
		t.Fatalf("recover after validate failed: result=%+v err=%v", result, err)
	}
	if _, outcome, _ := svc.Validate(context.Background(), "preview"); outcome != constants.RecoveryOutcomeAlreadyRecovered {
		t.Fatalf("validate after recover want already_recovered got %s", outcome)
	}
}
