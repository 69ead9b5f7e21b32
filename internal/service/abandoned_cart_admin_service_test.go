package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/repository"
)

func TestRecordConversionOnlyOnRecoveredRecords(t *testing.T) {
	db := setupRecoveryServiceDB(t)
	old := serviceTestNow.Add(-5 * time.Hour)
	cart := seedCart(t, db, nil, old, testCartItem{productID: 1, quantity: 1, price: "30.00"})
	record := seedAbandoned(t, db, cart.ID, "convert", old, "30.00")
	svc := NewAbandonedCartAdminService(repository.NewAbandonedCartRepository(db))

	if _, err := svc.RecordConversion(context.Background(), record.ID, 77); !errors.Is(err, ErrAbandonedCartNotRecovered) {
		t.Fatalf("open record want ErrAbandonedCartNotRecovered got %v", err)
	}
	if _, err := svc.RecordConversion(context.Background(), record.ID, 0); !errors.Is(err, ErrInvalidOrderID) {
		t.Fatalf("zero order id want ErrInvalidOrderID got %v", err)
	}
	if _, err := svc.RecordConversion(context.Background(), 9999, 77); !errors.Is(err, ErrAbandonedCartNotFound) {
		t.Fatalf("missing record want ErrAbandonedCartNotFound got %v", err)
	}

	recovery := newTestRecoveryService(db)
	if result, err := recovery.Recover(context.Background(), "convert", nil); err != nil || result.Outcome != constants.RecoveryOutcomeRecovered {
		t.Fatalf("recover failed: result=%+v err=%v", result, err)
	}
	view, err := svc.RecordConversion(context.Background(), record.ID, 77)
	if err != nil {
		t.Fatalf("record conversion failed: %v", err)
	}
	if view.OrderCreated == nil || !*view.OrderCreated || view.OrderID == nil || *view.OrderID != 77 {
		t.Fatalf("conversion not stored: %+v", view.AbandonedCart)
	}
	if view.State != constants.AbandonedStatusRecovered || !view.IsConverted() {
		t.Fatalf("unexpected state: %s", view.State)
	}
}

func TestAdminListFiltersByStatus(t *testing.T) {
	db := setupRecoveryServiceDB(t)
	old := serviceTestNow.Add(-5 * time.Hour)
	pendingCart := seedCart(t, db, nil, old, testCartItem{productID: 1, quantity: 1, price: "30.00"})
	seedAbandoned(t, db, pendingCart.ID, "list-pending", old, "30.00")
	remindedCart := seedCart(t, db, nil, old, testCartItem{productID: 1, quantity: 1, price: "80.00"})
	reminded := seedAbandoned(t, db, remindedCart.ID, "list-reminded", old, "80.00")
	if err := db.Model(reminded).Updates(map[string]interface{}{"reminders_sent": 1, "last_reminder_sent": old.Add(time.Hour)}).Error; err != nil {
		t.Fatalf("update reminded failed: %v", err)
	}
	svc := NewAbandonedCartAdminService(repository.NewAbandonedCartRepository(db))

	views, total, err := svc.List(AbandonedCartListInput{Status: "reminded", Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(views) != 1 || views[0].ID != reminded.ID || views[0].State != constants.AbandonedStatusReminded {
		t.Fatalf("unexpected reminded list: total=%d views=%+v", total, views)
	}

	views, total, err = svc.List(AbandonedCartListInput{Status: "open", MinCartTotal: "50"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || views[0].ID != reminded.ID {
		t.Fatalf("min total filter failed: total=%d", total)
	}

	if _, _, err := svc.List(AbandonedCartListInput{Status: "archived"}); !errors.Is(err, ErrInvalidListFilter) {
		t.Fatalf("unknown status want ErrInvalidListFilter got %v", err)
	}
	if _, _, err := svc.List(AbandonedCartListInput{MinCartTotal: "abc"}); !errors.Is(err, ErrInvalidListFilter) {
		t.Fatalf("bad amount want ErrInvalidListFilter got %v", err)
	}
}
