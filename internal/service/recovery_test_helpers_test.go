package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cartrecovery/internal/mailer"
	"github.com/cartrecovery/internal/models"
	"github.com/cartrecovery/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var serviceTestNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time {
	return serviceTestNow
}

func setupRecoveryServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 内存库共享缓存下并发写会直接返回 table locked，测试内串行化连接
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func testRecoverySetting() RecoverySetting {
	return RecoverySetting{
		AbandonmentThresholdHours: 1,
		MinCartValue:              decimal.RequireFromString("20.00"),
		TokenValidityDays:         30,
		MaxReminders:              3,
		ReminderIntervalsHours:    []int{1, 24, 72},
		DiscountCode:              "COMEBACK10",
		DiscountPercent:           10,
		RetentionDays:             90,
		RecoveryBaseURL:           "https://shop.example.com/cart/recover",
		DetectWorkers:             2,
		ReminderWorkers:           2,
		SendRatePerSecond:         1000,
	}
}

type testCartItem struct {
	productID uint
	skuID     uint
	quantity  int
	price     string
}

func seedCart(t *testing.T, db *gorm.DB, userID *uint, updatedAt time.Time, items ...testCartItem) *models.Cart {
	t.Helper()
	cart := &models.Cart{
		UserID:    userID,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
	if userID == nil {
		session := fmt.Sprintf("sess-%d", updatedAt.UnixNano())
		cart.SessionID = &session
		cart.GuestEmail = "guest@example.com"
		cart.GuestName = "Guest"
	}
	for _, item := range items {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: item.productID,
			SKUID:     item.skuID,
			Quantity:  item.quantity,
			UnitPrice: models.NewMoneyFromDecimal(decimal.RequireFromString(item.price)),
			CreatedAt: updatedAt,
			UpdatedAt: updatedAt,
		})
	}
	if err := db.Create(cart).Error; err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	return cart
}

func seedUser(t *testing.T, db *gorm.DB, email, name string) *models.User {
	t.Helper()
	user := &models.User{Email: email, DisplayName: name, Locale: "en-US", Status: "active"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func seedAbandoned(t *testing.T, db *gorm.DB, cartID uint, token string, abandonedAt time.Time, total string) *models.AbandonedCart {
	t.Helper()
	record := &models.AbandonedCart{
		CartID:         cartID,
		Email:          "buyer@example.com",
		Locale:         "en-US",
		ItemCount:      1,
		CartTotal:      models.NewMoneyFromDecimal(decimal.RequireFromString(total)),
		RecoveryToken:  token,
		TokenExpiresAt: abandonedAt.AddDate(0, 0, 30),
		AbandonedAt:    abandonedAt,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("create abandoned cart failed: %v", err)
	}
	return record
}

func reloadAbandoned(t *testing.T, db *gorm.DB, id uint) *models.AbandonedCart {
	t.Helper()
	var record models.AbandonedCart
	if err := db.First(&record, id).Error; err != nil {
		t.Fatalf("reload abandoned cart failed: %v", err)
	}
	return &record
}

func cartItemQuantities(t *testing.T, db *gorm.DB, cartID uint) map[uint]int {
	t.Helper()
	items, err := repository.NewCartRepository(db).ListItems(cartID)
	if err != nil {
		t.Fatalf("list cart items failed: %v", err)
	}
	result := make(map[uint]int, len(items))
	for _, item := range items {
		result[item.ProductID] = item.Quantity
	}
	return result
}

// fakeSender 记录发送内容，failFor 中的收件人发送失败
type fakeSender struct {
	mu       sync.Mutex
	messages []mailer.Message
	failFor  map[string]bool
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To] {
		return errors.New("smtp 421 service not available")
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeSender) Driver() string {
	return "fake"
}

func (f *fakeSender) sent() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]mailer.Message, len(f.messages))
	copy(out, f.messages)
	return out
}
