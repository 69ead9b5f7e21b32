//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.AbandonedCart{},
		&models.CartItem{},
		&models.Cart{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(&models.Cart{}, &models.CartItem{}, &models.AbandonedCart{}); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresOpenRecordPartialUniqueIndex(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewAbandonedCartRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	first := newTestAbandonedCart(1, "pg-token-1", now, 100)
	if err := repo.Create(first); err != nil {
		t.Fatalf("create first record failed: %v", err)
	}
	if err := repo.Create(newTestAbandonedCart(1, "pg-token-2", now, 100)); !IsUniqueViolation(err) {
		t.Fatalf("duplicate open record should violate unique index, got %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		locked, err := txRepo.GetByIDForUpdate(first.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			t.Fatalf("locked record should exist")
		}
		claimed, err := txRepo.ClaimRecovered(locked.ID, now, constants.RecoveryChannelLink)
		if err != nil {
			return err
		}
		if !claimed {
			t.Fatalf("claim inside transaction should succeed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("recover transaction failed: %v", err)
	}

	if err := repo.Create(newTestAbandonedCart(1, "pg-token-3", now.Add(time.Hour), 100)); err != nil {
		t.Fatalf("new open record after recovery should be allowed: %v", err)
	}
}

func TestPostgresStatsAndEmailSearch(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewAbandonedCartRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	open := newTestAbandonedCart(1, "pg-open", now.Add(-time.Hour), 700)
	open.Email = "Alice@Example.com"
	recovered := newTestAbandonedCart(2, "pg-recovered", now.Add(-2*time.Hour), 500)
	recovered.IsRecovered = true
	recovered.RecoveredAt = &now
	for _, record := range []*models.AbandonedCart{open, recovered} {
		if err := repo.Create(record); err != nil {
			t.Fatalf("create record failed: %v", err)
		}
	}

	row, err := repo.GetStatsRow(now.Add(-24*time.Hour), now)
	if err != nil {
		t.Fatalf("get stats row failed: %v", err)
	}
	if row.TotalAbandoned != 2 || row.Recovered != 1 {
		t.Fatalf("counts want 2/1 got %d/%d", row.TotalAbandoned, row.Recovered)
	}
	if !row.RecoveredValue.Equal(decimal.NewFromInt(500)) || !row.TotalValue.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("values want 500/1200 got %s/%s", row.RecoveredValue, row.TotalValue)
	}

	_, total, err := repo.List(AbandonedCartListFilter{Page: 1, PageSize: 20, Email: "alice@"})
	if err != nil {
		t.Fatalf("list by email failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("case-insensitive email search want 1 got %d", total)
	}
}
