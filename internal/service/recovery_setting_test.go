package service

import (
	"errors"
	"testing"

	"github.com/cartrecovery/internal/config"
	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/models"

	"github.com/shopspring/decimal"
)

type mockSettingRepo struct {
	store map[string]models.JSON
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{store: map[string]models.JSON{}}
}

func (m *mockSettingRepo) GetByKey(key string) (*models.Setting, error) {
	value, ok := m.store[key]
	if !ok {
		return nil, nil
	}
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

func (m *mockSettingRepo) Upsert(key string, value models.JSON) (*models.Setting, error) {
	m.store[key] = value
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

func defaultRecoveryConfig() config.RecoveryConfig {
	return config.RecoveryConfig{
		AbandonmentThresholdHours: 1,
		MinCartValue:              "0",
		TokenValidityDays:         30,
		MaxReminders:              3,
		ReminderIntervalsHours:    []int{1, 24, 72},
		RetentionDays:             90,
		RecoveryBaseURL:           "https://shop.example.com/cart/recover",
		DetectWorkers:             4,
		ReminderWorkers:           4,
		SendRatePerSecond:         10,
	}
}

func TestRecoveryDefaultSettingIsValid(t *testing.T) {
	setting, err := RecoveryDefaultSetting(defaultRecoveryConfig())
	if err != nil {
		t.Fatalf("build default setting failed: %v", err)
	}
	if err := ValidateRecoverySetting(setting); err != nil {
		t.Fatalf("default setting should be valid: %v", err)
	}
	if setting.IntervalHours(1) != 1 || setting.IntervalHours(3) != 72 || setting.IntervalHours(4) != 0 {
		t.Fatalf("unexpected interval lookup")
	}
	if setting.HasDiscount() {
		t.Fatalf("default setting should not carry a discount")
	}
}

func TestRecoveryDefaultSettingRejectsUnparsableMinCartValue(t *testing.T) {
	for _, raw := range []string{"abc", "", "12,50"} {
		cfg := defaultRecoveryConfig()
		cfg.MinCartValue = raw
		if _, err := RecoveryDefaultSetting(cfg); !errors.Is(err, ErrRecoverySettingInvalid) {
			t.Fatalf("min_cart_value %q: want ErrRecoverySettingInvalid got %v", raw, err)
		}
	}

	cfg := defaultRecoveryConfig()
	cfg.MinCartValue = "abc"
	svc := NewSettingService(newMockSettingRepo())
	if _, err := svc.LoadRecoverySetting(cfg); !errors.Is(err, ErrRecoverySettingInvalid) {
		t.Fatalf("load should fail fast, got %v", err)
	}
}

func TestValidateRecoverySettingRejectsIllegalValues(t *testing.T) {
	cases := map[string]func(*RecoverySetting){
		"interval count mismatch":   func(s *RecoverySetting) { s.ReminderIntervalsHours = []int{1, 24} },
		"zero threshold":            func(s *RecoverySetting) { s.AbandonmentThresholdHours = 0 },
		"zero validity":             func(s *RecoverySetting) { s.TokenValidityDays = 0 },
		"negative retention":        func(s *RecoverySetting) { s.RetentionDays = -5 },
		"percent without code":      func(s *RecoverySetting) { s.DiscountPercent = 15 },
		"percent over 100":          func(s *RecoverySetting) { s.DiscountCode = "X"; s.DiscountPercent = 120 },
		"zero interval":             func(s *RecoverySetting) { s.ReminderIntervalsHours = []int{1, 0, 72} },
		"relative recovery url":     func(s *RecoverySetting) { s.RecoveryBaseURL = "/cart/recover" },
		"negative min cart value":   func(s *RecoverySetting) { s.MinCartValue = decimal.RequireFromString("-0.01") },
		"too many reminders":        func(s *RecoverySetting) { s.MaxReminders = 11 },
		"zero reminder max":         func(s *RecoverySetting) { s.MaxReminders = 0; s.ReminderIntervalsHours = []int{} },
		"too many detector workers": func(s *RecoverySetting) { s.DetectWorkers = 100 },
	}
	for name, mutate := range cases {
		setting, err := RecoveryDefaultSetting(defaultRecoveryConfig())
		if err != nil {
			t.Fatalf("build default setting failed: %v", err)
		}
		mutate(&setting)
		if err := ValidateRecoverySetting(setting); !errors.Is(err, ErrRecoverySettingInvalid) {
			t.Fatalf("%s: want ErrRecoverySettingInvalid got %v", name, err)
		}
	}
}

func TestSettingServiceOverlaysStoredRecoverySetting(t *testing.T) {
	repo := newMockSettingRepo()
	repo.store[constants.SettingKeyRecoveryConfig] = models.JSON{
		"max_reminders":            float64(2),
		"reminder_intervals_hours": []interface{}{float64(2), float64(48)},
		"min_cart_value":           "25.5",
	}
	svc := NewSettingService(repo)

	setting, err := svc.LoadRecoverySetting(defaultRecoveryConfig())
	if err != nil {
		t.Fatalf("load setting failed: %v", err)
	}
	if setting.MaxReminders != 2 || setting.IntervalHours(2) != 48 {
		t.Fatalf("stored values should override defaults: %+v", setting)
	}
	if setting.MinCartValue.StringFixed(2) != "25.50" {
		t.Fatalf("unexpected min cart value: %s", setting.MinCartValue)
	}
	if setting.TokenValidityDays != 30 {
		t.Fatalf("missing keys should fall back to config")
	}
}

func TestSettingServiceLoadFailsFastOnInvalidStoredSetting(t *testing.T) {
	repo := newMockSettingRepo()
	repo.store[constants.SettingKeyRecoveryConfig] = models.JSON{"max_reminders": float64(4)}
	svc := NewSettingService(repo)

	if _, err := svc.LoadRecoverySetting(defaultRecoveryConfig()); !errors.Is(err, ErrRecoverySettingInvalid) {
		t.Fatalf("want ErrRecoverySettingInvalid got %v", err)
	}
}

func TestUpdateRecoverySettingValidatesBeforeSaving(t *testing.T) {
	repo := newMockSettingRepo()
	svc := NewSettingService(repo)

	if _, err := svc.UpdateRecoverySetting(defaultRecoveryConfig(), map[string]interface{}{"max_reminders": 5}); !errors.Is(err, ErrRecoverySettingInvalid) {
		t.Fatalf("want ErrRecoverySettingInvalid got %v", err)
	}
	if _, ok := repo.store[constants.SettingKeyRecoveryConfig]; ok {
		t.Fatalf("invalid setting must not be saved")
	}

	updated, err := svc.UpdateRecoverySetting(defaultRecoveryConfig(), map[string]interface{}{
		"discount_code":    "SAVE5",
		"discount_percent": 5,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.HasDiscount() || repo.store[constants.SettingKeyRecoveryConfig]["discount_code"] != "SAVE5" {
		t.Fatalf("discount should be saved: %+v", repo.store)
	}
}

func TestUpdateRecoverySettingRejectsWrongTypes(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"int as word":         {"max_reminders": "abc"},
		"float as bool":       {"discount_percent": true},
		"decimal as word":     {"min_cart_value": "lots"},
		"intervals as string": {"reminder_intervals_hours": "1,24,72"},
		"interval item word":  {"reminder_intervals_hours": []interface{}{float64(1), "x", float64(72)}},
		"url as number":       {"recovery_base_url": float64(8080)},
	}
	for name, raw := range cases {
		repo := newMockSettingRepo()
		svc := NewSettingService(repo)
		if _, err := svc.UpdateRecoverySetting(defaultRecoveryConfig(), raw); !errors.Is(err, ErrRecoverySettingInvalid) {
			t.Fatalf("%s: want ErrRecoverySettingInvalid got %v", name, err)
		}
		if _, ok := repo.store[constants.SettingKeyRecoveryConfig]; ok {
			t.Fatalf("%s: rejected setting must not be saved", name)
		}
	}
}

func TestLoadRecoverySettingRejectsWrongTypedStoredValue(t *testing.T) {
	repo := newMockSettingRepo()
	repo.store[constants.SettingKeyRecoveryConfig] = models.JSON{"token_validity_days": "thirty"}
	svc := NewSettingService(repo)

	if _, err := svc.LoadRecoverySetting(defaultRecoveryConfig()); !errors.Is(err, ErrRecoverySettingInvalid) {
		t.Fatalf("want ErrRecoverySettingInvalid got %v", err)
	}
}
