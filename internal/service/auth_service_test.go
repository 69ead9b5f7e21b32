package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cartrecovery/internal/config"
	"github.com/cartrecovery/internal/models"
	"github.com/cartrecovery/internal/repository"
)

func TestAdminLoginIssuesParsableToken(t *testing.T) {
	db := setupRecoveryServiceDB(t)
	cfg := &config.Config{JWT: config.JWTConfig{SecretKey: "test-secret", ExpireHours: 2}}
	svc := NewAuthService(cfg, repository.NewAdminRepository(db))
	hash, err := svc.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	if err := db.Create(&models.Admin{Username: "ops", PasswordHash: hash, TokenVersion: 4}).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	admin, token, expiresAt, err := svc.Login(context.Background(), "ops", "s3cret-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if admin.LastLoginAt == nil || expiresAt.IsZero() {
		t.Fatalf("login should stamp last login and expiry")
	}
	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != "ops" || claims.TokenVersion != 4 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := ParseAdminJWT("other-secret", token); err == nil {
		t.Fatalf("token signed with another secret must fail")
	}
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	db := setupRecoveryServiceDB(t)
	cfg := &config.Config{JWT: config.JWTConfig{SecretKey: "test-secret"}}
	svc := NewAuthService(cfg, repository.NewAdminRepository(db))
	hash, _ := svc.HashPassword("right")
	if err := db.Create(&models.Admin{Username: "ops", PasswordHash: hash}).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	if _, _, _, err := svc.Login(context.Background(), "ops", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
	if _, _, _, err := svc.Login(context.Background(), "nobody", "right"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user want ErrInvalidCredentials got %v", err)
	}
}

func TestUserJWTRoundTrip(t *testing.T) {
	svc := NewUserAuthService(config.JWTConfig{SecretKey: "user-secret", ExpireHours: 1})
	token, _, err := svc.GenerateUserJWT(&models.User{ID: 9, Email: "u@example.com"})
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != 9 || claims.Email != "u@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := svc.ParseUserJWT(token + "x"); err == nil {
		t.Fatalf("tampered token must fail")
	}
}
