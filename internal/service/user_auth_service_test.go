package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupUserAuthServiceTest(t *testing.T) (*UserAuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "test-secret"
	cfg.UserJWT.ExpireHours = 1
	return NewUserAuthService(cfg, repository.NewUserRepository(db)), db
}

func seedAuthUser(t *testing.T, db *gorm.DB, status string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pass1234"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	user := &models.User{
		Email:        "hong@example.com",
		PasswordHash: string(hash),
		DisplayName:  "홍길동",
		Status:       status,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func TestLoginIssuesParsableToken(t *testing.T) {
	authSvc, db := setupUserAuthServiceTest(t)
	seeded := seedAuthUser(t, db, constants.UserStatusActive)

	user, token, expiresAt, err := authSvc.Login("Hong@Example.com ", "pass1234")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if user.ID != seeded.ID || token == "" {
		t.Fatalf("unexpected login result: user=%+v token=%q", user, token)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("token should expire in the future: %v", expiresAt)
	}

	claims, err := authSvc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("ParseUserJWT error: %v", err)
	}
	if claims.UserID != seeded.ID || claims.Email != seeded.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	authSvc, db := setupUserAuthServiceTest(t)
	seedAuthUser(t, db, constants.UserStatusActive)

	if _, _, _, err := authSvc.Login("hong@example.com", "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
	if _, _, _, err := authSvc.Login("nobody@example.com", "pass1234"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got: %v", err)
	}
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	authSvc, db := setupUserAuthServiceTest(t)
	seedAuthUser(t, db, constants.UserStatusDisabled)

	if _, _, _, err := authSvc.Login("hong@example.com", "pass1234"); err != ErrUserDisabled {
		t.Fatalf("expected ErrUserDisabled, got: %v", err)
	}
}

func TestParseUserJWTRejectsForgedToken(t *testing.T) {
	authSvc, db := setupUserAuthServiceTest(t)
	user := seedAuthUser(t, db, constants.UserStatusActive)

	otherCfg := &config.Config{}
	otherCfg.UserJWT.SecretKey = "other-secret"
	otherSvc := NewUserAuthService(otherCfg, repository.NewUserRepository(db))
	forged, _, err := otherSvc.GenerateUserJWT(user, 1)
	if err != nil {
		t.Fatalf("GenerateUserJWT error: %v", err)
	}
	if _, err := authSvc.ParseUserJWT(forged); err == nil {
		t.Fatalf("expected signature verification failure")
	}
}
