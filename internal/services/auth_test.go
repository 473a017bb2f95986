package services

import (
	"testing"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewAuthService(db, "test-secret")
}

func TestRegisterAndValidateToken(t *testing.T) {
	auth := newAuthService(t)

	token, err := auth.Register("Med.Student@example.com", "correct horse battery", "Jo")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	userID, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	user, err := auth.GetUser(userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Email != "med.student@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.PasswordHash == "correct horse battery" {
		t.Error("password stored in plaintext")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth := newAuthService(t)

	if _, err := auth.Register("a@example.com", "password-one", "A"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := auth.Register("A@Example.com", "password-two", "A2"); err == nil {
		t.Fatal("duplicate email accepted")
	}
}

func TestLogin(t *testing.T) {
	auth := newAuthService(t)

	if _, err := auth.Register("b@example.com", "the right password", "B"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := auth.Login("b@example.com", "the right password"); err != nil {
		t.Errorf("login with correct password: %v", err)
	}
	if _, err := auth.Login("B@EXAMPLE.COM", "the right password"); err != nil {
		t.Errorf("login should be case-insensitive on email: %v", err)
	}
	if _, err := auth.Login("b@example.com", "wrong"); err == nil {
		t.Error("login with wrong password succeeded")
	}
	if _, err := auth.Login("nobody@example.com", "whatever"); err == nil {
		t.Error("login for unknown user succeeded")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	auth := newAuthService(t)

	if _, err := auth.ValidateToken("not-a-token"); err == nil {
		t.Error("garbage token accepted")
	}

	other := NewAuthService(nil, "other-secret")
	token, err := other.GenerateToken(1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := auth.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}
