package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"auctus/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
// The fixture password is "password123", hashed with bcrypt.MinCost.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserWithEmail(t, db, fmt.Sprintf("user%d@test.com", n))
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        email,
		Username:     fmt.Sprintf("user%d", nextID()),
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestPasswordReset creates a reset request row for the given user
// storing tokenHash directly, expiring one hour from now.
func CreateTestPasswordReset(t *testing.T, db *gorm.DB, userID, tokenHash string) *models.PasswordReset {
	t.Helper()

	reset := &models.PasswordReset{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := db.Create(reset).Error; err != nil {
		t.Fatalf("failed to create test password reset: %v", err)
	}
	return reset
}
