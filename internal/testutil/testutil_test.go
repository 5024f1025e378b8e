package testutil_test

import (
	"testing"

	"auctus/internal/errors"
	"auctus/internal/testutil"
	"auctus/internal/token"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "password_resets", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have a non-empty ID")
	}
	if !user.IsActive {
		t.Error("fixture user should be active")
	}

	reset := testutil.CreateTestPasswordReset(t, db, user.ID, token.Hash("raw"))
	if reset.UserID != user.ID {
		t.Errorf("expected reset owned by %s, got %s", user.ID, reset.UserID)
	}
	if reset.UsedAt != nil {
		t.Error("new reset request should be unused")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrUserNotFound, "custom message")
	appErr := testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	if appErr.Message != "custom message" {
		t.Errorf("expected overridden message, got %q", appErr.Message)
	}
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
