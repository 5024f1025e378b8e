package services

import (
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "auctus/internal/errors"
	"auctus/internal/models"
	"auctus/internal/testutil"
	"auctus/internal/token"

	"gorm.io/gorm"
)

type sentEmail struct {
	To       string
	ResetURL string
}

type mockEmailSender struct {
	mu           sync.Mutex
	sent         []sentEmail
	err          error
	unconfigured bool
}

func (m *mockEmailSender) Configured() bool {
	return !m.unconfigured
}

func (m *mockEmailSender) SendPasswordResetEmail(to, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{To: to, ResetURL: resetURL})
	return nil
}

// rawTokenFromURL extracts the token query parameter from a mailed reset link.
func rawTokenFromURL(t *testing.T, resetURL string) string {
	t.Helper()
	u, err := url.Parse(resetURL)
	if err != nil {
		t.Fatalf("failed to parse reset URL %q: %v", resetURL, err)
	}
	raw := u.Query().Get("token")
	if raw == "" {
		t.Fatalf("reset URL %q carries no token", resetURL)
	}
	return raw
}

func setupResetService(db *gorm.DB, emails EmailSender) (PasswordResetServicer, UserServicer) {
	users := NewUserService(db)
	return NewPasswordResetService(db, users, emails, "https://auctus.studio/"), users
}

func TestRequestReset(t *testing.T) {
	t.Run("known_email_stores_digest_and_sends_link", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		emails := &mockEmailSender{}
		svc, _ := setupResetService(db, emails)

		user := testutil.CreateTestUserWithEmail(t, db, "reset@example.com")

		err := svc.RequestReset("reset@example.com")
		testutil.AssertNoError(t, err)

		if len(emails.sent) != 1 {
			t.Fatalf("expected 1 email, got %d", len(emails.sent))
		}
		if emails.sent[0].To != "reset@example.com" {
			t.Errorf("expected email to reset@example.com, got %s", emails.sent[0].To)
		}
		if !strings.HasPrefix(emails.sent[0].ResetURL, "https://auctus.studio/reset-password.html?token=") {
			t.Errorf("unexpected reset URL: %s", emails.sent[0].ResetURL)
		}

		raw := rawTokenFromURL(t, emails.sent[0].ResetURL)
		if len(raw) != 64 {
			t.Errorf("expected 32-byte hex token (64 chars), got %d chars", len(raw))
		}

		var reset models.PasswordReset
		if err := db.First(&reset, "user_id = ?", user.ID).Error; err != nil {
			t.Fatalf("expected a password_resets row: %v", err)
		}
		if reset.TokenHash == raw {
			t.Error("raw token must not be stored")
		}
		if reset.TokenHash != token.Hash(raw) {
			t.Error("stored hash should be sha256 of the raw token")
		}
		if until := time.Until(reset.ExpiresAt); until < 59*time.Minute || until > 61*time.Minute {
			t.Errorf("expected ~1h expiry, got %s", until)
		}
		if reset.UsedAt != nil {
			t.Error("new request should be unused")
		}
	})

	t.Run("unknown_email_is_silent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		emails := &mockEmailSender{}
		svc, _ := setupResetService(db, emails)

		err := svc.RequestReset("nobody@example.com")
		testutil.AssertNoError(t, err)

		if len(emails.sent) != 0 {
			t.Errorf("expected no email for unknown address, got %d", len(emails.sent))
		}
		var count int64
		db.Model(&models.PasswordReset{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no reset rows, got %d", count)
		}
	})

	t.Run("empty_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := setupResetService(db, &mockEmailSender{})

		err := svc.RequestReset("   ")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("send_failure_propagates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		emails := &mockEmailSender{err: apperrors.ErrEmailSendFailed}
		svc, _ := setupResetService(db, emails)

		testutil.CreateTestUserWithEmail(t, db, "failmail@example.com")

		err := svc.RequestReset("failmail@example.com")
		testutil.AssertAppError(t, err, "EMAIL_SEND_FAILED")
	})

	t.Run("unconfigured_sender_fails_before_lookup", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		emails := &mockEmailSender{unconfigured: true}
		svc, _ := setupResetService(db, emails)

		user := testutil.CreateTestUserWithEmail(t, db, "present@example.com")

		// Known and unknown addresses fail identically, so an unconfigured
		// deployment cannot be used to enumerate accounts.
		err := svc.RequestReset("present@example.com")
		testutil.AssertAppError(t, err, "EMAIL_NOT_CONFIGURED")
		err = svc.RequestReset("absent@example.com")
		testutil.AssertAppError(t, err, "EMAIL_NOT_CONFIGURED")

		var count int64
		db.Model(&models.PasswordReset{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected no reset rows, got %d", count)
		}
	})

	t.Run("inactive_account_is_silent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		emails := &mockEmailSender{}
		svc, _ := setupResetService(db, emails)

		user := testutil.CreateTestUserWithEmail(t, db, "dormant@example.com")
		if err := db.Model(&models.User{}).Where("id = ?", user.ID).
			Update("is_active", false).Error; err != nil {
			t.Fatalf("failed to deactivate user: %v", err)
		}

		err := svc.RequestReset("dormant@example.com")
		testutil.AssertNoError(t, err)

		if len(emails.sent) != 0 {
			t.Errorf("expected no email for inactive account, got %d", len(emails.sent))
		}
		var count int64
		db.Model(&models.PasswordReset{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no reset rows, got %d", count)
		}
	})
}

func TestResetPassword(t *testing.T) {
	issue := func(t *testing.T, db *gorm.DB, svc PasswordResetServicer, emails *mockEmailSender, email string) string {
		t.Helper()
		testutil.CreateTestUserWithEmail(t, db, email)
		if err := svc.RequestReset(email); err != nil {
			t.Fatalf("RequestReset: %v", err)
		}
		return rawTokenFromURL(t, emails.sent[len(emails.sent)-1].ResetURL)
	}

	t.Run("success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		emails := &mockEmailSender{}
		svc, users := setupResetService(db, emails)

		raw := issue(t, db, svc, emails, "happy@example.com")

		err := svc.ResetPassword(raw, "brand-new-pass")
		testutil.AssertNoError(t, err)

		user, err := users.GetUserByEmail("happy@example.com")
		testutil.AssertNoError(t, err)
		if !users.VerifyPassword(user, "brand-new-pass") {
			t.Error("expected new password to verify after reset")
		}

		var reset models.PasswordReset
		db.First(&reset, "user_id = ?", user.ID)
		if reset.UsedAt == nil {
			t.Error("expected used_at to be set after successful reset")
		}
	})

	t.Run("clears_lockout_state", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		emails := &mockEmailSender{}
		svc, users := setupResetService(db, emails)

		raw := issue(t, db, svc, emails, "lockedreset@example.com")

		lockUntil := time.Now().Add(15 * time.Minute)
		db.Exec("UPDATE users SET locked_until = ?, failed_login_attempts = 5 WHERE email = ?",
			lockUntil, "lockedreset@example.com")

		err := svc.ResetPassword(raw, "unlock-me-now")
		testutil.AssertNoError(t, err)

		user, _ := users.GetUserByEmail("lockedreset@example.com")
		if user.FailedLoginAttempts != 0 || user.LockedUntil != nil {
			t.Error("reset must clear failed attempts and lockout")
		}
	})

	t.Run("unknown_token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := setupResetService(db, &mockEmailSender{})

		err := svc.ResetPassword("deadbeef", "whatever-pass")
		testutil.AssertAppError(t, err, "INVALID_RESET_TOKEN")
	})

	t.Run("missing_token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := setupResetService(db, &mockEmailSender{})

		err := svc.ResetPassword("  ", "whatever-pass")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("second_use_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		emails := &mockEmailSender{}
		svc, _ := setupResetService(db, emails)

		raw := issue(t, db, svc, emails, "twice@example.com")

		testutil.AssertNoError(t, svc.ResetPassword(raw, "first-new-pass"))

		err := svc.ResetPassword(raw, "second-new-pass")
		testutil.AssertAppError(t, err, "RESET_TOKEN_USED")
	})

	t.Run("expired_token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		emails := &mockEmailSender{}
		svc, _ := setupResetService(db, emails)

		raw := issue(t, db, svc, emails, "stale@example.com")

		db.Model(&models.PasswordReset{}).
			Where("token_hash = ?", token.Hash(raw)).
			Update("expires_at", time.Now().Add(-time.Minute))

		err := svc.ResetPassword(raw, "too-late-pass")
		testutil.AssertAppError(t, err, "RESET_TOKEN_EXPIRED")
	})

	t.Run("expired_reported_even_if_used", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		emails := &mockEmailSender{}
		svc, _ := setupResetService(db, emails)

		raw := issue(t, db, svc, emails, "usedstale@example.com")

		// used_at wins over expiry: the spec orders the checks used-then-expired
		now := time.Now()
		db.Model(&models.PasswordReset{}).
			Where("token_hash = ?", token.Hash(raw)).
			Updates(map[string]interface{}{"used_at": now, "expires_at": now.Add(-time.Minute)})

		err := svc.ResetPassword(raw, "whatever-pass")
		testutil.AssertAppError(t, err, "RESET_TOKEN_USED")
	})

	t.Run("concurrent_consume_single_winner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		// Serialize the sqlite connection; the atomicity under test is the
		// conditional used_at update, not the driver's locking.
		sqlDB, err := db.DB()
		testutil.AssertNoError(t, err)
		sqlDB.SetMaxOpenConns(1)

		emails := &mockEmailSender{}
		svc, _ := setupResetService(db, emails)

		raw := issue(t, db, svc, emails, "race@example.com")

		var wg sync.WaitGroup
		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- svc.ResetPassword(raw, "contended-pass")
			}()
		}
		wg.Wait()
		close(results)

		var successes, used int
		for err := range results {
			if err == nil {
				successes++
				continue
			}
			testutil.AssertAppError(t, err, "RESET_TOKEN_USED")
			used++
		}
		if successes != 1 || used != 1 {
			t.Errorf("expected exactly one winner and one RESET_TOKEN_USED, got %d/%d", successes, used)
		}
	})
}
