package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "auctus/internal/errors"
	"auctus/internal/logger"
	"auctus/internal/models"
	"auctus/internal/token"
)

const (
	resetTokenBytes = 32
	resetTokenTTL   = time.Hour
)

// passwordResetService handles the reset-token lifecycle. Raw tokens exist
// only in memory and in the email sent to the user; the database holds the
// SHA-256 digest.
type passwordResetService struct {
	db         *gorm.DB
	users      UserServicer
	emails     EmailSender
	websiteURL string
}

// NewPasswordResetService creates a new PasswordResetServicer.
func NewPasswordResetService(db *gorm.DB, users UserServicer, emails EmailSender, websiteURL string) PasswordResetServicer {
	return &passwordResetService{
		db:         db,
		users:      users,
		emails:     emails,
		websiteURL: strings.TrimRight(websiteURL, "/"),
	}
}

// RequestReset issues a reset token for the account behind email and mails
// the reset link. When no account matches, it returns nil without issuing
// anything, so the endpoint's response does not reveal whether the address
// is registered.
func (s *passwordResetService) RequestReset(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Email is required")
	}

	// Fail before the user lookup when mail cannot go out, so known and
	// unknown addresses get the same response either way.
	if !s.emails.Configured() {
		return apperrors.ErrEmailNotConfigured
	}

	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrUserNotFound.Code {
			logger.Get().Infow("password reset requested for unknown email", "email", email)
			return nil
		}
		return err
	}

	// Deactivated accounts get the same silent treatment as unknown ones:
	// no token is issued, and the caller cannot tell the difference.
	if !user.IsActive {
		logger.Get().Infow("password reset requested for inactive account", "email", email)
		return nil
	}

	raw, err := newResetToken()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	reset := &models.PasswordReset{
		UserID:    user.ID,
		TokenHash: token.Hash(raw),
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := s.db.Create(reset).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resetURL := fmt.Sprintf("%s/reset-password.html?token=%s", s.websiteURL, raw)
	if err := s.emails.SendPasswordResetEmail(user.Email, resetURL); err != nil {
		return err
	}
	return nil
}

// ResetPassword redeems a raw reset token and sets the new password.
//
// Consumption is atomic: the used_at mark is a conditional update that only
// succeeds when used_at was still null, so of two concurrent requests
// presenting the same token exactly one wins; the loser observes
// RESET_TOKEN_USED.
func (s *passwordResetService) ResetPassword(rawToken, newPassword string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Reset token is required")
	}

	var reset models.PasswordReset
	if err := s.db.Where("token_hash = ?", token.Hash(rawToken)).First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrResetTokenNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if reset.UsedAt != nil {
		return apperrors.ErrResetTokenUsed
	}
	if time.Now().After(reset.ExpiresAt) {
		return apperrors.ErrResetTokenExpired
	}

	result := s.db.Model(&models.PasswordReset{}).
		Where("id = ? AND used_at IS NULL", reset.ID).
		Update("used_at", time.Now())
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		// A concurrent request consumed the token between the read and the
		// conditional update.
		return apperrors.ErrResetTokenUsed
	}

	return s.users.UpdatePassword(reset.UserID, newPassword)
}

// newResetToken returns a cryptographically random hex token.
func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
