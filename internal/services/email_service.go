package services

import (
	"fmt"

	"gopkg.in/gomail.v2"

	apperrors "auctus/internal/errors"
)

// emailService sends transactional mail over SMTP.
type emailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService creates a new EmailSender. An empty host or sender address
// leaves the service unconfigured; sends then fail with EMAIL_NOT_CONFIGURED.
func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailSender {
	svc := &emailService{from: fromEmail}
	if smtpHost != "" {
		svc.dialer = gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	}
	return svc
}

// Configured reports whether both an SMTP host and a sender address are set.
func (s *emailService) Configured() bool {
	return s.dialer != nil && s.from != ""
}

// SendPasswordResetEmail mails the one-time reset link. The raw token is
// embedded in the URL and is never logged.
func (s *emailService) SendPasswordResetEmail(to, resetURL string) error {
	if !s.Configured() {
		return apperrors.ErrEmailNotConfigured
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Reset your Auctus Studio password")

	body := fmt.Sprintf(
		"We received a request to reset your Auctus Studio password.\n\n"+
			"Reset your password: %s\n\n"+
			"The link expires in one hour. If you did not request this, you can ignore this email.",
		resetURL)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return apperrors.Wrap(apperrors.ErrEmailSendFailed, err)
	}
	return nil
}
