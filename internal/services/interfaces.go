package services

import (
	"auctus/internal/models"
	"auctus/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, username, password string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	UpdatePassword(userID, newPassword string) error
}

// PasswordResetServicer defines the contract for the reset-token lifecycle.
type PasswordResetServicer interface {
	RequestReset(email string) error
	ResetPassword(rawToken, newPassword string) error
}

// EmailSender delivers outbound mail.
type EmailSender interface {
	// Configured reports whether the sender can deliver mail at all.
	Configured() bool
	SendPasswordResetEmail(to, resetURL string) error
}

// AuditServicer records and lists authentication events.
type AuditServicer interface {
	Log(userID, action, email, ipAddress string, detail map[string]interface{})
	ListForUser(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}
