package services

import (
	"encoding/json"

	"gorm.io/gorm"

	apperrors "auctus/internal/errors"
	"auctus/internal/logger"
	"auctus/internal/models"
	"auctus/internal/pagination"
)

// Audit actions recorded by the auth endpoints.
const (
	AuditRegistered     = "user.registered"
	AuditLoginSuccess   = "login.success"
	AuditLoginFailed    = "login.failed"
	AuditLoginLocked    = "login.locked"
	AuditLogout         = "logout"
	AuditResetRequested = "password.reset_requested"
	AuditResetCompleted = "password.reset_completed"
)

// auditService records authentication events.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(userID, action, email, ipAddress string, detail map[string]interface{}) {
	var detailJSON string
	if detail != nil {
		data, err := json.Marshal(detail)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit detail", "error", err, "action", action)
			detailJSON = "{}"
		} else {
			detailJSON = string(data)
		}
	}

	// Anonymous events (failed logins, reset requests) carry no principal;
	// the user_id column must be NULL for them, not an empty string.
	var uid *string
	if userID != "" {
		uid = &userID
	}

	entry := &models.AuditLog{
		UserID:    uid,
		Action:    action,
		Email:     email,
		IPAddress: ipAddress,
		Detail:    detailJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
		)
	}
}

// ListForUser returns the user's recent auth events, newest first.
func (s *auditService) ListForUser(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.AuditLog{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}
