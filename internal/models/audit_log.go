package models

// AuditLog records authentication events (logins, lockouts, password
// resets) for security review. Writes are best-effort.
type AuditLog struct {
	Base
	// UserID is nil for events with no confirmed principal, such as failed
	// logins; a uuid column cannot store an empty string.
	UserID    *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action    string  `gorm:"not null" json:"action"`
	Email     string  `json:"email,omitempty"`
	IPAddress string  `json:"ip_address,omitempty"`
	Detail    string  `json:"detail,omitempty"`
}
