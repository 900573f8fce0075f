// internal/models/audit.go
package models

import (
	"github.com/google/uuid"
)

// AuditLog records every mutating API call, keyed to the acting user when
// one is authenticated. Inventory movements and order status edits are the
// main consumers on the admin side.
type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"not null"`
	ResourceType string     `json:"resource_type" gorm:"index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid"`
	IPAddress    string     `json:"ip_address"`
	UserAgent    string     `json:"user_agent"`
	RequestData  JSONB      `json:"request_data" gorm:"type:jsonb"`
}
