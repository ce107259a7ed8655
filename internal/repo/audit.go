package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AuditPatientCreated     = "PATIENT_CREATED"
	AuditPatientUpdated     = "PATIENT_UPDATED"
	AuditPatientAddress     = "PATIENT_ADDRESS_UPDATED"
	AuditPatientDeactivated = "PATIENT_DEACTIVATED"
)

type AuditEvent struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Action       string
	ActorType    string
	ActorID      *string
	RequestID    *string
	ResourceType string
	ResourceID   *uuid.UUID     `gorm:"type:uuid"`
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time
}

// CreateAuditEvent grava o evento; metadata é serializado como JSON quando presente.
func CreateAuditEvent(ctx context.Context, db *gorm.DB, ev *AuditEvent, metadata interface{}) error {
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		ev.Metadata = datatypes.JSON(b)
	}
	return db.WithContext(ctx).Create(ev).Error
}
