package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Specialist is owned by the scheduling subsystem; read-only here.
type Specialist struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName  string
	Specialty string
}

// Appointment is owned by the scheduling subsystem; this service only reads it.
type Appointment struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PatientID    uuid.UUID  `gorm:"type:uuid"`
	SpecialistID *uuid.UUID `gorm:"type:uuid"`
	Specialist   *Specialist
	Date         time.Time
	Reminder     bool
	Reminders    pq.StringArray `gorm:"type:text[]"`
	Notes        *string
	Status       string
	CreatedAt    time.Time
}

func AppointmentsByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]Appointment, error) {
	var list []Appointment
	err := db.WithContext(ctx).
		Preload("Specialist").
		Where("patient_id = ?", patientID).
		Order("date").
		Find(&list).Error
	return list, err
}
