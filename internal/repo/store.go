package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PatientRepository is what the patient service needs from persistence.
// Transaction runs fn against a repository bound to a single database transaction.
type PatientRepository interface {
	Transaction(ctx context.Context, fn func(tx PatientRepository) error) error
	PatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	PatientByCPFHash(ctx context.Context, cpfHash string) (*Patient, error)
	ListPatients(ctx context.Context, limit, offset int) ([]Patient, int64, error)
	PatientsByName(ctx context.Context, name string) ([]Patient, error)
	CreatePatient(ctx context.Context, p *Patient) error
	SavePatient(ctx context.Context, p *Patient) error
	DeactivatePatient(ctx context.Context, id uuid.UUID) error
	CreateAddress(ctx context.Context, a *Address) error
	UpdateAddress(ctx context.Context, a *Address) error
	AppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	CreateAuditEvent(ctx context.Context, ev *AuditEvent, metadata interface{}) error
}

// Store binds the package functions to one *gorm.DB (pool or transaction).
type Store struct {
	db *gorm.DB
}

var _ PatientRepository = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Transaction(ctx context.Context, fn func(tx PatientRepository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) PatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return PatientByID(ctx, s.db, id)
}

func (s *Store) PatientByCPFHash(ctx context.Context, cpfHash string) (*Patient, error) {
	return PatientByCPFHash(ctx, s.db, cpfHash)
}

func (s *Store) ListPatients(ctx context.Context, limit, offset int) ([]Patient, int64, error) {
	return ListPatients(ctx, s.db, limit, offset)
}

func (s *Store) PatientsByName(ctx context.Context, name string) ([]Patient, error) {
	return PatientsByName(ctx, s.db, name)
}

func (s *Store) CreatePatient(ctx context.Context, p *Patient) error {
	return CreatePatient(ctx, s.db, p)
}

func (s *Store) SavePatient(ctx context.Context, p *Patient) error {
	return SavePatient(ctx, s.db, p)
}

func (s *Store) DeactivatePatient(ctx context.Context, id uuid.UUID) error {
	return DeactivatePatient(ctx, s.db, id)
}

func (s *Store) CreateAddress(ctx context.Context, a *Address) error {
	return CreateAddress(ctx, s.db, a)
}

func (s *Store) UpdateAddress(ctx context.Context, a *Address) error {
	return UpdateAddress(ctx, s.db, a)
}

func (s *Store) AppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return AppointmentsByPatient(ctx, s.db, patientID)
}

func (s *Store) CreateAuditEvent(ctx context.Context, ev *AuditEvent, metadata interface{}) error {
	return CreateAuditEvent(ctx, s.db, ev, metadata)
}
