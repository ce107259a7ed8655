package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HealthPlanEntry is the stored shape of one health plan (convênio) of a patient.
type HealthPlanEntry struct {
	Provider   string     `json:"operadora"`
	Product    string     `json:"plano,omitempty"`
	CardNumber string     `json:"numero_carteira"`
	ValidUntil *time.Time `json:"validade,omitempty"`
}

// Image is a stored picture reference (profile photo).
type Image struct {
	ID  uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	URL string
}

// Patient row. CPF is kept only as hash (uniqueness/lookup) and AES-GCM ciphertext.
type Patient struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FullName      string
	Email         string
	PasswordHash  string
	CPFHash       string `gorm:"column:cpf_hash"`
	CPFEncrypted  []byte `gorm:"column:cpf_encrypted"`
	CPFNonce      []byte `gorm:"column:cpf_nonce"`
	CPFKeyVersion string `gorm:"column:cpf_key_version"`
	Active        bool
	HasHealthPlan bool
	HealthPlans   datatypes.JSONSlice[HealthPlanEntry] `gorm:"type:jsonb"`
	Phone         string
	History       string
	ImageID       *uuid.UUID `gorm:"type:uuid"`
	Image         *Image
	AddressID     *uuid.UUID `gorm:"type:uuid"`
	Address       *Address
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt
}

// PatientByID loads a non-deleted patient with address and image. Returns gorm.ErrRecordNotFound when absent.
func PatientByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := db.WithContext(ctx).Preload("Address").Preload("Image").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PatientByCPFHash returns the active row holding the given CPF hash, if any.
func PatientByCPFHash(ctx context.Context, db *gorm.DB, cpfHash string) (*Patient, error) {
	var p Patient
	err := db.WithContext(ctx).Where("cpf_hash = ?", cpfHash).Take(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPatients returns a page ordered by name plus the total count. If limit is 0, no limit is applied.
func ListPatients(ctx context.Context, db *gorm.DB, limit, offset int) ([]Patient, int64, error) {
	var total int64
	if err := db.WithContext(ctx).Model(&Patient{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := db.WithContext(ctx).Preload("Image").Order("full_name").Order("id")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	var list []Patient
	err := q.Find(&list).Error
	return list, total, err
}

// PatientsByName does an exact match on full_name; name is always a bound parameter.
func PatientsByName(ctx context.Context, db *gorm.DB, name string) ([]Patient, error) {
	var list []Patient
	err := db.WithContext(ctx).Preload("Image").Where("full_name = ?", name).Order("id").Find(&list).Error
	return list, err
}

// CreatePatient inserts p without touching associations; address/image must already exist.
func CreatePatient(ctx context.Context, db *gorm.DB, p *Patient) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// SavePatient writes every mutable column of p, zero values included (full replacement).
func SavePatient(ctx context.Context, db *gorm.DB, p *Patient) error {
	result := db.WithContext(ctx).Model(p).
		Select("*").
		Omit("ID", "CreatedAt", "DeletedAt", clause.Associations).
		Updates(p)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeactivatePatient sets active=false and soft deletes the row.
func DeactivatePatient(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	result := db.WithContext(ctx).Model(&Patient{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return db.WithContext(ctx).Delete(&Patient{}, "id = ?", id).Error
}
