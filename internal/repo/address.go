package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Address struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Zip        string
	Street     string
	State      string
	Number     string
	Complement string
}

func CreateAddress(ctx context.Context, db *gorm.DB, a *Address) error {
	return db.WithContext(ctx).Create(a).Error
}

// UpdateAddress sobrescreve os cinco campos, inclusive os vazios.
func UpdateAddress(ctx context.Context, db *gorm.DB, a *Address) error {
	result := db.WithContext(ctx).Model(&Address{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
		"zip":        a.Zip,
		"street":     a.Street,
		"state":      a.State,
		"number":     a.Number,
		"complement": a.Complement,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CleanupOrphanAddresses remove endereços que não são referenciados por nenhum paciente.
// Retorna o número de linhas removidas.
func CleanupOrphanAddresses(ctx context.Context, db *gorm.DB) (int64, error) {
	result := db.WithContext(ctx).Exec(`
		DELETE FROM addresses
		WHERE id NOT IN (SELECT address_id FROM patients WHERE address_id IS NOT NULL)
	`)
	return result.RowsAffected, result.Error
}
