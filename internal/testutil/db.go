package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/prontuario/patients/internal/migrate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB abre conexão GORM a partir de DATABASE_URL. Se não houver, retorna nil.
func OpenDB(ctx context.Context) *gorm.DB {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil
	}
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return nil
	}
	return db
}

func MustMigrate(ctx context.Context, db *gorm.DB) error {
	migrationsDir, err := findMigrationsDir()
	if err != nil {
		return err
	}
	_, err = migrate.Run(ctx, db, migrationsDir)
	return err
}

// Truncate limpa as tabelas do serviço entre testes de integração.
func Truncate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec(`TRUNCATE appointments, specialists, audit_events, patients, addresses, images CASCADE`).Error
}

func findMigrationsDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	cur := wd
	for i := 0; i < 8; i++ {
		candidate := filepath.Join(cur, "migrations")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return "", errors.New("migrations dir not found from working directory")
}
