package database

import (
	"os"
	"path/filepath"

	"backend/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewConnection opens the embedded sqlite database. Migrations are NOT run
// here: callers invoke Migrate explicitly at startup.
func NewConnection(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the base schema and then applies the versioned forward
// migrations in order.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Cliente{},
		&model.Contratto{},
		&model.Documento{},
		&model.Fattura{},
		&model.Notifica{},
	)
	if err != nil {
		return err
	}
	return RunMigrations(db)
}
