package database

import (
	"fmt"
	"log"
	"time"

	"backend/internal/model"

	"gorm.io/gorm"
)

// Migration is a forward-only schema change. Add new migrations at the end
// of the list and increment the version.
type Migration struct {
	Version int
	Name    string
	Up      func(*gorm.DB) error
}

// MigrationRecord tracks which migrations have been applied.
type MigrationRecord struct {
	Version   int       `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (MigrationRecord) TableName() string { return "schema_migrations" }

var migrations = []Migration{
	{
		Version: 1,
		Name:    "Add tipoCliente to contratti",
		Up: func(db *gorm.DB) error {
			return addColumnIfMissing(db, &model.Contratto{}, "tipo_cliente")
		},
	},
	{
		Version: 2,
		Name:    "Add userId and dimensioneBytes to documenti",
		Up: func(db *gorm.DB) error {
			if err := addColumnIfMissing(db, &model.Documento{}, "user_id"); err != nil {
				return err
			}
			return addColumnIfMissing(db, &model.Documento{}, "dimensione_bytes")
		},
	},
	{
		Version: 3,
		Name:    "Add indirizzoResidenza and iban to clienti",
		Up: func(db *gorm.DB) error {
			if err := addColumnIfMissing(db, &model.Cliente{}, "indirizzo_residenza"); err != nil {
				return err
			}
			return addColumnIfMissing(db, &model.Cliente{}, "iban")
		},
	},
	{
		Version: 4,
		Name:    "Create referenti table",
		Up: func(db *gorm.DB) error {
			return db.Migrator().AutoMigrate(&model.Referente{})
		},
	},
	{
		Version: 5,
		Name:    "Create forniture table",
		Up: func(db *gorm.DB) error {
			return db.Migrator().AutoMigrate(&model.Fornitura{})
		},
	},
}

func addColumnIfMissing(db *gorm.DB, mdl interface{}, column string) error {
	if db.Migrator().HasColumn(mdl, column) {
		return nil
	}
	return db.Migrator().AddColumn(mdl, column)
}

// RunMigrations applies every pending migration in version order inside its
// own transaction, recording each one in schema_migrations.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return err
	}

	for _, m := range migrations {
		var count int64
		if err := db.Model(&MigrationRecord{}).Where("version = ?", m.Version).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		log.Printf("Running migration %d: %s", m.Version, m.Name)
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{
				Version:   m.Version,
				Name:      m.Name,
				AppliedAt: time.Now(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
	}
	return nil
}
