package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Documento is an uploaded file linked to a Cliente and/or a Contratto
// (at least one). Path points either into the local uploads/ directory or
// into the S3 bucket (documenti/ key prefix).
type Documento struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"` // uploader, charged for quota
	ClienteID       *uuid.UUID `gorm:"type:uuid;index" json:"clienteId"`
	ContrattoID     *uuid.UUID `gorm:"type:uuid;index" json:"contrattoId"`
	Nome            string     `gorm:"type:varchar(255);not null" json:"nome"`
	Tipo            string     `gorm:"type:varchar(128)" json:"tipo"` // MIME type
	Categoria       string     `gorm:"type:varchar(64);default:'Altro'" json:"categoria"`
	DimensioneBytes int64      `gorm:"not null;default:0" json:"dimensioneBytes"`
	Path            string     `gorm:"type:varchar(512);not null" json:"path"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Documento) TableName() string { return "documenti" }

func (d *Documento) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
