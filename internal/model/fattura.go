package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Fattura is an invoice tied to a Cliente and Contratto. The table is part
// of the schema and follows ownership reassignment, but has no HTTP routes.
type Fattura struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ClienteID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"clienteId"`
	ContrattoID uuid.UUID       `gorm:"type:uuid;not null;index" json:"contrattoId"`
	AgenteID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"agenteId"`
	Importo     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"importo"`
	Stato       string          `gorm:"type:varchar(20);not null;default:'emessa'" json:"stato"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Fattura) TableName() string { return "fatture" }

func (f *Fattura) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
