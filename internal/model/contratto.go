package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Stato contratto enum constants
const (
	ContrattoAttivo     = "attivo"
	ContrattoScaduto    = "scaduto"
	ContrattoInScadenza = "in_scadenza"
)

// Contratto is a supply/telecom contract for a Cliente. AgenteID is a
// denormalized copy of the owner at creation time; reassignment rewrites it
// together with the parent Cliente's owner.
type Contratto struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Numero       string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"numero"`
	ClienteID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"clienteId"`
	Cliente      *Cliente        `gorm:"foreignKey:ClienteID" json:"-"`
	AgenteID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"agenteId"`
	Tipo         string          `gorm:"type:varchar(64);not null" json:"tipo"` // luce, gas, telefonia, ...
	TipoCliente  string          `gorm:"type:varchar(64)" json:"tipoCliente"`
	DataInizio   time.Time       `gorm:"not null" json:"dataInizio"`
	DataScadenza time.Time       `gorm:"not null" json:"dataScadenza"`
	Importo      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"importo"` // monthly amount
	Stato        string          `gorm:"type:varchar(20);not null;default:'attivo';index" json:"stato"`
	Note         string          `gorm:"type:text" json:"note"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contratto) TableName() string { return "contratti" }

func (c *Contratto) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
