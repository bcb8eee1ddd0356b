package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ruolo enum constants
const (
	RuoloPuntoVendita = "punto_vendita"
	RuoloAgente       = "agente"
)

// User represents a portal account: either a punto vendita (dealership)
// or an agente scoped under one.
type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password       string     `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Nome           string     `gorm:"type:varchar(255);not null" json:"nome"`
	Ruolo          string     `gorm:"type:varchar(50);not null;index" json:"ruolo"` // punto_vendita, agente
	PuntoVenditaID *uuid.UUID `gorm:"type:uuid;index" json:"puntoVenditaId"`        // set for agenti, nil for punto_vendita
	PuntoVendita   *User      `gorm:"foreignKey:PuntoVenditaID" json:"-"`
	Attivo         bool       `gorm:"not null;default:true" json:"attivo"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName keeps the original portal table naming
func (User) TableName() string { return "utenti" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
