package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tipo notifica enum constants
const (
	NotificaInfo           = "info"
	NotificaRiassegnazione = "riassegnazione"
	NotificaScadenza       = "scadenza"
)

// Notifica is an in-app notification for a single user, also pushed over
// the websocket hub when the user is connected.
type Notifica struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Titolo    string    `gorm:"type:varchar(255);not null" json:"titolo"`
	Messaggio string    `gorm:"type:text" json:"messaggio"`
	Tipo      string    `gorm:"type:varchar(32);not null;default:'info'" json:"tipo"`
	Letta     bool      `gorm:"not null;default:false" json:"letta"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Notifica) TableName() string { return "notifiche" }

func (n *Notifica) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
