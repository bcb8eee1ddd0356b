package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stato cliente enum constants
const (
	ClienteAttivo   = "attivo"
	ClienteInattivo = "inattivo"
)

// Cliente is a customer record owned by exactly one User (an agente, or a
// punto vendita acting directly). Ownership is reassignable.
type Cliente struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AgenteID           uuid.UUID `gorm:"type:uuid;not null;index" json:"agenteId"`
	Agente             *User     `gorm:"foreignKey:AgenteID" json:"-"`
	RagioneSociale     string    `gorm:"type:varchar(255)" json:"ragioneSociale"`
	Nome               string    `gorm:"type:varchar(255);not null" json:"nome"`
	Cognome            string    `gorm:"type:varchar(255);not null" json:"cognome"`
	CodiceFiscale      string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"codiceFiscale"`
	PIVA               string    `gorm:"column:piva;type:varchar(20)" json:"piva"`
	PEC                string    `gorm:"column:pec;type:varchar(255)" json:"pec"`
	CodiceDestinatario string    `gorm:"type:varchar(16)" json:"codiceDestinatario"`
	NomePersonaFisica  string    `gorm:"type:varchar(255)" json:"nomePersonaFisica"`
	Email              string    `gorm:"type:varchar(255)" json:"email"`
	Cellulare          string    `gorm:"type:varchar(32)" json:"cellulare"`
	CodiceAteco        string    `gorm:"type:varchar(16)" json:"codiceAteco"`
	ModalitaPagamento  string    `gorm:"type:varchar(64)" json:"modalitaPagamento"`
	IndirizzoResidenza string    `gorm:"type:varchar(255)" json:"indirizzoResidenza"`
	IBAN               string    `gorm:"column:iban;type:varchar(34)" json:"iban"`
	Stato              string    `gorm:"type:varchar(20);not null;default:'attivo'" json:"stato"`
	DataRegistrazione  time.Time `gorm:"not null" json:"dataRegistrazione"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Referenti []Referente `gorm:"foreignKey:ClienteID;constraint:OnDelete:CASCADE" json:"referenti,omitempty"`
	Forniture []Fornitura `gorm:"foreignKey:ClienteID;constraint:OnDelete:CASCADE" json:"forniture,omitempty"`
}

func (Cliente) TableName() string { return "clienti" }

func (c *Cliente) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.DataRegistrazione.IsZero() {
		c.DataRegistrazione = time.Now()
	}
	return nil
}

// Referente is a contact person attached to a Cliente. It has no ownership
// of its own: authorization always delegates to the parent Cliente.
type Referente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClienteID uuid.UUID `gorm:"type:uuid;not null;index" json:"clienteId"`
	Cognome   string    `gorm:"type:varchar(255);not null" json:"cognome"`
	Nome      string    `gorm:"type:varchar(255);not null" json:"nome"`
	Cellulare string    `gorm:"type:varchar(32)" json:"cellulare"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Referente) TableName() string { return "referenti" }

func (r *Referente) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Fornitura is a utility supply line (POD/PDR) attached to a Cliente.
// Like Referente it inherits the parent's authorization.
type Fornitura struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClienteID          uuid.UUID `gorm:"type:uuid;not null;index" json:"clienteId"`
	PodPdr             string    `gorm:"type:varchar(32)" json:"podPdr"`
	IndirizzoFornitura string    `gorm:"type:varchar(255)" json:"indirizzoFornitura"`
	ConsumoAnnuale     float64   `json:"consumoAnnuale"`
	TipologiaContratto string    `gorm:"type:varchar(64);default:'Residenziale'" json:"tipologiaContratto"`
	Stato              string    `gorm:"type:varchar(20);default:'Attivo'" json:"stato"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Fornitura) TableName() string { return "forniture" }

func (f *Fornitura) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
