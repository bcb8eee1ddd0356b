// Package authz is the single place where record ownership is decided.
// Every handler, for every resource, must go through CanAccess (single-row
// checks) or OwnershipScope (list queries). The two encodings of the rule
// are kept semantically identical here so they cannot drift per route.
package authz

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Caller is the authenticated user a request acts as.
type Caller struct {
	ID             uuid.UUID
	Ruolo          string
	PuntoVenditaID *uuid.UUID
}

// CallerFrom builds a Caller from a fetched user row.
func CallerFrom(u *model.User) Caller {
	return Caller{ID: u.ID, Ruolo: u.Ruolo, PuntoVenditaID: u.PuntoVenditaID}
}

// CanAccess reports whether the caller may see/mutate a row owned by
// ownerAgentID. Rules:
//   - agente: owner must be the caller itself
//   - punto_vendita: owner is the caller itself, or an agente whose
//     puntoVenditaId is the caller (secondary lookup)
func CanAccess(ctx context.Context, db *gorm.DB, caller Caller, ownerAgentID uuid.UUID) (bool, error) {
	if ownerAgentID == caller.ID {
		return true, nil
	}
	if caller.Ruolo != model.RuoloPuntoVendita {
		return false, nil
	}

	var owner model.User
	err := db.WithContext(ctx).Select("id", "punto_vendita_id").First(&owner, "id = ?", ownerAgentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return owner.PuntoVenditaID != nil && *owner.PuntoVenditaID == caller.ID, nil
}

// OwnershipScope compiles the same rule into a gorm scope over the given
// owner column (e.g. "agente_id" or "clienti.agente_id" when joined).
func OwnershipScope(caller Caller, ownerColumn string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if caller.Ruolo == model.RuoloPuntoVendita {
			return db.Where(
				ownerColumn+" = ? OR "+ownerColumn+" IN (SELECT id FROM utenti WHERE punto_vendita_id = ?)",
				caller.ID, caller.ID,
			)
		}
		return db.Where(ownerColumn+" = ?", caller.ID)
	}
}
