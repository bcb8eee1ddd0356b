package service

import (
	"context"

	"backend/internal/apperr"
	"backend/internal/authz"
	"backend/internal/model"

	"gorm.io/gorm"
)

// DashboardStats is the role-scoped counters block of the landing page.
// Fatturato and chiamate are placeholders until billing data lands.
type DashboardStats struct {
	Agenti    *int64 `json:"agenti,omitempty"`
	Clienti   int64  `json:"clienti"`
	Contratti int64  `json:"contratti"`
	Fatturato string `json:"fatturato"`
	Chiamate  string `json:"chiamate"`
}

// DashboardService computes the landing-page counters.
type DashboardService interface {
	Stats(ctx context.Context, caller authz.Caller) (*DashboardStats, error)
}

type dashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) DashboardService {
	return &dashboardService{db: db}
}

// Stats counts through the same ownership scope used everywhere else: a
// punto vendita additionally sees the count of its active agenti.
func (s *dashboardService) Stats(ctx context.Context, caller authz.Caller) (*DashboardStats, error) {
	stats := &DashboardStats{Fatturato: "0", Chiamate: "0"}

	if caller.Ruolo == model.RuoloPuntoVendita {
		var agenti int64
		err := s.db.WithContext(ctx).Model(&model.User{}).
			Where("punto_vendita_id = ? AND ruolo = ? AND attivo = ?", caller.ID, model.RuoloAgente, true).
			Count(&agenti).Error
		if err != nil {
			return nil, apperr.Wrap(err, "Errore del server")
		}
		stats.Agenti = &agenti
	}

	err := s.db.WithContext(ctx).Model(&model.Cliente{}).
		Scopes(authz.OwnershipScope(caller, "agente_id")).
		Count(&stats.Clienti).Error
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}

	err = s.db.WithContext(ctx).Model(&model.Contratto{}).
		Scopes(authz.OwnershipScope(caller, "agente_id")).
		Where("stato = ?", model.ContrattoAttivo).
		Count(&stats.Contratti).Error
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}

	return stats, nil
}
