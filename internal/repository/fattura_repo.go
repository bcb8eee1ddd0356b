package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FatturaRepository defines data access for Fattura rows. Fatture have no
// routes: the repository exists for reassignment and reporting.
type FatturaRepository interface {
	Create(ctx context.Context, fattura *model.Fattura) error
	ListByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Fattura, error)
	UpdateAgenteByCliente(ctx context.Context, clienteID, agenteID uuid.UUID) error
}

type fatturaRepository struct {
	db *gorm.DB
}

func NewFatturaRepository(db *gorm.DB) FatturaRepository {
	return &fatturaRepository{db: db}
}

func (r *fatturaRepository) Create(ctx context.Context, fattura *model.Fattura) error {
	return GetDB(ctx, r.db).Create(fattura).Error
}

func (r *fatturaRepository) ListByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Fattura, error) {
	var fatture []model.Fattura
	err := r.db.WithContext(ctx).Where("cliente_id = ?", clienteID).Find(&fatture).Error
	return fatture, err
}

func (r *fatturaRepository) UpdateAgenteByCliente(ctx context.Context, clienteID, agenteID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Fattura{}).
		Where("cliente_id = ?", clienteID).
		Update("agente_id", agenteID).Error
}
