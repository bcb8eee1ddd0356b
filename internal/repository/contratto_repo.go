package repository

import (
	"context"

	"backend/internal/authz"
	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContrattoWithCliente is a listing row joined with the client's display name.
type ContrattoWithCliente struct {
	model.Contratto
	ClienteNome string `json:"cliente"`
}

// ContrattoRepository defines data access for Contratto entities.
type ContrattoRepository interface {
	Create(ctx context.Context, contratto *model.Contratto) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Contratto, error)
	GetByNumero(ctx context.Context, numero string) (*model.Contratto, error)
	List(ctx context.Context, caller authz.Caller, offset, limit int) ([]ContrattoWithCliente, int64, error)
	Update(ctx context.Context, contratto *model.Contratto) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateAgenteByCliente(ctx context.Context, clienteID, agenteID uuid.UUID) error
}

type contrattoRepository struct {
	db *gorm.DB
}

func NewContrattoRepository(db *gorm.DB) ContrattoRepository {
	return &contrattoRepository{db: db}
}

func (r *contrattoRepository) Create(ctx context.Context, contratto *model.Contratto) error {
	return GetDB(ctx, r.db).Create(contratto).Error
}

func (r *contrattoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Contratto, error) {
	var contratto model.Contratto
	if err := r.db.WithContext(ctx).First(&contratto, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contratto, nil
}

func (r *contrattoRepository) GetByNumero(ctx context.Context, numero string) (*model.Contratto, error) {
	var contratto model.Contratto
	if err := r.db.WithContext(ctx).First(&contratto, "numero = ?", numero).Error; err != nil {
		return nil, err
	}
	return &contratto, nil
}

func (r *contrattoRepository) List(ctx context.Context, caller authz.Caller, offset, limit int) ([]ContrattoWithCliente, int64, error) {
	scoped := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.Contratto{}).
			Scopes(authz.OwnershipScope(caller, "contratti.agente_id"))
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []ContrattoWithCliente
	err := scoped().
		Select("contratti.*, cl.ragione_sociale || ' - ' || cl.nome || ' ' || cl.cognome AS cliente_nome").
		Joins("LEFT JOIN clienti cl ON cl.id = contratti.cliente_id").
		Order("contratti.created_at DESC").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *contrattoRepository) Update(ctx context.Context, contratto *model.Contratto) error {
	return GetDB(ctx, r.db).Save(contratto).Error
}

func (r *contrattoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Contratto{}).Error
}

func (r *contrattoRepository) UpdateAgenteByCliente(ctx context.Context, clienteID, agenteID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Contratto{}).
		Where("cliente_id = ?", clienteID).
		Update("agente_id", agenteID).Error
}
