package repository

import (
	"context"

	"backend/internal/authz"
	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentoFilter narrows a document listing.
type DocumentoFilter struct {
	ClienteID   *uuid.UUID
	ContrattoID *uuid.UUID
	Categoria   string
}

// DocumentoRepository defines data access for Documento entities.
type DocumentoRepository interface {
	Create(ctx context.Context, doc *model.Documento) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Documento, error)
	List(ctx context.Context, caller authz.Caller, filter DocumentoFilter) ([]model.Documento, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByCliente(ctx context.Context, clienteID uuid.UUID) error
	ListByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Documento, error)
	SumBytesByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type documentoRepository struct {
	db *gorm.DB
}

func NewDocumentoRepository(db *gorm.DB) DocumentoRepository {
	return &documentoRepository{db: db}
}

func (r *documentoRepository) Create(ctx context.Context, doc *model.Documento) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *documentoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Documento, error) {
	var doc model.Documento
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns documents whose parent cliente or contratto falls inside the
// caller's ownership scope. Documents delegate authorization to the parent,
// so the scope is applied to subqueries over the parent tables.
func (r *documentoRepository) List(ctx context.Context, caller authz.Caller, filter DocumentoFilter) ([]model.Documento, error) {
	q := r.db.WithContext(ctx).Model(&model.Documento{})

	if filter.ClienteID != nil {
		q = q.Where("cliente_id = ?", *filter.ClienteID)
	}
	if filter.ContrattoID != nil {
		q = q.Where("contratto_id = ?", *filter.ContrattoID)
	}
	if filter.Categoria != "" {
		q = q.Where("categoria = ?", filter.Categoria)
	}

	clienti := r.db.Model(&model.Cliente{}).Select("id").
		Scopes(authz.OwnershipScope(caller, "agente_id"))
	contratti := r.db.Model(&model.Contratto{}).Select("id").
		Scopes(authz.OwnershipScope(caller, "agente_id"))
	q = q.Where("cliente_id IN (?) OR contratto_id IN (?)", clienti, contratti)

	var docs []model.Documento
	if err := q.Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Documento{}).Error
}

func (r *documentoRepository) DeleteByCliente(ctx context.Context, clienteID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("cliente_id = ?", clienteID).Delete(&model.Documento{}).Error
}

func (r *documentoRepository) ListByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Documento, error) {
	var docs []model.Documento
	err := r.db.WithContext(ctx).Where("cliente_id = ?", clienteID).Find(&docs).Error
	return docs, err
}

// SumBytesByUser is the quota accounting query: total stored bytes for one
// uploader.
func (r *documentoRepository) SumBytesByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Documento{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(dimensione_bytes), 0)").
		Scan(&total).Error
	return total, err
}
