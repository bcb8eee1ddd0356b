package repository

import (
	"context"

	"backend/internal/authz"
	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClienteRepository defines data access for Cliente and its child records.
type ClienteRepository interface {
	Create(ctx context.Context, cliente *model.Cliente) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	GetByIDWithChildren(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	List(ctx context.Context, caller authz.Caller, search string, offset, limit int) ([]model.Cliente, int64, error)
	Update(ctx context.Context, cliente *model.Cliente) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateAgente(ctx context.Context, clienteID, agenteID uuid.UUID) error
	CountContratti(ctx context.Context, clienteID uuid.UUID) (int64, error)

	ListReferenti(ctx context.Context, clienteID uuid.UUID) ([]model.Referente, error)
	GetReferente(ctx context.Context, clienteID, referenteID uuid.UUID) (*model.Referente, error)
	CreateReferente(ctx context.Context, ref *model.Referente) error
	UpdateReferente(ctx context.Context, ref *model.Referente) error
	DeleteReferente(ctx context.Context, clienteID, referenteID uuid.UUID) error

	ListForniture(ctx context.Context, clienteID uuid.UUID) ([]model.Fornitura, error)
	GetFornitura(ctx context.Context, clienteID, fornituraID uuid.UUID) (*model.Fornitura, error)
	CreateFornitura(ctx context.Context, f *model.Fornitura) error
	UpdateFornitura(ctx context.Context, f *model.Fornitura) error
	DeleteFornitura(ctx context.Context, clienteID, fornituraID uuid.UUID) error
}

type clienteRepository struct {
	db *gorm.DB
}

func NewClienteRepository(db *gorm.DB) ClienteRepository {
	return &clienteRepository{db: db}
}

func (r *clienteRepository) Create(ctx context.Context, cliente *model.Cliente) error {
	return GetDB(ctx, r.db).Create(cliente).Error
}

func (r *clienteRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var cliente model.Cliente
	if err := r.db.WithContext(ctx).First(&cliente, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cliente, nil
}

// GetByIDWithChildren loads the cliente together with its referenti and
// forniture for the detail response. Authorization-only callers use the
// cheaper GetByID.
func (r *clienteRepository) GetByIDWithChildren(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var cliente model.Cliente
	err := r.db.WithContext(ctx).
		Preload("Referenti", func(db *gorm.DB) *gorm.DB { return db.Order("cognome, nome") }).
		Preload("Forniture", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		First(&cliente, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cliente, nil
}

// List applies the shared ownership scope plus an optional free-text search
// over the identity columns.
func (r *clienteRepository) List(ctx context.Context, caller authz.Caller, search string, offset, limit int) ([]model.Cliente, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.Cliente{}).
			Scopes(authz.OwnershipScope(caller, "agente_id"))
		if search != "" {
			like := "%" + search + "%"
			q = q.Where(
				"ragione_sociale LIKE ? OR nome LIKE ? OR cognome LIKE ? OR email LIKE ? OR codice_fiscale LIKE ? OR piva LIKE ?",
				like, like, like, like, like, like,
			)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var clienti []model.Cliente
	if err := scoped().Order("created_at DESC").Offset(offset).Limit(limit).Find(&clienti).Error; err != nil {
		return nil, 0, err
	}
	return clienti, total, nil
}

func (r *clienteRepository) Update(ctx context.Context, cliente *model.Cliente) error {
	return GetDB(ctx, r.db).Save(cliente).Error
}

func (r *clienteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	// children first: sqlite FK cascade is only active with the pragma on,
	// so the rows are removed explicitly either way
	if err := db.Where("cliente_id = ?", id).Delete(&model.Referente{}).Error; err != nil {
		return err
	}
	if err := db.Where("cliente_id = ?", id).Delete(&model.Fornitura{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Cliente{}).Error
}

func (r *clienteRepository) UpdateAgente(ctx context.Context, clienteID, agenteID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Cliente{}).
		Where("id = ?", clienteID).
		Update("agente_id", agenteID).Error
}

func (r *clienteRepository) CountContratti(ctx context.Context, clienteID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Contratto{}).
		Where("cliente_id = ?", clienteID).Count(&count).Error
	return count, err
}

func (r *clienteRepository) ListReferenti(ctx context.Context, clienteID uuid.UUID) ([]model.Referente, error) {
	var refs []model.Referente
	err := r.db.WithContext(ctx).
		Where("cliente_id = ?", clienteID).
		Order("cognome, nome").
		Find(&refs).Error
	return refs, err
}

func (r *clienteRepository) GetReferente(ctx context.Context, clienteID, referenteID uuid.UUID) (*model.Referente, error) {
	var ref model.Referente
	err := r.db.WithContext(ctx).
		First(&ref, "id = ? AND cliente_id = ?", referenteID, clienteID).Error
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *clienteRepository) CreateReferente(ctx context.Context, ref *model.Referente) error {
	return GetDB(ctx, r.db).Create(ref).Error
}

func (r *clienteRepository) UpdateReferente(ctx context.Context, ref *model.Referente) error {
	return GetDB(ctx, r.db).Save(ref).Error
}

func (r *clienteRepository) DeleteReferente(ctx context.Context, clienteID, referenteID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("id = ? AND cliente_id = ?", referenteID, clienteID).
		Delete(&model.Referente{}).Error
}

func (r *clienteRepository) ListForniture(ctx context.Context, clienteID uuid.UUID) ([]model.Fornitura, error) {
	var forniture []model.Fornitura
	err := r.db.WithContext(ctx).
		Where("cliente_id = ?", clienteID).
		Order("created_at DESC").
		Find(&forniture).Error
	return forniture, err
}

func (r *clienteRepository) GetFornitura(ctx context.Context, clienteID, fornituraID uuid.UUID) (*model.Fornitura, error) {
	var f model.Fornitura
	err := r.db.WithContext(ctx).
		First(&f, "id = ? AND cliente_id = ?", fornituraID, clienteID).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *clienteRepository) CreateFornitura(ctx context.Context, f *model.Fornitura) error {
	return GetDB(ctx, r.db).Create(f).Error
}

func (r *clienteRepository) UpdateFornitura(ctx context.Context, f *model.Fornitura) error {
	return GetDB(ctx, r.db).Save(f).Error
}

func (r *clienteRepository) DeleteFornitura(ctx context.Context, clienteID, fornituraID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("id = ? AND cliente_id = ?", fornituraID, clienteID).
		Delete(&model.Fornitura{}).Error
}
