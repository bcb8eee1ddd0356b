package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AgenteWithCounts is a listing row for the agenti endpoint.
type AgenteWithCounts struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Nome           string    `json:"nome"`
	Attivo         bool      `json:"attivo"`
	ClientiCount   int64     `json:"clientiCount"`
	ContrattiCount int64     `json:"contrattiCount"`
}

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	ListAgenti(ctx context.Context, puntoVenditaID uuid.UUID) ([]AgenteWithCounts, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

// ListAgenti returns the active agenti of a punto vendita together with
// their owned cliente/contratto counts.
func (r *userRepository) ListAgenti(ctx context.Context, puntoVenditaID uuid.UUID) ([]AgenteWithCounts, error) {
	var rows []AgenteWithCounts
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			u.id,
			u.email,
			u.nome,
			u.attivo,
			COUNT(DISTINCT c.id) AS clienti_count,
			COUNT(DISTINCT ct.id) AS contratti_count
		FROM utenti u
		LEFT JOIN clienti c ON c.agente_id = u.id
		LEFT JOIN contratti ct ON ct.agente_id = u.id
		WHERE u.punto_vendita_id = ? AND u.ruolo = ? AND u.attivo = 1
		GROUP BY u.id, u.email, u.nome, u.attivo
		ORDER BY u.nome
	`, puntoVenditaID, model.RuoloAgente).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
