package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificaRepository defines data access for per-user notifications.
type NotificaRepository interface {
	Create(ctx context.Context, n *model.Notifica) error
	ListByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool) ([]model.Notifica, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

type notificaRepository struct {
	db *gorm.DB
}

func NewNotificaRepository(db *gorm.DB) NotificaRepository {
	return &notificaRepository{db: db}
}

func (r *notificaRepository) Create(ctx context.Context, n *model.Notifica) error {
	return GetDB(ctx, r.db).Create(n).Error
}

func (r *notificaRepository) ListByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool) ([]model.Notifica, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if onlyUnread {
		query = query.Where("letta = ?", false)
	}
	var list []model.Notifica
	err := query.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *notificaRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Model(&model.Notifica{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("letta", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
