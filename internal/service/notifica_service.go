package service

import (
	"context"
	"errors"
	"log"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificaService defines the business logic around user notifications.
type NotificaService interface {
	List(ctx context.Context, userID uuid.UUID, onlyUnread bool) ([]model.Notifica, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	CreateAndPush(ctx context.Context, userID uuid.UUID, titolo, messaggio, tipo string)
}

type notificaService struct {
	repo repository.NotificaRepository
	hub  *websocket.Hub
}

func NewNotificaService(repo repository.NotificaRepository, hub *websocket.Hub) NotificaService {
	return &notificaService{repo: repo, hub: hub}
}

func (s *notificaService) List(ctx context.Context, userID uuid.UUID, onlyUnread bool) ([]model.Notifica, error) {
	notifiche, err := s.repo.ListByUser(ctx, userID, onlyUnread)
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return notifiche, nil
}

func (s *notificaService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Notifica non trovata")
		}
		return apperr.Wrap(err, "Errore del server")
	}
	return nil
}

// CreateAndPush persists the notification and pushes it to the user's open
// websocket connections. Failures are logged, never propagated: notifications
// must not break the operation that produced them.
func (s *notificaService) CreateAndPush(ctx context.Context, userID uuid.UUID, titolo, messaggio, tipo string) {
	notifica := &model.Notifica{
		UserID:    userID,
		Titolo:    titolo,
		Messaggio: messaggio,
		Tipo:      tipo,
	}
	if err := s.repo.Create(ctx, notifica); err != nil {
		log.Println("notifica create failed:", err)
		return
	}
	if s.hub != nil {
		s.hub.NotifyUser(userID, map[string]interface{}{
			"type":      "notifica",
			"id":        notifica.ID,
			"titolo":    notifica.Titolo,
			"messaggio": notifica.Messaggio,
			"tipo":      notifica.Tipo,
			"createdAt": notifica.CreatedAt,
		})
	}
}
