package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/apperr"
	"backend/internal/authz"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type LoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type UpdateSettingsRequest struct {
	Nome *string `json:"name"`
}

type CreateAgenteRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Nome     string `json:"nome" binding:"required"`
}

// UserResponse mirrors the session payload the frontend keeps.
type UserResponse struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Nome           string     `json:"name,omitempty"`
	Ruolo          string     `json:"ruolo"`
	PuntoVenditaID *uuid.UUID `json:"puntoVenditaId,omitempty"`
}

// LoginResult carries the signed token plus its cookie lifetime.
type LoginResult struct {
	Token        string
	CookieMaxAge int
	User         UserResponse
}

// WelcomeMailer sends the account-created mail.
type WelcomeMailer interface {
	SendWelcome(email, name string)
}

// UserService defines the business logic around accounts and sessions.
type UserService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, req UpdateSettingsRequest) (*UserResponse, error)
	ListAgenti(ctx context.Context, caller authz.Caller) ([]repository.AgenteWithCounts, error)
	CreateAgente(ctx context.Context, caller authz.Caller, req CreateAgenteRequest) (*UserResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	jwtSecret []byte
	mail      WelcomeMailer
}

// NewUserService returns a new instance of UserService. The signing key is
// injected so no service reaches into the environment on its own.
func NewUserService(repo repository.UserRepository, jwtSecret []byte, mail WelcomeMailer) UserService {
	return &userService{repo: repo, jwtSecret: jwtSecret, mail: mail}
}

func mapUser(u *model.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Nome:           u.Nome,
		Ruolo:          u.Ruolo,
		PuntoVenditaID: u.PuntoVenditaID,
	}
}

// Login authenticates by email and password. Inactive accounts get the same
// generic message as wrong credentials.
func (s *userService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Unauthenticated, "Credenziali non valide")
		}
		return nil, apperr.Wrap(err, "Errore del server")
	}
	if !user.Attivo {
		return nil, apperr.New(apperr.Unauthenticated, "Credenziali non valide")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.New(apperr.Unauthenticated, "Credenziali non valide")
	}

	maxAge := 24 * 60 * 60
	if req.RememberMe {
		maxAge = 30 * 24 * 60 * 60
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"exp":   time.Now().Add(time.Duration(maxAge) * time.Second).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}

	return &LoginResult{Token: tokenString, CookieMaxAge: maxAge, User: mapUser(user)}, nil
}

// UpdateSettings updates the caller's display name; an explicit empty string
// clears it.
func (s *userService) UpdateSettings(ctx context.Context, userID uuid.UUID, req UpdateSettingsRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "Utente non trovato")
	}

	if req.Nome != nil {
		user.Nome = *req.Nome
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperr.Wrap(err, "Errore durante il salvataggio")
	}

	resp := mapUser(user)
	return &resp, nil
}

// ListAgenti resolves the punto vendita whose agenti are visible: a punto
// vendita sees its own, an agente sees its siblings.
func (s *userService) ListAgenti(ctx context.Context, caller authz.Caller) ([]repository.AgenteWithCounts, error) {
	var puntoVenditaID uuid.UUID
	switch caller.Ruolo {
	case model.RuoloPuntoVendita:
		puntoVenditaID = caller.ID
	case model.RuoloAgente:
		if caller.PuntoVenditaID == nil {
			return nil, apperr.New(apperr.Forbidden, "Agente non associato a un punto vendita")
		}
		puntoVenditaID = *caller.PuntoVenditaID
	default:
		return nil, apperr.New(apperr.Forbidden, "Ruolo non autorizzato")
	}

	agenti, err := s.repo.ListAgenti(ctx, puntoVenditaID)
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return agenti, nil
}

// CreateAgente registers a new agente under the calling punto vendita and
// sends the welcome mail as a best-effort side effect.
func (s *userService) CreateAgente(ctx context.Context, caller authz.Caller, req CreateAgenteRequest) (*UserResponse, error) {
	if caller.Ruolo != model.RuoloPuntoVendita {
		return nil, apperr.New(apperr.Forbidden, "Solo un punto vendita può creare agenti")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}

	puntoVenditaID := caller.ID
	user := &model.User{
		Email:          req.Email,
		Password:       string(hash),
		Nome:           req.Nome,
		Ruolo:          model.RuoloAgente,
		PuntoVenditaID: &puntoVenditaID,
		Attivo:         true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.Validation, "Email già registrata")
		}
		return nil, apperr.Wrap(err, "Errore del server")
	}

	if s.mail != nil {
		s.mail.SendWelcome(user.Email, user.Nome)
	}

	resp := mapUser(user)
	return &resp, nil
}
