package service

import (
	"path/filepath"
	"testing"

	"backend/internal/authz"
	"backend/internal/database"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createPuntoVendita(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	u := &model.User{
		Email:    email,
		Password: string(hash),
		Nome:     "Punto Vendita",
		Ruolo:    model.RuoloPuntoVendita,
		Attivo:   true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createAgente(t *testing.T, db *gorm.DB, email string, puntoVenditaID uuid.UUID) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	u := &model.User{
		Email:          email,
		Password:       string(hash),
		Nome:           "Agente",
		Ruolo:          model.RuoloAgente,
		PuntoVenditaID: &puntoVenditaID,
		Attivo:         true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createCliente(t *testing.T, db *gorm.DB, agenteID uuid.UUID, cf string) *model.Cliente {
	t.Helper()
	c := &model.Cliente{
		AgenteID:      agenteID,
		Nome:          "Mario",
		Cognome:       "Rossi",
		CodiceFiscale: cf,
		Email:         cf + "@example.com",
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func asCaller(u *model.User) authz.Caller {
	return authz.CallerFrom(u)
}
