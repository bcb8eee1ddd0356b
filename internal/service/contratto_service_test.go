package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"backend/internal/apperr"
	"backend/internal/excel"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newContrattoService(t *testing.T, db *gorm.DB) ContrattoService {
	t.Helper()
	return NewContrattoService(db,
		repository.NewContrattoRepository(db),
		repository.NewClienteRepository(db))
}

func validContrattoInput(cliente *model.Cliente) ContrattoInput {
	return ContrattoInput{
		Numero:       "CTR-001",
		ClienteID:    cliente.ID,
		Tipo:         "luce",
		TipoCliente:  "domestico",
		DataInizio:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DataScadenza: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		Importo:      decimal.NewFromFloat(29.90),
	}
}

func TestCreateContrattoStampsClienteOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	cliente := createCliente(t, db, agente.ID, "RSSMRA80A01H501U")

	svc := newContrattoService(t, db)

	// even when the punto vendita creates it, the contract belongs to the
	// cliente's owning agente
	contratto, err := svc.Create(ctx, asCaller(pv), validContrattoInput(cliente))
	require.NoError(t, err)
	assert.Equal(t, agente.ID, contratto.AgenteID)
	assert.Equal(t, model.ContrattoAttivo, contratto.Stato)
}

func TestCreateContrattoValidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	cliente := createCliente(t, db, agente.ID, "RSSMRA80A01H501U")

	svc := newContrattoService(t, db)

	input := validContrattoInput(cliente)
	input.Numero = ""
	_, err := svc.Create(ctx, asCaller(agente), input)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.From(err).Kind)
}

func TestCreateContrattoDuplicateNumero(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	cliente := createCliente(t, db, agente.ID, "RSSMRA80A01H501U")

	svc := newContrattoService(t, db)
	_, err := svc.Create(ctx, asCaller(agente), validContrattoInput(cliente))
	require.NoError(t, err)

	_, err = svc.Create(ctx, asCaller(agente), validContrattoInput(cliente))
	require.Error(t, err)
	appErr := apperr.From(err)
	assert.Equal(t, apperr.Validation, appErr.Kind)
	assert.Contains(t, appErr.Message, "già esistente")
}

func TestCreateContrattoForForeignClienteIsNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente1 := createAgente(t, db, "a1@test.it", pv.ID)
	agente2 := createAgente(t, db, "a2@test.it", pv.ID)
	cliente := createCliente(t, db, agente1.ID, "RSSMRA80A01H501U")

	svc := newContrattoService(t, db)
	_, err := svc.Create(ctx, asCaller(agente2), validContrattoInput(cliente))
	require.Error(t, err)
	appErr := apperr.From(err)
	assert.Equal(t, apperr.NotFound, appErr.Kind)
	assert.Equal(t, "Cliente non trovato", appErr.Message)
}

func TestGetContrattoOutsideScopeIsNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente1 := createAgente(t, db, "a1@test.it", pv.ID)
	agente2 := createAgente(t, db, "a2@test.it", pv.ID)
	cliente := createCliente(t, db, agente1.ID, "RSSMRA80A01H501U")

	svc := newContrattoService(t, db)
	contratto, err := svc.Create(ctx, asCaller(agente1), validContrattoInput(cliente))
	require.NoError(t, err)

	_, err = svc.Get(ctx, asCaller(agente2), contratto.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.From(err).Kind)

	got, err := svc.Get(ctx, asCaller(pv), contratto.ID)
	require.NoError(t, err)
	assert.Equal(t, contratto.ID, got.ID)
}

func TestImportContratti(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	other := createAgente(t, db, "a2@test.it", pv.ID)
	cliente := createCliente(t, db, agente.ID, "RSSMRA80A01H501U")
	foreign := createCliente(t, db, other.ID, "VRDNNA85B41H501X")

	sheet, err := excel.WriteSheet("Contratti",
		[]string{"Numero", "Cliente ID", "Tipo", "Data Inizio", "Data Scadenza", "Importo"},
		[][]string{
			{"CTR-100", cliente.ID.String(), "gas", "2026-01-01", "2027-01-01", "45.50"},
			{"CTR-101", "not-a-uuid", "gas", "2026-01-01", "2027-01-01", "45.50"},
			{"CTR-102", foreign.ID.String(), "gas", "2026-01-01", "2027-01-01", "45.50"},
			{"CTR-103", cliente.ID.String(), "luce", "2026-01-01", "2027-01-01", "not-a-number"},
		})
	require.NoError(t, err)

	svc := newContrattoService(t, db)
	result, err := svc.Import(ctx, asCaller(agente), bytes.NewReader(sheet))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 4, result.TotalRows)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Riga 3")
	// a row pointing at somebody else's cliente reads as not found
	assert.Contains(t, result.Errors[1], "Cliente non trovato")
	assert.Contains(t, result.Errors[2], "Importo non valido")

	imported, err := svc.Get(ctx, asCaller(agente), mustContrattoByNumero(t, db, "CTR-100").ID)
	require.NoError(t, err)
	assert.Equal(t, agente.ID, imported.AgenteID)
}

func mustContrattoByNumero(t *testing.T, db *gorm.DB, numero string) *model.Contratto {
	t.Helper()
	var c model.Contratto
	require.NoError(t, db.First(&c, "numero = ?", numero).Error)
	return &c
}
