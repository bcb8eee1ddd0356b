package service

import (
	"bytes"
	"context"
	"testing"

	"backend/internal/apperr"
	"backend/internal/excel"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newClienteService(t *testing.T, db *gorm.DB, onReassign ReassignListener) ClienteService {
	t.Helper()
	clienteRepo := repository.NewClienteRepository(db)
	contrattoRepo := repository.NewContrattoRepository(db)
	store := storage.NewRouter(nil, storage.NewLocalStore(t.TempDir()))
	documenti := NewDocumentoService(db, repository.NewDocumentoRepository(db), clienteRepo, contrattoRepo, store)
	return NewClienteService(
		db, clienteRepo, contrattoRepo, repository.NewFatturaRepository(db),
		documenti, repository.NewUserRepository(db),
		repository.NewTransactionManager(db), onReassign,
	)
}

func TestReassignTransfersClienteContrattiFatture(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente1 := createAgente(t, db, "a1@test.it", pv.ID)
	agente2 := createAgente(t, db, "a2@test.it", pv.ID)
	cliente := createCliente(t, db, agente1.ID, "RSSMRA80A01H501U")

	contratto := &model.Contratto{
		Numero:    "CTR-001",
		ClienteID: cliente.ID,
		AgenteID:  agente1.ID,
		Tipo:      "luce",
		Importo:   decimal.NewFromInt(30),
		Stato:     model.ContrattoAttivo,
	}
	require.NoError(t, db.Create(contratto).Error)
	fattura := &model.Fattura{
		ClienteID:   cliente.ID,
		ContrattoID: contratto.ID,
		AgenteID:    agente1.ID,
		Importo:     decimal.NewFromInt(30),
	}
	require.NoError(t, db.Create(fattura).Error)

	var notified uuid.UUID
	svc := newClienteService(t, db, func(c *model.Cliente, nuovoAgenteID uuid.UUID) {
		notified = nuovoAgenteID
	})

	require.NoError(t, svc.Reassign(ctx, asCaller(agente1), cliente.ID, agente2.ID))

	var gotCliente model.Cliente
	require.NoError(t, db.First(&gotCliente, "id = ?", cliente.ID).Error)
	assert.Equal(t, agente2.ID, gotCliente.AgenteID)

	var gotContratto model.Contratto
	require.NoError(t, db.First(&gotContratto, "id = ?", contratto.ID).Error)
	assert.Equal(t, agente2.ID, gotContratto.AgenteID)

	var gotFattura model.Fattura
	require.NoError(t, db.First(&gotFattura, "id = ?", fattura.ID).Error)
	assert.Equal(t, agente2.ID, gotFattura.AgenteID)

	assert.Equal(t, agente2.ID, notified)
}

func TestReassignPreconditionOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	otherPv := createPuntoVendita(t, db, "pv2@test.it")
	agente1 := createAgente(t, db, "a1@test.it", pv.ID)
	agente2 := createAgente(t, db, "a2@test.it", pv.ID)
	inactive := createAgente(t, db, "a3@test.it", pv.ID)
	require.NoError(t, db.Model(inactive).Update("attivo", false).Error)
	foreign := createAgente(t, db, "a4@test.it", otherPv.ID)
	cliente := createCliente(t, db, agente1.ID, "RSSMRA80A01H501U")

	svc := newClienteService(t, db, nil)

	cases := []struct {
		name     string
		caller   *model.User
		cliente  uuid.UUID
		target   uuid.UUID
		wantCode string
	}{
		// the role check fires before anything else, even with a bogus target
		{"punto vendita cannot reassign", pv, cliente.ID, uuid.New(), CodeForbiddenRole},
		{"non-owner agente", agente2, cliente.ID, agente2.ID, CodeNotOwner},
		{"target missing", agente1, cliente.ID, uuid.New(), CodeTargetNotFound},
		{"target is a punto vendita", agente1, cliente.ID, pv.ID, CodeTargetNotFound},
		{"target inactive", agente1, cliente.ID, inactive.ID, CodeTargetInactive},
		{"target in another punto vendita", agente1, cliente.ID, foreign.ID, CodeCrossTenantDenied},
		{"self reassignment", agente1, cliente.ID, agente1.ID, CodeSelfReassignDenied},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Reassign(ctx, asCaller(tc.caller), tc.cliente, tc.target)
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, apperr.From(err).Code)
		})
	}

	// nothing above moved the cliente
	var got model.Cliente
	require.NoError(t, db.First(&got, "id = ?", cliente.ID).Error)
	assert.Equal(t, agente1.ID, got.AgenteID)
}

func TestReassignSwitchesVisibility(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente1 := createAgente(t, db, "a1@test.it", pv.ID)
	agente2 := createAgente(t, db, "a2@test.it", pv.ID)
	cliente := createCliente(t, db, agente1.ID, "RSSMRA80A01H501U")

	svc := newClienteService(t, db, nil)
	require.NoError(t, svc.Reassign(ctx, asCaller(agente1), cliente.ID, agente2.ID))

	// the previous owner gets a 404 indistinguishable from an absent row
	_, err := svc.Get(ctx, asCaller(agente1), cliente.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.From(err).Kind)

	got, err := svc.Get(ctx, asCaller(agente2), cliente.ID)
	require.NoError(t, err)
	assert.Equal(t, agente2.ID, got.AgenteID)

	// the punto vendita keeps seeing it either way
	_, err = svc.Get(ctx, asCaller(pv), cliente.ID)
	require.NoError(t, err)
}

func TestGetClienteOutsideScopeIsNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	otherPv := createPuntoVendita(t, db, "pv2@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	foreign := createAgente(t, db, "a2@test.it", otherPv.ID)
	cliente := createCliente(t, db, foreign.ID, "RSSMRA80A01H501U")

	svc := newClienteService(t, db, nil)

	for _, who := range []*model.User{agente, pv} {
		_, err := svc.Get(ctx, asCaller(who), cliente.ID)
		require.Error(t, err)
		appErr := apperr.From(err)
		assert.Equal(t, apperr.NotFound, appErr.Kind)
		assert.Equal(t, "Cliente non trovato", appErr.Message)
	}
}

func TestGetClienteIncludesReferentiEForniture(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	cliente := createCliente(t, db, agente.ID, "RSSMRA80A01H501U")

	require.NoError(t, db.Create(&model.Referente{
		ClienteID: cliente.ID,
		Nome:      "Anna",
		Cognome:   "Verdi",
		Cellulare: "3331234567",
	}).Error)
	require.NoError(t, db.Create(&model.Fornitura{
		ClienteID:          cliente.ID,
		PodPdr:             "IT001E12345678",
		IndirizzoFornitura: "Via Roma 1",
	}).Error)

	svc := newClienteService(t, db, nil)

	got, err := svc.Get(ctx, asCaller(agente), cliente.ID)
	require.NoError(t, err)
	require.Len(t, got.Referenti, 1)
	assert.Equal(t, "Verdi", got.Referenti[0].Cognome)
	require.Len(t, got.Forniture, 1)
	assert.Equal(t, "IT001E12345678", got.Forniture[0].PodPdr)
}

func TestDeleteClienteWithContrattiIsRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	cliente := createCliente(t, db, agente.ID, "RSSMRA80A01H501U")
	require.NoError(t, db.Create(&model.Contratto{
		Numero:    "CTR-001",
		ClienteID: cliente.ID,
		AgenteID:  agente.ID,
		Tipo:      "luce",
		Importo:   decimal.NewFromInt(30),
	}).Error)

	svc := newClienteService(t, db, nil)
	err := svc.Delete(ctx, asCaller(agente), cliente.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.From(err).Kind)

	// the cliente row is intact
	var count int64
	require.NoError(t, db.Model(&model.Cliente{}).Where("id = ?", cliente.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDeleteClienteRemovesChildren(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	cliente := createCliente(t, db, agente.ID, "RSSMRA80A01H501U")
	require.NoError(t, db.Create(&model.Referente{ClienteID: cliente.ID, Nome: "Luca", Cognome: "Bianchi"}).Error)
	require.NoError(t, db.Create(&model.Fornitura{ClienteID: cliente.ID, PodPdr: "IT001E12345678"}).Error)

	svc := newClienteService(t, db, nil)
	require.NoError(t, svc.Delete(ctx, asCaller(agente), cliente.ID))

	var refs, forn int64
	require.NoError(t, db.Model(&model.Referente{}).Where("cliente_id = ?", cliente.ID).Count(&refs).Error)
	require.NoError(t, db.Model(&model.Fornitura{}).Where("cliente_id = ?", cliente.ID).Count(&forn).Error)
	assert.Zero(t, refs)
	assert.Zero(t, forn)
}

func TestImportClientiPartialSuccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)

	sheet, err := excel.WriteSheet("Clienti",
		[]string{"Nome", "Cognome", "Codice Fiscale", "Email"},
		[][]string{
			{"Mario", "Rossi", "RSSMRA80A01H501U", "mario@test.it"},
			{"Luca", "Bianchi", "", "luca@test.it"}, // missing CF
			{"Anna", "Verdi", "VRDNNA85B41H501X", ""},
		})
	require.NoError(t, err)

	svc := newClienteService(t, db, nil)
	result, err := svc.Import(ctx, asCaller(agente), bytes.NewReader(sheet))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 3, result.TotalRows)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Riga 3")
	assert.Contains(t, result.Errors[0], "Codice Fiscale")

	// imported rows belong to the importer
	var clienti []model.Cliente
	require.NoError(t, db.Find(&clienti).Error)
	for _, c := range clienti {
		assert.Equal(t, agente.ID, c.AgenteID)
	}
}

func TestImportClientiDuplicateRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	createCliente(t, db, agente.ID, "RSSMRA80A01H501U")

	sheet, err := excel.WriteSheet("Clienti",
		[]string{"Nome", "Cognome", "Codice Fiscale"},
		[][]string{{"Mario", "Rossi", "RSSMRA80A01H501U"}})
	require.NoError(t, err)

	svc := newClienteService(t, db, nil)
	result, err := svc.Import(ctx, asCaller(agente), bytes.NewReader(sheet))
	require.NoError(t, err)

	assert.Zero(t, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "già esistente")
}

func TestReferentiFollowClienteOwnership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	other := createAgente(t, db, "a2@test.it", pv.ID)
	cliente := createCliente(t, db, agente.ID, "RSSMRA80A01H501U")

	svc := newClienteService(t, db, nil)

	ref, err := svc.CreateReferente(ctx, asCaller(agente), cliente.ID, ReferenteInput{Nome: "Luca", Cognome: "Bianchi"})
	require.NoError(t, err)

	// a sibling agente cannot even list them
	_, err = svc.ListReferenti(ctx, asCaller(other), cliente.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.From(err).Kind)

	// the punto vendita can
	refs, err := svc.ListReferenti(ctx, asCaller(pv), cliente.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, ref.ID, refs[0].ID)
}
