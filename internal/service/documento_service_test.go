package service

import (
	"context"
	"testing"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDocumentoService(t *testing.T, db *gorm.DB) DocumentoService {
	t.Helper()
	store := storage.NewRouter(nil, storage.NewLocalStore(t.TempDir()))
	return NewDocumentoService(db,
		repository.NewDocumentoRepository(db),
		repository.NewClienteRepository(db),
		repository.NewContrattoRepository(db),
		store)
}

func TestValidateFileType(t *testing.T) {
	svc := newDocumentoService(t, newTestDB(t))

	for _, ct := range []string{"application/pdf", "image/png", "image/jpeg", "image/jpg"} {
		assert.NoError(t, svc.ValidateFileType(ct), ct)
	}
	err := svc.ValidateFileType("text/plain")
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.From(err).Kind)
}

func TestCheckQuotaPerFileLimit(t *testing.T) {
	db := newTestDB(t)
	pv := createPuntoVendita(t, db, "pv@test.it")
	svc := newDocumentoService(t, db)

	err := svc.CheckQuota(context.Background(), pv.ID, MaxUploadSize+1)
	require.Error(t, err)
	assert.Contains(t, apperr.From(err).Message, "5MB")
}

func TestCheckQuotaCumulativeLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	cliente := createCliente(t, db, agente.ID, "RSSMRA80A01H501U")

	// almost full already
	require.NoError(t, db.Create(&model.Documento{
		UserID:          agente.ID,
		ClienteID:       &cliente.ID,
		Nome:            "grande.pdf",
		Tipo:            "application/pdf",
		DimensioneBytes: MaxUserStorage - 100,
		Path:            "uploads/grande.pdf",
	}).Error)

	svc := newDocumentoService(t, db)
	err := svc.CheckQuota(ctx, agente.ID, 200)
	require.Error(t, err)
	assert.Contains(t, apperr.From(err).Message, "Spazio insufficiente")

	// a file that still fits passes
	assert.NoError(t, svc.CheckQuota(ctx, agente.ID, 50))
}

func TestUploadDownloadDeleteRoundtrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	cliente := createCliente(t, db, agente.ID, "RSSMRA80A01H501U")

	svc := newDocumentoService(t, db)
	caller := asCaller(agente)

	doc, err := svc.Upload(ctx, caller, UploadInput{
		FileName:    "contratto.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4 fake"),
		ClienteID:   &cliente.ID,
		Categoria:   "Contratti",
	})
	require.NoError(t, err)
	assert.Equal(t, agente.ID, doc.UserID)
	assert.EqualValues(t, len("%PDF-1.4 fake"), doc.DimensioneBytes)

	got, err := svc.Download(ctx, caller, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "contratto.pdf", got.Nome)
	assert.Equal(t, []byte("%PDF-1.4 fake"), got.Data)

	require.NoError(t, svc.Delete(ctx, caller, doc.ID))
	_, err = svc.Download(ctx, caller, doc.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.From(err).Kind)
}

func TestUploadRequiresParent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)

	svc := newDocumentoService(t, db)
	_, err := svc.Upload(ctx, asCaller(agente), UploadInput{
		FileName:    "doc.pdf",
		ContentType: "application/pdf",
		Data:        []byte("x"),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.From(err).Kind)
}

func TestUploadToForeignClienteIsNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	pv := createPuntoVendita(t, db, "pv@test.it")
	agente1 := createAgente(t, db, "a1@test.it", pv.ID)
	agente2 := createAgente(t, db, "a2@test.it", pv.ID)
	cliente := createCliente(t, db, agente1.ID, "RSSMRA80A01H501U")

	svc := newDocumentoService(t, db)
	_, err := svc.Upload(ctx, asCaller(agente2), UploadInput{
		FileName:    "doc.pdf",
		ContentType: "application/pdf",
		Data:        []byte("x"),
		ClienteID:   &cliente.ID,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.From(err).Kind)

	// the rejected upload left no row behind
	var count int64
	require.NoError(t, db.Model(&model.Documento{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListDocumentiDelegatesToParentScope(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	pv := createPuntoVendita(t, db, "pv@test.it")
	agente1 := createAgente(t, db, "a1@test.it", pv.ID)
	agente2 := createAgente(t, db, "a2@test.it", pv.ID)
	cliente1 := createCliente(t, db, agente1.ID, "RSSMRA80A01H501U")
	cliente2 := createCliente(t, db, agente2.ID, "VRDNNA85B41H501X")

	svc := newDocumentoService(t, db)
	_, err := svc.Upload(ctx, asCaller(agente1), UploadInput{
		FileName: "a.pdf", ContentType: "application/pdf", Data: []byte("a"), ClienteID: &cliente1.ID,
	})
	require.NoError(t, err)
	_, err = svc.Upload(ctx, asCaller(agente2), UploadInput{
		FileName: "b.pdf", ContentType: "application/pdf", Data: []byte("b"), ClienteID: &cliente2.ID,
	})
	require.NoError(t, err)

	docs, err := svc.List(ctx, asCaller(agente1), repository.DocumentoFilter{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a.pdf", docs[0].Nome)

	// the punto vendita sees both
	docs, err = svc.List(ctx, asCaller(pv), repository.DocumentoFilter{})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestStorageStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	cliente := createCliente(t, db, agente.ID, "RSSMRA80A01H501U")

	require.NoError(t, db.Create(&model.Documento{
		UserID:          agente.ID,
		ClienteID:       &cliente.ID,
		Nome:            "doc.pdf",
		Tipo:            "application/pdf",
		DimensioneBytes: 5 * 1024 * 1024,
		Path:            "uploads/doc.pdf",
	}).Error)

	svc := newDocumentoService(t, db)
	stats, err := svc.Stats(ctx, agente.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 5*1024*1024, stats.Used)
	assert.EqualValues(t, MaxUserStorage, stats.Max)
	assert.InDelta(t, 1.0, stats.Percentage, 0.01)
	assert.Equal(t, "5 MB", stats.UsedFormatted)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 Bytes", FormatBytes(0))
	assert.Equal(t, "1 KB", FormatBytes(1024))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "500 MB", FormatBytes(500*1024*1024))
}
