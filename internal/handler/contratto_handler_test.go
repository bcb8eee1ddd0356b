package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"backend/internal/database"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testJWTSecret = []byte("test-secret")

func setupContrattoAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	clienteRepo := repository.NewClienteRepository(db)
	contrattoRepo := repository.NewContrattoRepository(db)
	store := storage.NewRouter(nil, storage.NewLocalStore(t.TempDir()))
	documenti := service.NewDocumentoService(db, repository.NewDocumentoRepository(db), clienteRepo, contrattoRepo, store)
	contratti := service.NewContrattoService(db, contrattoRepo, clienteRepo)

	router := gin.New()
	api := router.Group("", middleware.RequireAuth(db, testJWTSecret))
	NewContrattoHandler(contratti, documenti).RegisterRoutes(api)
	return router, db
}

func seedAgenteWithCliente(t *testing.T, db *gorm.DB) (*model.User, *model.Cliente) {
	t.Helper()
	pv := &model.User{Email: "pv@test.it", Password: "x", Nome: "PV", Ruolo: model.RuoloPuntoVendita, Attivo: true}
	require.NoError(t, db.Create(pv).Error)
	agente := &model.User{Email: "a1@test.it", Password: "x", Nome: "Agente", Ruolo: model.RuoloAgente, PuntoVenditaID: &pv.ID, Attivo: true}
	require.NoError(t, db.Create(agente).Error)
	cliente := &model.Cliente{AgenteID: agente.ID, Nome: "Mario", Cognome: "Rossi", CodiceFiscale: "RSSMRA80A01H501U"}
	require.NoError(t, db.Create(cliente).Error)
	return agente, cliente
}

func signTestToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testJWTSecret)
	require.NoError(t, err)
	return signed
}

func contrattoForm(t *testing.T, clienteID uuid.UUID, documento []byte, documentoType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"numero":       "CTR-001",
		"clienteId":    clienteID.String(),
		"tipo":         "luce",
		"dataInizio":   "2026-01-01",
		"dataScadenza": "2027-01-01",
		"importo":      "29.90",
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if documento != nil {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="documento"; filename="contratto.pdf"`)
		hdr.Set("Content-Type", documentoType)
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(documento)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreateContrattoStoresAttachedDocumento(t *testing.T) {
	router, db := setupContrattoAPI(t)
	agente, cliente := seedAgenteWithCliente(t, db)

	body, contentType := contrattoForm(t, cliente.ID, []byte("%PDF-1.4 contenuto"), "application/pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/contratti", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: signTestToken(t, agente.ID)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var contratto model.Contratto
	require.NoError(t, db.First(&contratto, "numero = ?", "CTR-001").Error)

	var documento model.Documento
	require.NoError(t, db.First(&documento, "user_id = ?", agente.ID).Error)
	require.NotNil(t, documento.ContrattoID)
	assert.Equal(t, contratto.ID, *documento.ContrattoID)
	assert.Equal(t, "Contratti", documento.Categoria)
	assert.Equal(t, "contratto.pdf", documento.Nome)
	assert.EqualValues(t, len("%PDF-1.4 contenuto"), documento.DimensioneBytes)
}

func TestCreateContrattoRejectsBadAttachmentBeforeInsert(t *testing.T) {
	router, db := setupContrattoAPI(t)
	agente, cliente := seedAgenteWithCliente(t, db)

	body, contentType := contrattoForm(t, cliente.ID, []byte("solo testo"), "text/plain")
	req := httptest.NewRequest(http.MethodPost, "/api/contratti", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: signTestToken(t, agente.ID)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// the invalid file blocks the whole request: no contratto row either
	var count int64
	require.NoError(t, db.Model(&model.Contratto{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateContrattoWithoutAttachment(t *testing.T) {
	router, db := setupContrattoAPI(t)
	agente, cliente := seedAgenteWithCliente(t, db)

	body, contentType := contrattoForm(t, cliente.ID, nil, "")
	req := httptest.NewRequest(http.MethodPost, "/api/contratti", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: signTestToken(t, agente.ID)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var count int64
	require.NoError(t, db.Model(&model.Documento{}).Count(&count).Error)
	assert.Zero(t, count)
}
