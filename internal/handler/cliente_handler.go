package handler

import (
	"io"
	"log"
	"net/http"

	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ClienteHandler struct {
	clienteService   service.ClienteService
	documentoService service.DocumentoService
}

func NewClienteHandler(clienteService service.ClienteService, documentoService service.DocumentoService) *ClienteHandler {
	return &ClienteHandler{clienteService: clienteService, documentoService: documentoService}
}

func (h *ClienteHandler) RegisterRoutes(router *gin.RouterGroup) {
	clienti := router.Group("/api/clienti")
	{
		clienti.GET("", h.ListClienti)
		clienti.POST("", h.CreateCliente)
		clienti.POST("/import", h.ImportClienti)
		clienti.GET("/:id", h.GetCliente)
		clienti.PUT("/:id", h.UpdateCliente)
		clienti.DELETE("/:id", h.DeleteCliente)
		clienti.POST("/:id/reassign", h.ReassignCliente)

		clienti.GET("/:id/referenti", h.ListReferenti)
		clienti.POST("/:id/referenti", h.CreateReferente)
		clienti.PUT("/:id/referenti/:referenteId", h.UpdateReferente)
		clienti.DELETE("/:id/referenti/:referenteId", h.DeleteReferente)

		clienti.GET("/:id/forniture", h.ListForniture)
		clienti.POST("/:id/forniture", h.CreateFornitura)
		clienti.PUT("/:id/forniture/:fornituraId", h.UpdateFornitura)
		clienti.DELETE("/:id/forniture/:fornituraId", h.DeleteFornitura)
	}
}

func clienteInputFromForm(c *gin.Context) service.ClienteInput {
	return service.ClienteInput{
		RagioneSociale:     c.PostForm("ragioneSociale"),
		Nome:               c.PostForm("nome"),
		Cognome:            c.PostForm("cognome"),
		CodiceFiscale:      c.PostForm("codiceFiscale"),
		PIVA:               c.PostForm("piva"),
		PEC:                c.PostForm("pec"),
		CodiceDestinatario: c.PostForm("codiceDestinatario"),
		NomePersonaFisica:  c.PostForm("nomePersonaFisica"),
		Email:              c.PostForm("email"),
		Cellulare:          c.PostForm("cellulare"),
		CodiceAteco:        c.PostForm("codiceAteco"),
		ModalitaPagamento:  c.PostForm("modalitaPagamento"),
		IndirizzoResidenza: c.PostForm("indirizzoResidenza"),
		IBAN:               c.PostForm("iban"),
		Stato:              c.PostForm("stato"),
	}
}

// formFileBytes reads an optional multipart file field.
func formFileBytes(c *gin.Context, field string) (name, contentType string, data []byte, ok bool, err error) {
	fh, ferr := c.FormFile(field)
	if ferr != nil {
		return "", "", nil, false, nil
	}
	f, ferr := fh.Open()
	if ferr != nil {
		return "", "", nil, false, ferr
	}
	defer f.Close()
	data, ferr = io.ReadAll(f)
	if ferr != nil {
		return "", "", nil, false, ferr
	}
	return fh.Filename, fh.Header.Get("Content-Type"), data, true, nil
}

// ListClienti returns the caller's visible clienti
// @Summary      List clienti
// @Tags         clienti
// @Produce      json
// @Param        search  query  string  false  "Search by name, company, CF, email, piva"
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Items per page"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/clienti [get]
func (h *ClienteHandler) ListClienti(c *gin.Context) {
	params := pagination.Parse(c)
	clienti, total, err := h.clienteService.List(c.Request.Context(), caller(c), c.Query("search"), params.Offset, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{
		"clienti": clienti,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// CreateCliente creates a cliente from form-data, with an optional attached
// documento file
// @Summary      Create cliente
// @Tags         clienti
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/clienti [post]
func (h *ClienteHandler) CreateCliente(c *gin.Context) {
	who := caller(c)

	fileName, contentType, fileData, hasFile, err := formFileBytes(c, "documento")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Err("File non leggibile"))
		return
	}
	// reject the file before touching the database
	if hasFile {
		if err := h.documentoService.ValidateFileType(contentType); err != nil {
			fail(c, err)
			return
		}
		if err := h.documentoService.CheckQuota(c.Request.Context(), who.ID, int64(len(fileData))); err != nil {
			fail(c, err)
			return
		}
	}

	cliente, err := h.clienteService.Create(c.Request.Context(), who, clienteInputFromForm(c))
	if err != nil {
		fail(c, err)
		return
	}

	if hasFile {
		// the cliente exists even if its attachment fails
		_, upErr := h.documentoService.Upload(c.Request.Context(), who, service.UploadInput{
			FileName:    fileName,
			ContentType: contentType,
			Data:        fileData,
			ClienteID:   &cliente.ID,
			Categoria:   "Clienti",
		})
		if upErr != nil {
			log.Printf("cliente %s: documento upload failed: %v", cliente.ID, upErr)
		}
	}

	c.JSON(http.StatusOK, response.OK(gin.H{"cliente": cliente}))
}

// GetCliente returns one cliente with referenti and forniture
// @Summary      Get cliente
// @Tags         clienti
// @Produce      json
// @Param        id  path  string  true  "Cliente ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/clienti/{id} [get]
func (h *ClienteHandler) GetCliente(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	cliente, err := h.clienteService.Get(c.Request.Context(), caller(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"cliente": cliente}))
}

// UpdateCliente updates a cliente from form-data
// @Summary      Update cliente
// @Tags         clienti
// @Accept       multipart/form-data
// @Produce      json
// @Param        id  path  string  true  "Cliente ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/clienti/{id} [put]
func (h *ClienteHandler) UpdateCliente(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	cliente, err := h.clienteService.Update(c.Request.Context(), caller(c), id, clienteInputFromForm(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"cliente": cliente}))
}

// DeleteCliente removes a cliente without contracts
// @Summary      Delete cliente
// @Tags         clienti
// @Produce      json
// @Param        id  path  string  true  "Cliente ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/clienti/{id} [delete]
func (h *ClienteHandler) DeleteCliente(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.clienteService.Delete(c.Request.Context(), caller(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"message": "Cliente eliminato"}))
}

type reassignRequest struct {
	NuovoAgenteID uuid.UUID `json:"nuovoAgenteId" binding:"required"`
}

// ReassignCliente transfers the cliente and its records to another agente
// @Summary      Reassign cliente
// @Tags         clienti
// @Accept       json
// @Produce      json
// @Param        id       path  string            true  "Cliente ID"
// @Param        payload  body  reassignRequest   true  "Target agente"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /api/clienti/{id}/reassign [post]
func (h *ClienteHandler) ReassignCliente(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Err("nuovoAgenteId è obbligatorio"))
		return
	}
	if err := h.clienteService.Reassign(c.Request.Context(), caller(c), id, req.NuovoAgenteID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"message": "Cliente riassegnato con successo"}))
}

// ImportClienti bulk-imports clienti from an xlsx file
// @Summary      Import clienti
// @Tags         clienti
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/clienti/import [post]
func (h *ClienteHandler) ImportClienti(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Err("Nessun file selezionato"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Err("File non leggibile"))
		return
	}
	defer f.Close()

	result, err := h.clienteService.Import(c.Request.Context(), caller(c), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{
		"imported":  result.Imported,
		"totalRows": result.TotalRows,
		"errors":    result.Errors,
	}))
}

// ListReferenti lists the contact persons of a cliente
// @Summary      List referenti
// @Tags         clienti
// @Produce      json
// @Param        id  path  string  true  "Cliente ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/clienti/{id}/referenti [get]
func (h *ClienteHandler) ListReferenti(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	referenti, err := h.clienteService.ListReferenti(c.Request.Context(), caller(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"referenti": referenti}))
}

// CreateReferente adds a contact person to a cliente
// @Summary      Create referente
// @Tags         clienti
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "Cliente ID"
// @Param        payload  body  service.ReferenteInput   true  "Referente payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/clienti/{id}/referenti [post]
func (h *ClienteHandler) CreateReferente(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input service.ReferenteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Err("Nome e Cognome sono obbligatori"))
		return
	}
	referente, err := h.clienteService.CreateReferente(c.Request.Context(), caller(c), id, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"referente": referente}))
}

// UpdateReferente updates a contact person
// @Summary      Update referente
// @Tags         clienti
// @Accept       json
// @Produce      json
// @Param        id           path  string                   true  "Cliente ID"
// @Param        referenteId  path  string                   true  "Referente ID"
// @Param        payload      body  service.ReferenteInput   true  "Referente payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/clienti/{id}/referenti/{referenteId} [put]
func (h *ClienteHandler) UpdateReferente(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	referenteID, ok := pathUUID(c, "referenteId")
	if !ok {
		return
	}
	var input service.ReferenteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Err("Nome e Cognome sono obbligatori"))
		return
	}
	referente, err := h.clienteService.UpdateReferente(c.Request.Context(), caller(c), id, referenteID, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"referente": referente}))
}

// DeleteReferente removes a contact person
// @Summary      Delete referente
// @Tags         clienti
// @Produce      json
// @Param        id           path  string  true  "Cliente ID"
// @Param        referenteId  path  string  true  "Referente ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/clienti/{id}/referenti/{referenteId} [delete]
func (h *ClienteHandler) DeleteReferente(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	referenteID, ok := pathUUID(c, "referenteId")
	if !ok {
		return
	}
	if err := h.clienteService.DeleteReferente(c.Request.Context(), caller(c), id, referenteID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"message": "Referente eliminato"}))
}

// ListForniture lists the supply lines of a cliente
// @Summary      List forniture
// @Tags         clienti
// @Produce      json
// @Param        id  path  string  true  "Cliente ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/clienti/{id}/forniture [get]
func (h *ClienteHandler) ListForniture(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	forniture, err := h.clienteService.ListForniture(c.Request.Context(), caller(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"forniture": forniture}))
}

// CreateFornitura adds a supply line to a cliente
// @Summary      Create fornitura
// @Tags         clienti
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "Cliente ID"
// @Param        payload  body  service.FornituraInput   true  "Fornitura payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/clienti/{id}/forniture [post]
func (h *ClienteHandler) CreateFornitura(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input service.FornituraInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Err("Dati fornitura non validi"))
		return
	}
	fornitura, err := h.clienteService.CreateFornitura(c.Request.Context(), caller(c), id, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"fornitura": fornitura}))
}

// UpdateFornitura updates a supply line
// @Summary      Update fornitura
// @Tags         clienti
// @Accept       json
// @Produce      json
// @Param        id           path  string                   true  "Cliente ID"
// @Param        fornituraId  path  string                   true  "Fornitura ID"
// @Param        payload      body  service.FornituraInput   true  "Fornitura payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/clienti/{id}/forniture/{fornituraId} [put]
func (h *ClienteHandler) UpdateFornitura(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	fornituraID, ok := pathUUID(c, "fornituraId")
	if !ok {
		return
	}
	var input service.FornituraInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Err("Dati fornitura non validi"))
		return
	}
	fornitura, err := h.clienteService.UpdateFornitura(c.Request.Context(), caller(c), id, fornituraID, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"fornitura": fornitura}))
}

// DeleteFornitura removes a supply line
// @Summary      Delete fornitura
// @Tags         clienti
// @Produce      json
// @Param        id           path  string  true  "Cliente ID"
// @Param        fornituraId  path  string  true  "Fornitura ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/clienti/{id}/forniture/{fornituraId} [delete]
func (h *ClienteHandler) DeleteFornitura(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	fornituraID, ok := pathUUID(c, "fornituraId")
	if !ok {
		return
	}
	if err := h.clienteService.DeleteFornitura(c.Request.Context(), caller(c), id, fornituraID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"message": "Fornitura eliminata"}))
}
