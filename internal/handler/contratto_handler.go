package handler

import (
	"log"
	"net/http"
	"time"

	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ContrattoHandler struct {
	contrattoService service.ContrattoService
	documentoService service.DocumentoService
}

func NewContrattoHandler(contrattoService service.ContrattoService, documentoService service.DocumentoService) *ContrattoHandler {
	return &ContrattoHandler{contrattoService: contrattoService, documentoService: documentoService}
}

func (h *ContrattoHandler) RegisterRoutes(router *gin.RouterGroup) {
	contratti := router.Group("/api/contratti")
	{
		contratti.GET("", h.ListContratti)
		contratti.POST("", h.CreateContratto)
		contratti.POST("/import", h.ImportContratti)
		contratti.GET("/:id", h.GetContratto)
		contratti.PUT("/:id", h.UpdateContratto)
		contratti.DELETE("/:id", h.DeleteContratto)
	}
}

func contrattoInputFromForm(c *gin.Context) (service.ContrattoInput, error) {
	input := service.ContrattoInput{
		Numero:      c.PostForm("numero"),
		Tipo:        c.PostForm("tipo"),
		TipoCliente: c.PostForm("tipoCliente"),
		Stato:       c.PostForm("stato"),
		Note:        c.PostForm("note"),
	}
	if v := c.PostForm("clienteId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return input, err
		}
		input.ClienteID = id
	}
	if v := c.PostForm("dataInizio"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return input, err
		}
		input.DataInizio = t
	}
	if v := c.PostForm("dataScadenza"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return input, err
		}
		input.DataScadenza = t
	}
	if v := c.PostForm("importo"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return input, err
		}
		input.Importo = d
	}
	return input, nil
}

// ListContratti returns the caller's visible contracts with client names
// @Summary      List contratti
// @Tags         contratti
// @Produce      json
// @Param        page   query  int  false  "Page number"
// @Param        limit  query  int  false  "Items per page"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/contratti [get]
func (h *ContrattoHandler) ListContratti(c *gin.Context) {
	params := pagination.Parse(c)
	contratti, total, err := h.contrattoService.List(c.Request.Context(), caller(c), params.Offset, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{
		"contratti": contratti,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// CreateContratto creates a contract from form-data, with an optional
// attached documento file
// @Summary      Create contratto
// @Tags         contratti
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/contratti [post]
func (h *ContrattoHandler) CreateContratto(c *gin.Context) {
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

	input, err := contrattoInputFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Err("Dati contratto non validi"))
		return
	}
	contratto, err := h.contrattoService.Create(c.Request.Context(), who, input)
	if err != nil {
		fail(c, err)
		return
	}

	if hasFile {
		// the contratto exists even if its attachment fails
		_, upErr := h.documentoService.Upload(c.Request.Context(), who, service.UploadInput{
			FileName:    fileName,
			ContentType: contentType,
			Data:        fileData,
			ContrattoID: &contratto.ID,
			Categoria:   "Contratti",
		})
		if upErr != nil {
			log.Printf("contratto %s: documento upload failed: %v", contratto.ID, upErr)
		}
	}

	c.JSON(http.StatusOK, response.OK(gin.H{"contratto": contratto}))
}

// GetContratto returns one contract
// @Summary      Get contratto
// @Tags         contratti
// @Produce      json
// @Param        id  path  string  true  "Contratto ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/contratti/{id} [get]
func (h *ContrattoHandler) GetContratto(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	contratto, err := h.contrattoService.Get(c.Request.Context(), caller(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"contratto": contratto}))
}

// UpdateContratto updates a contract from form-data
// @Summary      Update contratto
// @Tags         contratti
// @Accept       multipart/form-data
// @Produce      json
// @Param        id  path  string  true  "Contratto ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/contratti/{id} [put]
func (h *ContrattoHandler) UpdateContratto(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	input, err := contrattoInputFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Err("Dati contratto non validi"))
		return
	}
	contratto, err := h.contrattoService.Update(c.Request.Context(), caller(c), id, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"contratto": contratto}))
}

// DeleteContratto removes a contract
// @Summary      Delete contratto
// @Tags         contratti
// @Produce      json
// @Param        id  path  string  true  "Contratto ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/contratti/{id} [delete]
func (h *ContrattoHandler) DeleteContratto(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.contrattoService.Delete(c.Request.Context(), caller(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"message": "Contratto eliminato"}))
}

// ImportContratti bulk-imports contracts from an xlsx file
// @Summary      Import contratti
// @Tags         contratti
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/contratti/import [post]
func (h *ContrattoHandler) ImportContratti(c *gin.Context) {
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

	result, err := h.contrattoService.Import(c.Request.Context(), caller(c), f)
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
