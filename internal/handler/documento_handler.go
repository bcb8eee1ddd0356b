package handler

import (
	"net/http"

	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DocumentoHandler struct {
	documentoService service.DocumentoService
}

func NewDocumentoHandler(documentoService service.DocumentoService) *DocumentoHandler {
	return &DocumentoHandler{documentoService: documentoService}
}

func (h *DocumentoHandler) RegisterRoutes(router *gin.RouterGroup) {
	documenti := router.Group("/api/documenti")
	{
		documenti.GET("", h.ListDocumenti)
		documenti.POST("", h.UploadDocumento)
		documenti.DELETE("/:id", h.DeleteDocumento)
		documenti.GET("/download/:id", h.DownloadDocumento)
	}
}

// ListDocumenti returns documents whose parent cliente/contratto is visible
// @Summary      List documenti
// @Tags         documenti
// @Produce      json
// @Param        clienteId    query  string  false  "Filter by cliente"
// @Param        contrattoId  query  string  false  "Filter by contratto"
// @Param        categoria    query  string  false  "Filter by categoria"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/documenti [get]
func (h *DocumentoHandler) ListDocumenti(c *gin.Context) {
	var filter repository.DocumentoFilter
	if v := c.Query("clienteId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Err("clienteId non valido"))
			return
		}
		filter.ClienteID = &id
	}
	if v := c.Query("contrattoId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Err("contrattoId non valido"))
			return
		}
		filter.ContrattoID = &id
	}
	filter.Categoria = c.Query("categoria")

	documenti, err := h.documentoService.List(c.Request.Context(), caller(c), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"documenti": documenti}))
}

// UploadDocumento stores a file linked to a cliente or contratto
// @Summary      Upload documento
// @Tags         documenti
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/documenti [post]
func (h *DocumentoHandler) UploadDocumento(c *gin.Context) {
	fileName, contentType, data, hasFile, err := formFileBytes(c, "file")
	if err != nil || !hasFile {
		c.JSON(http.StatusBadRequest, response.Err("Nessun file selezionato"))
		return
	}

	input := service.UploadInput{
		FileName:    fileName,
		ContentType: contentType,
		Data:        data,
		Categoria:   c.PostForm("categoria"),
	}
	if v := c.PostForm("clienteId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Err("clienteId non valido"))
			return
		}
		input.ClienteID = &id
	}
	if v := c.PostForm("contrattoId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Err("contrattoId non valido"))
			return
		}
		input.ContrattoID = &id
	}

	doc, err := h.documentoService.Upload(c.Request.Context(), caller(c), input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"documento": doc}))
}

// DownloadDocumento streams the stored file
// @Summary      Download documento
// @Tags         documenti
// @Produce      octet-stream
// @Param        id  path  string  true  "Documento ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/documenti/download/{id} [get]
func (h *DocumentoHandler) DownloadDocumento(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.documentoService.Download(c.Request.Context(), caller(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Nome+`"`)
	c.Data(http.StatusOK, result.Tipo, result.Data)
}

// DeleteDocumento removes the file and its record
// @Summary      Delete documento
// @Tags         documenti
// @Produce      json
// @Param        id  path  string  true  "Documento ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/documenti/{id} [delete]
func (h *DocumentoHandler) DeleteDocumento(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.documentoService.Delete(c.Request.Context(), caller(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"message": "Documento eliminato"}))
}
