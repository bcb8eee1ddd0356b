package handler

import (
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StorageHandler struct {
	documentoService service.DocumentoService
}

func NewStorageHandler(documentoService service.DocumentoService) *StorageHandler {
	return &StorageHandler{documentoService: documentoService}
}

func (h *StorageHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/storage", h.Stats)
}

// Stats returns the caller's storage quota usage
// @Summary      Storage stats
// @Tags         storage
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/storage [get]
func (h *StorageHandler) Stats(c *gin.Context) {
	stats, err := h.documentoService.Stats(c.Request.Context(), caller(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"storage": stats}))
}
