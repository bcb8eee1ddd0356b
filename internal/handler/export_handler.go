package handler

import (
	"net/http"

	"backend/internal/service"

	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	exportService service.ExportService
}

func NewExportHandler(exportService service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

func (h *ExportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/export/clienti", h.ExportClienti)
}

// ExportClienti downloads the caller's visible clienti as csv or xlsx
// @Summary      Export clienti
// @Tags         export
// @Produce      octet-stream
// @Param        format  query  string  false  "csv (default) or xlsx"
// @Success      200  {file}  binary
// @Router       /api/export/clienti [get]
func (h *ExportHandler) ExportClienti(c *gin.Context) {
	file, err := h.exportService.Clienti(c.Request.Context(), caller(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
