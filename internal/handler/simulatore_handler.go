package handler

import (
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SimulatoreHandler struct {
	simulatoreService service.SimulatoreService
}

func NewSimulatoreHandler(simulatoreService service.SimulatoreService) *SimulatoreHandler {
	return &SimulatoreHandler{simulatoreService: simulatoreService}
}

func (h *SimulatoreHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/simulatore/analyze", h.Analyze)
}

// Analyze validates an uploaded bill and returns the simulated offer list
// @Summary      Analyze bill
// @Tags         simulatore
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/simulatore/analyze [post]
func (h *SimulatoreHandler) Analyze(c *gin.Context) {
	fh, err := c.FormFile("bolletta")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Err("Bolletta non fornita"))
		return
	}

	analisi, err := h.simulatoreService.Analyze(fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{
		"analisi": analisi,
		"utente": gin.H{
			"nome":    c.PostForm("nome"),
			"cognome": c.PostForm("cognome"),
			"email":   c.PostForm("email"),
		},
	}))
}
