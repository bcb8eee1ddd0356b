package handler

import (
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AgenteHandler struct {
	userService service.UserService
}

func NewAgenteHandler(userService service.UserService) *AgenteHandler {
	return &AgenteHandler{userService: userService}
}

func (h *AgenteHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/agenti", h.ListAgenti)
	router.POST("/api/agenti", h.CreateAgente)
}

// ListAgenti returns the active agents of the caller's punto vendita with
// client and contract counts
// @Summary      List agenti
// @Tags         agenti
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /api/agenti [get]
func (h *AgenteHandler) ListAgenti(c *gin.Context) {
	agenti, err := h.userService.ListAgenti(c.Request.Context(), caller(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"agenti": agenti}))
}

// CreateAgente registers a new agente under the calling punto vendita
// @Summary      Create agente
// @Tags         agenti
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateAgenteRequest  true  "Agente payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /api/agenti [post]
func (h *AgenteHandler) CreateAgente(c *gin.Context) {
	var req service.CreateAgenteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Err("Email, password (min 8 caratteri) e nome sono obbligatori"))
		return
	}
	agente, err := h.userService.CreateAgente(c.Request.Context(), caller(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"agente": agente}))
}
