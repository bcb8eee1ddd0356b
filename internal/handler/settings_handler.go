package handler

import (
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	userService service.UserService
}

func NewSettingsHandler(userService service.UserService) *SettingsHandler {
	return &SettingsHandler{userService: userService}
}

func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.PUT("/api/settings", h.UpdateSettings)
}

// UpdateSettings updates the caller's profile settings
// @Summary      Update settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        payload  body  service.UpdateSettingsRequest  true  "Settings payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req service.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Err("Dati non validi"))
		return
	}
	user, err := h.userService.UpdateSettings(c.Request.Context(), caller(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"user": user}))
}
