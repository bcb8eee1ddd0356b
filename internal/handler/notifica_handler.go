package handler

import (
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificaHandler struct {
	notificaService service.NotificaService
}

func NewNotificaHandler(notificaService service.NotificaService) *NotificaHandler {
	return &NotificaHandler{notificaService: notificaService}
}

func (h *NotificaHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifiche := router.Group("/api/notifiche")
	{
		notifiche.GET("", h.ListNotifiche)
		notifiche.PUT("/:id/read", h.MarkRead)
	}
}

// ListNotifiche returns the caller's notifications, newest first
// @Summary      List notifiche
// @Tags         notifiche
// @Produce      json
// @Param        unread  query  bool  false  "Only unread"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/notifiche [get]
func (h *NotificaHandler) ListNotifiche(c *gin.Context) {
	onlyUnread := c.Query("unread") == "true"
	notifiche, err := h.notificaService.List(c.Request.Context(), caller(c).ID, onlyUnread)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"notifiche": notifiche}))
}

// MarkRead marks one notification as read
// @Summary      Mark notifica read
// @Tags         notifiche
// @Produce      json
// @Param        id  path  string  true  "Notifica ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/notifiche/{id}/read [put]
func (h *NotificaHandler) MarkRead(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.notificaService.MarkRead(c.Request.Context(), caller(c).ID, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"message": "Notifica letta"}))
}
