package handler

import (
	"net/http"

	"backend/internal/mailer"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	mailer *mailer.Mailer
}

func NewEmailHandler(m *mailer.Mailer) *EmailHandler {
	return &EmailHandler{mailer: m}
}

func (h *EmailHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/email/send", h.Send)
}

type sendEmailRequest struct {
	To      string `json:"to" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	HTML    string `json:"html" binding:"required"`
	Text    string `json:"text"`
}

// Send dispatches an email through the configured SMTP transport
// @Summary      Send email
// @Tags         email
// @Accept       json
// @Produce      json
// @Param        payload  body  sendEmailRequest  true  "Email payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/email/send [post]
func (h *EmailHandler) Send(c *gin.Context) {
	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Err("Destinatario, oggetto e contenuto sono obbligatori"))
		return
	}

	err := h.mailer.Send(mailer.Message{
		To:      req.To,
		Subject: req.Subject,
		HTML:    req.HTML,
		Text:    req.Text,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Err("Errore durante l'invio dell'email"))
		return
	}
	c.JSON(http.StatusOK, response.OK(gin.H{"message": "Email inviata con successo"}))
}
