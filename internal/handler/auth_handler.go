package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	userService service.UserService
	db          *gorm.DB
	jwtSecret   []byte
}

func NewAuthHandler(userService service.UserService, db *gorm.DB, jwtSecret []byte) *AuthHandler {
	return &AuthHandler{userService: userService, db: db, jwtSecret: jwtSecret}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", middleware.RequireAuth(h.db, h.jwtSecret), h.Me)
	}
}

// Login authenticates and sets the HttpOnly session cookie
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.LoginRequest  true  "Credentials"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Err("Email e password sono obbligatorie"))
		return
	}

	result, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	middleware.SetAuthCookie(c, result.Token, result.CookieMaxAge)
	c.JSON(http.StatusOK, response.OK(gin.H{"user": result.User}))
}

// Logout clears the session cookie
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearAuthCookie(c)
	c.JSON(http.StatusOK, response.OK(gin.H{"message": "Logout effettuato"}))
}

// Me returns the authenticated user
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, response.OK(gin.H{"user": gin.H{
		"id":             user.ID,
		"email":          user.Email,
		"name":           user.Nome,
		"ruolo":          user.Ruolo,
		"puntoVenditaId": user.PuntoVenditaID,
	}}))
}
