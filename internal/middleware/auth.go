package middleware

import (
	"net/http"
	"os"

	"backend/internal/model"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const (
	// CookieName is the HttpOnly session cookie carrying the signed token.
	CookieName = "auth-token"

	userKey = "currentUser"
)

// SetAuthCookie sets the session cookie. maxAge is seconds (24h, or 30 days
// with rememberMe).
func SetAuthCookie(c *gin.Context, token string, maxAge int) {
	secure := os.Getenv("GIN_MODE") == "release"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, maxAge, "/", "", secure, true)
}

// ClearAuthCookie removes the session cookie.
func ClearAuthCookie(c *gin.Context) {
	secure := os.Getenv("GIN_MODE") == "release"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", secure, true)
}

// RequireAuth validates the cookie (or Bearer header) token against the
// configured signing key, then fetches the user row so role and punto
// vendita affiliation are always current. An invalid token clears the
// cookie before rejecting.
func RequireAuth(db *gorm.DB, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(CookieName)
		if err != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
				tokenString = authHeader[7:]
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Non autorizzato"))
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			ClearAuthCookie(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Non autorizzato"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			ClearAuthCookie(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Non autorizzato"))
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			ClearAuthCookie(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Non autorizzato"))
			return
		}

		var user model.User
		if err := db.WithContext(c.Request.Context()).First(&user, "id = ?", sub).Error; err != nil {
			ClearAuthCookie(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Non autorizzato"))
			return
		}
		if !user.Attivo {
			ClearAuthCookie(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Non autorizzato"))
			return
		}

		c.Set(userKey, &user)
		c.Next()
	}
}

// CurrentUser returns the user row attached by RequireAuth.
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}
