// Package handler wires the HTTP surface: gin route groups per resource,
// request parsing and the mapping from service errors to the response
// envelope. Authorization decisions live in the services, never here.
package handler

import (
	"log"
	"net/http"

	"backend/internal/apperr"
	"backend/internal/authz"
	"backend/internal/middleware"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// fail converts a service error into the envelope, attaching the stable
// code when one is defined. Internal causes are logged, never returned.
func fail(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr.Status() == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	if appErr.Code != "" {
		c.JSON(appErr.Status(), response.ErrCode(appErr.Code, appErr.Message))
		return
	}
	c.JSON(appErr.Status(), response.Err(appErr.Message))
}

// pathUUID parses a :param path segment as a uuid, aborting with 400.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Err("ID non valido"))
		return uuid.Nil, false
	}
	return id, true
}

// caller builds the authz caller for the authenticated request.
func caller(c *gin.Context) authz.Caller {
	return authz.CallerFrom(middleware.CurrentUser(c))
}
