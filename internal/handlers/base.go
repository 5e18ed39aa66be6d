package handlers

import (
	"errors"
	"log"
	"net/http"

	"echoboard/internal/apperr"
	"echoboard/internal/identity"
	"echoboard/internal/middleware"
	"echoboard/internal/models"

	"github.com/gin-gonic/gin"
)

// RespondError maps service errors onto the wire. Unclassified errors are
// logged and masked.
func RespondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.JSON(status, gin.H{"error": appErr.Message})
		return
	}
	log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(status, gin.H{"error": "internal error"})
}

// CurrentUser returns the session user, nil when anonymous.
func CurrentUser(c *gin.Context) *models.User {
	if user, exists := c.Get(middleware.CheckUserKey); exists {
		return user.(*models.User)
	}
	return nil
}

// CurrentIdentity returns the resolved identity; the zero value when the
// request carried neither session nor fingerprint.
func CurrentIdentity(c *gin.Context) identity.Identity {
	if ident, exists := c.Get(middleware.IdentityKey); exists {
		return ident.(identity.Identity)
	}
	return identity.Identity{}
}

func respondOK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}
