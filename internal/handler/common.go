package handler

import (
	"errors"
	"net/http"

	"taskboard/internal/authz"
	"taskboard/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUserID pulls the authenticated user out of the context set
// by the JWT middleware. A missing or malformed value means the route
// was wired without the middleware.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}

	userID, ok := v.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}

	return userID, true
}

// pathUUID parses a uuid path parameter, responding 400 on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return uuid.Nil, false
	}
	return id, true
}

// respondDenied maps gate denials to responses. Membership absence
// and role insufficiency share one message so outsiders cannot tell
// whether a project exists.
func respondDenied(c *gin.Context, err error) bool {
	if errors.Is(err, authz.ErrNotAMember) || errors.Is(err, authz.ErrInsufficientRole) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have the required permissions to access this resource"})
		return true
	}
	return false
}
