package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"genpire-backend/internal/middleware"
	"genpire-backend/internal/models"
)

// authedUser pulls the authenticated user id from the request context,
// writing the 401 itself when the middleware did not run or the value is
// malformed.
func authedUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok || userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}
	return userID, true
}
