package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"genpire-backend/internal/models"
)

// HealthCheck godoc
// @Summary     Health check endpoint
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Router      /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
}
