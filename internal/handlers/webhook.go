package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"genpire-backend/internal/clients/meshy"
	"genpire-backend/internal/config"
	"genpire-backend/internal/database"
	"genpire-backend/internal/models"
	"genpire-backend/internal/services"
)

type WebhookHandler struct {
	config  *config.Config
	service *services.Model3DService
}

func NewWebhookHandler(cfg *config.Config, service *services.Model3DService) *WebhookHandler {
	return &WebhookHandler{config: cfg, service: service}
}

// HandleMeshy godoc
// @Summary     Meshy task status webhook
// @Description Receives pushed status updates for 3D generation tasks. Uses authentication token verification. A notification arriving before the local record exists is answered with 404 and retryable=true so the sender redelivers it.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       Authorization header string true "Webhook token"
// @Success     200 {object} map[string]string "status"
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} map[string]interface{}
// @Router      /webhooks/meshy [post]
func (h *WebhookHandler) HandleMeshy(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "missing authorization token"})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if h.config.MeshyWebhookToken != "" && token != h.config.MeshyWebhookToken {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid authorization token"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read request body", Details: err.Error()})
		return
	}

	var task meshy.TaskResponse
	if err := json.Unmarshal(body, &task); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to parse event", Details: err.Error()})
		return
	}

	if err := h.service.HandleTaskUpdate(c.Request.Context(), &task); err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			// The task was just created and its row may not be visible yet.
			c.JSON(http.StatusNotFound, gin.H{"error": "task not known yet", "retryable": true})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to apply update", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
