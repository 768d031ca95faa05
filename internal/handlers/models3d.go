package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"genpire-backend/internal/clients/meshy"
	"genpire-backend/internal/database"
	"genpire-backend/internal/models"
	"genpire-backend/internal/services"
)

type Model3DHandler struct {
	service *services.Model3DService
}

func NewModel3DHandler(service *services.Model3DService) *Model3DHandler {
	return &Model3DHandler{service: service}
}

// Generate godoc
// @Summary     Submit a multi-image 3D model generation job
// @Description Creates a new model version for the source entity. Front and back image URLs are required.
// @Tags        models3d
// @Accept      json
// @Produce     json
// @Param       request body models.Generate3DModelRequest true "Generation request"
// @Success     200 {object} models.Generate3DModelResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /api/generate-3d-model [post]
func (h *Model3DHandler) Generate(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}

	var req models.Generate3DModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	sourceType, err := models.ParseSourceType(req.SourceType)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if req.SourceID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "sourceId is required"})
		return
	}

	model, err := h.service.SubmitGeneration(c.Request.Context(), services.SubmitGenerationInput{
		UserID:      userID,
		SourceType:  sourceType,
		SourceID:    req.SourceID,
		InputImages: req.ImageURLs,
	})
	if err != nil {
		if errors.Is(err, services.ErrMissingViews) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		respondUpstream(c, err, "failed to start 3D generation")
		return
	}

	c.JSON(http.StatusOK, models.Generate3DModelResponse{
		Success: true,
		TaskID:  model.TaskID,
		ModelID: model.ID.String(),
		Message: "3D model generation started",
	})
}

// Status godoc
// @Summary     Poll a 3D generation job
// @Tags        models3d
// @Produce     json
// @Param       taskId query string true "Generation task ID"
// @Success     200 {object} models.Model3DStatusResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/generate-3d-model [get]
func (h *Model3DHandler) Status(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}
	taskID := c.Query("taskId")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "taskId is required"})
		return
	}

	model, err := h.service.PollStatus(c.Request.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "model not found"})
			return
		}
		respondUpstream(c, err, "failed to poll generation status")
		return
	}

	c.JSON(http.StatusOK, statusResponse(model))
}

// ListVersions godoc
// @Summary     List 3D model versions for a source entity
// @Tags        models3d
// @Produce     json
// @Param       source_type path string true "product or collection"
// @Param       source_id path string true "Source entity ID"
// @Param       include_all query bool false "Include pending and failed versions"
// @Success     200 {array} models.Model3DVersionResponse
// @Router      /api/v1/3d-models/{source_type}/{source_id} [get]
func (h *Model3DHandler) ListVersions(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}
	sourceType, err := models.ParseSourceType(c.Param("source_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	includeAll := c.Query("include_all") == "true"
	versions, err := h.service.ListVersions(c.Request.Context(), userID, sourceType, c.Param("source_id"), includeAll)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list versions", Details: err.Error()})
		return
	}

	out := make([]models.Model3DVersionResponse, 0, len(versions))
	for i := range versions {
		out = append(out, versionResponse(&versions[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Activate godoc
// @Summary     Make a model version the active one for its source
// @Tags        models3d
// @Produce     json
// @Param       model_id path string true "Model version ID"
// @Success     200 {object} models.Model3DVersionResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/v1/3d-models/versions/{model_id}/activate [post]
func (h *Model3DHandler) Activate(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}
	modelID, err := uuid.Parse(c.Param("model_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid model id"})
		return
	}

	model, err := h.service.SetActiveVersion(c.Request.Context(), userID, modelID)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "model not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to activate version", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, versionResponse(model))
}

// Delete godoc
// @Summary     Delete an inactive model version
// @Tags        models3d
// @Produce     json
// @Param       model_id path string true "Model version ID"
// @Success     200 {object} map[string]bool
// @Failure     409 {object} models.ErrorResponse
// @Router      /api/v1/3d-models/versions/{model_id} [delete]
func (h *Model3DHandler) Delete(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}
	modelID, err := uuid.Parse(c.Param("model_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid model id"})
		return
	}

	if err := h.service.DeleteVersion(c.Request.Context(), userID, modelID); err != nil {
		switch {
		case errors.Is(err, database.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "model not found"})
		case errors.Is(err, database.ErrActiveVersion):
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "cannot delete the active version; activate another version first"})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to delete version", Details: err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// respondUpstream maps a provider error onto the response, forwarding the
// provider's own status code when it is known.
func respondUpstream(c *gin.Context, err error, msg string) {
	var statusErr *meshy.StatusError
	if errors.As(err, &statusErr) {
		c.JSON(statusErr.StatusCode, models.ErrorResponse{Error: msg, Details: err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: msg, Details: err.Error()})
}

func statusResponse(m *models.Product3DModel) models.Model3DStatusResponse {
	resp := models.Model3DStatusResponse{
		Status:      m.Status,
		Progress:    m.Progress,
		ModelURLs:   m.ModelURLs,
		TextureURLs: m.TextureURLs,
	}
	if m.ThumbnailURL.Valid {
		resp.Thumbnail = &m.ThumbnailURL.String
	}
	if m.TaskError.Valid {
		resp.TaskError = &m.TaskError.String
	}
	if m.FinishedAt.Valid {
		resp.FinishedAt = &m.FinishedAt.Time
	}
	return resp
}

func versionResponse(m *models.Product3DModel) models.Model3DVersionResponse {
	return models.Model3DVersionResponse{
		ID:           m.ID.String(),
		SourceType:   string(m.SourceType),
		SourceID:     m.SourceID,
		TaskID:       m.TaskID,
		Status:       m.Status,
		Progress:     m.Progress,
		ModelURLs:    m.ModelURLs,
		ThumbnailURL: m.ThumbnailURL.String,
		Version:      m.Version,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
	}
}
