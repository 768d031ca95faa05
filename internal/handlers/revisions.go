package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"genpire-backend/internal/database"
	"genpire-backend/internal/models"
	"genpire-backend/internal/services"
)

type RevisionHandler struct {
	service *services.RevisionService
}

func NewRevisionHandler(service *services.RevisionService) *RevisionHandler {
	return &RevisionHandler{service: service}
}

// ApplyEdit godoc
// @Summary     Apply an AI edit to the front view
// @Description Routes the edit through the approval gate; the returned revision id is the approval id and becomes the new front revision once approved. Editing any other view is not supported.
// @Tags        revisions
// @Accept      json
// @Produce     json
// @Param       product_id path string true "Product ID"
// @Param       request body models.ApplyImageEditRequest true "Edit request"
// @Success     200 {object} models.ImageEditResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /api/v1/products/{product_id}/revisions/edit [post]
func (h *RevisionHandler) ApplyEdit(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid product id"})
		return
	}

	var req models.ApplyImageEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	viewType, err := models.ParseViewType(req.ViewType)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.service.ApplyImageEdit(c.Request.Context(), services.ApplyImageEditInput{
		ProductID:       productID,
		UserID:          userID,
		ViewType:        viewType,
		CurrentImageURL: req.CurrentImageURL,
		EditPrompt:      req.EditPrompt,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrUnsupportedView) {
			status = http.StatusBadRequest
		}
		c.JSON(status, models.ImageEditResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.ImageEditResponse{
		Success:    true,
		ImageURL:   result.ImageURL,
		RevisionID: result.RevisionID.String(),
	})
}

// List godoc
// @Summary     Get a product's revision history grouped by view
// @Tags        revisions
// @Produce     json
// @Param       product_id path string true "Product ID"
// @Param       view_type query string false "Restrict to one view"
// @Success     200 {object} models.RevisionsResponse
// @Router      /api/v1/products/{product_id}/revisions [get]
func (h *RevisionHandler) List(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid product id"})
		return
	}

	var viewFilter *models.ViewType
	if v := c.Query("view_type"); v != "" {
		viewType, err := models.ParseViewType(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		viewFilter = &viewType
	}

	grouped, err := h.service.GetRevisionsForProduct(c.Request.Context(), userID, productID, viewFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list revisions", Details: err.Error()})
		return
	}

	resp := models.RevisionsResponse{Revisions: make(map[string][]models.RevisionResponse, len(grouped))}
	for view, revs := range grouped {
		out := make([]models.RevisionResponse, 0, len(revs))
		for i := range revs {
			out = append(out, revisionResponse(&revs[i]))
		}
		resp.Revisions[string(view)] = out
	}
	c.JSON(http.StatusOK, resp)
}

// Activate godoc
// @Summary     Make a historical revision the active one for its view
// @Tags        revisions
// @Produce     json
// @Param       product_id path string true "Product ID"
// @Param       revision_id path string true "Revision ID"
// @Param       view_type query string true "View the revision belongs to"
// @Success     200 {object} models.ImageEditResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/v1/products/{product_id}/revisions/{revision_id}/activate [post]
func (h *RevisionHandler) Activate(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid product id"})
		return
	}
	revisionID, err := uuid.Parse(c.Param("revision_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid revision id"})
		return
	}
	viewType, err := models.ParseViewType(c.Query("view_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	imageURL, err := h.service.SetActiveRevision(c.Request.Context(), userID, productID, revisionID, viewType)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "revision not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to activate revision", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.ImageEditResponse{
		Success:    true,
		ImageURL:   imageURL,
		RevisionID: revisionID.String(),
	})
}

// SaveInitial godoc
// @Summary     Record the first revision of each view for a new product
// @Tags        revisions
// @Accept      json
// @Produce     json
// @Param       product_id path string true "Product ID"
// @Param       request body models.InitialRevisionsRequest true "Per-view images"
// @Success     200 {object} models.DecisionResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /api/v1/products/{product_id}/revisions/initial [post]
func (h *RevisionHandler) SaveInitial(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid product id"})
		return
	}

	var req models.InitialRevisionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	images := make(map[models.ViewType]services.InitialImage, len(req.Images))
	for key, img := range req.Images {
		viewType, err := models.ParseViewType(key)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		images[viewType] = services.InitialImage{ImageURL: img.URL, ThumbnailURL: img.ThumbnailURL}
	}

	if err := h.service.SaveInitialRevisions(c.Request.Context(), userID, productID, images); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.DecisionResponse{Success: true})
}

func revisionResponse(rev *models.ProductImageRevision) models.RevisionResponse {
	return models.RevisionResponse{
		ID:             rev.ID.String(),
		RevisionNumber: rev.RevisionNumber,
		ImageURL:       rev.ImageURL,
		ThumbnailURL:   rev.ThumbnailURL.String,
		EditPrompt:     rev.EditPrompt.String,
		EditType:       rev.EditType,
		IsActive:       rev.IsActive,
		Metadata:       rev.Metadata,
		CreatedAt:      rev.CreatedAt,
	}
}
