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

type ViewHandler struct {
	service *services.ViewService
}

func NewViewHandler(service *services.ViewService) *ViewHandler {
	return &ViewHandler{service: service}
}

// GenerateFront godoc
// @Summary     Generate a front view for approval
// @Description Produces a front-view image and opens the decision gate. The remaining views are not generated until the front view is approved.
// @Tags        views
// @Accept      json
// @Produce     json
// @Param       product_id path string true "Product ID"
// @Param       request body models.GenerateFrontViewRequest true "Generation request"
// @Success     200 {object} models.FrontViewResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /api/v1/products/{product_id}/views/front [post]
func (h *ViewHandler) GenerateFront(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid product id"})
		return
	}

	var req models.GenerateFrontViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	if req.UserPrompt == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "user_prompt is required"})
		return
	}
	if req.IsEdit && req.PreviousFrontViewURL == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "previous_front_view_url is required for edits"})
		return
	}

	result, err := h.service.GenerateFrontView(c.Request.Context(), services.GenerateFrontViewInput{
		ProductID:            productID,
		UserID:               userID,
		UserPrompt:           req.UserPrompt,
		PreviousFrontViewURL: req.PreviousFrontViewURL,
		IsEdit:               req.IsEdit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.FrontViewResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.FrontViewResponse{
		Success:      true,
		FrontViewURL: result.FrontViewURL,
		ApprovalID:   result.ApprovalID.String(),
	})
}

// Decide godoc
// @Summary     Approve or reject a pending front view
// @Description Resolves the approval gate. The gate is one-shot: deciding an already resolved approval fails with 409.
// @Tags        views
// @Accept      json
// @Produce     json
// @Param       approval_id path string true "Approval ID"
// @Param       request body models.FrontViewDecisionRequest true "Decision"
// @Success     200 {object} models.DecisionResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /api/v1/approvals/{approval_id}/decision [post]
func (h *ViewHandler) Decide(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}
	approvalID, err := uuid.Parse(c.Param("approval_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid approval id"})
		return
	}

	var req models.FrontViewDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	err = h.service.HandleFrontViewDecision(c.Request.Context(), services.DecisionInput{
		ApprovalID: approvalID,
		UserID:     userID,
		Action:     req.Action,
	})
	if err != nil {
		switch {
		case errors.Is(err, database.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "approval not found"})
		case errors.Is(err, database.ErrApprovalResolved):
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "approval already resolved"})
		default:
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, models.DecisionResponse{Success: true})
}

// FanOut godoc
// @Summary     Generate the remaining views from an approved front view
// @Tags        views
// @Accept      json
// @Produce     json
// @Param       product_id path string true "Product ID"
// @Param       request body models.FanOutRequest true "Approved approval reference"
// @Success     200 {object} models.FanOutResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /api/v1/products/{product_id}/views/fan-out [post]
func (h *ViewHandler) FanOut(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid product id"})
		return
	}

	var req models.FanOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	approvalID, err := uuid.Parse(req.ApprovalID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid approval id"})
		return
	}

	result, err := h.service.GenerateRemainingViews(c.Request.Context(), services.FanOutInput{
		ProductID:  productID,
		UserID:     userID,
		ApprovalID: approvalID,
	})
	if err != nil {
		generated := map[string]string{}
		if result != nil {
			for view, url := range result.GeneratedViews {
				generated[string(view)] = url
			}
		}
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, database.ErrRecordNotFound):
			status = http.StatusNotFound
		case errors.Is(err, services.ErrNotApproved):
			status = http.StatusConflict
		}
		c.JSON(status, models.FanOutResponse{Success: false, GeneratedViews: generated, Error: err.Error()})
		return
	}

	generated := make(map[string]string, len(result.GeneratedViews))
	for view, url := range result.GeneratedViews {
		generated[string(view)] = url
	}
	c.JSON(http.StatusOK, models.FanOutResponse{Success: true, GeneratedViews: generated})
}
