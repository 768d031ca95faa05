package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"genpire-backend/internal/models"
	"genpire-backend/internal/services"
)

type PrintPackHandler struct {
	service *services.PrintPackService
}

func NewPrintPackHandler(service *services.PrintPackService) *PrintPackHandler {
	return &PrintPackHandler{service: service}
}

// Build godoc
// @Summary     Build a print-ready artwork bundle from a product image
// @Description Extracts the garment's print, generates a seamless pattern tile, and packages TIFF, EPS, and PDF preview into a zip archive.
// @Tags        printpack
// @Accept      json
// @Produce     json
// @Param       product_id path string true "Product ID"
// @Param       request body models.PrintPackRequest true "Source image"
// @Success     200 {object} models.PrintPackResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /api/v1/products/{product_id}/print-pack [post]
func (h *PrintPackHandler) Build(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid product id"})
		return
	}

	var req models.PrintPackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	if req.FrontImageURL == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "front_image_url is required"})
		return
	}

	result, err := h.service.BuildPrintPack(c.Request.Context(), services.PrintPackInput{
		ProductID: productID,
		UserID:    userID,
		ImageURL:  req.FrontImageURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.PrintPackResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.PrintPackResponse{
		Success:       true,
		ArchiveURL:    result.ArchiveURL,
		Included:      result.Included,
		PatternPrompt: result.Prompt,
	})
}
