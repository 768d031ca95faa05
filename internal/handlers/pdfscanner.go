package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"genpire-backend/internal/models"
	"genpire-backend/internal/services"
)

// maxPDFSize caps uploaded spec sheets at 20 MB.
const maxPDFSize = 20 << 20

type PDFScannerHandler struct {
	service *services.PDFScanService
}

func NewPDFScannerHandler(service *services.PDFScanService) *PDFScannerHandler {
	return &PDFScannerHandler{service: service}
}

// Scan godoc
// @Summary     Extract product data from a PDF spec sheet
// @Description Accepts either a JSON body with a fileUrl or a multipart upload with a "file" field. Extraction is heuristic; the raw text is always returned.
// @Tags        pdfscanner
// @Accept      json
// @Accept      multipart/form-data
// @Produce     json
// @Success     200 {object} models.PDFScanResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /api/pdf-scanner [post]
func (h *PDFScannerHandler) Scan(c *gin.Context) {
	if _, ok := authedUser(c); !ok {
		return
	}

	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		h.scanUpload(c)
		return
	}

	var req models.PDFScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	if req.FileURL == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "fileUrl is required"})
		return
	}

	data, err := h.service.ScanURL(req.FileURL)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, models.PDFScanResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.PDFScanResponse{Success: true, Data: data})
}

func (h *PDFScannerHandler) scanUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "a \"file\" form field is required", Details: err.Error()})
		return
	}
	if fileHeader.Size > maxPDFSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "file exceeds the 20MB limit"})
		return
	}
	if !isPDF(fileHeader.Filename, fileHeader.Header.Get("Content-Type")) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "only PDF files are accepted"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to open upload", Details: err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxPDFSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read upload", Details: err.Error()})
		return
	}
	if len(data) > maxPDFSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "file exceeds the 20MB limit"})
		return
	}

	extracted, err := h.service.Scan(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, models.PDFScanResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.PDFScanResponse{Success: true, Data: extracted})
}

// MethodNotAllowed answers GET requests to the scanner endpoint; only POST
// is supported.
func (h *PDFScannerHandler) MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed, use POST"})
}

func isPDF(filename, contentType string) bool {
	if strings.EqualFold(contentType, "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
