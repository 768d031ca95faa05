package handlers_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genpire-backend/internal/handlers"
	"genpire-backend/internal/logger"
	"genpire-backend/internal/services"
)

type stubObjectStorage struct {
	data map[string][]byte
}

func (s *stubObjectStorage) UploadProductImage(userID, productID uuid.UUID, filename string, data []byte, contentType string) (string, string, error) {
	return "", "", nil
}

func (s *stubObjectStorage) DeleteFile(storagePath string) error { return nil }

func (s *stubObjectStorage) FetchURL(url string) ([]byte, error) {
	if data, ok := s.data[url]; ok {
		return data, nil
	}
	return nil, context.DeadlineExceeded
}

func pdfScannerRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := services.NewPDFScanService(&stubObjectStorage{}, logger.Nop())
	handler := handlers.NewPDFScannerHandler(service)

	router := gin.New()
	router.Use(injectUser(uuid.New()))
	router.POST("/api/pdf-scanner", handler.Scan)
	router.GET("/api/pdf-scanner", handler.MethodNotAllowed)
	return router
}

func TestPDFScanner_GetNotAllowed(t *testing.T) {
	router := pdfScannerRouter()

	req, _ := http.NewRequest("GET", "/api/pdf-scanner", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestPDFScanner_MissingFileURL(t *testing.T) {
	router := pdfScannerRouter()

	req, _ := http.NewRequest("POST", "/api/pdf-scanner", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "fileUrl is required")
}

func TestPDFScanner_RejectsNonPDFUpload(t *testing.T) {
	router := pdfScannerRouter()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("plain text"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest("POST", "/api/pdf-scanner", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "only PDF files are accepted")
}

func TestPDFScanner_CorruptPDFUpload(t *testing.T) {
	router := pdfScannerRouter()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "sheet.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("definitely not pdf bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest("POST", "/api/pdf-scanner", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
