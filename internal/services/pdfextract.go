package services

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	ledongpdf "github.com/ledongthuc/pdf"

	"genpire-backend/internal/logger"
	"genpire-backend/internal/models"
)

// PDFScanService extracts structured product data from uploaded spec
// sheets. Extraction is heuristic: the full text is always returned so the
// caller can fall back to it when a field is not recognized.
type PDFScanService struct {
	storage ObjectStorage
	log     *logger.Logger
}

func NewPDFScanService(storage ObjectStorage, log *logger.Logger) *PDFScanService {
	return &PDFScanService{
		storage: storage,
		log:     log.With("service", "pdfscan"),
	}
}

// ScanURL downloads a PDF and extracts product data from it.
func (s *PDFScanService) ScanURL(fileURL string) (*models.ExtractedProductData, error) {
	data, err := s.storage.FetchURL(fileURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download pdf: %w", err)
	}
	return s.Scan(data)
}

// Scan extracts product data from raw PDF bytes.
func (s *PDFScanService) Scan(data []byte) (*models.ExtractedProductData, error) {
	reader, err := ledongpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return nil, fmt.Errorf("failed to read extracted text: %w", err)
	}

	text := buf.String()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("pdf contains no extractable text")
	}

	extracted := parseProductText(text)
	s.log.Debug("pdf scanned",
		"pages", reader.NumPage(), "chars", len(text), "materials", len(extracted.Materials))
	return extracted, nil
}

var (
	measurementRe = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s?(?:cm|mm|m|in|inch|inches|")\b`)

	materialWords = []string{
		"cotton", "polyester", "wool", "silk", "linen", "leather", "denim",
		"nylon", "spandex", "elastane", "viscose", "rayon", "cashmere", "suede",
	}
	colorWords = []string{
		"black", "white", "red", "blue", "green", "yellow", "orange", "purple",
		"pink", "brown", "grey", "gray", "beige", "navy", "cream", "ivory",
		"gold", "silver", "burgundy", "teal", "olive", "khaki",
	}
	categoryWords = []struct{ keyword, category string }{
		{"t-shirt", "apparel"}, {"shirt", "apparel"}, {"dress", "apparel"},
		{"jacket", "apparel"}, {"hoodie", "apparel"}, {"pants", "apparel"},
		{"skirt", "apparel"}, {"sweater", "apparel"},
		{"sneaker", "footwear"}, {"shoe", "footwear"}, {"boot", "footwear"},
		{"sandal", "footwear"},
		{"backpack", "accessories"}, {"bag", "accessories"}, {"wallet", "accessories"},
		{"hat", "accessories"}, {"belt", "accessories"}, {"scarf", "accessories"},
	}
)

func parseProductText(text string) *models.ExtractedProductData {
	out := &models.ExtractedProductData{RawText: text}

	lines := strings.Split(text, "\n")
	var nonEmpty []string
	for _, line := range lines {
		if t := strings.TrimSpace(line); t != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}
	if len(nonEmpty) > 0 {
		out.Title = nonEmpty[0]
	}
	if len(nonEmpty) > 1 {
		// The longest early line is usually the marketing description.
		for _, line := range nonEmpty[1:min(len(nonEmpty), 8)] {
			if len(line) > len(out.Description) {
				out.Description = line
			}
		}
	}

	lower := strings.ToLower(text)
	for _, m := range materialWords {
		if strings.Contains(lower, m) {
			out.Materials = append(out.Materials, m)
		}
	}
	for _, c := range colorWords {
		if containsWord(lower, c) {
			out.Colors = append(out.Colors, c)
		}
	}
	for _, cw := range categoryWords {
		if strings.Contains(lower, cw.keyword) {
			out.Category = cw.category
			break
		}
	}

	seen := make(map[string]bool)
	for _, m := range measurementRe.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			out.Measurements = append(out.Measurements, m)
		}
	}
	return out
}

// containsWord avoids matching "red" inside "covered" and similar.
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(text[start-1])
		afterOK := end == len(text) || !isLetter(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
