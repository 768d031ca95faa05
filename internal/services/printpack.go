package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"genpire-backend/internal/logger"
	"genpire-backend/internal/retry"
	"genpire-backend/internal/supabase"
)

// PrintPackService turns a product image into a print-ready artwork
// bundle: a seamless pattern is generated from the garment's print, then
// packaged as TIFF, EPS, and a PDF preview in a single zip archive.
type PrintPackService struct {
	generator ImageGenerator
	analyzer  VisionAnalyzer
	converter Converter
	storage   ObjectStorage
	realtime  *supabase.RealtimeClient
	log       *logger.Logger

	genPolicy retry.Policy
}

func NewPrintPackService(
	generator ImageGenerator,
	analyzer VisionAnalyzer,
	converter Converter,
	storage ObjectStorage,
	realtime *supabase.RealtimeClient,
	log *logger.Logger,
) *PrintPackService {
	return &PrintPackService{
		generator: generator,
		analyzer:  analyzer,
		converter: converter,
		storage:   storage,
		realtime:  realtime,
		log:       log.With("service", "printpack"),
		genPolicy: retry.Policy{
			MaxAttempts: 3,
			Backoff:     retry.LinearBackoff(time.Second),
		},
	}
}

// Fixed file names inside the archive. Print vendors key on these.
const (
	printTIFFName    = "fabric_print.tiff"
	printEPSName     = "fabric_print.eps"
	printPreviewName = "fabric_print_preview.pdf"

	printSourceName = "fabric_print.png"
)

type PrintPackInput struct {
	ProductID uuid.UUID
	UserID    uuid.UUID
	ImageURL  string
}

type PrintPackResult struct {
	ArchiveURL string
	// Included lists the archive entries actually produced. Every format
	// is best-effort; a failed conversion just narrows the archive.
	Included []string
	Prompt   string
}

// BuildPrintPack runs the whole pipeline: extract a textile pattern
// description from the product image, generate a seamless tile conditioned
// on that image, derive the delivery formats, and upload the zip. Only
// extraction and pattern generation are fatal; each format conversion
// fails independently, down to an empty archive.
func (s *PrintPackService) BuildPrintPack(ctx context.Context, input PrintPackInput) (*PrintPackResult, error) {
	if input.UserID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if input.ImageURL == "" {
		return nil, fmt.Errorf("an image URL is required")
	}

	prompt, err := s.analyzer.ExtractPrintPrompt(ctx, input.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("print prompt extraction failed: %w", err)
	}

	// The tile is generated against the original image, not the text
	// alone, so the motif, density, and palette stay faithful to the
	// garment's actual print.
	reference, err := s.storage.FetchURL(input.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product image: %w", err)
	}

	var pattern []byte
	err = s.genPolicy.Do(ctx, func(ctx context.Context) error {
		var genErr error
		pattern, genErr = s.generator.EditImage(ctx, reference, "image/png", seamlessTilePrompt(prompt))
		return genErr
	})
	if err != nil {
		return nil, fmt.Errorf("pattern generation failed: %w", err)
	}

	files := map[string][]byte{}
	var included []string

	tiffData, err := encodePrintTIFF(pattern)
	if err != nil {
		s.log.Warn("tiff encoding failed, archive will omit it",
			"product_id", input.ProductID, "error", err)
	} else {
		files[printTIFFName] = tiffData
		included = append(included, printTIFFName)
	}

	epsData, err := s.converter.Convert(ctx, printSourceName, pattern, "eps")
	if err != nil {
		s.log.Warn("eps conversion failed, archive will omit it",
			"product_id", input.ProductID, "error", err)
	} else {
		files[printEPSName] = epsData
		included = append(included, printEPSName)
	}

	pdfData, err := buildPreviewPDF(pattern, prompt)
	if err != nil {
		s.log.Warn("pdf preview failed, archive will omit it",
			"product_id", input.ProductID, "error", err)
	} else {
		files[printPreviewName] = pdfData
		included = append(included, printPreviewName)
	}

	archive, err := buildZip(files, included)
	if err != nil {
		return nil, fmt.Errorf("failed to build archive: %w", err)
	}

	filename := fmt.Sprintf("print_pack_%s.zip", uuid.New().String())
	_, archiveURL, err := s.storage.UploadProductImage(input.UserID, input.ProductID, filename, archive, "application/zip")
	if err != nil {
		return nil, fmt.Errorf("failed to upload archive: %w", err)
	}

	s.log.Info("print pack ready",
		"product_id", input.ProductID, "files", included, "bytes", len(archive))
	s.realtime.PublishProductEvent(input.ProductID, "print_pack_ready",
		supabase.PrintPackReadyPayload(input.ProductID, archiveURL, included))

	return &PrintPackResult{
		ArchiveURL: archiveURL,
		Included:   included,
		Prompt:     prompt,
	}, nil
}

func seamlessTilePrompt(extracted string) string {
	return fmt.Sprintf(
		"Create a seamless, tileable textile pattern: %s "+
			"The design must repeat perfectly on all four edges, fill the entire square, "+
			"and contain no garment, mannequin, body, shadows, or text.",
		extracted)
}

// buildPreviewPDF lays the pattern on an A4 page with a short caption so
// a buyer can check the artwork without print software.
func buildPreviewPDF(pattern []byte, prompt string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Fabric Print Preview", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Fabric Print Preview", "", 1, "C", false, 0, "")

	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("pattern", opts, bytes.NewReader(pattern))
	pdf.ImageOptions("pattern", 25, 30, 160, 160, false, opts, 0, "")

	pdf.SetY(195)
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, prompt, "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// buildZip writes the files in the given order so the archive listing is
// stable.
func buildZip(files map[string][]byte, order []string) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range order {
		f, err := w.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := f.Write(files[name]); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
