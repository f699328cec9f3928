package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/rs/zerolog"
)

// TextExtractor turns a stored statement file into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// OCREngine reads text from an image file.
type OCREngine interface {
	Name() string
	ExtractText(ctx context.Context, filePath string) (string, error)
}

// QRDecoder reads a QR payload from an image.
type QRDecoder interface {
	Decode(img image.Image) (string, bool, error)
}

// minOCRText is the least a page OCR must return before the next engine is
// skipped.
const minOCRText = 10

// DocumentTextExtractor reads PDFs through their text layer and falls back to
// OCR of the page images for scans. Images go straight to OCR and .txt files
// are read as they are. QR payloads found on images are appended to the text.
type DocumentTextExtractor struct {
	pdf           PDFProcessor
	engines       []OCREngine
	qr            QRDecoder
	minTextLength int
	log           zerolog.Logger
}

func NewDocumentTextExtractor(pdf PDFProcessor, engines []OCREngine, qr QRDecoder, minTextLength int, log zerolog.Logger) *DocumentTextExtractor {
	if minTextLength <= 0 {
		minTextLength = 20
	}
	return &DocumentTextExtractor{
		pdf:           pdf,
		engines:       engines,
		qr:            qr,
		minTextLength: minTextLength,
		log:           log.With().Str("component", "text_extractor").Logger(),
	}
}

// ExtractText fails with dto.ErrSourceUnavailable when the file is missing or
// cannot be read as a document. An unreadable scan yields empty text, not an
// error.
func (e *DocumentTextExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", dto.ErrSourceUnavailable, path)
		}
		return "", fmt.Errorf("%w: %v", dto.ErrSourceUnavailable, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", dto.ErrSourceUnavailable, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", dto.ErrSourceUnavailable, err)
		}
		return string(data), nil
	case ".pdf":
		return e.extractPDF(ctx, path)
	case ".png", ".jpg", ".jpeg":
		return e.extractImageFile(ctx, path)
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", dto.ErrSourceUnavailable, filepath.Ext(path))
	}
}

func (e *DocumentTextExtractor) extractPDF(ctx context.Context, path string) (string, error) {
	text, err := e.pdf.ExtractText(path)
	if err != nil {
		e.log.Warn().Err(err).Str("file", path).Msg("pdf text extraction failed")
	}
	if len(strings.TrimSpace(text)) >= e.minTextLength {
		return text, nil
	}

	e.log.Info().Str("file", path).Msg("pdf has little or no text layer, trying OCR on page images")
	images, imgErr := e.pdf.ExtractImages(path)
	if imgErr != nil {
		if err != nil {
			// neither the text layer nor the images could be read
			return "", fmt.Errorf("%w: %v", dto.ErrSourceUnavailable, err)
		}
		e.log.Warn().Err(imgErr).Str("file", path).Msg("pdf image extraction failed")
		return text, nil
	}

	var sb strings.Builder
	sb.WriteString(text)
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		pageText := e.ocrImage(ctx, img)
		if pageText == "" {
			e.log.Debug().Int("page", i+1).Msg("no text recognised on page image")
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}

func (e *DocumentTextExtractor) extractImageFile(ctx context.Context, path string) (string, error) {
	img, err := decodeImageFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", dto.ErrSourceUnavailable, err)
	}

	text := e.runEngines(ctx, path)
	return appendLine(text, e.decodeQR(img)), nil
}

// ocrImage writes img to a temporary PNG so the engines can read it.
func (e *DocumentTextExtractor) ocrImage(ctx context.Context, img image.Image) string {
	qrText := e.decodeQR(img)
	if len(e.engines) == 0 {
		return qrText
	}

	tmp, err := saveImageToTempFile(img)
	if err != nil {
		e.log.Warn().Err(err).Msg("failed to save page image for OCR")
		return qrText
	}
	defer os.Remove(tmp)

	return appendLine(e.runEngines(ctx, tmp), qrText)
}

// runEngines tries each engine in order and keeps the first result long
// enough to be useful.
func (e *DocumentTextExtractor) runEngines(ctx context.Context, imagePath string) string {
	var best string
	for _, engine := range e.engines {
		text, err := engine.ExtractText(ctx, imagePath)
		if err != nil {
			e.log.Debug().Err(err).Str("engine", engine.Name()).Msg("ocr engine failed")
			continue
		}
		if len(strings.TrimSpace(text)) >= minOCRText {
			return text
		}
		if len(text) > len(best) {
			best = text
		}
	}
	return best
}

func (e *DocumentTextExtractor) decodeQR(img image.Image) string {
	if e.qr == nil {
		return ""
	}
	payload, ok, err := e.qr.Decode(img)
	if err != nil {
		e.log.Debug().Err(err).Msg("qr decode failed")
		return ""
	}
	if !ok {
		return ""
	}
	e.log.Debug().Int("chars", len(payload)).Msg("qr payload found")
	return payload
}

func appendLine(text, extra string) string {
	if extra == "" {
		return text
	}
	if text == "" {
		return extra
	}
	return text + "\n" + extra
}

func saveImageToTempFile(img image.Image) (string, error) {
	f, err := os.CreateTemp("", "payslip-page-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return f.Name(), nil
}
