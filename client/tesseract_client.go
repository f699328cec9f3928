package client

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"
)

// TesseractClient runs Tesseract OCR on image files.
type TesseractClient struct {
	dataPath string
	language string
	log      zerolog.Logger
}

func NewTesseractClient(dataPath, language string, log zerolog.Logger) *TesseractClient {
	if language == "" {
		language = "ita+eng"
	}
	return &TesseractClient{
		dataPath: dataPath,
		language: language,
		log:      log.With().Str("component", "tesseract").Logger(),
	}
}

func (tc *TesseractClient) Name() string { return "tesseract" }

// ExtractText returns the text of the image at filePath.
func (tc *TesseractClient) ExtractText(ctx context.Context, filePath string) (string, error) {
	text, _, err := tc.ExtractTextAndQuality(ctx, filePath)
	return text, err
}

// ExtractTextAndQuality also returns the mean word confidence (0-100).
func (tc *TesseractClient) ExtractTextAndQuality(ctx context.Context, filePath string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		client.SetTessdataPrefix(tc.dataPath)
	}
	if err := client.SetLanguage(tc.language); err != nil {
		return "", 0, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetImage(filePath); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		tc.log.Debug().Err(err).Msg("bounding boxes unavailable")
		return text, 0, nil
	}

	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}
	avg := 0.0
	if len(boxes) > 0 {
		avg = total / float64(len(boxes))
	}

	tc.log.Debug().Int("chars", len(text)).Float64("confidence", avg).Str("file", filePath).Msg("ocr done")
	return text, avg, nil
}
