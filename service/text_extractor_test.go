package service

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePDF struct {
	text    string
	textErr error
	images  []image.Image
	imgErr  error
}

func (f *fakePDF) ExtractText(string) (string, error) { return f.text, f.textErr }

func (f *fakePDF) ExtractImages(string) ([]image.Image, error) { return f.images, f.imgErr }

type fakeEngine struct {
	name  string
	text  string
	err   error
	calls int
}

func (e *fakeEngine) Name() string { return e.name }

func (e *fakeEngine) ExtractText(context.Context, string) (string, error) {
	e.calls++
	return e.text, e.err
}

type fakeQR struct{ payload string }

func (q fakeQR) Decode(image.Image) (string, bool, error) {
	return q.payload, q.payload != "", nil
}

func blankImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, blankImage()))
	return path
}

func TestExtractTextPlainFile(t *testing.T) {
	ex := NewDocumentTextExtractor(&fakePDF{}, nil, nil, 0, zerolog.Nop())
	path := writeFile(t, "busta.txt", "Netto: 1.000,00")

	text, err := ex.ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Netto: 1.000,00", text)
}

func TestExtractTextSourceUnavailable(t *testing.T) {
	ex := NewDocumentTextExtractor(&fakePDF{}, nil, nil, 0, zerolog.Nop())

	_, err := ex.ExtractText(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, dto.ErrSourceUnavailable)

	_, err = ex.ExtractText(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, dto.ErrSourceUnavailable)

	_, err = ex.ExtractText(context.Background(), writeFile(t, "a.docx", "x"))
	assert.ErrorIs(t, err, dto.ErrSourceUnavailable)
}

func TestExtractTextPDFWithTextLayer(t *testing.T) {
	engine := &fakeEngine{name: "ocr", text: "should not be used"}
	pdf := &fakePDF{text: "PAGA BASE 1.800,00 TOTALE NETTO 1.650,25"}
	ex := NewDocumentTextExtractor(pdf, []OCREngine{engine}, nil, 20, zerolog.Nop())

	text, err := ex.ExtractText(context.Background(), writeFile(t, "busta.pdf", "%PDF"))
	require.NoError(t, err)
	assert.Equal(t, pdf.text, text)
	assert.Zero(t, engine.calls)
}

func TestExtractTextScannedPDFFallsBackToOCR(t *testing.T) {
	failing := &fakeEngine{name: "paddle", err: errors.New("connection refused")}
	tess := &fakeEngine{name: "tesseract", text: "TOTALE NETTO DEL MESE 1.650,25"}
	pdf := &fakePDF{text: "", images: []image.Image{blankImage()}}
	ex := NewDocumentTextExtractor(pdf, []OCREngine{failing, tess}, fakeQR{payload: "QR:123"}, 20, zerolog.Nop())

	text, err := ex.ExtractText(context.Background(), writeFile(t, "scan.pdf", "%PDF"))
	require.NoError(t, err)
	assert.Contains(t, text, "TOTALE NETTO DEL MESE 1.650,25")
	assert.Contains(t, text, "QR:123")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, tess.calls)
}

func TestExtractTextUnreadablePDF(t *testing.T) {
	pdf := &fakePDF{textErr: errors.New("malformed xref"), imgErr: errors.New("malformed xref")}
	ex := NewDocumentTextExtractor(pdf, nil, nil, 20, zerolog.Nop())

	_, err := ex.ExtractText(context.Background(), writeFile(t, "broken.pdf", "garbage"))
	assert.ErrorIs(t, err, dto.ErrSourceUnavailable)
}

func TestExtractTextImageKeepsFirstUsefulEngine(t *testing.T) {
	short := &fakeEngine{name: "paddle", text: "ab"}
	good := &fakeEngine{name: "tesseract", text: "Stipendio base 2.000,00"}
	ex := NewDocumentTextExtractor(&fakePDF{}, []OCREngine{short, good}, fakeQR{}, 0, zerolog.Nop())

	text, err := ex.ExtractText(context.Background(), writePNG(t))
	require.NoError(t, err)
	assert.Equal(t, "Stipendio base 2.000,00", text)
}

func TestExtractTextCorruptImage(t *testing.T) {
	ex := NewDocumentTextExtractor(&fakePDF{}, nil, nil, 0, zerolog.Nop())

	_, err := ex.ExtractText(context.Background(), writeFile(t, "scan.jpg", "not a jpeg"))
	assert.ErrorIs(t, err, dto.ErrSourceUnavailable)
}
