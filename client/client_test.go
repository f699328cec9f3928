package client

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImageFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.png")
	require.NoError(t, os.WriteFile(path, []byte("fake-png"), 0o600))
	return path
}

func TestPaddleClientExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req paddleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Images, 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[[{"text":"PAGA BASE 1.800,00","confidence":0.98},{"text":"NETTO 1.650,25","confidence":0.97}]]}`))
	}))
	defer srv.Close()

	pc := NewPaddleClient(srv.URL, zerolog.Nop())
	text, err := pc.ExtractText(context.Background(), writeImageFile(t))

	require.NoError(t, err)
	assert.Equal(t, "PAGA BASE 1.800,00\nNETTO 1.650,25\n", text)
}

func TestPaddleClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			_, _ = w.Write([]byte(`{"results":[]}`))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	img := writeImageFile(t)

	_, err := NewPaddleClient(srv.URL+"/fail", zerolog.Nop()).ExtractText(context.Background(), img)
	assert.ErrorContains(t, err, "status 500")

	_, err = NewPaddleClient(srv.URL+"/empty", zerolog.Nop()).ExtractText(context.Background(), img)
	assert.ErrorIs(t, err, ErrNoText)

	_, err = NewPaddleClient(srv.URL, zerolog.Nop()).ExtractText(context.Background(), "/does/not/exist.png")
	assert.Error(t, err)
}

func TestQRReaderDecode(t *testing.T) {
	matrix, err := qrcode.NewQRCodeWriter().Encode("NETTO 1.650,25 03/2025", gozxing.BarcodeFormat_QR_CODE, 240, 240, nil)
	require.NoError(t, err)

	payload, ok, err := NewQRReader().Decode(matrix)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "NETTO 1.650,25 03/2025", payload)
}

func TestQRReaderNoCode(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 120, 120))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}

	_, ok, err := NewQRReader().Decode(blank)
	require.NoError(t, err)
	assert.False(t, ok)
}
