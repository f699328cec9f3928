package client

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// QRReader decodes QR codes that some payroll providers print on pay slips.
// The payload usually repeats the net amount and the period in plain text.
type QRReader struct {
	reader gozxing.Reader
}

func NewQRReader() *QRReader {
	return &QRReader{reader: qrcode.NewQRCodeReader()}
}

// Decode returns the QR payload found in img. ok is false when img carries no
// readable code.
func (q *QRReader) Decode(img image.Image) (payload string, ok bool, err error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false, fmt.Errorf("failed to create binary bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := q.reader.Decode(bmp, hints)
	if err != nil {
		// not found, checksum and format failures all mean nothing usable
		return "", false, nil
	}
	return result.GetText(), true, nil
}
