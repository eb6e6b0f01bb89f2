package qrcode

import (
	"encoding/base64"
	"fmt"
	"image/color"

	qr "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered pass image edge length in pixels.
const DefaultSize = 300

var (
	validForeground   = color.RGBA{R: 138, G: 43, B: 226, A: 255}
	invalidForeground = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// Encode renders content as a PNG QR code with the given foreground.
func Encode(content string, size int, foreground color.Color) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}

	code, err := qr.New(content, qr.High)
	if err != nil {
		return nil, fmt.Errorf("failed to build qr code: %w", err)
	}
	code.ForegroundColor = foreground
	code.BackgroundColor = color.White

	png, err := code.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	return png, nil
}

// DataURI renders content as a data: URI. A valid pass is drawn in
// purple, an invalid one in gray; the payload is identical either way.
func DataURI(content string, size int, valid bool) (string, error) {
	fg := invalidForeground
	if valid {
		fg = validForeground
	}

	png, err := Encode(content, size, fg)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
