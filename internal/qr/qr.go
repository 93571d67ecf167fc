// Package qr renders URLs as inline QR code images.
package qr

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const dataURLPrefix = "data:image/png;base64,"

var errEmptyContent = errors.New("qr: empty content")

//go:generate mockgen -destination=mock/encoder.go -package=mock github.com/marianozunino/dropqr/internal/qr Encoder

// Encoder turns a string into an image payload that can be embedded directly
// in an HTML page.
type Encoder interface {
	Encode(content string) (string, error)
}

// PNGEncoder produces PNG data URLs.
type PNGEncoder struct {
	Size  int
	Level qrcode.RecoveryLevel
}

// NewPNGEncoder creates an encoder. level is one of low, medium, high or
// highest; anything else falls back to medium.
func NewPNGEncoder(size int, level string) *PNGEncoder {
	return &PNGEncoder{Size: size, Level: ParseLevel(level)}
}

// Encode returns a data:image/png;base64 URL of the QR code for content.
func (e *PNGEncoder) Encode(content string) (string, error) {
	if content == "" {
		return "", errEmptyContent
	}

	png, err := qrcode.Encode(content, e.Level, e.Size)
	if err != nil {
		return "", fmt.Errorf("qr: encode: %w", err)
	}

	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// ParseLevel maps a recovery level name to its qrcode constant.
func ParseLevel(level string) qrcode.RecoveryLevel {
	switch strings.ToLower(level) {
	case "low":
		return qrcode.Low
	case "high":
		return qrcode.High
	case "highest":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}
