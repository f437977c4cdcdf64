// Package thumbnail renders the reduced preview stored next to every photo.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const (
	DefaultWidth       = 300
	DefaultJPEGQuality = 85
)

// Renderer scales images down to fit a Width x Width box, keeping the aspect
// ratio. Images already inside the box are re-encoded without resizing.
type Renderer struct {
	Width       int
	JPEGQuality int
}

func NewRenderer(width int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Renderer{Width: width, JPEGQuality: DefaultJPEGQuality}
}

// Render returns the encoded thumbnail and its content type. PNG input stays
// PNG; everything else is written as JPEG.
func (r *Renderer) Render(data []byte) ([]byte, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to detect image format: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	img = imaging.Fit(img, r.Width, r.Width, imaging.Lanczos)

	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case "png":
		contentType = "image/png"
		err = imaging.Encode(&buf, img, imaging.PNG)
	default:
		contentType = "image/jpeg"
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(r.quality()))
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), contentType, nil
}

func (r *Renderer) quality() int {
	if r.JPEGQuality <= 0 {
		return DefaultJPEGQuality
	}
	return r.JPEGQuality
}
