package render

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// encodeJPEG compresses tightly packed RGBA pixels at the given quality.
func encodeJPEG(pix []byte, width, height, quality int) ([]byte, error) {
	if len(pix) < width*height*4 {
		return nil, fmt.Errorf("pixel buffer too small: %d for %dx%d", len(pix), width, height)
	}
	img := &image.RGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
