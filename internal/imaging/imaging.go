// Package imaging downscales uploaded cover and attribute images.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultMaxDimension is the maximum width or height for stored images.
const DefaultMaxDimension = 1024

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// ErrUnsupported is returned for image formats that cannot be resized. The
// caller stores such images unchanged.
var ErrUnsupported = errors.New("unsupported image format")

// resizable lists the MIME types that can be decoded and downscaled.
var resizable = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Result contains the stored image data.
type Result struct {
	Data    []byte
	MIME    string
	Resized bool
}

// Resizer bounds the dimensions of stored images. A zero MaxDimension
// disables resizing.
type Resizer struct {
	MaxDimension int
}

// Process downscales data when either dimension exceeds MaxDimension and
// re-encodes it as JPEG. Images already within bounds are returned as is.
// mime is the sniffed type of data.
func (r Resizer) Process(data []byte, mime string) (*Result, error) {
	if !resizable[mime] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}

	original := &Result{Data: data, MIME: mime}
	if r.MaxDimension <= 0 {
		return original, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading image header: %w", err)
	}
	if cfg.Width <= r.MaxDimension && cfg.Height <= r.MaxDimension {
		return original, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = downscale(img, r.MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &Result{
		Data:    buf.Bytes(),
		MIME:    "image/jpeg",
		Resized: true,
	}, nil
}

// downscale resizes the image so neither dimension exceeds maxDim.
// Uses Catmull-Rom interpolation over a white background, since JPEG has no
// alpha channel.
// Returns the original image if already within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}

	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
