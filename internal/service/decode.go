package service

import (
	"bytes"
	"image"

	// Formats beyond the stdlib set that cameras and phones commonly upload.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// DefaultMaxImagePixels bounds width*height of an upload. A small, highly
// compressible file can otherwise expand to gigabytes once decoded.
const DefaultMaxImagePixels = 40_000_000

// decodeColorImage decodes an uploaded byte stream into an 8-bit NRGBA image,
// applying the EXIF orientation if the file carries one. Images larger than
// maxPixels are rejected from their header, before any pixel is allocated;
// maxPixels <= 0 disables the check.
func decodeColorImage(data []byte, maxPixels int64) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "empty upload")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "decode image header: %v", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Wrap(ErrInvalidInput, "image has no pixels")
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, errors.Wrapf(ErrInvalidInput, "image is %dx%d, above the %d pixel limit", cfg.Width, cfg.Height, maxPixels)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "decode image: %v", err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, errors.Wrap(ErrInvalidInput, "image has no pixels")
	}
	return imaging.Clone(img), nil
}
