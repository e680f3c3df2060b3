package recognition

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// MaxUploadEdge is the longest edge photos are downscaled to before being
// sent to any oracle. Keeps request sizes and per-call cost bounded.
const MaxUploadEdge = 1024

const jpegQuality = 85

// Downscale re-encodes a photo as JPEG, scaling it down so neither edge
// exceeds maxEdge. Photos already within bounds are only re-encoded, which
// normalizes PNG/BMP captures to JPEG for the oracle contracts.
func Downscale(data []byte, maxEdge int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width > maxEdge || height > maxEdge {
		var newWidth, newHeight int
		if width > height {
			newWidth = maxEdge
			newHeight = height * maxEdge / width
		} else {
			newHeight = maxEdge
			newWidth = width * maxEdge / height
		}
		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		img = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode photo: %w", err)
	}
	return buf.Bytes(), nil
}
