package recognition

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/aliyuchatgptt/falgates/internal/config"
	"github.com/aliyuchatgptt/falgates/internal/store/mock"
)

// testJPEG generates a small JPEG photo for oracle client tests.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// testSettings creates a settings service resolving to the given oracle URLs.
func testSettings(t *testing.T, pairwiseURL, indexedURL, apiKey, collectionID string) *config.SettingsService {
	t.Helper()
	return config.NewSettingsService(mock.NewMockSettingsStore(), config.RecognitionConfig{
		PairwiseURL:  pairwiseURL,
		IndexedURL:   indexedURL,
		APIKey:       apiKey,
		CollectionID: collectionID,
	})
}
