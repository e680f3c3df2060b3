package recognition

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aliyuchatgptt/falgates/internal/config"
)

// PairwiseClient talks to the pairwise comparison oracle: every comparison
// is one remote call with two photos.
type PairwiseClient struct {
	settings *config.SettingsService
	http     *http.Client
}

// NewPairwiseClient creates a pairwise oracle client. Credentials and the
// oracle URL are resolved through the settings service on every call, so a
// cache invalidation is picked up immediately.
func NewPairwiseClient(settings *config.SettingsService) *PairwiseClient {
	return &PairwiseClient{
		settings: settings,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *PairwiseClient) Name() string { return "pairwise" }

type compareRequest struct {
	Probe     string `json:"probe"`     // base64 JPEG
	Reference string `json:"reference"` // base64 JPEG
}

type compareResponse struct {
	Match       bool    `json:"match"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// Compare submits one probe/reference pair. The confidence is the oracle's
// 0-100 score with no fixed calibration guarantee.
func (c *PairwiseClient) Compare(ctx context.Context, probe, reference []byte) (*CompareResult, error) {
	s, err := c.settings.Recognition(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving oracle settings: %w", err)
	}
	if s.PairwiseURL == "" {
		return nil, fmt.Errorf("pairwise oracle URL not configured")
	}
	if s.APIKey == "" {
		return nil, ErrCredentialMissing
	}

	probeJPEG, err := Downscale(probe, MaxUploadEdge)
	if err != nil {
		return nil, fmt.Errorf("preparing probe photo: %w", err)
	}
	refJPEG, err := Downscale(reference, MaxUploadEdge)
	if err != nil {
		return nil, fmt.Errorf("preparing reference photo: %w", err)
	}

	url := strings.TrimSuffix(s.PairwiseURL, "/") + "/v1/compare"
	resp, err := doPostJSON[compareResponse](ctx, c.http, url, s.APIKey, compareRequest{
		Probe:     base64.StdEncoding.EncodeToString(probeJPEG),
		Reference: base64.StdEncoding.EncodeToString(refJPEG),
	})
	if err != nil {
		return nil, err
	}

	return &CompareResult{
		Match:       resp.Match,
		Confidence:  clampConfidence(resp.Confidence),
		Explanation: resp.Explanation,
	}, nil
}

// clampConfidence bounds an oracle score to the 0-100 scale.
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

var _ Comparator = (*PairwiseClient)(nil)
