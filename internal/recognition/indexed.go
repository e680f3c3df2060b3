package recognition

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aliyuchatgptt/falgates/internal/config"
)

// IndexedClient talks to the indexed-search oracle: a single remote call
// returns ranked matches against a pre-built collection, scored against
// named operating-point thresholds rather than a fixed constant.
type IndexedClient struct {
	settings *config.SettingsService
	http     *http.Client

	// fallbackPoints is used when the oracle omits operating points from a
	// search response.
	fallbackPoints []OperatingPoint
}

// NewIndexedClient creates an indexed oracle client. fallback supplies
// operating points for oracles that do not report their own.
func NewIndexedClient(settings *config.SettingsService, fallback []config.OperatingPointDefault) *IndexedClient {
	points := make([]OperatingPoint, 0, len(fallback))
	for _, f := range fallback {
		points = append(points, OperatingPoint{
			Name:            f.Name,
			Threshold:       f.Threshold,
			FalseAcceptRate: f.FalseAcceptRate,
		})
	}
	return &IndexedClient{
		settings:       settings,
		http:           &http.Client{Timeout: 30 * time.Second},
		fallbackPoints: points,
	}
}

func (c *IndexedClient) Name() string { return "indexed" }

func (c *IndexedClient) resolve(ctx context.Context) (config.RecognitionSettings, error) {
	s, err := c.settings.Recognition(ctx)
	if err != nil {
		return config.RecognitionSettings{}, fmt.Errorf("resolving oracle settings: %w", err)
	}
	if s.IndexedURL == "" {
		return config.RecognitionSettings{}, fmt.Errorf("indexed oracle URL not configured")
	}
	if s.APIKey == "" {
		return config.RecognitionSettings{}, ErrCredentialMissing
	}
	return s, nil
}

func (c *IndexedClient) endpoint(base string, parts ...string) string {
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		segments = append(segments, url.PathEscape(p))
	}
	return strings.TrimSuffix(base, "/") + "/v1/" + strings.Join(segments, "/")
}

type createCollectionResponse struct {
	CollectionID string `json:"collection_id"`
}

// CreateCollection creates a new collection and returns its handle.
func (c *IndexedClient) CreateCollection(ctx context.Context) (string, error) {
	s, err := c.resolve(ctx)
	if err != nil {
		return "", err
	}
	resp, err := doPostJSON[createCollectionResponse](ctx, c.http, c.endpoint(s.IndexedURL, "collections"), s.APIKey, struct{}{})
	if err != nil {
		return "", err
	}
	if resp.CollectionID == "" {
		return "", unavailable("oracle returned empty collection id")
	}
	return resp.CollectionID, nil
}

type indexFaceRequest struct {
	Image      string `json:"image"` // base64 JPEG
	ExternalID string `json:"external_id"`
}

type indexFaceResponse struct {
	FaceToken string `json:"face_token"`
}

// IndexFace enrolls a photo into the collection under externalID and returns
// the oracle-issued face token.
func (c *IndexedClient) IndexFace(ctx context.Context, collectionID string, photo []byte, externalID string) (string, error) {
	s, err := c.resolve(ctx)
	if err != nil {
		return "", err
	}
	jpegData, err := Downscale(photo, MaxUploadEdge)
	if err != nil {
		return "", fmt.Errorf("preparing photo: %w", err)
	}
	resp, err := doPostJSON[indexFaceResponse](ctx, c.http, c.endpoint(s.IndexedURL, "collections", collectionID, "faces"), s.APIKey, indexFaceRequest{
		Image:      base64.StdEncoding.EncodeToString(jpegData),
		ExternalID: externalID,
	})
	if err != nil {
		return "", err
	}
	if resp.FaceToken == "" {
		return "", unavailable("oracle returned empty face token")
	}
	return resp.FaceToken, nil
}

// RemoveFace removes an enrolled face token from the collection.
func (c *IndexedClient) RemoveFace(ctx context.Context, collectionID, token string) error {
	s, err := c.resolve(ctx)
	if err != nil {
		return err
	}
	return doDelete(ctx, c.http, c.endpoint(s.IndexedURL, "collections", collectionID, "faces", token), s.APIKey)
}

type searchRequest struct {
	Image      string `json:"image"` // base64 JPEG
	MaxResults int    `json:"max_results"`
}

// Search ranks the probe against the collection. When the oracle reports no
// operating points, the configured fallback points are substituted so the
// consensus engine always has a threshold to hold the top hit to.
func (c *IndexedClient) Search(ctx context.Context, collectionID string, probe []byte, limit int) (*SearchResult, error) {
	s, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}
	jpegData, err := Downscale(probe, MaxUploadEdge)
	if err != nil {
		return nil, fmt.Errorf("preparing probe photo: %w", err)
	}
	if limit <= 0 {
		limit = 5
	}
	resp, err := doPostJSON[SearchResult](ctx, c.http, c.endpoint(s.IndexedURL, "collections", collectionID, "search"), s.APIKey, searchRequest{
		Image:      base64.StdEncoding.EncodeToString(jpegData),
		MaxResults: limit,
	})
	if err != nil {
		return nil, err
	}
	for i := range resp.Hits {
		resp.Hits[i].Confidence = clampConfidence(resp.Hits[i].Confidence)
	}
	if len(resp.OperatingPoints) == 0 {
		resp.OperatingPoints = append([]OperatingPoint(nil), c.fallbackPoints...)
	}
	return resp, nil
}

var _ Searcher = (*IndexedClient)(nil)
