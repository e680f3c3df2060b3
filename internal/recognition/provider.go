// Package recognition provides the abstraction over the external recognition
// oracles: a pairwise comparison oracle, an indexed-search oracle with
// pre-built collections, and photo quality-check providers. The oracles are
// untrusted and possibly unavailable; every client in this package surfaces
// transport and auth failures as ErrOracleUnavailable rather than panicking.
package recognition

import (
	"context"
	"sort"
)

// Comparator compares a probe photo against a single reference photo.
// One remote call per comparison, no pre-filtering.
type Comparator interface {
	Name() string
	Compare(ctx context.Context, probe, reference []byte) (*CompareResult, error)
}

// Searcher queries an indexed-search oracle that ranks a probe against a
// pre-built collection in a single remote call.
type Searcher interface {
	Name() string
	// CreateCollection creates a new collection and returns its handle.
	CreateCollection(ctx context.Context) (string, error)
	// IndexFace enrolls a photo into the collection under externalID and
	// returns the oracle-issued face token.
	IndexFace(ctx context.Context, collectionID string, photo []byte, externalID string) (string, error)
	// RemoveFace removes an enrolled face token from the collection.
	RemoveFace(ctx context.Context, collectionID, token string) error
	// Search ranks the probe against the collection.
	Search(ctx context.Context, collectionID string, probe []byte, limit int) (*SearchResult, error)
}

// QualityChecker validates a single captured photo.
type QualityChecker interface {
	Name() string
	CheckQuality(ctx context.Context, photo []byte) (*QualityResult, error)
}

// CompareResult is the normalized response of a pairwise comparison.
type CompareResult struct {
	Match       bool    `json:"match"`
	Confidence  float64 `json:"confidence"` // 0-100, no fixed calibration guarantee
	Explanation string  `json:"explanation"`
}

// SearchHit is one ranked candidate from an indexed search.
type SearchHit struct {
	Token      string  `json:"face_token"`  // oracle-issued handle
	ExternalID string  `json:"external_id"` // staff id supplied at indexing time
	Confidence float64 `json:"confidence"`  // 0-100
}

// OperatingPoint is a named confidence cutoff corresponding to a target
// false-accept rate. Lower rates are stricter.
type OperatingPoint struct {
	Name            string  `json:"name"`
	Threshold       float64 `json:"threshold"`
	FalseAcceptRate float64 `json:"false_accept_rate"`
}

// SearchResult is the normalized response of an indexed search: ranked hits
// plus the operating points the oracle was calibrated for.
type SearchResult struct {
	Hits            []SearchHit      `json:"hits"`
	OperatingPoints []OperatingPoint `json:"operating_points"`
}

// TopHit returns the highest-confidence hit, or nil when the result is empty.
func (r *SearchResult) TopHit() *SearchHit {
	if r == nil || len(r.Hits) == 0 {
		return nil
	}
	best := &r.Hits[0]
	for i := 1; i < len(r.Hits); i++ {
		if r.Hits[i].Confidence > best.Confidence {
			best = &r.Hits[i]
		}
	}
	return best
}

// StrictestOperatingPoint returns the operating point with the lowest
// false-accept rate; points without a rate are ordered by threshold instead.
// ok is false when the oracle offered no points at all.
func (r *SearchResult) StrictestOperatingPoint() (OperatingPoint, bool) {
	if r == nil || len(r.OperatingPoints) == 0 {
		return OperatingPoint{}, false
	}
	points := append([]OperatingPoint(nil), r.OperatingPoints...)
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].FalseAcceptRate != points[j].FalseAcceptRate &&
			points[i].FalseAcceptRate > 0 && points[j].FalseAcceptRate > 0 {
			return points[i].FalseAcceptRate < points[j].FalseAcceptRate
		}
		return points[i].Threshold > points[j].Threshold
	})
	return points[0], true
}

// QualityResult is the normalized response of a quality check.
type QualityResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}
