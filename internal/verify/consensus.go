// Package verify implements check-in verification: the consensus decision
// engine over oracle results, the verification orchestrator state machine,
// and the check-in recorder.
package verify

import (
	"fmt"

	"github.com/aliyuchatgptt/falgates/internal/recognition"
)

// Policy holds the consensus parameters.
type Policy struct {
	// ConfidenceThreshold is the minimum pairwise confidence for a
	// comparison result to qualify as a match vote.
	ConfidenceThreshold float64

	// RequiredMatches is the number of qualifying votes needed for a
	// candidate with at least MultiReferenceMin reference photos. Candidates
	// with fewer references need a single vote; a single-photo legacy
	// enrollment is not held to the multi-photo bar.
	RequiredMatches   int
	MultiReferenceMin int
}

func (p Policy) requiredFor(refCount int) int {
	if p.MultiReferenceMin > 0 && refCount >= p.MultiReferenceMin {
		if p.RequiredMatches > 0 {
			return p.RequiredMatches
		}
	}
	return 1
}

type evidenceKind int

const (
	evidencePairwise evidenceKind = iota
	evidenceIndexed
)

// Evidence is a tagged variant over the two oracle response shapes,
// normalized at the backend boundary before reaching the decision engine.
type Evidence struct {
	kind     evidenceKind
	pairwise []recognition.CompareResult
	indexed  *recognition.SearchResult
}

// PairwiseEvidence wraps per-reference comparison results for one candidate.
func PairwiseEvidence(results []recognition.CompareResult) Evidence {
	return Evidence{kind: evidencePairwise, pairwise: results}
}

// IndexedEvidence wraps a single indexed-search response covering the whole
// collection.
func IndexedEvidence(result *recognition.SearchResult) Evidence {
	return Evidence{kind: evidenceIndexed, indexed: result}
}

// Decision is the consensus outcome for one candidate (pairwise) or one
// probe (indexed).
type Decision struct {
	IsMatch    bool
	Confidence float64 // 0-100; diagnostic mean even when IsMatch is false

	// Explanation summarizes which and how many references matched. Display
	// contract, asserted by tests, not cosmetic.
	Explanation string

	// MatchedToken and MatchedExternalID identify the accepted candidate in
	// indexed mode; empty in pairwise mode, where the caller already knows
	// which candidate the evidence belongs to.
	MatchedToken      string
	MatchedExternalID string
}

// Decide turns normalized oracle evidence into a single match decision.
func (p Policy) Decide(ev Evidence) Decision {
	if ev.kind == evidenceIndexed {
		return p.decideIndexed(ev.indexed)
	}
	return p.decidePairwise(ev.pairwise)
}

// decidePairwise counts results with match=true and confidence at or above
// the threshold. Reported confidence is the mean over qualifying results,
// or over all results when none qualify, so a rejected candidate still
// carries a diagnostic score.
func (p Policy) decidePairwise(results []recognition.CompareResult) Decision {
	if len(results) == 0 {
		return Decision{Explanation: "0/0 reference photos matched"}
	}

	var qualifying []float64
	var all []float64
	for _, r := range results {
		all = append(all, r.Confidence)
		if r.Match && r.Confidence >= p.ConfidenceThreshold {
			qualifying = append(qualifying, r.Confidence)
		}
	}

	required := p.requiredFor(len(results))
	d := Decision{
		IsMatch: len(qualifying) >= required,
		Explanation: fmt.Sprintf("%d/%d reference photos matched at threshold %.0f (required %d)",
			len(qualifying), len(results), p.ConfidenceThreshold, required),
	}
	if len(qualifying) > 0 {
		d.Confidence = mean(qualifying)
	} else {
		d.Confidence = mean(all)
	}
	return d
}

// decideIndexed accepts the top-ranked hit iff its confidence reaches the
// oracle's strictest operating point, preferring the lowest false-accept
// rate on offer. Without any operating point the pairwise threshold is the
// last resort.
func (p Policy) decideIndexed(result *recognition.SearchResult) Decision {
	top := result.TopHit()
	if top == nil {
		return Decision{Explanation: "0/0 candidates returned by search"}
	}

	threshold := p.ConfidenceThreshold
	pointName := "default threshold"
	if op, ok := result.StrictestOperatingPoint(); ok {
		threshold = op.Threshold
		pointName = op.Name
	}

	d := Decision{
		IsMatch:           top.Confidence >= threshold,
		Confidence:        top.Confidence,
		MatchedToken:      top.Token,
		MatchedExternalID: top.ExternalID,
	}
	matched := 0
	if d.IsMatch {
		matched = 1
	}
	d.Explanation = fmt.Sprintf("%d/%d search hits at or above %s (%.0f), top confidence %.1f",
		matched, len(result.Hits), pointName, threshold, top.Confidence)
	if !d.IsMatch {
		d.MatchedToken = ""
		d.MatchedExternalID = ""
	}
	return d
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
