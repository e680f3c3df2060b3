package verify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aliyuchatgptt/falgates/internal/config"
	"github.com/aliyuchatgptt/falgates/internal/recognition"
	"github.com/aliyuchatgptt/falgates/internal/staff"
	"github.com/aliyuchatgptt/falgates/internal/store"
)

// State is an observable phase of the orchestrator.
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
	StateResolved State = "resolved"
)

// ErrBusy is returned when a probe is submitted while a verification is
// already in flight. Re-entrancy guard, not a failure of the probe.
var ErrBusy = errors.New("verification already in progress")

// Failure messages. The service-unavailable variants must stay distinct
// from a plain no-match so operators can tell an outage from a stranger.
const (
	msgNoStaff       = "no staff enrolled"
	msgNotRecognized = "not recognized"
	msgUnavailable   = "verification service unavailable"
	msgNoCredentials = "recognition credentials not configured"
	msgCancelled     = "verification cancelled"
)

// Outcome is a resolved verification.
type Outcome struct {
	Success     bool
	Staff       *staff.StaffRecord // set on success
	Confidence  float64
	Message     string // failure reason, or empty on success
	Explanation string // consensus diagnostic for the resolving candidate
	ResolvedAt  time.Time
}

// Orchestrator runs the check-in verification flow: it iterates enrolled
// candidates newest-registration-first, asks the recognition backend about
// each, applies the consensus policy, and stops at the first accepted
// match. Oracle calls are strictly sequential to bound external API cost.
type Orchestrator struct {
	staffStore store.StaffStore
	comparator recognition.Comparator
	searcher   recognition.Searcher // optional; used when a collection is configured
	settings   *config.SettingsService
	recorder   *Recorder
	policy     Policy

	oracleTimeout time.Duration
	displayWindow time.Duration

	mu         sync.Mutex
	state      State
	outcome    *Outcome
	cancelScan context.CancelFunc
	resetTimer *time.Timer
}

// NewOrchestrator wires the verification flow.
func NewOrchestrator(staffStore store.StaffStore, comparator recognition.Comparator, searcher recognition.Searcher, settings *config.SettingsService, recorder *Recorder, policy Policy, cfg config.VerificationConfig) *Orchestrator {
	return &Orchestrator{
		staffStore:    staffStore,
		comparator:    comparator,
		searcher:      searcher,
		settings:      settings,
		recorder:      recorder,
		policy:        policy,
		oracleTimeout: cfg.OracleTimeout,
		displayWindow: cfg.DisplayWindow,
		state:         StateIdle,
	}
}

// State returns the current orchestrator state and, when resolved, the
// outcome being displayed.
func (o *Orchestrator) State() (State, *Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state, o.outcome
}

// Cancel aborts an in-flight verification. A cancelled scan resolves as a
// failure and never records a check-in.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancelScan
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset returns a resolved orchestrator to idle immediately instead of
// waiting out the display window.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateScanning {
		return
	}
	o.resetLocked()
}

func (o *Orchestrator) resetLocked() {
	if o.resetTimer != nil {
		o.resetTimer.Stop()
		o.resetTimer = nil
	}
	o.state = StateIdle
	o.outcome = nil
}

// Verify runs one verification attempt for a probe photo. Returns ErrBusy
// while another attempt is in flight. All other paths resolve to an Outcome;
// oracle failures resolve closed (as a failure), never as an accept.
func (o *Orchestrator) Verify(ctx context.Context, probe []byte) (*Outcome, error) {
	o.mu.Lock()
	if o.state == StateScanning {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	if o.state == StateResolved {
		// A new probe during the display window starts over.
		o.resetLocked()
	}
	scanCtx, cancel := context.WithCancel(ctx)
	o.state = StateScanning
	o.outcome = nil
	o.cancelScan = cancel
	o.mu.Unlock()

	defer cancel()
	outcome := o.scan(scanCtx, probe)
	return o.resolve(outcome), nil
}

func (o *Orchestrator) resolve(outcome *Outcome) *Outcome {
	outcome.ResolvedAt = time.Now()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateResolved
	o.outcome = outcome
	o.cancelScan = nil
	if o.displayWindow > 0 {
		o.resetTimer = time.AfterFunc(o.displayWindow, func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if o.state == StateResolved {
				o.resetLocked()
			}
		})
	}
	return outcome
}

func failure(msg, explanation string) *Outcome {
	return &Outcome{Message: msg, Explanation: explanation}
}

// scan picks the backend and runs the candidate evaluation. Success is the
// only path that records a check-in, exactly once.
func (o *Orchestrator) scan(ctx context.Context, probe []byte) *Outcome {
	candidates, err := o.staffStore.ListStaff(ctx)
	if err != nil {
		log.Printf("verification aborted, staff listing failed: %v", err)
		return failure(msgUnavailable, err.Error())
	}
	if len(candidates) == 0 {
		return failure(msgNoStaff, "")
	}

	var outcome *Outcome
	if o.useIndexed(ctx) {
		outcome = o.scanIndexed(ctx, probe)
	} else {
		outcome = o.scanPairwise(ctx, probe, candidates)
	}

	if outcome.Success && o.recorder != nil {
		if _, err := o.recorder.Record(ctx, outcome.Staff, outcome.Confidence); err != nil {
			// The match stands; only the audit record failed.
			log.Printf("check-in recording failed for %s: %v", outcome.Staff.ID, err)
		}
	}
	return outcome
}

func (o *Orchestrator) useIndexed(ctx context.Context) bool {
	if o.searcher == nil || o.settings == nil {
		return false
	}
	s, err := o.settings.Recognition(ctx)
	if err != nil {
		return false
	}
	return s.IndexedConfigured()
}

// scanIndexed resolves the probe with a single search call against the
// configured collection.
func (o *Orchestrator) scanIndexed(ctx context.Context, probe []byte) *Outcome {
	s, err := o.settings.Recognition(ctx)
	if err != nil {
		return failure(msgUnavailable, err.Error())
	}

	callCtx, cancel := o.callContext(ctx)
	result, err := o.searcher.Search(callCtx, s.CollectionID, probe, 5)
	cancel()
	if err != nil {
		return o.oracleFailure(ctx, err)
	}

	decision := o.policy.Decide(IndexedEvidence(result))
	if !decision.IsMatch {
		return failure(msgNotRecognized, decision.Explanation)
	}

	rec, err := o.resolveHit(ctx, decision)
	if err != nil {
		log.Printf("search hit did not resolve to a staff record: %v", err)
		return failure(msgNotRecognized, decision.Explanation)
	}
	return &Outcome{
		Success:     true,
		Staff:       rec,
		Confidence:  decision.Confidence,
		Explanation: decision.Explanation,
	}
}

// resolveHit maps an accepted search hit back to a staff record, by
// recognition token first, then by the external id carried in the hit.
func (o *Orchestrator) resolveHit(ctx context.Context, d Decision) (*staff.StaffRecord, error) {
	if d.MatchedToken != "" {
		if rec, err := o.staffStore.GetStaffByToken(ctx, d.MatchedToken); err == nil {
			return rec, nil
		}
	}
	if d.MatchedExternalID != "" {
		return o.staffStore.GetStaff(ctx, d.MatchedExternalID)
	}
	return nil, fmt.Errorf("hit carries neither token nor external id")
}

// scanPairwise iterates candidates newest-first and compares the probe
// against each candidate's reference photos, one call at a time. Stops at
// the first candidate the consensus policy accepts; ties go to iteration
// order, not best confidence.
func (o *Orchestrator) scanPairwise(ctx context.Context, probe []byte, candidates []staff.StaffRecord) *Outcome {
	for i := range candidates {
		candidate := &candidates[i]

		refs, err := o.referencePhotos(ctx, candidate)
		if err != nil {
			return failure(msgUnavailable, err.Error())
		}
		if len(refs) == 0 {
			log.Printf("candidate %s has no reference photos, skipping", candidate.ID)
			continue
		}

		results := make([]recognition.CompareResult, 0, len(refs))
		for _, ref := range refs {
			callCtx, cancel := o.callContext(ctx)
			res, err := o.comparator.Compare(callCtx, probe, ref)
			cancel()
			if err != nil {
				return o.oracleFailure(ctx, err)
			}
			results = append(results, *res)
		}

		decision := o.policy.Decide(PairwiseEvidence(results))
		if decision.IsMatch {
			return &Outcome{
				Success:     true,
				Staff:       candidate,
				Confidence:  decision.Confidence,
				Explanation: decision.Explanation,
			}
		}
	}
	return failure(msgNotRecognized, "")
}

// referencePhotos returns a candidate's comparison set: the angle-tagged
// image set when present, else the primary photo alone.
func (o *Orchestrator) referencePhotos(ctx context.Context, candidate *staff.StaffRecord) ([][]byte, error) {
	images, err := o.staffStore.GetStaffImages(ctx, candidate.ID)
	if err != nil {
		return nil, fmt.Errorf("loading references for %s: %w", candidate.ID, err)
	}
	refs := make([][]byte, 0, len(images))
	for _, img := range images {
		if len(img.Photo) > 0 {
			refs = append(refs, img.Photo)
		}
	}
	if len(refs) == 0 && len(candidate.PrimaryPhoto) > 0 {
		refs = append(refs, candidate.PrimaryPhoto)
	}
	return refs, nil
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.oracleTimeout > 0 {
		return context.WithTimeout(ctx, o.oracleTimeout)
	}
	return context.WithCancel(ctx)
}

// oracleFailure maps an oracle error to a closed failure. Cancellation,
// missing credentials and transport failures each get their own message;
// none of them ever accepts.
func (o *Orchestrator) oracleFailure(ctx context.Context, err error) *Outcome {
	switch {
	case ctx.Err() != nil:
		return failure(msgCancelled, "")
	case errors.Is(err, recognition.ErrCredentialMissing):
		return failure(msgNoCredentials, err.Error())
	default:
		log.Printf("verification failed closed, oracle error: %v", err)
		return failure(msgUnavailable, err.Error())
	}
}
