package enrollment

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aliyuchatgptt/falgates/internal/config"
	"github.com/aliyuchatgptt/falgates/internal/recognition"
	"github.com/aliyuchatgptt/falgates/internal/similarity"
	"github.com/aliyuchatgptt/falgates/internal/staff"
	"github.com/aliyuchatgptt/falgates/internal/store"
)

// Enroller turns a completed capture session into a persisted staff record.
type Enroller struct {
	store     store.StaffStore
	settings  *config.SettingsService
	searcher  recognition.Searcher        // optional indexed oracle
	embedder  *similarity.EmbeddingClient // optional embedding server
	index     *similarity.Index           // optional duplicate-warning index
	vectorDim int
}

// NewEnroller wires the enrollment finalizer. searcher, embedder and index
// may each be nil; the corresponding step is skipped.
func NewEnroller(st store.StaffStore, settings *config.SettingsService, searcher recognition.Searcher, embedder *similarity.EmbeddingClient, index *similarity.Index, vectorDim int) *Enroller {
	if vectorDim <= 0 {
		vectorDim = 512
	}
	return &Enroller{
		store:     st,
		settings:  settings,
		searcher:  searcher,
		embedder:  embedder,
		index:     index,
		vectorDim: vectorDim,
	}
}

// Result is the outcome of a finalized enrollment.
type Result struct {
	Record *staff.StaffRecord

	// DuplicateOf carries the id of an existing record that looks like the
	// same person: either its feature vector sits within duplicate distance
	// of the new one, or its normalized name matches exactly. A warning, not
	// a rejection.
	DuplicateOf string
}

// Finalize validates the session and operator input, allocates the next
// staff id, and persists the record with its image set in one atomic write.
// When an indexed oracle collection is configured, the front photo is also
// enrolled there and the issued token attached to the record; an oracle
// failure at that step is logged and tolerated, since the backfill command
// can repair missing tokens later.
func (e *Enroller) Finalize(ctx context.Context, session *Session, fullName, assignedUnit string) (*Result, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, &staff.ValidationError{Field: "full_name", Msg: "must not be empty"}
	}
	if !staff.ValidUnit(assignedUnit) {
		return nil, &staff.ValidationError{Field: "assigned_unit", Msg: "unknown distribution unit"}
	}
	if !session.CanFinalize() {
		return nil, &staff.ValidationError{Field: "captures", Msg: "every angle needs an accepted photo"}
	}

	ids, err := e.store.ListStaffIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing staff ids: %w", err)
	}
	id := staff.NextID(ids)

	front := session.FrontPhoto()
	vector := e.featureVector(ctx, front)

	now := time.Now().UTC()
	rec := &staff.StaffRecord{
		ID:            id,
		FullName:      fullName,
		AssignedUnit:  assignedUnit,
		RegisteredAt:  now,
		PrimaryPhoto:  front,
		FeatureVector: vector,
	}

	result := &Result{Record: rec}
	if e.index != nil {
		if near := e.index.Nearest(vector, 1); len(near) > 0 && near[0].Distance < similarity.DuplicateDistance {
			result.DuplicateOf = near[0].StaffID
		}
	}
	if result.DuplicateOf == "" {
		result.DuplicateOf = e.sameNameAs(ctx, fullName)
	}

	if err := e.store.CreateStaff(ctx, rec, session.Images(id, now)); err != nil {
		return nil, fmt.Errorf("persisting staff %s: %w", id, err)
	}

	if token := e.indexFace(ctx, id, front); token != "" {
		if err := e.store.UpdateRecognitionToken(ctx, id, token); err != nil {
			log.Printf("failed to attach recognition token to %s: %v", id, err)
		} else {
			rec.RecognitionToken = token
		}
	}

	if e.index != nil {
		e.index.Add(id, vector)
	}

	session.Close()
	return result, nil
}

// sameNameAs returns the id of an existing record whose normalized name
// equals the new one, so "José García" warns against an enrolled
// "jose garcia". Lookup failures are logged and skipped; the warning is
// advisory.
func (e *Enroller) sameNameAs(ctx context.Context, fullName string) string {
	records, err := e.store.ListStaff(ctx)
	if err != nil {
		log.Printf("name duplicate check skipped: %v", err)
		return ""
	}
	normalized := staff.NormalizeName(fullName)
	for i := range records {
		if staff.NormalizeName(records[i].FullName) == normalized {
			return records[i].ID
		}
	}
	return ""
}

// featureVector computes the record's vector via the embedding server when
// one is configured, falling back to a random placeholder. Matching never
// reads this field, so the fallback is safe.
func (e *Enroller) featureVector(ctx context.Context, photo []byte) []float32 {
	if e.embedder != nil && len(photo) > 0 {
		vec, err := e.embedder.ComputeEmbedding(ctx, photo)
		if err == nil {
			return vec
		}
		log.Printf("embedding computation failed, storing placeholder vector: %v", err)
	}
	return similarity.RandomVector(e.vectorDim)
}

// indexFace enrolls the front photo into the configured oracle collection.
// Returns the issued token, or "" when indexing is unconfigured or failed.
func (e *Enroller) indexFace(ctx context.Context, id string, photo []byte) string {
	if e.searcher == nil || e.settings == nil || len(photo) == 0 {
		return ""
	}
	s, err := e.settings.Recognition(ctx)
	if err != nil {
		log.Printf("resolving oracle settings for %s: %v", id, err)
		return ""
	}
	if !s.IndexedConfigured() {
		return ""
	}
	token, err := e.searcher.IndexFace(ctx, s.CollectionID, photo, id)
	if err != nil {
		log.Printf("indexing face for %s failed: %v", id, err)
		return ""
	}
	return token
}
