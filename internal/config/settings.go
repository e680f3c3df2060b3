package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/aliyuchatgptt/falgates/internal/store"
)

// Settings-store keys for recognition oracle configuration.
const (
	SettingAPIKey       = "recognition.api_key"
	SettingPairwiseURL  = "recognition.pairwise_url"
	SettingIndexedURL   = "recognition.indexed_url"
	SettingCollectionID = "recognition.collection_id"
)

// RecognitionSettings is the resolved oracle configuration.
type RecognitionSettings struct {
	APIKey       string `json:"api_key"`
	PairwiseURL  string `json:"pairwise_url"`
	IndexedURL   string `json:"indexed_url"`
	CollectionID string `json:"collection_id"`
}

// IndexedConfigured reports whether the indexed-search variant can be used.
// Backend selection policy: indexed when a collection handle is configured,
// pairwise iteration otherwise.
func (s RecognitionSettings) IndexedConfigured() bool {
	return s.IndexedURL != "" && s.CollectionID != ""
}

// SettingsService resolves recognition settings from the settings store with
// environment fallbacks, caching the result process-wide. The cache must be
// invalidated whenever configuration changes; Update does so synchronously.
type SettingsService struct {
	store    store.SettingsStore
	fallback RecognitionConfig

	mu     sync.RWMutex
	cached *RecognitionSettings
}

// NewSettingsService creates a settings service backed by st. Values missing
// from the store fall back to the environment-derived config.
func NewSettingsService(st store.SettingsStore, fallback RecognitionConfig) *SettingsService {
	return &SettingsService{store: st, fallback: fallback}
}

// Recognition returns the current oracle settings, loading and caching them
// on first use.
func (s *SettingsService) Recognition(ctx context.Context) (RecognitionSettings, error) {
	s.mu.RLock()
	if s.cached != nil {
		out := *s.cached
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	loaded, err := s.load(ctx)
	if err != nil {
		return RecognitionSettings{}, err
	}

	s.mu.Lock()
	s.cached = &loaded
	s.mu.Unlock()
	return loaded, nil
}

func (s *SettingsService) load(ctx context.Context) (RecognitionSettings, error) {
	out := RecognitionSettings{
		APIKey:       s.fallback.APIKey,
		PairwiseURL:  s.fallback.PairwiseURL,
		IndexedURL:   s.fallback.IndexedURL,
		CollectionID: s.fallback.CollectionID,
	}
	if s.store == nil {
		return out, nil
	}

	keys := []struct {
		key string
		dst *string
	}{
		{SettingAPIKey, &out.APIKey},
		{SettingPairwiseURL, &out.PairwiseURL},
		{SettingIndexedURL, &out.IndexedURL},
		{SettingCollectionID, &out.CollectionID},
	}
	for _, k := range keys {
		v, err := s.store.GetSetting(ctx, k.key)
		if err != nil {
			return RecognitionSettings{}, fmt.Errorf("loading setting %s: %w", k.key, err)
		}
		if v != "" {
			*k.dst = v
		}
	}
	return out, nil
}

// Invalidate drops the cached settings so the next read hits the store.
// Must be called synchronously before any call that could use stale
// credentials.
func (s *SettingsService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// Update writes the settings to the store and invalidates the cache before
// returning, so no later oracle call can observe the old credentials.
func (s *SettingsService) Update(ctx context.Context, settings RecognitionSettings) error {
	if s.store == nil {
		return fmt.Errorf("no settings store configured")
	}
	writes := []struct{ key, val string }{
		{SettingAPIKey, settings.APIKey},
		{SettingPairwiseURL, settings.PairwiseURL},
		{SettingIndexedURL, settings.IndexedURL},
		{SettingCollectionID, settings.CollectionID},
	}
	for _, w := range writes {
		if err := s.store.SetSetting(ctx, w.key, w.val); err != nil {
			s.Invalidate() // partial write, do not keep serving the old view
			return fmt.Errorf("writing setting %s: %w", w.key, err)
		}
	}
	s.Invalidate()
	return nil
}

// SetCollectionID persists a newly created collection handle and invalidates
// the cache.
func (s *SettingsService) SetCollectionID(ctx context.Context, id string) error {
	if s.store == nil {
		return fmt.Errorf("no settings store configured")
	}
	if err := s.store.SetSetting(ctx, SettingCollectionID, id); err != nil {
		return fmt.Errorf("writing collection id: %w", err)
	}
	s.Invalidate()
	return nil
}
