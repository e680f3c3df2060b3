package config

import (
	"context"
	"testing"

	"github.com/aliyuchatgptt/falgates/internal/store/mock"
)

func TestSettingsService_EnvFallback(t *testing.T) {
	st := mock.NewMockSettingsStore()
	svc := NewSettingsService(st, RecognitionConfig{
		PairwiseURL: "https://pairwise.env",
		APIKey:      "env-key",
	})

	got, err := svc.Recognition(context.Background())
	if err != nil {
		t.Fatalf("Recognition() error: %v", err)
	}
	if got.PairwiseURL != "https://pairwise.env" {
		t.Errorf("expected env fallback URL, got %q", got.PairwiseURL)
	}
	if got.APIKey != "env-key" {
		t.Errorf("expected env fallback key, got %q", got.APIKey)
	}
	if got.IndexedConfigured() {
		t.Error("indexed variant should not be configured without a collection handle")
	}
}

func TestSettingsService_StoreOverridesEnv(t *testing.T) {
	ctx := context.Background()
	st := mock.NewMockSettingsStore()
	if err := st.SetSetting(ctx, SettingAPIKey, "store-key"); err != nil {
		t.Fatal(err)
	}

	svc := NewSettingsService(st, RecognitionConfig{APIKey: "env-key"})

	got, err := svc.Recognition(ctx)
	if err != nil {
		t.Fatalf("Recognition() error: %v", err)
	}
	if got.APIKey != "store-key" {
		t.Errorf("expected store value to win, got %q", got.APIKey)
	}
}

func TestSettingsService_CacheServesStaleUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	st := mock.NewMockSettingsStore()
	st.SetSetting(ctx, SettingAPIKey, "first")

	svc := NewSettingsService(st, RecognitionConfig{})
	if got, _ := svc.Recognition(ctx); got.APIKey != "first" {
		t.Fatalf("expected first, got %q", got.APIKey)
	}

	// Writing behind the service's back is not observed through the cache.
	st.SetSetting(ctx, SettingAPIKey, "second")
	if got, _ := svc.Recognition(ctx); got.APIKey != "first" {
		t.Fatalf("expected cached first, got %q", got.APIKey)
	}

	svc.Invalidate()
	if got, _ := svc.Recognition(ctx); got.APIKey != "second" {
		t.Fatalf("expected second after invalidation, got %q", got.APIKey)
	}
}

func TestSettingsService_UpdateInvalidatesSynchronously(t *testing.T) {
	ctx := context.Background()
	st := mock.NewMockSettingsStore()
	svc := NewSettingsService(st, RecognitionConfig{})

	if _, err := svc.Recognition(ctx); err != nil {
		t.Fatal(err)
	}

	err := svc.Update(ctx, RecognitionSettings{
		APIKey:       "rotated",
		IndexedURL:   "https://indexed.test",
		CollectionID: "col-1",
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, err := svc.Recognition(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.APIKey != "rotated" {
		t.Errorf("expected rotated key immediately after Update, got %q", got.APIKey)
	}
	if !got.IndexedConfigured() {
		t.Error("expected indexed variant to be configured after Update")
	}
}

func TestSettingsService_SetCollectionID(t *testing.T) {
	ctx := context.Background()
	st := mock.NewMockSettingsStore()
	svc := NewSettingsService(st, RecognitionConfig{IndexedURL: "https://indexed.test"})

	if _, err := svc.Recognition(ctx); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetCollectionID(ctx, "col-42"); err != nil {
		t.Fatalf("SetCollectionID() error: %v", err)
	}

	got, _ := svc.Recognition(ctx)
	if got.CollectionID != "col-42" {
		t.Errorf("expected col-42, got %q", got.CollectionID)
	}
	if !got.IndexedConfigured() {
		t.Error("expected indexed variant configured once the handle exists")
	}
}
