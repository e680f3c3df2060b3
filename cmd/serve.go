package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aliyuchatgptt/falgates/internal/config"
	"github.com/aliyuchatgptt/falgates/internal/enrollment"
	"github.com/aliyuchatgptt/falgates/internal/recognition"
	"github.com/aliyuchatgptt/falgates/internal/similarity"
	"github.com/aliyuchatgptt/falgates/internal/verify"
	"github.com/aliyuchatgptt/falgates/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the checkpoint server",
	Long: `Start the checkpoint HTTP server.
The server exposes the enrollment capture flow, the verification endpoint
used by checkpoint operators, and staff administration.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides SERVER_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides SERVER_HOST)")
}

// initSimilarityIndex builds the in-memory nearest-neighbor index over
// enrolled feature vectors. Failure is not fatal; the index only powers
// duplicate-enrollment diagnostics, never matching.
func initSimilarityIndex(ctx context.Context, stores *storeSet) *similarity.Index {
	records, err := stores.staff.ListStaff(ctx)
	if err != nil {
		fmt.Printf("Warning: failed to load staff for similarity index: %v\n", err)
		fmt.Printf("Duplicate-enrollment warnings disabled\n")
		return nil
	}
	index := similarity.NewIndex()
	index.Build(records)
	fmt.Printf("Similarity index built with %d staff vectors\n", index.Len())
	return index
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Server.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Server.Host = host
	}

	ctx := context.Background()

	stores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	settings := config.NewSettingsService(stores.settings, cfg.Recognition)
	pairwise := recognition.NewPairwiseClient(settings)
	indexed := recognition.NewIndexedClient(settings, cfg.Defaults.OperatingPoints)

	checker, err := buildQualityChecker(ctx, cfg)
	if err != nil {
		return fmt.Errorf("configuring quality checker: %w", err)
	}
	gate := enrollment.NewGate(checker)

	var index *similarity.Index
	if cfg.Database.HNSWEnabled {
		index = initSimilarityIndex(ctx, stores)
	}

	var embedder *similarity.EmbeddingClient
	if cfg.Embedding.URL != "" {
		embedder = similarity.NewEmbeddingClient(cfg.Embedding.URL)
		fmt.Printf("Using embedding server at %s\n", cfg.Embedding.URL)
	}

	enroller := enrollment.NewEnroller(stores.staff, settings, indexed, embedder, index, cfg.Embedding.Dim)
	recorder := verify.NewRecorder(stores.checkins, cfg.Verification.CheckInLimit)
	orchestrator := verify.NewOrchestrator(stores.staff, pairwise, indexed, settings, recorder, verificationPolicy(cfg), cfg.Verification)

	server := web.NewServer(web.Deps{
		Config:       cfg,
		StaffStore:   stores.staff,
		Settings:     settings,
		Gate:         gate,
		Enroller:     enroller,
		Orchestrator: orchestrator,
		Recorder:     recorder,
		Searcher:     indexed,
		Index:        index,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting checkpoint server on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

// buildQualityChecker creates the configured enrollment quality provider.
// An empty provider disables checking; the gate then passes every capture.
func buildQualityChecker(ctx context.Context, cfg *config.Config) (recognition.QualityChecker, error) {
	switch cfg.Quality.Provider {
	case "":
		log.Printf("no quality provider configured, enrollment captures pass unchecked")
		return nil, nil
	case "openai":
		if cfg.Quality.OpenAIToken == "" {
			return nil, fmt.Errorf("QUALITY_PROVIDER=openai requires OPENAI_TOKEN")
		}
		return recognition.NewOpenAIQualityChecker(cfg.Quality.OpenAIToken), nil
	case "gemini":
		if cfg.Quality.GeminiAPIKey == "" {
			return nil, fmt.Errorf("QUALITY_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		return recognition.NewGeminiQualityChecker(ctx, cfg.Quality.GeminiAPIKey)
	default:
		return nil, fmt.Errorf("unknown quality provider %q", cfg.Quality.Provider)
	}
}

func verificationPolicy(cfg *config.Config) verify.Policy {
	return verify.Policy{
		ConfidenceThreshold: cfg.Verification.ConfidenceThreshold,
		RequiredMatches:     cfg.Verification.RequiredMatches,
		MultiReferenceMin:   cfg.Verification.MultiReferenceMin,
	}
}
