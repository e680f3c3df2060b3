package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/aliyuchatgptt/falgates/internal/config"
	"github.com/aliyuchatgptt/falgates/internal/recognition"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Index staff photos into the recognition collection",
	Long: `Enrolls the primary photo of every staff record that has no recognition
token into the configured collection, attaching the issued tokens. Use this
after creating a collection for staff enrolled while only the pairwise
oracle was configured.

Examples:
  # Preview who would be indexed
  falgates backfill --dry-run

  # Index everyone missing a token
  falgates backfill`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().Bool("dry-run", false, "List staff that would be indexed without calling the oracle")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	dryRun := mustGetBool(cmd, "dry-run")

	stores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	settings := config.NewSettingsService(stores.settings, cfg.Recognition)
	current, err := settings.Recognition(ctx)
	if err != nil {
		return fmt.Errorf("loading recognition settings: %w", err)
	}
	if !current.IndexedConfigured() {
		return fmt.Errorf("indexed oracle not configured: set INDEXED_ORACLE_URL and create a collection first")
	}

	records, err := stores.staff.ListStaff(ctx)
	if err != nil {
		return fmt.Errorf("listing staff: %w", err)
	}

	var pending []string
	for i := range records {
		if records[i].RecognitionToken == "" {
			pending = append(pending, records[i].ID)
		}
	}
	if len(pending) == 0 {
		fmt.Println("All staff already indexed.")
		return nil
	}

	if dryRun {
		fmt.Printf("Would index %d staff into collection %s:\n", len(pending), current.CollectionID)
		for _, id := range pending {
			fmt.Printf("  %s\n", id)
		}
		return nil
	}

	indexed := recognition.NewIndexedClient(settings, cfg.Defaults.OperatingPoints)

	bar := progressbar.NewOptions(len(pending),
		progressbar.OptionSetDescription("Indexing staff photos"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)

	var failed int
	for _, id := range pending {
		rec, err := stores.staff.GetStaff(ctx, id)
		if err != nil {
			fmt.Printf("\nWarning: loading %s: %v\n", id, err)
			failed++
			bar.Add(1)
			continue
		}

		token, err := indexed.IndexFace(ctx, current.CollectionID, rec.PrimaryPhoto, rec.ID)
		if err != nil {
			fmt.Printf("\nWarning: indexing %s: %v\n", id, err)
			failed++
			bar.Add(1)
			continue
		}
		if err := stores.staff.UpdateRecognitionToken(ctx, id, token); err != nil {
			fmt.Printf("\nWarning: storing token for %s: %v\n", id, err)
			failed++
		}
		bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Indexed %d staff", len(pending)-failed)
	if failed > 0 {
		fmt.Printf(", %d failed", failed)
	}
	fmt.Println()
	return nil
}
