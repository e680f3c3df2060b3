package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aliyuchatgptt/falgates/internal/config"
	"github.com/aliyuchatgptt/falgates/internal/recognition"
	"github.com/aliyuchatgptt/falgates/internal/staff"
	"github.com/aliyuchatgptt/falgates/internal/verify"
)

// discardCheckIns drops check-in writes, used by --no-record.
type discardCheckIns struct{}

func (discardCheckIns) AppendCheckIn(ctx context.Context, ev *staff.CheckInEvent) error {
	return nil
}

func (discardCheckIns) ListCheckIns(ctx context.Context, limit int) ([]staff.CheckInEvent, error) {
	return nil, nil
}

var verifyCmd = &cobra.Command{
	Use:   "verify <photo-file>",
	Short: "Run one verification against the enrolled staff",
	Long: `Reads a probe photo from disk and runs the full verification flow
against the enrolled staff, exactly as the checkpoint endpoint would. A
successful match records a check-in.

Examples:
  falgates verify probe.jpg
  falgates verify --no-record probe.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Bool("no-record", false, "Do not record a check-in on a successful match")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	probe, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading probe photo: %w", err)
	}

	stores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	settings := config.NewSettingsService(stores.settings, cfg.Recognition)
	pairwise := recognition.NewPairwiseClient(settings)
	indexed := recognition.NewIndexedClient(settings, cfg.Defaults.OperatingPoints)

	checkins := stores.checkins
	if mustGetBool(cmd, "no-record") {
		checkins = discardCheckIns{}
	}
	recorder := verify.NewRecorder(checkins, cfg.Verification.CheckInLimit)
	orchestrator := verify.NewOrchestrator(stores.staff, pairwise, indexed, settings, recorder, verificationPolicy(cfg), cfg.Verification)

	outcome, err := orchestrator.Verify(ctx, probe)
	if err != nil {
		return fmt.Errorf("verification: %w", err)
	}

	if !outcome.Success {
		fmt.Printf("NOT VERIFIED: %s\n", outcome.Message)
		if outcome.Explanation != "" {
			fmt.Printf("  %s\n", outcome.Explanation)
		}
		os.Exit(1)
	}

	fmt.Printf("VERIFIED: %s (%s), unit %s\n", outcome.Staff.FullName, outcome.Staff.ID, outcome.Staff.AssignedUnit)
	fmt.Printf("  Confidence: %.1f\n", outcome.Confidence)
	fmt.Printf("  %s\n", outcome.Explanation)
	return nil
}
