package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aliyuchatgptt/falgates/internal/config"
)

var checkinsCmd = &cobra.Command{
	Use:   "checkins",
	Short: "List recent check-in events",
	Long:  `Lists the most recent check-in events, newest first.`,
	RunE:  runCheckins,
}

func init() {
	rootCmd.AddCommand(checkinsCmd)

	checkinsCmd.Flags().Int("limit", 50, "Number of events to show")
}

func runCheckins(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	limit := mustGetInt(cmd, "limit")

	stores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	events, err := stores.checkins.ListCheckIns(ctx, limit)
	if err != nil {
		return fmt.Errorf("listing check-ins: %w", err)
	}

	if len(events) == 0 {
		fmt.Println("No check-ins recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSTAFF\tNAME\tUNIT\tCONFIDENCE")
	fmt.Fprintln(w, "----\t-----\t----\t----\t----------")

	for i := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\n",
			events[i].Timestamp.Format("2006-01-02 15:04:05"),
			events[i].StaffID,
			events[i].StaffName,
			events[i].AssignedUnit,
			events[i].Confidence,
		)
	}

	w.Flush()
	return nil
}
