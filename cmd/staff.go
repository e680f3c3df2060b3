package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aliyuchatgptt/falgates/internal/config"
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Manage enrolled staff",
}

var staffListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled staff",
	Long:  `Lists all enrolled staff records, newest registration first.`,
	RunE:  runStaffList,
}

var staffDeleteCmd = &cobra.Command{
	Use:   "delete <staff-id>",
	Short: "Delete a staff record",
	Long: `Deletes a staff record with its reference photos. Check-in history is
append-only and is never touched by a staff deletion.`,
	Args: cobra.ExactArgs(1),
	RunE: runStaffDelete,
}

func init() {
	rootCmd.AddCommand(staffCmd)
	staffCmd.AddCommand(staffListCmd)
	staffCmd.AddCommand(staffDeleteCmd)
}

func runStaffList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	stores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	records, err := stores.staff.ListStaff(ctx)
	if err != nil {
		return fmt.Errorf("listing staff: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No staff enrolled.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUNIT\tREGISTERED\tINDEXED")
	fmt.Fprintln(w, "--\t----\t----\t----------\t-------")

	for i := range records {
		indexed := "no"
		if records[i].RecognitionToken != "" {
			indexed = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			records[i].ID,
			records[i].FullName,
			records[i].AssignedUnit,
			records[i].RegisteredAt.Format("2006-01-02 15:04"),
			indexed,
		)
	}

	w.Flush()
	fmt.Printf("\nTotal: %d staff\n", len(records))
	return nil
}

func runStaffDelete(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	id := args[0]

	stores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	rec, err := stores.staff.GetStaff(ctx, id)
	if err != nil {
		return fmt.Errorf("loading staff %s: %w", id, err)
	}

	if err := stores.staff.DeleteStaff(ctx, id); err != nil {
		return fmt.Errorf("deleting staff %s: %w", id, err)
	}

	fmt.Printf("Deleted %s (%s)\n", rec.ID, rec.FullName)
	return nil
}
