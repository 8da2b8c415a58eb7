package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/soyeahso/shopdesk/internal/store"
	"github.com/spf13/cobra"
)

func newIntakesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intakes",
		Short: "Inspect completed intakes",
	}
	cmd.AddCommand(newIntakesListCmd())
	return cmd
}

func newIntakesListCmd() *cobra.Command {
	var (
		filter store.IntakeFilter
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded intakes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(paths.Database(), log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			intakes, err := store.NewIntakeLog(db).List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(intakes)
			}
			if len(intakes) == 0 {
				fmt.Println("No intakes recorded.")
				return nil
			}
			return printIntakes(os.Stdout, intakes)
		},
	}

	cmd.Flags().StringVar(&filter.UserID, "user", "", "only intakes from this user")
	cmd.Flags().StringVar(&filter.Flow, "flow", "", "only intakes of this flow (REPAIR, ORG, INQUIRY, INSTALL, CCTV)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum number of intakes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}

func printIntakes(w io.Writer, intakes []store.Intake) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tFLOW\tCHANNEL\tUSER\tIMAGE\tFIELDS")
	for _, in := range intakes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\t%s\n",
			in.CreatedAt.Local().Format("2006-01-02 15:04"),
			in.Flow, in.ChannelID, in.UserID, in.HasImage, formatFields(in.Fields))
	}
	return tw.Flush()
}

// formatFields renders fields as key=value pairs in key order, one line.
func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := strings.ReplaceAll(fields[k], "\n", " ")
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}
