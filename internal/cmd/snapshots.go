package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var errNoDatabase = errors.New("no database configured, set database in the --toml file")

func NewSnapshotsCmd(app *TimetableCtlApp) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List the most recent archived schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database == "" {
				return errNoDatabase
			}
			location, err := cfg.Location()
			if err != nil {
				return err
			}

			store, err := app.OpenDatabase(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			summaries, err := store.ListSnapshots(cmd.Context(), limit)
			if err != nil {
				return err
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tDIRECTION\tFETCHED\tROWS")
			for _, summary := range summaries {
				fmt.Fprintf(writer, "%d\t%s\t%s\t%d\n",
					summary.SnapshotID,
					summary.Direction,
					summary.FetchedAt.In(location).Format(time.DateTime),
					summary.RowCount,
				)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of snapshots to list")

	return cmd
}
