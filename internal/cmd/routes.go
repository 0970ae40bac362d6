package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tarediiran-industries.com/bus-timetable/internal/timetable"
)

func NewRoutesCmd(app *TimetableCtlApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List configured boards and their column headers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "BOARD\tDIRECTION\tTITLE\tCOLUMNS")
			for _, board := range cfg.Boards {
				headers := make([]string, 0, len(timetable.Legs))
				for _, leg := range timetable.Legs {
					headers = append(headers, timetable.Header(board.Route, leg))
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", board.Name, board.Direction, board.Title, strings.Join(headers, " | "))
			}
			return writer.Flush()
		},
	}

	return cmd
}
