package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tarediiran-industries.com/bus-timetable/internal/common"
	"tarediiran-industries.com/bus-timetable/internal/config"
	"tarediiran-industries.com/bus-timetable/internal/schedule"
	"tarediiran-industries.com/bus-timetable/internal/timetable"
)

func NewFetchCmd(app *TimetableCtlApp) *cobra.Command {
	var directionFlag string
	var boardName string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch one direction and print it as the board would show it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			location, err := cfg.Location()
			if err != nil {
				return err
			}

			board, err := pickBoard(cfg, boardName, directionFlag, cmd.Flags().Changed("direction"))
			if err != nil {
				return err
			}

			direction, err := schedule.ParseDirection(board.Direction)
			if err != nil {
				return err
			}

			source := app.source(cfg, location)
			response, err := common.RuntimeBenchmark("fetch-"+direction.String(), func() (schedule.Response, error) {
				return source.FetchSchedule(cmd.Context(), direction)
			})
			if err != nil {
				return err
			}

			rows, err := timetable.ToDisplayRows(response, location)
			if err != nil {
				return err
			}

			grid := timetable.RenderGrid(board.Route, rows, app.Clock.Now(), location)
			return printGrid(cmd.OutOrStdout(), grid)
		},
	}

	cmd.Flags().StringVar(&directionFlag, "direction", schedule.Outward.String(), "outward or homeward")
	cmd.Flags().StringVar(&boardName, "board", "", "Configured board whose route labels the columns")

	return cmd
}

// pickBoard resolves which route labels the output. An explicit direction
// wins over the board's own.
func pickBoard(cfg config.Config, boardName, directionFlag string, directionSet bool) (config.Board, error) {
	direction, err := schedule.ParseDirection(directionFlag)
	if err != nil {
		return config.Board{}, err
	}

	if boardName != "" {
		board, ok := cfg.Board(boardName)
		if !ok {
			return config.Board{}, fmt.Errorf("unknown board %q", boardName)
		}
		if directionSet {
			board.Direction = direction.String()
		}
		return board, nil
	}

	for _, board := range cfg.Boards {
		if board.Direction == direction.String() {
			return board, nil
		}
	}

	board := cfg.Boards[0]
	board.Direction = direction.String()
	return board, nil
}

// printGrid writes the grid as aligned text. Past departures are marked
// with a trailing *.
func printGrid(out io.Writer, grid timetable.Grid) error {
	writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	headers := make([]string, 0, len(grid.Columns))
	for _, column := range grid.Columns {
		if !column.Hidden {
			headers = append(headers, column.Header)
		}
	}
	fmt.Fprintln(writer, strings.Join(headers, "\t"))

	for _, row := range grid.Rows {
		fields := make([]string, 0, len(row.Cells)+1)
		for _, cell := range row.Cells {
			text := cell.Text
			if text != "" && !cell.Enabled {
				text += "*"
			}
			fields = append(fields, text)
		}
		fields = append(fields, strings.ReplaceAll(row.Remarks, "\n", " / "))
		fmt.Fprintln(writer, strings.Join(fields, "\t"))
	}

	return writer.Flush()
}
