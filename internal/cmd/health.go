package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"tarediiran-industries.com/bus-timetable/internal/schedule"
	"tarediiran-industries.com/bus-timetable/internal/timetable"
)

var errUnhealthy = errors.New("one or more checks failed")

type healthCheck struct {
	name   string
	detail string
	err    error
}

func NewHealthCmd(app *TimetableCtlApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the schedule endpoint and, when configured, the archive database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			location, err := cfg.Location()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			source := app.source(cfg, location)

			p := pool.NewWithResults[healthCheck]()
			for _, direction := range schedule.Directions {
				direction := direction
				p.Go(func() healthCheck {
					check := healthCheck{name: direction.String()}
					response, err := source.FetchSchedule(ctx, direction)
					if err == nil {
						_, err = timetable.ToDisplayRows(response, location)
					}
					if err != nil {
						check.err = err
						return check
					}
					check.detail = fmt.Sprintf("%d rows", len(response.Values))
					return check
				})
			}
			if cfg.Database != "" {
				p.Go(func() healthCheck {
					check := healthCheck{name: "database", detail: "reachable"}
					store, err := app.OpenDatabase(ctx, cfg.Database)
					if err != nil {
						check.err = err
						return check
					}
					defer store.Close()
					check.err = store.Ping(ctx)
					return check
				})
			}

			failed := false
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			checks := p.Wait()
			slices.SortFunc(checks, func(a, b healthCheck) int { return strings.Compare(a.name, b.name) })

			for _, check := range checks {
				if check.err != nil {
					failed = true
					fmt.Fprintf(writer, "%s\tFAIL\t%v\n", check.name, check.err)
					continue
				}
				fmt.Fprintf(writer, "%s\tOK\t%s\n", check.name, check.detail)
			}
			if err := writer.Flush(); err != nil {
				return err
			}

			if failed {
				return errUnhealthy
			}
			return nil
		},
	}

	return cmd
}
