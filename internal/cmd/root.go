package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"tarediiran-industries.com/bus-timetable/internal/config"
	database "tarediiran-industries.com/bus-timetable/internal/db"
	"tarediiran-industries.com/bus-timetable/internal/schedule"
	"tarediiran-industries.com/bus-timetable/internal/timetable"
)

// SnapshotStore is the part of the archive database the ctl reads.
type SnapshotStore interface {
	ListSnapshots(ctx context.Context, limit int) ([]database.SnapshotSummary, error)
	Ping(ctx context.Context) error
	Close() error
}

type TimetableCtlApp struct {
	ConfigPath string
	Demo       bool

	// Replaced in tests.
	NewSource    func(cfg config.Config) schedule.Source
	OpenDatabase func(ctx context.Context, connString string) (SnapshotStore, error)
	Clock        timetable.Clock
}

func NewTimetableCtlApp() *TimetableCtlApp {
	return &TimetableCtlApp{
		OpenDatabase: func(ctx context.Context, connString string) (SnapshotStore, error) {
			db, err := database.NewDatabaseConnection(ctx, connString)
			if err != nil {
				return nil, err
			}
			return db, nil
		},
		Clock: timetable.SystemClock,
	}
}

func Execute() error {
	app := NewTimetableCtlApp()
	rootCmd := NewRootCmd(app)
	return rootCmd.Execute()
}

func NewRootCmd(app *TimetableCtlApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "timetable-ctl",
		Short:         "CLI tool used to inspect the bus timetable endpoint and its archive",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(
		&app.ConfigPath,
		"toml",
		"",
		"Path to configuration file, built-in defaults when empty",
	)
	cmd.PersistentFlags().BoolVar(
		&app.Demo,
		"demo",
		false,
		"Use built-in sample schedules instead of the endpoint",
	)

	cmd.AddCommand(NewFetchCmd(app))
	cmd.AddCommand(NewRoutesCmd(app))
	cmd.AddCommand(NewSnapshotsCmd(app))
	cmd.AddCommand(NewHealthCmd(app))

	return cmd
}

func (app *TimetableCtlApp) loadConfig() (config.Config, error) {
	if app.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(app.ConfigPath)
}

func (app *TimetableCtlApp) source(cfg config.Config, location *time.Location) schedule.Source {
	switch {
	case app.NewSource != nil:
		return app.NewSource(cfg)
	case app.Demo:
		return schedule.NewFixtureSource(schedule.DemoResponses(app.Clock.Now().In(location)))
	}
	return schedule.NewHTTPSource(cfg.Source.HTTPConfig(), nil)
}
