package archive

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"tarediiran-industries.com/bus-timetable/internal/common"
	database "tarediiran-industries.com/bus-timetable/internal/db"
	"tarediiran-industries.com/bus-timetable/internal/schedule"
)

func Run(cfg Config) int {
	common.SetupLogging(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location, err := cfg.File.Location()
	if err != nil {
		log.Error().Err(err).Msg("invalid time zone")
		return 1
	}

	var metrics *common.Metrics
	if cfg.File.Telemetry != "" {
		telemetry := common.NewTelemetryServer(cfg.File.Telemetry)
		metrics = common.NewMetrics(telemetry.GetRegistry())
		if err := telemetry.Start(); err != nil {
			log.Error().Err(err).Msg("failed to start telemetry server")
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = telemetry.Stop(shutdownCtx)
		}()
	}

	db, err := database.NewDatabaseConnection(ctx, cfg.File.Database)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		return 1
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Error().Err(err).Msg("failed to prepare schema")
		return 1
	}

	source := schedule.NewHTTPSource(cfg.File.Source.HTTPConfig(), metrics)
	poller, err := NewPoller(source, db, Options{
		Interval: cfg.File.Archive.Interval(),
		Location: location,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create poller")
		return 1
	}

	if cfg.Once {
		for _, sample := range poller.SampleAll(ctx) {
			if sample.Err != nil {
				return 1
			}
		}
		return 0
	}

	log.Info().Dur("interval", cfg.File.Archive.Interval()).Msg("archiving schedules")
	_ = poller.Watch(ctx)
	log.Info().Msg("finished")

	return 0
}
