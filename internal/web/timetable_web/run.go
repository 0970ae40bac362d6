package timetable_web

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"tarediiran-industries.com/bus-timetable/internal/common"
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

	var source schedule.Source
	if cfg.Demo {
		log.Warn().Msg("serving demo schedules")
		source = schedule.NewFixtureSource(schedule.DemoResponses(time.Now().In(location)))
	} else {
		source = schedule.NewHTTPSource(cfg.File.Source.HTTPConfig(), metrics)
	}

	server, err := NewTimetableWebServer(source, ServerOptions{
		ListenAddress: cfg.File.Listen,
		Boards:        cfg.File.Boards,
		Location:      location,
		Metrics:       metrics,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create server")
		return 1
	}

	if err := server.Serve(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return 1
	}
	return 0
}
