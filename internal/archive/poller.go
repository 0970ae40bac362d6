package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"tarediiran-industries.com/bus-timetable/internal/common"
	database "tarediiran-industries.com/bus-timetable/internal/db"
	"tarediiran-industries.com/bus-timetable/internal/schedule"
	"tarediiran-industries.com/bus-timetable/internal/timetable"
)

// Recorder stores one fetched schedule. *db.Database is the production
// implementation.
type Recorder interface {
	RecordSnapshot(ctx context.Context, snapshot database.Snapshot) (int64, error)
}

// Sample is the outcome of archiving one direction.
type Sample struct {
	Direction  schedule.Direction
	SnapshotID int64
	Rows       int
	Err        error
}

type Poller struct {
	source     schedule.Source
	recorder   Recorder
	directions []schedule.Direction
	location   *time.Location
	clock      timetable.Clock
	interval   time.Duration
}

type Options struct {
	Interval time.Duration

	// Defaults to every direction.
	Directions []schedule.Direction

	Location *time.Location
	Clock    timetable.Clock
}

func NewPoller(source schedule.Source, recorder Recorder, opts Options) (*Poller, error) {
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("archive interval must be positive, got %s", opts.Interval)
	}

	poller := &Poller{
		source:     source,
		recorder:   recorder,
		directions: opts.Directions,
		location:   opts.Location,
		clock:      opts.Clock,
		interval:   opts.Interval,
	}
	if len(poller.directions) == 0 {
		poller.directions = schedule.Directions
	}
	if poller.location == nil {
		poller.location = time.Local
	}
	if poller.clock == nil {
		poller.clock = timetable.SystemClock
	}

	return poller, nil
}

// SnapshotRows converts display rows to their archived form.
func SnapshotRows(rows []timetable.DisplayRow) []database.SnapshotRow {
	out := make([]database.SnapshotRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, database.SnapshotRow{
			RowID:   row.ID,
			Start:   timePointer(row.Time(timetable.LegStart)),
			Via1:    timePointer(row.Time(timetable.LegVia1)),
			Via2:    timePointer(row.Time(timetable.LegVia2)),
			Goal:    timePointer(row.Time(timetable.LegGoal)),
			Remarks: row.Remarks,
		})
	}
	return out
}

func timePointer(stopTime timetable.StopTime) *time.Time {
	if !stopTime.Valid {
		return nil
	}
	at := stopTime.At
	return &at
}

// SampleDirection fetches one direction and records it. Responses with
// invalid timestamps are rejected rather than archived.
func (poller *Poller) SampleDirection(ctx context.Context, direction schedule.Direction) Sample {
	sample := Sample{Direction: direction}

	response, err := poller.source.FetchSchedule(ctx, direction)
	if err != nil {
		sample.Err = err
		return sample
	}

	rows, err := timetable.ToDisplayRows(response, poller.location)
	if err != nil {
		sample.Err = fmt.Errorf("%s: %w", direction, err)
		return sample
	}

	snapshotID, err := poller.recorder.RecordSnapshot(ctx, database.Snapshot{
		Direction: direction.String(),
		FetchedAt: poller.clock.Now(),
		Rows:      SnapshotRows(rows),
	})
	if err != nil {
		sample.Err = fmt.Errorf("record %s snapshot: %w", direction, err)
		return sample
	}

	sample.SnapshotID = snapshotID
	sample.Rows = len(rows)
	return sample
}

// SampleAll archives every direction concurrently. Failures are logged
// and reported in the result; they do not stop the others.
func (poller *Poller) SampleAll(ctx context.Context) []Sample {
	benchmarker := common.NewBenchmarker("archive-sample")
	defer benchmarker.Close()

	p := pool.NewWithResults[Sample]()
	for _, direction := range poller.directions {
		direction := direction
		p.Go(func() Sample {
			return poller.SampleDirection(ctx, direction)
		})
	}

	samples := p.Wait()
	for _, sample := range samples {
		if sample.Err != nil {
			log.Error().Err(sample.Err).Str("direction", sample.Direction.String()).Msg("failed to archive schedule")
			continue
		}
		log.Info().
			Str("direction", sample.Direction.String()).
			Int64("snapshot_id", sample.SnapshotID).
			Int("rows", sample.Rows).
			Msg("archived schedule")
	}
	return samples
}

// Watch samples once immediately and then on every tick until ctx is
// cancelled.
func (poller *Poller) Watch(ctx context.Context) error {
	ticker := time.NewTicker(poller.interval)
	defer ticker.Stop()

	poller.SampleAll(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Err(ctx.Err()).Msg("archive poller stopped")
			return ctx.Err()

		case <-ticker.C:
			log.Debug().Msg("polling schedule endpoint")
			poller.SampleAll(ctx)
		}
	}
}
