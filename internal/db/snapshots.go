package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const schema = `
CREATE TABLE IF NOT EXISTS timetable_snapshots (
	snapshot_id BIGSERIAL PRIMARY KEY,
	direction   TEXT        NOT NULL,
	fetched_at  TIMESTAMPTZ NOT NULL,
	row_count   INTEGER     NOT NULL
);

CREATE TABLE IF NOT EXISTS timetable_snapshot_rows (
	snapshot_id BIGINT  NOT NULL REFERENCES timetable_snapshots (snapshot_id) ON DELETE CASCADE,
	row_id      INTEGER NOT NULL,
	start_at    TIMESTAMPTZ,
	via1_at     TIMESTAMPTZ,
	via2_at     TIMESTAMPTZ,
	goal_at     TIMESTAMPTZ,
	remarks     TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (snapshot_id, row_id)
);
`

func (db *Database) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SnapshotRow is one timetable row as archived. Nil times are absent stops.
type SnapshotRow struct {
	RowID   int
	Start   *time.Time
	Via1    *time.Time
	Via2    *time.Time
	Goal    *time.Time
	Remarks string
}

func SnapshotRowColumns() []string {
	return []string{"snapshot_id", "row_id", "start_at", "via1_at", "via2_at", "goal_at", "remarks"}
}

func (row *SnapshotRow) ToAnyArray(snapshotID int64) []any {
	return []any{
		snapshotID,
		row.RowID,
		row.Start,
		row.Via1,
		row.Via2,
		row.Goal,
		row.Remarks,
	}
}

type Snapshot struct {
	Direction string
	FetchedAt time.Time
	Rows      []SnapshotRow
}

// SnapshotSummary is a listing entry, without the rows.
type SnapshotSummary struct {
	SnapshotID int64     `db:"snapshot_id"`
	Direction  string    `db:"direction"`
	FetchedAt  time.Time `db:"fetched_at"`
	RowCount   int       `db:"row_count"`
}

// RecordSnapshot stores the snapshot header and its rows atomically and
// returns the new snapshot id.
func (db *Database) RecordSnapshot(ctx context.Context, snapshot Snapshot) (int64, error) {
	var snapshotID int64

	err := db.InTx(ctx, func(tx DBTX) error {
		row := tx.QueryRow(
			ctx,
			"INSERT INTO timetable_snapshots (direction, fetched_at, row_count) VALUES ($1, $2, $3) RETURNING snapshot_id",
			snapshot.Direction,
			snapshot.FetchedAt,
			len(snapshot.Rows),
		)
		if err := row.Scan(&snapshotID); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}

		_, err := CopyFromSlice(
			ctx,
			tx,
			"timetable_snapshot_rows",
			SnapshotRowColumns(),
			len(snapshot.Rows),
			func(i int) ([]any, error) {
				return snapshot.Rows[i].ToAnyArray(snapshotID), nil
			},
		)
		return err
	})
	if err != nil {
		return 0, err
	}

	return snapshotID, nil
}

const defaultSnapshotLimit = 20

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultSnapshotLimit
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// ListSnapshots returns the most recent snapshots first.
func (db *Database) ListSnapshots(ctx context.Context, limit int) ([]SnapshotSummary, error) {
	rows, err := db.pool.Query(
		ctx,
		"SELECT snapshot_id, direction, fetched_at, row_count FROM timetable_snapshots ORDER BY fetched_at DESC, snapshot_id DESC LIMIT $1",
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	summaries, err := pgx.CollectRows(rows, pgx.RowToStructByName[SnapshotSummary])
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return summaries, nil
}
