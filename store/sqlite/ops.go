package sqlite

import (
	"context"
	"fmt"
	"time"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/store"
)

func (s *sqliteStore) AppendOp(ctx context.Context, entry store.OpEntry) error {
	start := time.Now()

	ts := entry.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.stmtAppendOp.ExecContext(ctx,
		ts.UnixMilli(), entry.Op, int64(entry.Device), entry.Detail, entry.Outcome)
	if err != nil {
		return fmt.Errorf("failed to append op %q: %w", entry.Op, err)
	}

	s.logger.Debug("sql", "stmt", "AppendOp",
		"args", []any{entry.Op, entry.Device, entry.Outcome},
		"duration_ms", msec(time.Since(start)))

	return nil
}

func (s *sqliteStore) ListOps(ctx context.Context, limit int) ([]store.OpEntry, error) {
	start := time.Now()

	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := s.stmtListOps.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ops: %w", err)
	}
	defer rows.Close()

	var entries []store.OpEntry
	for rows.Next() {
		var (
			seq     int64
			tsMs    int64
			op      string
			devID   int64
			detail  string
			outcome string
		)
		if err := rows.Scan(&seq, &tsMs, &op, &devID, &detail, &outcome); err != nil {
			return nil, fmt.Errorf("failed to scan op row: %w", err)
		}
		entries = append(entries, store.OpEntry{
			Seq:     seq,
			Time:    time.UnixMilli(tsMs).UTC(),
			Op:      op,
			Device:  switchd.DeviceID(devID),
			Detail:  detail,
			Outcome: outcome,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate op rows: %w", err)
	}

	s.logger.Debug("sql", "stmt", "ListOps",
		"duration_ms", msec(time.Since(start)),
		"rows", len(entries))

	return entries, nil
}
