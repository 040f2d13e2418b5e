package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/store"
)

func (s *sqliteStore) SaveDevice(ctx context.Context, rec store.DeviceRecord) error {
	start := time.Now()

	_, err := s.stmtSaveDevice.ExecContext(ctx,
		int64(rec.Device), rec.Family, rec.ProfileSummary, rec.AddedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save device %d: %w", rec.Device, err)
	}

	s.logger.Debug("sql", "stmt", "SaveDevice",
		"args", []any{rec.Device, rec.Family},
		"duration_ms", msec(time.Since(start)))

	return nil
}

func (s *sqliteStore) GetDevice(ctx context.Context, dev switchd.DeviceID) (store.DeviceRecord, error) {
	start := time.Now()

	var (
		id      int64
		family  string
		summary string
		addedAt int64
	)
	err := s.stmtGetDevice.QueryRowContext(ctx, int64(dev)).Scan(&id, &family, &summary, &addedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.DeviceRecord{}, fmt.Errorf("device %d: %w", dev, switchd.ErrNotFound)
	}
	if err != nil {
		return store.DeviceRecord{}, fmt.Errorf("failed to get device %d: %w", dev, err)
	}

	s.logger.Debug("sql", "stmt", "GetDevice",
		"args", []any{dev},
		"duration_ms", msec(time.Since(start)),
		"rows", 1)

	return store.DeviceRecord{
		Device:         switchd.DeviceID(id),
		Family:         family,
		ProfileSummary: summary,
		AddedAt:        time.UnixMilli(addedAt).UTC(),
	}, nil
}

func (s *sqliteStore) ListDevices(ctx context.Context) ([]store.DeviceRecord, error) {
	start := time.Now()

	rows, err := s.stmtListDevices.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var recs []store.DeviceRecord
	for rows.Next() {
		var (
			id      int64
			family  string
			summary string
			addedAt int64
		)
		if err := rows.Scan(&id, &family, &summary, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device row: %w", err)
		}
		recs = append(recs, store.DeviceRecord{
			Device:         switchd.DeviceID(id),
			Family:         family,
			ProfileSummary: summary,
			AddedAt:        time.UnixMilli(addedAt).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate device rows: %w", err)
	}

	s.logger.Debug("sql", "stmt", "ListDevices",
		"duration_ms", msec(time.Since(start)),
		"rows", len(recs))

	return recs, nil
}

func (s *sqliteStore) DeleteDevice(ctx context.Context, dev switchd.DeviceID) error {
	start := time.Now()

	result, err := s.stmtDeleteDevice.ExecContext(ctx, int64(dev))
	if err != nil {
		return fmt.Errorf("failed to delete device %d: %w", dev, err)
	}
	n, _ := result.RowsAffected()

	s.logger.Debug("sql", "stmt", "DeleteDevice",
		"args", []any{dev},
		"duration_ms", msec(time.Since(start)),
		"rows", n)

	return nil
}
