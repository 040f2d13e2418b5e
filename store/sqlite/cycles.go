package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	switchd "github.com/frobware/go-switchd"
)

// scanCycle scans one warm_init_cycles row in the projection order
// shared by GetOpenCycle, ListCycles and ListOpenCycles.
func scanCycle(scan func(dest ...any) error) (switchd.WarmInitCycle, error) {
	var (
		cycleID       string
		devID         int64
		mode          string
		serdesUpgrade string
		upgradeAgents int64
		fault         int64
		begunAt       int64
		endedAt       sql.NullInt64
		aborted       int64
	)
	if err := scan(&cycleID, &devID, &mode, &serdesUpgrade, &upgradeAgents, &fault, &begunAt, &endedAt, &aborted); err != nil {
		return switchd.WarmInitCycle{}, err
	}

	cycle := switchd.WarmInitCycle{
		CycleID:       cycleID,
		Device:        switchd.DeviceID(devID),
		Mode:          switchd.WarmInitMode(mode),
		SerdesUpgrade: switchd.SerdesUpgradeMode(serdesUpgrade),
		UpgradeAgents: upgradeAgents != 0,
		Fault:         fault != 0,
		BegunAt:       time.UnixMilli(begunAt).UTC(),
		Aborted:       aborted != 0,
	}
	if endedAt.Valid {
		t := time.UnixMilli(endedAt.Int64).UTC()
		cycle.EndedAt = &t
	}
	return cycle, nil
}

func (s *sqliteStore) OpenCycle(ctx context.Context, cycle switchd.WarmInitCycle) error {
	start := time.Now()

	_, err := s.stmtOpenCycle.ExecContext(ctx,
		cycle.CycleID, int64(cycle.Device), string(cycle.Mode), string(cycle.SerdesUpgrade),
		boolToInt(cycle.UpgradeAgents), boolToInt(cycle.Fault), cycle.BegunAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to open cycle %s for device %d: %w", cycle.CycleID, cycle.Device, err)
	}

	s.logger.Debug("sql", "stmt", "OpenCycle",
		"args", []any{cycle.CycleID, cycle.Device, cycle.Mode},
		"duration_ms", msec(time.Since(start)))

	return nil
}

func (s *sqliteStore) CloseCycle(ctx context.Context, cycleID string, endedAt time.Time) error {
	start := time.Now()

	result, err := s.stmtCloseCycle.ExecContext(ctx, endedAt.UnixMilli(), cycleID)
	if err != nil {
		return fmt.Errorf("failed to close cycle %s: %w", cycleID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to close cycle %s: %w", cycleID, err)
	}
	if n == 0 {
		return fmt.Errorf("cycle %s: %w", cycleID, switchd.ErrNotFound)
	}

	s.logger.Debug("sql", "stmt", "CloseCycle",
		"args", []any{cycleID},
		"duration_ms", msec(time.Since(start)),
		"rows", n)

	return nil
}

func (s *sqliteStore) AbortOpenCycle(ctx context.Context, dev switchd.DeviceID) error {
	start := time.Now()

	result, err := s.stmtAbortOpenCycle.ExecContext(ctx, int64(dev))
	if err != nil {
		return fmt.Errorf("failed to abort open cycle for device %d: %w", dev, err)
	}
	n, _ := result.RowsAffected()

	s.logger.Debug("sql", "stmt", "AbortOpenCycle",
		"args", []any{dev},
		"duration_ms", msec(time.Since(start)),
		"rows", n)

	return nil
}

func (s *sqliteStore) MarkCycleFault(ctx context.Context, cycleID string, fault bool) error {
	start := time.Now()

	result, err := s.stmtMarkCycleFault.ExecContext(ctx, boolToInt(fault), cycleID)
	if err != nil {
		return fmt.Errorf("failed to mark fault on cycle %s: %w", cycleID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark fault on cycle %s: %w", cycleID, err)
	}
	if n == 0 {
		return fmt.Errorf("cycle %s: %w", cycleID, switchd.ErrNotFound)
	}

	s.logger.Debug("sql", "stmt", "MarkCycleFault",
		"args", []any{cycleID, fault},
		"duration_ms", msec(time.Since(start)),
		"rows", n)

	return nil
}

func (s *sqliteStore) GetOpenCycle(ctx context.Context, dev switchd.DeviceID) (switchd.WarmInitCycle, error) {
	start := time.Now()

	row := s.stmtGetOpenCycle.QueryRowContext(ctx, int64(dev))
	cycle, err := scanCycle(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return switchd.WarmInitCycle{}, fmt.Errorf("no open warm-init cycle for device %d: %w", dev, switchd.ErrNotFound)
	}
	if err != nil {
		return switchd.WarmInitCycle{}, fmt.Errorf("failed to get open cycle for device %d: %w", dev, err)
	}

	s.logger.Debug("sql", "stmt", "GetOpenCycle",
		"args", []any{dev},
		"duration_ms", msec(time.Since(start)),
		"rows", 1)

	return cycle, nil
}

func (s *sqliteStore) ListCycles(ctx context.Context, dev switchd.DeviceID) ([]switchd.WarmInitCycle, error) {
	start := time.Now()

	rows, err := s.stmtListCycles.QueryContext(ctx, int64(dev))
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles for device %d: %w", dev, err)
	}
	defer rows.Close()

	cycles, err := collectCycles(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles for device %d: %w", dev, err)
	}

	s.logger.Debug("sql", "stmt", "ListCycles",
		"args", []any{dev},
		"duration_ms", msec(time.Since(start)),
		"rows", len(cycles))

	return cycles, nil
}

func (s *sqliteStore) ListOpenCycles(ctx context.Context) ([]switchd.WarmInitCycle, error) {
	start := time.Now()

	rows, err := s.stmtListOpenCycles.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open cycles: %w", err)
	}
	defer rows.Close()

	cycles, err := collectCycles(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list open cycles: %w", err)
	}

	s.logger.Debug("sql", "stmt", "ListOpenCycles",
		"duration_ms", msec(time.Since(start)),
		"rows", len(cycles))

	return cycles, nil
}

func collectCycles(rows *sql.Rows) ([]switchd.WarmInitCycle, error) {
	var cycles []switchd.WarmInitCycle
	for rows.Next() {
		cycle, err := scanCycle(rows.Scan)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, cycle)
	}
	return cycles, rows.Err()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
