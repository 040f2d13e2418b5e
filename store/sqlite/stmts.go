package sqlite

import "fmt"

const (
	sqlSaveDevice = `
INSERT INTO devices (dev_id, family, profile_summary, added_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(dev_id) DO UPDATE SET
    family = excluded.family,
    profile_summary = excluded.profile_summary,
    added_at_ms = excluded.added_at_ms`

	sqlGetDevice = `
SELECT dev_id, family, profile_summary, added_at_ms
FROM devices
WHERE dev_id = ?`

	sqlListDevices = `
SELECT dev_id, family, profile_summary, added_at_ms
FROM devices
ORDER BY dev_id`

	sqlDeleteDevice = `
DELETE FROM devices WHERE dev_id = ?`
)

const (
	sqlOpenCycle = `
INSERT INTO warm_init_cycles
    (cycle_id, dev_id, mode, serdes_upgrade, upgrade_agents, fault, begun_at_ms, ended_at_ms, aborted)
VALUES (?, ?, ?, ?, ?, ?, ?, NULL, 0)`

	sqlCloseCycle = `
UPDATE warm_init_cycles
SET ended_at_ms = ?
WHERE cycle_id = ?`

	sqlAbortOpenCycle = `
UPDATE warm_init_cycles
SET aborted = 1
WHERE dev_id = ? AND ended_at_ms IS NULL AND aborted = 0`

	sqlMarkCycleFault = `
UPDATE warm_init_cycles
SET fault = ?
WHERE cycle_id = ?`

	sqlGetOpenCycle = `
SELECT cycle_id, dev_id, mode, serdes_upgrade, upgrade_agents, fault, begun_at_ms, ended_at_ms, aborted
FROM warm_init_cycles
WHERE dev_id = ? AND ended_at_ms IS NULL AND aborted = 0
ORDER BY begun_at_ms DESC
LIMIT 1`

	sqlListCycles = `
SELECT cycle_id, dev_id, mode, serdes_upgrade, upgrade_agents, fault, begun_at_ms, ended_at_ms, aborted
FROM warm_init_cycles
WHERE dev_id = ?
ORDER BY begun_at_ms DESC, cycle_id`

	sqlListOpenCycles = `
SELECT cycle_id, dev_id, mode, serdes_upgrade, upgrade_agents, fault, begun_at_ms, ended_at_ms, aborted
FROM warm_init_cycles
WHERE ended_at_ms IS NULL AND aborted = 0
ORDER BY dev_id, begun_at_ms`
)

const (
	sqlAppendOp = `
INSERT INTO oplog (ts_ms, op, dev_id, detail, outcome)
VALUES (?, ?, ?, ?, ?)`

	// SQLite treats a negative LIMIT as "no limit".
	sqlListOps = `
SELECT seq, ts_ms, op, dev_id, detail, outcome
FROM oplog
ORDER BY seq DESC
LIMIT ?`
)

// prepareStatements compiles all SQL statements once at open time.
func (s *sqliteStore) prepareStatements() error {
	if err := s.prepareDeviceStatements(); err != nil {
		return err
	}
	if err := s.prepareCycleStatements(); err != nil {
		return err
	}
	return s.prepareOpLogStatements()
}

func (s *sqliteStore) prepareDeviceStatements() error {
	var err error

	if s.stmtSaveDevice, err = s.db.Prepare(sqlSaveDevice); err != nil {
		return fmt.Errorf("prepare SaveDevice: %w", err)
	}
	if s.stmtGetDevice, err = s.db.Prepare(sqlGetDevice); err != nil {
		return fmt.Errorf("prepare GetDevice: %w", err)
	}
	if s.stmtListDevices, err = s.db.Prepare(sqlListDevices); err != nil {
		return fmt.Errorf("prepare ListDevices: %w", err)
	}
	if s.stmtDeleteDevice, err = s.db.Prepare(sqlDeleteDevice); err != nil {
		return fmt.Errorf("prepare DeleteDevice: %w", err)
	}

	return nil
}

func (s *sqliteStore) prepareCycleStatements() error {
	var err error

	if s.stmtOpenCycle, err = s.db.Prepare(sqlOpenCycle); err != nil {
		return fmt.Errorf("prepare OpenCycle: %w", err)
	}
	if s.stmtCloseCycle, err = s.db.Prepare(sqlCloseCycle); err != nil {
		return fmt.Errorf("prepare CloseCycle: %w", err)
	}
	if s.stmtAbortOpenCycle, err = s.db.Prepare(sqlAbortOpenCycle); err != nil {
		return fmt.Errorf("prepare AbortOpenCycle: %w", err)
	}
	if s.stmtMarkCycleFault, err = s.db.Prepare(sqlMarkCycleFault); err != nil {
		return fmt.Errorf("prepare MarkCycleFault: %w", err)
	}
	if s.stmtGetOpenCycle, err = s.db.Prepare(sqlGetOpenCycle); err != nil {
		return fmt.Errorf("prepare GetOpenCycle: %w", err)
	}
	if s.stmtListCycles, err = s.db.Prepare(sqlListCycles); err != nil {
		return fmt.Errorf("prepare ListCycles: %w", err)
	}
	if s.stmtListOpenCycles, err = s.db.Prepare(sqlListOpenCycles); err != nil {
		return fmt.Errorf("prepare ListOpenCycles: %w", err)
	}

	return nil
}

func (s *sqliteStore) prepareOpLogStatements() error {
	var err error

	if s.stmtAppendOp, err = s.db.Prepare(sqlAppendOp); err != nil {
		return fmt.Errorf("prepare AppendOp: %w", err)
	}
	if s.stmtListOps, err = s.db.Prepare(sqlListOps); err != nil {
		return fmt.Errorf("prepare ListOps: %w", err)
	}

	return nil
}
