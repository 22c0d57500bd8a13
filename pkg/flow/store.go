package flow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	_ "modernc.org/sqlite"
)

// DefaultDatabase is the SQLite file the flow recorder writes to.
const DefaultDatabase = "experimental-flow.db"

// dynamicNumRow is the single logical dynamic_num row.
const dynamicNumRow = 1

var schema = []string{
	`CREATE TABLE IF NOT EXISTS dynamic_num (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dynamic_id INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS experiment_flow (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_time INTEGER,
		action_id TEXT,
		action_time INTEGER
	)`,
}

// ErrNoDynamicNum is returned when dynamic_num has no row 1.
var ErrNoDynamicNum = errors.New("❌ dynamic_num row missing")

// DynamicNum is one dynamic_num row.
type DynamicNum struct {
	ID        int64
	DynamicID int
}

// Store wraps the experiment flow database.
type Store struct {
	db       *sql.DB
	capacity uint64
	logger   hclog.Logger
}

// Open opens the SQLite database at path and ensures both tables exist.
// capacity is the number of rows a finished flow is padded to; 0 means
// MaxActions.
func Open(ctx context.Context, path string, capacity uint64, logger hclog.Logger) (*Store, error) {
	if capacity == 0 {
		capacity = MaxActions
	}
	if _, err := EncodeMaxActionCount(capacity); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening flow database: %w", err)
	}
	// Single-user local file.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating flow tables: %w", err)
		}
	}
	logger = logger.Named("flow")
	logger.Debug("🗄️ Flow database ready", "path", path)
	return &Store{db: db, capacity: capacity, logger: logger}, nil
}

// Capacity is the padded flow length, written as the max action count of
// every dynamic table built from this store.
func (s *Store) Capacity() uint64 {
	return s.capacity
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertRecord appends a flow record. When the record ends the flow
// (ActionTime == EndOfFlow) the table is padded with Filler rows up to
// the store capacity in the same transaction.
func (s *Store) InsertRecord(ctx context.Context, startTime uint32, actionID string, actionTime uint16) (int64, error) {
	actionID = strings.ToUpper(actionID)
	if _, err := EncodeActionID(actionID); err != nil {
		return 0, err
	}

	var id int64
	err := withTx(ctx, s.db, func(tx Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO experiment_flow (start_time, action_id, action_time) VALUES (?, ?, ?)`,
			int64(startTime), actionID, int64(actionTime))
		if err != nil {
			return fmt.Errorf("inserting flow record: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}

		if actionTime != EndOfFlow {
			return nil
		}
		var count uint64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiment_flow`).Scan(&count); err != nil {
			return fmt.Errorf("counting flow records: %w", err)
		}
		for i := count; i < s.capacity; i++ {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO experiment_flow (start_time, action_id, action_time) VALUES (?, ?, ?)`,
				int64(Filler.StartTime), Filler.ActionID, int64(Filler.ActionTime)); err != nil {
				return fmt.Errorf("padding flow: %w", err)
			}
		}
		if count < s.capacity {
			s.logger.Info("🧱 Flow padded", "records", count, "filler", s.capacity-count)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debug("➕ Flow record inserted", "id", id, "start_time", startTime, "action_id", actionID, "action_time", actionTime)
	return id, nil
}

// Records returns every flow record in insertion order.
func (s *Store) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_time, action_id, action_time FROM experiment_flow ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying flow records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r          Record
			startTime  int64
			actionTime int64
		)
		if err := rows.Scan(&r.ID, &startTime, &r.ActionID, &actionTime); err != nil {
			return nil, fmt.Errorf("scanning flow record: %w", err)
		}
		r.StartTime = uint32(startTime)
		r.ActionTime = uint16(actionTime)
		records = append(records, r)
	}
	return records, rows.Err()
}

// InsertDynamicNum appends a dynamic_num row.
func (s *Store) InsertDynamicNum(ctx context.Context, dynamicID int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO dynamic_num (dynamic_id) VALUES (?)`, dynamicID)
	if err != nil {
		return 0, fmt.Errorf("inserting dynamic_num: %w", err)
	}
	return res.LastInsertId()
}

// DynamicNum returns row 1 of dynamic_num, or ErrNoDynamicNum.
func (s *Store) DynamicNum(ctx context.Context) (DynamicNum, error) {
	var n DynamicNum
	err := s.db.QueryRowContext(ctx,
		`SELECT id, dynamic_id FROM dynamic_num WHERE id = ?`, dynamicNumRow).Scan(&n.ID, &n.DynamicID)
	if errors.Is(err, sql.ErrNoRows) {
		return DynamicNum{}, ErrNoDynamicNum
	}
	if err != nil {
		return DynamicNum{}, fmt.Errorf("reading dynamic_num: %w", err)
	}
	return n, nil
}

// DynamicNums returns every dynamic_num row.
func (s *Store) DynamicNums(ctx context.Context) ([]DynamicNum, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, dynamic_id FROM dynamic_num ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying dynamic_num: %w", err)
	}
	defer rows.Close()

	var nums []DynamicNum
	for rows.Next() {
		var n DynamicNum
		if err := rows.Scan(&n.ID, &n.DynamicID); err != nil {
			return nil, err
		}
		nums = append(nums, n)
	}
	return nums, rows.Err()
}

// IncrementDynamicID adds one to the dynamic id of row 1.
func (s *Store) IncrementDynamicID(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE dynamic_num SET dynamic_id = dynamic_id + 1 WHERE id = ?`, dynamicNumRow)
	if err != nil {
		return fmt.Errorf("incrementing dynamic id: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoDynamicNum
	}
	return nil
}

// SetDynamicID sets the dynamic id of row 1, creating the row if needed.
func (s *Store) SetDynamicID(ctx context.Context, dynamicID int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dynamic_num (id, dynamic_id) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET dynamic_id = excluded.dynamic_id`,
		dynamicNumRow, dynamicID)
	if err != nil {
		return fmt.Errorf("setting dynamic id: %w", err)
	}
	return nil
}
