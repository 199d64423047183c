package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"TickSentinel/internal/model"
)

// SQLiteRecorder persists records to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	log *zap.Logger
	mu  sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets readers query while the collector writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=1000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tick_records (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			time      TEXT    NOT NULL,
			symbol    TEXT    NOT NULL,
			ask       REAL,
			bid       REAL,
			epoch     INTEGER NOT NULL,
			pip_size  REAL,
			open      REAL    NOT NULL,
			price     REAL    NOT NULL,
			high      REAL    NOT NULL,
			low       REAL    NOT NULL,
			close     REAL    NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tick_records_symbol_epoch ON tick_records(symbol, epoch)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Append(ctx context.Context, symbol string, rec model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO tick_records
		(time, symbol, ask, bid, epoch, pip_size, open, price, high, low, close)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		rec.FormattedTime(), symbol, rec.Ask, rec.Bid, rec.Epoch, rec.PipSize,
		rec.Open, rec.Price, rec.High, rec.Low, rec.Close,
	)
	return err
}

// Records returns all stored records for symbol in insertion order.
func (r *SQLiteRecorder) Records(ctx context.Context, symbol string) ([]model.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol, epoch, price, open, high, low, close, ask, bid, pip_size
		FROM tick_records WHERE symbol = ? ORDER BY id`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var rec model.Record
		if err := rows.Scan(&rec.Symbol, &rec.Epoch, &rec.Price, &rec.Open, &rec.High, &rec.Low,
			&rec.Close, &rec.Ask, &rec.Bid, &rec.PipSize); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
