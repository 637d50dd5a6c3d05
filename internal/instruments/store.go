package instruments

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store 把证券主数据缓存到本地 SQLite，避免每次启动都全量下载。
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewStore 打开（必要时创建）证券缓存库。
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("instrument db path 不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureInstrumentSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Close 关闭底层 DB。
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensureInstrumentSchema(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS instruments (
    segment           TEXT NOT NULL,
    security_id       TEXT NOT NULL,
    symbol_name       TEXT,
    display_name      TEXT,
    exchange_segment  TEXT,
    instrument_type   TEXT,
    series            TEXT,
    lot_size          REAL DEFAULT 0,
    tick_size         REAL DEFAULT 0,
    expiry_date       TEXT,
    strike_price      REAL DEFAULT 0,
    option_type       TEXT,
    underlying_symbol TEXT,
    PRIMARY KEY (segment, security_id)
);
CREATE INDEX IF NOT EXISTS idx_instruments_symbol ON instruments(symbol_name);
CREATE TABLE IF NOT EXISTS instrument_refresh (
    segment      TEXT PRIMARY KEY,
    refreshed_at INTEGER NOT NULL
);`
	_, err := db.Exec(ddl)
	return err
}

// ReplaceSegment 以单事务整段替换缓存，并记录刷新时间。
func (s *Store) ReplaceSegment(ctx context.Context, segment string, rows []Instrument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("instrument store 未初始化")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM instruments WHERE segment = ?", segment); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO instruments
        (segment, security_id, symbol_name, display_name, exchange_segment, instrument_type,
         series, lot_size, tick_size, expiry_date, strike_price, option_type, underlying_symbol)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, segment, r.SecurityID, r.SymbolName, r.DisplayName,
			r.ExchangeSegment, r.InstrumentType, r.Series, r.LotSize, r.TickSize,
			r.ExpiryDate, r.StrikePrice, r.OptionType, r.UnderlyingSymbol); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO instrument_refresh (segment, refreshed_at) VALUES (?, ?)
         ON CONFLICT(segment) DO UPDATE SET refreshed_at = excluded.refreshed_at`,
		segment, time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadSegment 读出整段缓存。
func (s *Store) LoadSegment(ctx context.Context, segment string) ([]Instrument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("instrument store 未初始化")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT security_id, symbol_name, display_name,
        exchange_segment, instrument_type, series, lot_size, tick_size, expiry_date,
        strike_price, option_type, underlying_symbol
        FROM instruments WHERE segment = ?`, segment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Instrument
	for rows.Next() {
		var r Instrument
		if err := rows.Scan(&r.SecurityID, &r.SymbolName, &r.DisplayName, &r.ExchangeSegment,
			&r.InstrumentType, &r.Series, &r.LotSize, &r.TickSize, &r.ExpiryDate,
			&r.StrikePrice, &r.OptionType, &r.UnderlyingSymbol); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RefreshedAt 返回段的上次刷新时间；从未刷新时 ok=false。
func (s *Store) RefreshedAt(ctx context.Context, segment string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return time.Time{}, false
	}
	var unix int64
	err := s.db.QueryRowContext(ctx,
		"SELECT refreshed_at FROM instrument_refresh WHERE segment = ?", segment).Scan(&unix)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
