package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/breakout_monitor/internal/domain"
)

// SQLiteStore journals dispatched alerts. Use ":memory:" to keep the journal
// for the process lifetime only.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			tier TEXT NOT NULL,
			direction TEXT NOT NULL,
			price REAL NOT NULL,
			reference REAL NOT NULL,
			gain_24h REAL NOT NULL,
			persistent BOOLEAN NOT NULL DEFAULT 0,
			setup TEXT,
			delivered BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_symbol ON alerts(symbol);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveAlert(ctx context.Context, alert *domain.Alert) error {
	var setup sql.NullString
	if alert.Setup != nil {
		raw, err := json.Marshal(alert.Setup)
		if err != nil {
			return fmt.Errorf("marshal setup: %w", err)
		}
		setup = sql.NullString{String: string(raw), Valid: true}
	}

	query := `INSERT INTO alerts (id, symbol, tier, direction, price, reference, gain_24h, persistent, setup, delivered, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		alert.ID, alert.Symbol, alert.Tier.String(), string(alert.Cross), alert.Price, alert.Reference,
		alert.Gain24h, alert.Persistent, setup, alert.Delivered, alert.CreatedAt.UTC(),
	)
	return err
}

// ListAlerts returns the most recent alerts, newest first.
func (s *SQLiteStore) ListAlerts(ctx context.Context, limit int) ([]*domain.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, symbol, tier, direction, price, reference, gain_24h, persistent, setup, delivered, created_at
			  FROM alerts ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		var (
			a         domain.Alert
			tier      string
			cross     string
			setup     sql.NullString
			createdAt time.Time
		)
		if err := rows.Scan(&a.ID, &a.Symbol, &tier, &cross, &a.Price, &a.Reference, &a.Gain24h,
			&a.Persistent, &setup, &a.Delivered, &createdAt); err != nil {
			return nil, err
		}
		a.Tier = parseTier(tier)
		a.Cross = domain.Cross(cross)
		a.CreatedAt = createdAt
		if setup.Valid {
			var m domain.SetupMetrics
			if err := json.Unmarshal([]byte(setup.String), &m); err != nil {
				return nil, fmt.Errorf("decode setup of %s: %w", a.ID, err)
			}
			a.Setup = &m
		}
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func parseTier(s string) domain.Tier {
	switch s {
	case "mid":
		return domain.TierMid
	case "low":
		return domain.TierLow
	default:
		return domain.TierLarge
	}
}
