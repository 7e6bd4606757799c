package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/bmex-dev/leveldensity/internal/storage/models"
	"github.com/bmex-dev/leveldensity/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lookups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		z INTEGER NOT NULL,
		a INTEGER NOT NULL,
		folder_found INTEGER NOT NULL DEFAULT 0,
		files INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		index_rows INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lookups_isotope ON lookups(z, a);
	CREATE INDEX IF NOT EXISTS idx_lookups_created ON lookups(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertLookup(ctx context.Context, rec *models.LookupRecord) error {
	query := `
		INSERT INTO lookups (session_id, z, a, folder_found, files, skipped, index_rows, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	folderFound := 0
	if rec.FolderFound {
		folderFound = 1
	}

	res, err := c.db.ExecContext(ctx, query,
		rec.SessionID,
		rec.Z,
		rec.A,
		folderFound,
		rec.Files,
		rec.Skipped,
		rec.IndexRows,
		rec.LatencyMS,
		rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert lookup: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}

	logger.Debug("Lookup recorded", zap.Int64("id", rec.ID), zap.Int("z", rec.Z), zap.Int("a", rec.A))
	return nil
}

// RecentLookups returns up to limit lookups, newest first.
func (c *Client) RecentLookups(ctx context.Context, limit int) ([]models.LookupRecord, error) {
	query := `
		SELECT id, session_id, z, a, folder_found, files, skipped, index_rows, latency_ms, created_at
		FROM lookups
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get lookups: %w", err)
	}
	defer rows.Close()

	records := []models.LookupRecord{}
	for rows.Next() {
		var r models.LookupRecord
		var folderFound int
		var createdAt int64

		err := rows.Scan(&r.ID, &r.SessionID, &r.Z, &r.A, &folderFound, &r.Files, &r.Skipped, &r.IndexRows, &r.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.FolderFound = folderFound == 1
		r.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lookups: %w", err)
	}

	return records, nil
}
