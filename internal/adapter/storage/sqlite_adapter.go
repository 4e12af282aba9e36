package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rl1809/itemstore/internal/core/domain"
)

const sqliteItemColumns = `internal_key, item_id, name, description, created_at, updated_at`

type SQLiteAdapter struct {
	db *sql.DB
}

// OpenSQLite opens the database file at path, creating parent directories
// and the schema when missing.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite has a single writer; one connection keeps writers from tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := ApplySchema(ctx, db, "sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func NewSQLiteAdapter(db *sql.DB) *SQLiteAdapter {
	return &SQLiteAdapter{db: db}
}

func (s *SQLiteAdapter) NextValue(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = counters.value + 1
		RETURNING value`, name,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w: %w", name, domain.ErrPersistence, err)
	}

	return value, nil
}

func (s *SQLiteAdapter) Create(ctx context.Context, item domain.Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (`+sqliteItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.InternalKey, item.ItemID, item.Name, item.Description,
		toMillis(item.CreatedAt), toMillis(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}

	return nil
}

func (s *SQLiteAdapter) FindAll(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteItemColumns+`
		FROM items ORDER BY created_at DESC, item_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		item, err := scanSQLiteItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return items, nil
}

func (s *SQLiteAdapter) FindByItemID(ctx context.Context, itemID int64) (*domain.Item, error) {
	item, err := scanSQLiteItem(s.db.QueryRowContext(ctx, `
		SELECT `+sqliteItemColumns+`
		FROM items WHERE item_id = ?`, itemID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}

	return item, nil
}

func (s *SQLiteAdapter) Update(ctx context.Context, item domain.Item) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET name = ?, description = ?, updated_at = ?
		WHERE item_id = ?`,
		item.Name, item.Description, toMillis(item.UpdatedAt), item.ItemID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (s *SQLiteAdapter) Delete(ctx context.Context, itemID int64) (*domain.Item, error) {
	item, err := scanSQLiteItem(s.db.QueryRowContext(ctx, `
		DELETE FROM items WHERE item_id = ?
		RETURNING `+sqliteItemColumns, itemID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}

	return item, nil
}

func (s *SQLiteAdapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteItem(row rowScanner) (*domain.Item, error) {
	var (
		item               domain.Item
		createdAt, updated int64
	)
	if err := row.Scan(&item.InternalKey, &item.ItemID, &item.Name, &item.Description, &createdAt, &updated); err != nil {
		return nil, err
	}
	item.CreatedAt = fromMillis(createdAt)
	item.UpdatedAt = fromMillis(updated)
	return &item, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func (s *SQLiteAdapter) Counter(ctx context.Context, name string) (domain.Counter, error) {
	counter := domain.Counter{Name: name}
	err := s.db.QueryRowContext(ctx, `SELECT value FROM counters WHERE name = ?`, name).Scan(&counter.Value)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.Counter{}, fmt.Errorf("read counter %s: %w: %w", name, domain.ErrPersistence, err)
	}

	return counter, nil
}
