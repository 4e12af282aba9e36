package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/itemstore/internal/core/domain"
)

const mysqlItemColumns = `internal_key, item_id, name, description, created_at, updated_at`

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// NextValue relies on LAST_INSERT_ID(expr): the driver reports expr as the
// statement's insert id, so the new value comes back without a second query
// on a possibly different pooled connection.
func (m *MySQLAdapter) NextValue(ctx context.Context, name string) (int64, error) {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, LAST_INSERT_ID(1))
		ON DUPLICATE KEY UPDATE value = LAST_INSERT_ID(value + 1)`,
		name,
	)
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w: %w", name, domain.ErrPersistence, err)
	}

	value, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w: %w", name, domain.ErrPersistence, err)
	}

	return value, nil
}

func (m *MySQLAdapter) Create(ctx context.Context, item domain.Item) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO items (`+mysqlItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.InternalKey, item.ItemID, item.Name, item.Description,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}

	return nil
}

func (m *MySQLAdapter) FindAll(ctx context.Context) ([]domain.Item, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+mysqlItemColumns+`
		FROM items ORDER BY created_at DESC, item_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		item, err := scanMySQLItem(rows)
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

func (m *MySQLAdapter) FindByItemID(ctx context.Context, itemID int64) (*domain.Item, error) {
	item, err := scanMySQLItem(m.db.QueryRowContext(ctx, `
		SELECT `+mysqlItemColumns+`
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

func (m *MySQLAdapter) Update(ctx context.Context, item domain.Item) error {
	// Existence is checked separately: MySQL reports zero affected rows when
	// the new values equal the stored ones.
	var exists int
	err := m.db.QueryRowContext(ctx, `SELECT 1 FROM items WHERE item_id = ?`, item.ItemID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query item: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
		UPDATE items
		SET name = ?, description = ?, updated_at = ?
		WHERE item_id = ?`,
		item.Name, item.Description, item.UpdatedAt, item.ItemID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	return nil
}

func (m *MySQLAdapter) Delete(ctx context.Context, itemID int64) (*domain.Item, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	item, err := scanMySQLItem(tx.QueryRowContext(ctx, `
		SELECT `+mysqlItemColumns+`
		FROM items WHERE item_id = ? FOR UPDATE`, itemID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE item_id = ?`, itemID); err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return item, nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func scanMySQLItem(row rowScanner) (*domain.Item, error) {
	var item domain.Item
	if err := row.Scan(&item.InternalKey, &item.ItemID, &item.Name, &item.Description, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

func (m *MySQLAdapter) Counter(ctx context.Context, name string) (domain.Counter, error) {
	counter := domain.Counter{Name: name}
	err := m.db.QueryRowContext(ctx, `SELECT value FROM counters WHERE name = ?`, name).Scan(&counter.Value)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.Counter{}, fmt.Errorf("read counter %s: %w: %w", name, domain.ErrPersistence, err)
	}

	return counter, nil
}
