package port

import (
	"context"

	"github.com/rl1809/itemstore/internal/core/domain"
)

type ItemRepository interface {
	// Create inserts a fully populated item; ItemID must already be assigned
	Create(ctx context.Context, item domain.Item) error

	// FindAll returns every item, newest first
	FindAll(ctx context.Context) ([]domain.Item, error)

	// FindByItemID returns domain.ErrNotFound when no item carries the id
	FindByItemID(ctx context.Context, itemID int64) (*domain.Item, error)

	// Update overwrites name, description and updated_at of the item with item.ItemID
	Update(ctx context.Context, item domain.Item) error

	// Delete removes the item and returns what was stored
	Delete(ctx context.Context, itemID int64) (*domain.Item, error)

	Ping(ctx context.Context) error
}
