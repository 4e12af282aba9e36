package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/itemstore/internal/core/domain"
	"github.com/rl1809/itemstore/internal/port"
)

type ItemService struct {
	items    port.ItemRepository
	sequence port.SequenceAllocator
	now      func() time.Time
}

func NewItemService(items port.ItemRepository, sequence port.SequenceAllocator) *ItemService {
	return &ItemService{
		items:    items,
		sequence: sequence,
		now:      millisNow,
	}
}

// millisNow matches the precision every item store keeps.
func millisNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (s *ItemService) Create(ctx context.Context, name, description string) (*domain.Item, error) {
	return s.Save(ctx, domain.Item{Name: name, Description: description})
}

// Save persists a new item. An id is allocated only when the item does not
// already carry one; once allocated it is never returned to the sequence.
func (s *ItemService) Save(ctx context.Context, item domain.Item) (*domain.Item, error) {
	name, description, err := validateFields(item.Name, item.Description)
	if err != nil {
		return nil, err
	}
	item.Name = name
	item.Description = description

	if item.ItemID == 0 {
		id, err := s.sequence.NextValue(ctx, domain.ItemSequence)
		if err != nil {
			return nil, persistenceError("allocate item id", err)
		}
		item.ItemID = id
	}

	if item.InternalKey == "" {
		item.InternalKey = uuid.NewString()
	}
	now := s.now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	if err := s.items.Create(ctx, item); err != nil {
		log.Printf("item id %d consumed without a stored item: %v", item.ItemID, err)
		return nil, persistenceError("store item", err)
	}

	return &item, nil
}

func (s *ItemService) FindAll(ctx context.Context) ([]domain.Item, error) {
	items, err := s.items.FindAll(ctx)
	if err != nil {
		return nil, persistenceError("list items", err)
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

func (s *ItemService) FindByItemID(ctx context.Context, itemID int64) (*domain.Item, error) {
	item, err := s.items.FindByItemID(ctx, itemID)
	if err != nil {
		return nil, lookupError(itemID, err)
	}
	return item, nil
}

func (s *ItemService) Update(ctx context.Context, itemID int64, name, description string) (*domain.Item, error) {
	item, err := s.items.FindByItemID(ctx, itemID)
	if err != nil {
		return nil, lookupError(itemID, err)
	}

	name, description, err = validateFields(name, description)
	if err != nil {
		return nil, err
	}

	item.Name = name
	item.Description = description
	item.UpdatedAt = s.now()

	if err := s.items.Update(ctx, *item); err != nil {
		return nil, lookupError(itemID, err)
	}

	return item, nil
}

func (s *ItemService) Delete(ctx context.Context, itemID int64) (*domain.Item, error) {
	item, err := s.items.Delete(ctx, itemID)
	if err != nil {
		return nil, lookupError(itemID, err)
	}
	return item, nil
}

func (s *ItemService) Ping(ctx context.Context) error {
	return s.items.Ping(ctx)
}

func validateFields(name, description string) (string, string, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return "", "", fmt.Errorf("%w: %s required", domain.ErrValidation, strings.Join(missing, " and "))
	}

	return name, description, nil
}

func lookupError(itemID int64, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("item %d: %w", itemID, domain.ErrNotFound)
	}
	return persistenceError(fmt.Sprintf("item %d", itemID), err)
}

func persistenceError(op string, err error) error {
	if errors.Is(err, domain.ErrPersistence) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}
