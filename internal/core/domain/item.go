package domain

import "time"

// ItemSequence is the counter name used to allocate item ids.
const ItemSequence = "itemId"

type Item struct {
	InternalKey string    `json:"-"`
	ItemID      int64     `json:"itemId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Counter struct {
	Name  string
	Value int64 // last value handed out
}
