package repository

import (
	"context"

	"recordkit/internal/model"
	"recordkit/internal/record"
)

// ItemRepository defines data access for items.
// No business logic here, strictly persistence operations.
type ItemRepository interface {
	// Create inserts a new item and returns it with its generated ID.
	Create(ctx context.Context, item *model.Item) (*model.Item, error)

	// FindByID returns an item by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id int64) (*model.Item, error)

	// List returns every item in table order.
	List(ctx context.Context) ([]model.Item, error)

	// Rows returns every row of the items table as column/value maps.
	Rows(ctx context.Context) ([]record.Row, error)

	// Update writes item over the stored row with the same ID, or returns sql.ErrNoRows.
	Update(ctx context.Context, item *model.Item) (record.Result, error)

	// Reprice sets the price of every item with bulk updates of loaded ids.
	Reprice(ctx context.Context, price float64) (record.Result, error)
}
