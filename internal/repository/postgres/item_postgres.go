package postgres

import (
	"context"
	"database/sql"

	"recordkit/internal/model"
	"recordkit/internal/record"
	"recordkit/internal/repository"
)

// ItemPostgres is a PostgreSQL implementation of repository.ItemRepository
// built on the record layer.
type ItemPostgres struct {
	items *record.Model[model.Item]
}

// NewItemPostgres creates a new ItemPostgres repository.
func NewItemPostgres(items *record.Model[model.Item]) *ItemPostgres {
	return &ItemPostgres{items: items}
}

var _ repository.ItemRepository = (*ItemPostgres)(nil)

// Create inserts a new item row and returns the stored record.
func (r *ItemPostgres) Create(ctx context.Context, item *model.Item) (*model.Item, error) {
	rec := r.items.New(model.Item{Name: item.Name, Price: item.Price})
	if _, err := rec.Save(ctx); err != nil {
		return nil, err
	}
	out := rec.Entity
	return &out, nil
}

// FindByID fetches a single item by its ID.
func (r *ItemPostgres) FindByID(ctx context.Context, id int64) (*model.Item, error) {
	rec, err := r.items.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.Loaded() {
		return nil, sql.ErrNoRows
	}
	out := rec.Entity
	return &out, nil
}

// List returns all items.
func (r *ItemPostgres) List(ctx context.Context) ([]model.Item, error) {
	rec, err := r.items.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	items := rec.Entities()
	if items == nil {
		items = make([]model.Item, 0)
	}
	return items, nil
}

// Rows returns the raw rows of the items table.
func (r *ItemPostgres) Rows(ctx context.Context) ([]record.Row, error) {
	return r.items.GetAll(ctx)
}

// Update loads the row by ID and saves the new values over it.
func (r *ItemPostgres) Update(ctx context.Context, item *model.Item) (record.Result, error) {
	rec, err := r.items.Find(ctx, item.ID)
	if err != nil {
		return record.Result{}, err
	}
	if !rec.Loaded() {
		return record.Result{}, sql.ErrNoRows
	}
	rec.Entity.Name = item.Name
	rec.Entity.Price = item.Price
	return rec.Save(ctx)
}

// Reprice sets one price on every item. The record layer batches the ids so
// large tables stay under the bind parameter limit. An empty table is not an error.
func (r *ItemPostgres) Reprice(ctx context.Context, price float64) (record.Result, error) {
	rec, err := r.items.FindAll(ctx)
	if err != nil {
		return record.Result{}, err
	}
	if !rec.Loaded() {
		return record.Result{Op: record.OpUpdate}, nil
	}
	rec.Entity.Price = price
	return rec.UpdateAll(ctx, "price")
}
