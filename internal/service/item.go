package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"recordkit/internal/model"
	"recordkit/internal/record"
	"recordkit/internal/repository"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("item not found")
	ErrNameRequired = errors.New("name is required")
	ErrInvalidPrice = errors.New("price must be a non-negative number")
)

// ItemListResult is the service-level DTO for the item list.
type ItemListResult struct {
	Items []model.Item `json:"data"`
	Total int          `json:"total"`
}

// ItemService defines the use cases for handling items.
type ItemService interface {
	// Create validates and stores a new item.
	Create(ctx context.Context, name string, price float64) (*model.Item, error)

	// List returns every item.
	List(ctx context.Context) (*ItemListResult, error)

	// Rows returns the raw table rows.
	Rows(ctx context.Context) ([]record.Row, error)

	// Get returns a single item by its ID.
	Get(ctx context.Context, id int64) (*model.Item, error)

	// Update overwrites the name and price of an existing item.
	Update(ctx context.Context, id int64, name string, price float64) (*model.Item, error)

	// Reprice sets one price on every item.
	Reprice(ctx context.Context, price float64) (record.Result, error)
}

// itemService is a concrete implementation of ItemService.
type itemService struct {
	repo repository.ItemRepository
}

// NewItemService constructs a new ItemService.
func NewItemService(repo repository.ItemRepository) ItemService {
	return &itemService{repo: repo}
}

func (s *itemService) Create(ctx context.Context, name string, price float64) (*model.Item, error) {
	name, err := validate(name, price)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.Create(ctx, &model.Item{Name: name, Price: price})
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

func (s *itemService) List(ctx context.Context) (*ItemListResult, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ItemListResult{Items: items, Total: len(items)}, nil
}

func (s *itemService) Rows(ctx context.Context) ([]record.Row, error) {
	return s.repo.Rows(ctx)
}

func (s *itemService) Get(ctx context.Context, id int64) (*model.Item, error) {
	if id <= 0 {
		return nil, ErrIDRequired
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *itemService) Update(ctx context.Context, id int64, name string, price float64) (*model.Item, error) {
	if id <= 0 {
		return nil, ErrIDRequired
	}
	name, err := validate(name, price)
	if err != nil {
		return nil, err
	}
	item := &model.Item{ID: id, Name: name, Price: price}
	if _, err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return item, nil
}

func (s *itemService) Reprice(ctx context.Context, price float64) (record.Result, error) {
	if !validPrice(price) {
		return record.Result{}, ErrInvalidPrice
	}
	return s.repo.Reprice(ctx, price)
}

func validate(name string, price float64) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if !validPrice(price) {
		return "", ErrInvalidPrice
	}
	return name, nil
}

func validPrice(price float64) bool {
	return price >= 0 && !math.IsInf(price, 0) && !math.IsNaN(price)
}
