package mocks

import (
	"context"

	"recordkit/internal/model"
	"recordkit/internal/record"
	"github.com/stretchr/testify/mock"
)

type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Create(ctx context.Context, item *model.Item) (*model.Item, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Item), args.Error(1)
}

func (m *MockItemRepository) FindByID(ctx context.Context, id int64) (*model.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Item), args.Error(1)
}

func (m *MockItemRepository) List(ctx context.Context) ([]model.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Item), args.Error(1)
}

func (m *MockItemRepository) Rows(ctx context.Context) ([]record.Row, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]record.Row), args.Error(1)
}

func (m *MockItemRepository) Update(ctx context.Context, item *model.Item) (record.Result, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(record.Result), args.Error(1)
}

func (m *MockItemRepository) Reprice(ctx context.Context, price float64) (record.Result, error) {
	args := m.Called(ctx, price)
	return args.Get(0).(record.Result), args.Error(1)
}
