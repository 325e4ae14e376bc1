package mocks

import (
	"context"

	"recordkit/internal/model"
	"recordkit/internal/record"
	"recordkit/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockItemService struct {
	mock.Mock
}

func (m *MockItemService) Create(ctx context.Context, name string, price float64) (*model.Item, error) {
	args := m.Called(ctx, name, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Item), args.Error(1)
}

func (m *MockItemService) List(ctx context.Context) (*service.ItemListResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ItemListResult), args.Error(1)
}

func (m *MockItemService) Rows(ctx context.Context) ([]record.Row, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]record.Row), args.Error(1)
}

func (m *MockItemService) Get(ctx context.Context, id int64) (*model.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Item), args.Error(1)
}

func (m *MockItemService) Update(ctx context.Context, id int64, name string, price float64) (*model.Item, error) {
	args := m.Called(ctx, id, name, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Item), args.Error(1)
}

func (m *MockItemService) Reprice(ctx context.Context, price float64) (record.Result, error) {
	args := m.Called(ctx, price)
	return args.Get(0).(record.Result), args.Error(1)
}
