package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/memotag/memotag-server/internal/errors"
	"github.com/memotag/memotag-server/internal/model"
	"github.com/memotag/memotag-server/internal/repository"
	"github.com/memotag/memotag-server/internal/sse"
)

func newItemService(itemRepo *mockItemRepo, messageRepo *mockMessageRepo, broker *sse.Broker) *ItemService {
	if broker == nil {
		broker = sse.NewBroker(nil)
	}
	return NewItemService(itemRepo, messageRepo, broker, "https://memo.example.com")
}

func TestItemService_CreateItem(t *testing.T) {
	t.Run("creates item with defaults", func(t *testing.T) {
		itemRepo := new(mockItemRepo)
		itemRepo.On("Create", mock.Anything, model.CreateItemParams{
			ItemID: "drill-01",
			Name:   "Drill Press",
			Status: model.ItemStatusWorking,
		}).Return(&model.Item{ItemID: "drill-01", Name: "Drill Press", Status: model.ItemStatusWorking}, nil)

		svc := newItemService(itemRepo, new(mockMessageRepo), nil)
		item, err := svc.CreateItem(context.Background(), CreateItemParams{
			ItemID: "drill-01",
			Name:   "Drill Press",
		})

		require.NoError(t, err)
		assert.Equal(t, model.ItemStatusWorking, item.Status)
		itemRepo.AssertExpectations(t)
	})

	t.Run("trims name and location", func(t *testing.T) {
		itemRepo := new(mockItemRepo)
		itemRepo.On("Create", mock.Anything, model.CreateItemParams{
			ItemID:   "drill-01",
			Name:     "Drill Press",
			Location: "Hall B",
			Status:   model.ItemStatusIdle,
		}).Return(&model.Item{ItemID: "drill-01"}, nil)

		svc := newItemService(itemRepo, new(mockMessageRepo), nil)
		_, err := svc.CreateItem(context.Background(), CreateItemParams{
			ItemID:   "drill-01",
			Name:     "  Drill Press  ",
			Location: " Hall B ",
			Status:   "Idle",
		})

		require.NoError(t, err)
		itemRepo.AssertExpectations(t)
	})

	t.Run("rejects missing itemId", func(t *testing.T) {
		svc := newItemService(new(mockItemRepo), new(mockMessageRepo), nil)
		_, err := svc.CreateItem(context.Background(), CreateItemParams{Name: "Drill"})
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})

	t.Run("rejects invalid slug", func(t *testing.T) {
		svc := newItemService(new(mockItemRepo), new(mockMessageRepo), nil)
		_, err := svc.CreateItem(context.Background(), CreateItemParams{ItemID: "Drill 01!", Name: "Drill"})
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("rejects blank name", func(t *testing.T) {
		svc := newItemService(new(mockItemRepo), new(mockMessageRepo), nil)
		_, err := svc.CreateItem(context.Background(), CreateItemParams{ItemID: "drill-01", Name: "   "})
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		svc := newItemService(new(mockItemRepo), new(mockMessageRepo), nil)
		_, err := svc.CreateItem(context.Background(), CreateItemParams{ItemID: "drill-01", Name: "Drill", Status: "Exploded"})
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("maps duplicate slug to conflict", func(t *testing.T) {
		itemRepo := new(mockItemRepo)
		itemRepo.On("Create", mock.Anything, mock.Anything).Return(nil, repository.ErrDuplicateItemID)

		svc := newItemService(itemRepo, new(mockMessageRepo), nil)
		_, err := svc.CreateItem(context.Background(), CreateItemParams{ItemID: "drill-01", Name: "Drill"})
		assert.Equal(t, apperrors.ErrCodeAlreadyExists, apperrors.GetCode(err))
	})
}

func TestItemService_UpdateStatus(t *testing.T) {
	t.Run("updates and broadcasts", func(t *testing.T) {
		itemRepo := new(mockItemRepo)
		itemRepo.On("UpdateStatus", mock.Anything, "drill-01", model.ItemStatusBroken).
			Return(&model.Item{ItemID: "drill-01", Status: model.ItemStatusBroken, UpdatedAt: time.Now()}, nil)

		broker := sse.NewBroker(nil)
		defer broker.Close()
		adminClient := broker.Subscribe(sse.AdminStream)
		itemClient := broker.Subscribe(sse.ItemStream("drill-01"))

		svc := newItemService(itemRepo, new(mockMessageRepo), broker)
		item, err := svc.UpdateStatus(context.Background(), "drill-01", "Broken")

		require.NoError(t, err)
		assert.Equal(t, model.ItemStatusBroken, item.Status)

		assert.Equal(t, sse.EventStatusUpdate, (<-itemClient.Events).Type)
		assert.Equal(t, sse.EventStatusUpdate, (<-adminClient.Events).Type)
	})

	t.Run("rejects invalid status", func(t *testing.T) {
		svc := newItemService(new(mockItemRepo), new(mockMessageRepo), nil)
		_, err := svc.UpdateStatus(context.Background(), "drill-01", "Melted")
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("unknown item is not found", func(t *testing.T) {
		itemRepo := new(mockItemRepo)
		itemRepo.On("UpdateStatus", mock.Anything, "nope", model.ItemStatusIdle).Return(nil, nil)

		svc := newItemService(itemRepo, new(mockMessageRepo), nil)
		_, err := svc.UpdateStatus(context.Background(), "nope", "Idle")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestItemService_DeleteItem(t *testing.T) {
	t.Run("deletes messages before the item", func(t *testing.T) {
		itemRepo := new(mockItemRepo)
		messageRepo := new(mockMessageRepo)
		messageRepo.On("DeleteByItemID", mock.Anything, "drill-01").Return(int64(3), nil)
		itemRepo.On("Delete", mock.Anything, "drill-01").Return(int64(1), nil)

		broker := sse.NewBroker(nil)
		defer broker.Close()
		itemClient := broker.Subscribe(sse.ItemStream("drill-01"))

		svc := newItemService(itemRepo, messageRepo, broker)
		require.NoError(t, svc.DeleteItem(context.Background(), "drill-01"))

		assert.Equal(t, sse.EventItemDeleted, (<-itemClient.Events).Type)
		messageRepo.AssertExpectations(t)
		itemRepo.AssertExpectations(t)
	})

	t.Run("unknown item is not found", func(t *testing.T) {
		itemRepo := new(mockItemRepo)
		messageRepo := new(mockMessageRepo)
		messageRepo.On("DeleteByItemID", mock.Anything, "nope").Return(int64(0), nil)
		itemRepo.On("Delete", mock.Anything, "nope").Return(int64(0), nil)

		svc := newItemService(itemRepo, messageRepo, nil)
		err := svc.DeleteItem(context.Background(), "nope")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestItemService_MemoURL(t *testing.T) {
	svc := NewItemService(nil, nil, sse.NewBroker(nil), "https://memo.example.com/")
	assert.Equal(t, "https://memo.example.com/memo/drill-01", svc.MemoURL("drill-01"))
}
