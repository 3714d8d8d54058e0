package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/memotag/memotag-server/internal/errors"
	"github.com/memotag/memotag-server/internal/model"
	"github.com/memotag/memotag-server/internal/repository"
	"github.com/memotag/memotag-server/internal/sse"
	"github.com/memotag/memotag-server/internal/util"
)

type CreateItemParams struct {
	ItemID   string
	Name     string
	Location string
	Status   string
}

type ItemService struct {
	itemRepo      repository.ItemRepository
	messageRepo   repository.MessageRepository
	broker        *sse.Broker
	publicBaseURL string
}

func NewItemService(
	itemRepo repository.ItemRepository,
	messageRepo repository.MessageRepository,
	broker *sse.Broker,
	publicBaseURL string,
) *ItemService {
	return &ItemService{
		itemRepo:      itemRepo,
		messageRepo:   messageRepo,
		broker:        broker,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *ItemService) GetItems(ctx context.Context) ([]model.Item, error) {
	items, err := s.itemRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	return items, nil
}

func (s *ItemService) GetItem(ctx context.Context, itemID string) (*model.Item, error) {
	item, err := s.itemRepo.FindByItemID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}
	if item == nil {
		return nil, apperrors.NotFound("Item")
	}
	return item, nil
}

func (s *ItemService) CreateItem(ctx context.Context, params CreateItemParams) (*model.Item, error) {
	if params.ItemID == "" {
		return nil, apperrors.MissingRequired("itemId")
	}
	if !util.IsValidItemID(params.ItemID) {
		return nil, apperrors.InvalidInput("itemId", "must be lowercase letters, digits, hyphens or underscores, max 64 chars")
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, apperrors.MissingRequired("name")
	}

	status := model.ItemStatusWorking
	if params.Status != "" {
		if !util.IsValidEnum(params.Status, model.ItemStatuses()) {
			return nil, apperrors.InvalidInput("status", "must be one of "+strings.Join(model.ItemStatuses(), ", "))
		}
		status = model.ItemStatus(params.Status)
	}

	item, err := s.itemRepo.Create(ctx, model.CreateItemParams{
		ItemID:   params.ItemID,
		Name:     strings.TrimSpace(params.Name),
		Location: strings.TrimSpace(params.Location),
		Status:   status,
	})
	if errors.Is(err, repository.ErrDuplicateItemID) {
		return nil, apperrors.AlreadyExists("Item")
	}
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	log.Info().
		Str("itemId", item.ItemID).
		Str("name", item.Name).
		Msg("item created")

	return item, nil
}

func (s *ItemService) UpdateStatus(ctx context.Context, itemID, status string) (*model.Item, error) {
	if !util.IsValidEnum(status, model.ItemStatuses()) || status == "" {
		return nil, apperrors.InvalidInput("status", "must be one of "+strings.Join(model.ItemStatuses(), ", "))
	}

	item, err := s.itemRepo.UpdateStatus(ctx, itemID, model.ItemStatus(status))
	if err != nil {
		return nil, fmt.Errorf("update item status: %w", err)
	}
	if item == nil {
		return nil, apperrors.NotFound("Item")
	}

	log.Info().
		Str("itemId", item.ItemID).
		Str("status", string(item.Status)).
		Msg("item status updated")

	s.publishToItemAndAdmin(ctx, item.ItemID, sse.Event{
		Type: sse.EventStatusUpdate,
		Data: mustJSON(map[string]any{
			"itemId":    item.ItemID,
			"status":    item.Status,
			"timestamp": item.UpdatedAt.Format(time.RFC3339),
		}),
	})

	return item, nil
}

// DeleteItem removes the item and its message history. Messages go first
// so a mid-delete failure never leaves orphaned messages behind a missing
// item.
func (s *ItemService) DeleteItem(ctx context.Context, itemID string) error {
	if _, err := s.messageRepo.DeleteByItemID(ctx, itemID); err != nil {
		return fmt.Errorf("delete item messages: %w", err)
	}

	affected, err := s.itemRepo.Delete(ctx, itemID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFound("Item")
	}

	log.Info().Str("itemId", itemID).Msg("item deleted")

	s.publishToItemAndAdmin(ctx, itemID, sse.Event{
		Type: sse.EventItemDeleted,
		Data: mustJSON(map[string]any{"itemId": itemID}),
	})

	return nil
}

// MemoURL is the address printed into the QR code for an item.
func (s *ItemService) MemoURL(itemID string) string {
	return s.publicBaseURL + "/memo/" + itemID
}

func (s *ItemService) publishToItemAndAdmin(ctx context.Context, itemID string, event sse.Event) {
	if err := s.broker.Publish(ctx, sse.ItemStream(itemID), event); err != nil {
		log.Error().Err(err).Str("itemId", itemID).Msg("failed to publish item event")
	}
	if err := s.broker.Publish(ctx, sse.AdminStream, event); err != nil {
		log.Error().Err(err).Msg("failed to publish admin event")
	}
}

func mustJSON(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
