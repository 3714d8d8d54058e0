package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/memotag/memotag-server/internal/errors"
	"github.com/memotag/memotag-server/internal/model"
	"github.com/memotag/memotag-server/internal/repository"
	"github.com/memotag/memotag-server/internal/sse"
)

// jst is the display timezone for message timestamps on the memo pages.
var jst = time.FixedZone("JST", 9*60*60)

// FormatJST renders a timestamp the way the memo board shows it.
func FormatJST(t time.Time) string {
	return t.In(jst).Format("2006年01月02日 15:04")
}

type PostMessageParams struct {
	ItemID   string
	Body     string
	UserName string
	Type     string
	Progress *int
}

type MessageListParams struct {
	ItemID string // "" for all items
	Limit  int
	Offset int
}

type MessageListResult struct {
	Messages []model.Message `json:"messages"`
	Total    int             `json:"total"`
	HasMore  bool            `json:"hasMore"`
}

type MessageService struct {
	messageRepo repository.MessageRepository
	itemRepo    repository.ItemRepository
	broker      *sse.Broker
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	itemRepo repository.ItemRepository,
	broker *sse.Broker,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		itemRepo:    itemRepo,
		broker:      broker,
	}
}

func (s *MessageService) PostMessage(ctx context.Context, params PostMessageParams) (*model.Message, error) {
	body := strings.TrimSpace(params.Body)
	if body == "" {
		return nil, apperrors.ValidationError("Message body is empty")
	}

	userName := strings.TrimSpace(params.UserName)
	if userName == "" {
		userName = model.AnonymousUserName
	}

	msgType := model.MessageTypeGeneral
	if params.Type != "" {
		if !isValidMessageType(params.Type) {
			return nil, apperrors.InvalidInput("type", "must be one of "+strings.Join(model.MessageTypes(), ", "))
		}
		msgType = model.MessageType(params.Type)
	}

	if params.Progress != nil {
		if msgType != model.MessageTypeProgress {
			return nil, apperrors.InvalidInput("progress", "only allowed for progress messages")
		}
		if *params.Progress < 0 || *params.Progress > 100 {
			return nil, apperrors.InvalidInput("progress", "must be between 0 and 100")
		}
	}

	item, err := s.itemRepo.FindByItemID(ctx, params.ItemID)
	if err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}
	if item == nil {
		return nil, apperrors.NotFound("Item")
	}

	msg, err := s.messageRepo.Create(ctx, model.CreateMessageParams{
		ItemID:   item.ItemID,
		Body:     body,
		UserName: userName,
		Type:     msgType,
		Progress: params.Progress,
	})
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	msg.FormattedTime = FormatJST(msg.CreatedAt)

	log.Info().
		Str("messageId", msg.ID).
		Str("itemId", msg.ItemID).
		Str("type", string(msg.Type)).
		Msg("message posted")

	event := sse.Event{Type: sse.EventNewMessage, Data: msg.ToEventData()}
	if err := s.broker.Publish(ctx, sse.ItemStream(msg.ItemID), event); err != nil {
		log.Error().Err(err).Str("itemId", msg.ItemID).Msg("failed to publish item event")
	}
	if err := s.broker.Publish(ctx, sse.AdminStream, event); err != nil {
		log.Error().Err(err).Msg("failed to publish admin event")
	}

	return msg, nil
}

func (s *MessageService) GetMessages(ctx context.Context, params MessageListParams) (*MessageListResult, error) {
	var (
		msgs  []model.Message
		total int
		err   error
	)

	if params.ItemID != "" {
		item, ferr := s.itemRepo.FindByItemID(ctx, params.ItemID)
		if ferr != nil {
			return nil, fmt.Errorf("find item: %w", ferr)
		}
		if item == nil {
			return nil, apperrors.NotFound("Item")
		}

		msgs, err = s.messageRepo.FindByItemID(ctx, params.ItemID, params.Limit, params.Offset)
		if err != nil {
			return nil, fmt.Errorf("find messages: %w", err)
		}
		total, err = s.messageRepo.CountByItemID(ctx, params.ItemID)
	} else {
		msgs, err = s.messageRepo.FindAll(ctx, params.Limit, params.Offset)
		if err != nil {
			return nil, fmt.Errorf("find messages: %w", err)
		}
		total, err = s.messageRepo.Count(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	for i := range msgs {
		msgs[i].FormattedTime = FormatJST(msgs[i].CreatedAt)
	}

	return &MessageListResult{
		Messages: msgs,
		Total:    total,
		HasMore:  params.Offset+len(msgs) < total,
	}, nil
}

func (s *MessageService) DeleteMessage(ctx context.Context, id string) error {
	affected, err := s.messageRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFound("Message")
	}

	log.Info().Str("messageId", id).Msg("message deleted")
	return nil
}

func isValidMessageType(t string) bool {
	for _, valid := range model.MessageTypes() {
		if t == valid {
			return true
		}
	}
	return false
}
