package service

import (
	"context"
	"fmt"
	"time"

	"github.com/memotag/memotag-server/internal/model"
	"github.com/memotag/memotag-server/internal/repository"
	"github.com/memotag/memotag-server/internal/sse"
)

// DashboardStats summarizes the board for the admin overview.
type DashboardStats struct {
	Items struct {
		Total    int            `json:"total"`
		ByStatus map[string]int `json:"byStatus"`
	} `json:"items"`
	Messages struct {
		Total int `json:"total"`
		Today int `json:"today"`
	} `json:"messages"`
	ConnectedClients int `json:"connectedClients"`
}

type StatsService struct {
	itemRepo    repository.ItemRepository
	messageRepo repository.MessageRepository
	broker      *sse.Broker
}

func NewStatsService(
	itemRepo repository.ItemRepository,
	messageRepo repository.MessageRepository,
	broker *sse.Broker,
) *StatsService {
	return &StatsService{
		itemRepo:    itemRepo,
		messageRepo: messageRepo,
		broker:      broker,
	}
}

func (s *StatsService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	stats.Items.ByStatus = make(map[string]int)

	itemTotal, err := s.itemRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	stats.Items.Total = itemTotal

	for _, status := range model.ItemStatuses() {
		count, err := s.itemRepo.CountByStatus(ctx, model.ItemStatus(status))
		if err != nil {
			return nil, fmt.Errorf("count items by status: %w", err)
		}
		stats.Items.ByStatus[status] = count
	}

	msgTotal, err := s.messageRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	stats.Messages.Total = msgTotal

	now := time.Now().In(jst)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, jst)
	msgToday, err := s.messageRepo.CountSince(ctx, todayStart)
	if err != nil {
		return nil, fmt.Errorf("count messages today: %w", err)
	}
	stats.Messages.Today = msgToday

	stats.ConnectedClients = s.broker.TotalClients()

	return stats, nil
}
