package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/memotag/memotag-server/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second

	// Stream names. Item streams carry events for one tag page; the admin
	// stream sees everything.
	AdminStream = "admin"

	EventNewMessage   = "new_message"
	EventStatusUpdate = "status_update"
	EventItemDeleted  = "item_deleted"
)

// ItemStream returns the stream name for a single item's memo page.
func ItemStream(itemID string) string {
	return "item:" + itemID
}

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	Stream string
	Events chan Event
	Done   chan struct{}
}

// Broker fans events out to connected SSE clients, grouped by stream.
// Events travel through Redis pub/sub so every server instance sees them;
// with a nil Redis client the broker degrades to single-process delivery.
type Broker struct {
	redis   *redisclient.Client
	clients map[string]map[*Client]bool // stream -> set of clients
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe(stream string) *Client {
	client := &Client{
		Stream: stream,
		Events: make(chan Event, 100),
		Done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[stream] == nil {
		b.clients[stream] = make(map[*Client]bool)
		if b.redis != nil {
			go b.subscribeToRedis(stream)
		}
	}
	b.clients[stream][client] = true
	clientCount := len(b.clients[stream])
	b.mu.Unlock()

	log.Info().
		Str("stream", stream).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[client.Stream]; ok {
		delete(clients, client)
		close(client.Done)

		if len(clients) == 0 {
			delete(b.clients, client.Stream)
		}

		log.Info().
			Str("stream", client.Stream).
			Int("clientCount", len(clients)).
			Msg("sse client unsubscribed")
	}
}

func (b *Broker) Publish(ctx context.Context, stream string, event Event) error {
	if b.redis == nil {
		b.broadcast(stream, event)
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := redisclient.StreamChannel(stream)
	return b.redis.Publish(ctx, channel, data).Err()
}

func (b *Broker) subscribeToRedis(stream string) {
	channel := redisclient.StreamChannel(stream)
	pubsub := b.redis.Subscribe(b.ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("stream", stream).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(stream, event)
		}
	}
}

func (b *Broker) broadcast(stream string, event Event) {
	b.mu.RLock()
	clients := b.clients[stream]
	b.mu.RUnlock()

	for client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("stream", stream).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
}

func (b *Broker) ClientCount(stream string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[stream])
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}
