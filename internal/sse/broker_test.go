package sse

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/memotag/memotag-server/internal/redis"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := &redisclient.Client{Client: goredis.NewClient(&goredis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { client.Close() })

	broker := NewBroker(client)
	t.Cleanup(broker.Close)
	return broker
}

func waitForEvent(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case event := <-client.Events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroker_PublishReachesSubscriber(t *testing.T) {
	broker := newTestBroker(t)

	client := broker.Subscribe(ItemStream("drill-01"))
	defer broker.Unsubscribe(client)

	// Give the redis pubsub goroutine a moment to attach.
	time.Sleep(50 * time.Millisecond)

	err := broker.Publish(context.Background(), ItemStream("drill-01"), Event{
		Type: EventStatusUpdate,
		Data: json.RawMessage(`{"itemId":"drill-01","status":"Broken"}`),
	})
	require.NoError(t, err)

	event := waitForEvent(t, client)
	assert.Equal(t, EventStatusUpdate, event.Type)
	assert.JSONEq(t, `{"itemId":"drill-01","status":"Broken"}`, string(event.Data))
}

func TestBroker_StreamsAreIsolated(t *testing.T) {
	broker := newTestBroker(t)

	drill := broker.Subscribe(ItemStream("drill-01"))
	lathe := broker.Subscribe(ItemStream("lathe-02"))
	defer broker.Unsubscribe(drill)
	defer broker.Unsubscribe(lathe)

	time.Sleep(50 * time.Millisecond)

	err := broker.Publish(context.Background(), ItemStream("drill-01"), Event{
		Type: EventNewMessage,
		Data: json.RawMessage(`{"body":"hi"}`),
	})
	require.NoError(t, err)

	event := waitForEvent(t, drill)
	assert.Equal(t, EventNewMessage, event.Type)

	select {
	case <-lathe.Events:
		t.Fatal("event leaked to another stream")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroker_MultipleClientsSameStream(t *testing.T) {
	broker := newTestBroker(t)

	c1 := broker.Subscribe(AdminStream)
	c2 := broker.Subscribe(AdminStream)
	defer broker.Unsubscribe(c1)
	defer broker.Unsubscribe(c2)

	assert.Equal(t, 2, broker.ClientCount(AdminStream))
	assert.Equal(t, 2, broker.TotalClients())

	time.Sleep(50 * time.Millisecond)

	err := broker.Publish(context.Background(), AdminStream, Event{
		Type: EventItemDeleted,
		Data: json.RawMessage(`{"itemId":"drill-01"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, EventItemDeleted, waitForEvent(t, c1).Type)
	assert.Equal(t, EventItemDeleted, waitForEvent(t, c2).Type)
}

func TestBroker_UnsubscribeClosesDone(t *testing.T) {
	broker := newTestBroker(t)

	client := broker.Subscribe(AdminStream)
	broker.Unsubscribe(client)

	select {
	case <-client.Done:
	default:
		t.Fatal("Done channel not closed on unsubscribe")
	}
	assert.Equal(t, 0, broker.ClientCount(AdminStream))
}

func TestBroker_NilRedisDeliversLocally(t *testing.T) {
	broker := NewBroker(nil)
	defer broker.Close()

	client := broker.Subscribe(ItemStream("drill-01"))
	defer broker.Unsubscribe(client)

	err := broker.Publish(context.Background(), ItemStream("drill-01"), Event{
		Type: EventNewMessage,
		Data: json.RawMessage(`{"body":"local"}`),
	})
	require.NoError(t, err)

	event := waitForEvent(t, client)
	assert.Equal(t, EventNewMessage, event.Type)
}
