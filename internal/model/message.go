package model

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	MessageTypeGeneral  MessageType = "general"
	MessageTypeStatus   MessageType = "status"
	MessageTypeProgress MessageType = "progress"
)

func MessageTypes() []string {
	return []string{
		string(MessageTypeGeneral),
		string(MessageTypeStatus),
		string(MessageTypeProgress),
	}
}

// AnonymousUserName is used when a poster leaves the name field blank.
const AnonymousUserName = "匿名"

type Message struct {
	ID        string      `db:"id" json:"id"`
	ItemID    string      `db:"item_id" json:"itemId"`
	Body      string      `db:"body" json:"body"`
	UserName  string      `db:"user_name" json:"userName"`
	Type      MessageType `db:"msg_type" json:"type"`
	Progress  *int        `db:"progress" json:"progress,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`

	// FormattedTime is the JST display timestamp, populated on read paths.
	FormattedTime string `db:"-" json:"formattedTime,omitempty"`
}

// ToEventData returns JSON data for SSE new_message events
func (m *Message) ToEventData() json.RawMessage {
	data, _ := json.Marshal(map[string]any{
		"id":        m.ID,
		"itemId":    m.ItemID,
		"body":      m.Body,
		"userName":  m.UserName,
		"type":      m.Type,
		"progress":  m.Progress,
		"createdAt": m.CreatedAt,
	})
	return data
}

type CreateMessageParams struct {
	ItemID   string
	Body     string
	UserName string
	Type     MessageType
	Progress *int
}
