package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is immutable once appended.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

const DefaultMaxMessages = 50

type Conversation struct {
	ID             uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	Messages       datatypes.JSONSlice[Message] `gorm:"column:messages" json:"messages"`
	CurrentOrderID *uuid.UUID                   `gorm:"type:uuid;column:current_order_id;index" json:"current_order_id"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`

	maxMessages int
}

func (Conversation) TableName() string { return "conversation" }

func NewConversation(maxMessages int) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:          uuid.New(),
		Messages:    datatypes.JSONSlice[Message]{},
		CreatedAt:   now,
		UpdatedAt:   now,
		maxMessages: maxMessages,
	}
}

// UseWindow sets the message window for a conversation loaded from storage.
func (c *Conversation) UseWindow(maxMessages int) {
	c.maxMessages = maxMessages
}

func (c *Conversation) window() int {
	if c.maxMessages <= 0 {
		return DefaultMaxMessages
	}
	return c.maxMessages
}

// AddMessage appends a message and evicts the oldest entries beyond the window.
func (c *Conversation) AddMessage(role Role, content string) Message {
	msg := Message{Role: role, Content: content, CreatedAt: time.Now().UTC()}
	c.Messages = append(c.Messages, msg)
	if over := len(c.Messages) - c.window(); over > 0 {
		c.Messages = append(datatypes.JSONSlice[Message]{}, c.Messages[over:]...)
	}
	c.UpdatedAt = msg.CreatedAt
	return msg
}

// RecentMessages returns up to n of the newest messages, oldest first.
func (c *Conversation) RecentMessages(n int) []Message {
	if n <= 0 || len(c.Messages) == 0 {
		return nil
	}
	start := len(c.Messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(c.Messages)-start)
	copy(out, c.Messages[start:])
	return out
}

func (c *Conversation) SetCurrentOrder(id uuid.UUID) {
	c.CurrentOrderID = &id
	c.UpdatedAt = time.Now().UTC()
}

func (c *Conversation) ClearCurrentOrder() {
	c.CurrentOrderID = nil
	c.UpdatedAt = time.Now().UTC()
}

func (c *Conversation) HasActiveOrder() bool {
	return c.CurrentOrderID != nil
}
