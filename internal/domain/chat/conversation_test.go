package chat

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func TestAddMessageEvictsOldestBeyondWindow(t *testing.T) {
	c := NewConversation(50)
	for i := 1; i <= 51; i++ {
		c.AddMessage(RoleUser, fmt.Sprintf("m%d", i))
	}
	if len(c.Messages) != 50 {
		t.Fatalf("expected 50 messages, got %d", len(c.Messages))
	}
	if c.Messages[0].Content != "m2" {
		t.Fatalf("expected oldest retained to be m2, got %q", c.Messages[0].Content)
	}
	if c.Messages[49].Content != "m51" {
		t.Fatalf("expected newest to be m51, got %q", c.Messages[49].Content)
	}
}

func TestWindowNeverExceededForSmallLimits(t *testing.T) {
	c := NewConversation(3)
	for i := 0; i < 10; i++ {
		c.AddMessage(RoleAssistant, "x")
		if len(c.Messages) > 3 {
			t.Fatalf("window exceeded: %d", len(c.Messages))
		}
	}
}

func TestUnsetWindowFallsBackToDefault(t *testing.T) {
	c := &Conversation{ID: uuid.New()}
	for i := 0; i < DefaultMaxMessages+5; i++ {
		c.AddMessage(RoleUser, "x")
	}
	if len(c.Messages) != DefaultMaxMessages {
		t.Fatalf("expected %d, got %d", DefaultMaxMessages, len(c.Messages))
	}
}

func TestRecentMessages(t *testing.T) {
	c := NewConversation(50)
	for i := 1; i <= 4; i++ {
		c.AddMessage(RoleUser, fmt.Sprintf("m%d", i))
	}
	got := c.RecentMessages(2)
	if len(got) != 2 || got[0].Content != "m3" || got[1].Content != "m4" {
		t.Fatalf("unexpected recent messages: %+v", got)
	}
	if all := c.RecentMessages(10); len(all) != 4 {
		t.Fatalf("expected all 4, got %d", len(all))
	}
	if none := c.RecentMessages(0); none != nil {
		t.Fatalf("expected nil for n=0")
	}
}

func TestCurrentOrderReference(t *testing.T) {
	c := NewConversation(50)
	if c.HasActiveOrder() {
		t.Fatalf("new conversation should not have an active order")
	}
	id := uuid.New()
	c.SetCurrentOrder(id)
	if !c.HasActiveOrder() || *c.CurrentOrderID != id {
		t.Fatalf("current order not set")
	}
	c.ClearCurrentOrder()
	if c.HasActiveOrder() {
		t.Fatalf("current order not cleared")
	}
}
