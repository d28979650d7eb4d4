package history

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/elec-mate/elecmate/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestCreateAndGetConversation(t *testing.T) {
	store := newTestStore(t)

	conv, err := store.CreateConversation([]string{"designer", "compliance"})
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	if !strings.HasPrefix(conv.ID, "conv-") {
		t.Errorf("ID = %q, want conv- prefix", conv.ID)
	}
	if len(conv.Agents) != 2 {
		t.Errorf("Agents = %v", conv.Agents)
	}

	loaded, err := store.GetConversation(conv.ID)
	if err != nil {
		t.Fatalf("GetConversation() error = %v", err)
	}
	if loaded.Title != conv.Title {
		t.Errorf("Title = %q, want %q", loaded.Title, conv.Title)
	}
}

func TestAddMessage(t *testing.T) {
	store := newTestStore(t)
	conv, _ := store.CreateConversation(nil)

	err := store.AddMessage(conv.ID, Message{
		Role:    "user",
		Content: "What size cable for a 9.5kW shower on a 18m run?",
	})
	if err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}

	err = store.AddMessage(conv.ID, Message{
		Role:      "assistant",
		Content:   "10mm² on a 40A or 45A MCB.",
		Agents:    []string{"calculator"},
		Citations: []models.Citation{{Source: "BS 7671", Title: "Table 4D5"}},
	})
	if err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}

	loaded, _ := store.GetConversation(conv.ID)
	if len(loaded.Messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(loaded.Messages))
	}
	// First user message becomes the title
	if !strings.HasPrefix(loaded.Title, "What size cable") {
		t.Errorf("Title = %q, want first user message", loaded.Title)
	}
	if len(loaded.Title) > 53 {
		t.Errorf("Title = %q, want truncation at 50 chars", loaded.Title)
	}
	if len(loaded.Messages[1].Citations) != 1 {
		t.Errorf("assistant citations = %v", loaded.Messages[1].Citations)
	}
	if loaded.Messages[0].Timestamp.IsZero() {
		t.Error("message timestamp not set")
	}
}

func TestUpdateRouterState(t *testing.T) {
	store := newTestStore(t)
	conv, _ := store.CreateConversation(nil)

	design := json.RawMessage(`{"conversationId":"conv-r1","installationType":"domestic"}`)
	if err := store.UpdateRouterState(conv.ID, "conv-r1", design); err != nil {
		t.Fatalf("UpdateRouterState() error = %v", err)
	}

	loaded, _ := store.GetConversation(conv.ID)
	if loaded.RouterConversationID != "conv-r1" {
		t.Errorf("RouterConversationID = %q", loaded.RouterConversationID)
	}
	if len(loaded.Design) == 0 {
		t.Error("Design not persisted")
	}
}

func TestListConversationsOrder(t *testing.T) {
	store := newTestStore(t)

	first, _ := store.CreateConversation(nil)
	time.Sleep(10 * time.Millisecond)
	second, _ := store.CreateConversation(nil)
	time.Sleep(10 * time.Millisecond)
	_ = store.AddMessage(first.ID, Message{Role: "user", Content: "bump"})

	list, err := store.ListConversations()
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListConversations() = %d, want 2", len(list))
	}
	if list[0].ID != first.ID {
		t.Errorf("most recently updated = %s, want %s", list[0].ID, first.ID)
	}
	if list[1].ID != second.ID {
		t.Errorf("second = %s, want %s", list[1].ID, second.ID)
	}
}

func TestDeleteConversation(t *testing.T) {
	store := newTestStore(t)
	conv, _ := store.CreateConversation(nil)

	if err := store.DeleteConversation(conv.ID); err != nil {
		t.Fatalf("DeleteConversation() error = %v", err)
	}
	if _, err := store.GetConversation(conv.ID); err == nil {
		t.Error("GetConversation() after delete expected error")
	}
	if err := store.DeleteConversation(conv.ID); err == nil {
		t.Error("DeleteConversation() twice expected error")
	}
}

func TestFavorites(t *testing.T) {
	store := newTestStore(t)
	conv, _ := store.CreateConversation(nil)

	fav, err := store.ToggleFavorite(conv.ID)
	if err != nil {
		t.Fatalf("ToggleFavorite() error = %v", err)
	}
	if !fav {
		t.Error("ToggleFavorite() = false, want true")
	}

	got, _ := store.IsFavorite(conv.ID)
	if !got {
		t.Error("IsFavorite() = false after toggle")
	}

	if err := store.SetFavorite(conv.ID, false); err != nil {
		t.Fatalf("SetFavorite() error = %v", err)
	}
	got, _ = store.IsFavorite(conv.ID)
	if got {
		t.Error("IsFavorite() = true after SetFavorite(false)")
	}

	if _, err := store.ToggleFavorite("conv-missing"); err == nil {
		t.Error("ToggleFavorite(missing) expected error")
	}
}

func TestMoveConversation(t *testing.T) {
	store := newTestStore(t)
	a, _ := store.CreateConversation(nil)
	b, _ := store.CreateConversation(nil)
	c, _ := store.CreateConversation(nil)

	// Entering meta happens on first favorite interaction
	_ = store.SetFavorite(a.ID, false)
	_ = store.SetFavorite(b.ID, false)
	_ = store.SetFavorite(c.ID, false)

	if err := store.MoveConversation(c.ID, 0); err != nil {
		t.Fatalf("MoveConversation() error = %v", err)
	}
	idx, _ := store.GetOrderIndex(c.ID)
	if idx != 0 {
		t.Errorf("GetOrderIndex() = %d, want 0", idx)
	}

	// Out-of-range indexes clamp
	if err := store.MoveConversation(a.ID, 99); err != nil {
		t.Fatalf("MoveConversation(clamp) error = %v", err)
	}
	idx, _ = store.GetOrderIndex(a.ID)
	if idx != 2 {
		t.Errorf("GetOrderIndex() after clamp = %d, want 2", idx)
	}
}
