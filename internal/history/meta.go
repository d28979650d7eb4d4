package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	metaFileName = "meta.json"
	metaVersion  = 1
)

// ConversationMeta stores display metadata per consultation
type ConversationMeta struct {
	ID         string `json:"id"`
	Title      string `json:"title"` // Cached title for quick listing
	IsFavorite bool   `json:"is_favorite"`
}

// HistoryMeta stores the order and favorites for all consultations
type HistoryMeta struct {
	Version int                          `json:"version"` // For future migration
	Order   []string                     `json:"order"`   // IDs in display order
	Meta    map[string]*ConversationMeta `json:"meta"`    // Metadata per ID
}

func newHistoryMeta() *HistoryMeta {
	return &HistoryMeta{
		Version: metaVersion,
		Order:   []string{},
		Meta:    make(map[string]*ConversationMeta),
	}
}

func (s *Store) metaPath() string {
	return filepath.Join(s.baseDir, metaFileName)
}

// loadMeta loads the metadata, returning an empty set when none exists.
func (s *Store) loadMeta() (*HistoryMeta, error) {
	data, err := os.ReadFile(s.metaPath())
	if err != nil {
		if os.IsNotExist(err) {
			return newHistoryMeta(), nil
		}
		return nil, fmt.Errorf("failed to read meta file: %w", err)
	}

	var meta HistoryMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse meta file: %w", err)
	}

	if meta.Meta == nil {
		meta.Meta = make(map[string]*ConversationMeta)
	}
	if meta.Order == nil {
		meta.Order = []string{}
	}

	return &meta, nil
}

func (s *Store) saveMeta(meta *HistoryMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}

	if err := os.WriteFile(s.metaPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write meta file: %w", err)
	}

	return nil
}

func (s *Store) removeFromMeta(id string) error {
	meta, err := s.loadMeta()
	if err != nil {
		return err
	}

	newOrder := make([]string, 0, len(meta.Order))
	for _, oid := range meta.Order {
		if oid != id {
			newOrder = append(newOrder, oid)
		}
	}
	meta.Order = newOrder
	delete(meta.Meta, id)

	return s.saveMeta(meta)
}

func (s *Store) updateTitleInMeta(id, title string) error {
	meta, err := s.loadMeta()
	if err != nil {
		return err
	}

	if m, exists := meta.Meta[id]; exists {
		m.Title = title
		return s.saveMeta(meta)
	}

	return nil
}

// ensureInMeta adds a consultation to meta and order if missing. Caller
// holds the lock and has verified the conversation exists.
func (s *Store) ensureInMeta(meta *HistoryMeta, id string) {
	if _, exists := meta.Meta[id]; exists {
		return
	}

	conv, err := s.loadConversation(id)
	title := id
	if err == nil {
		title = conv.Title
	}
	meta.Meta[id] = &ConversationMeta{ID: id, Title: title}

	for _, oid := range meta.Order {
		if oid == id {
			return
		}
	}
	meta.Order = append(meta.Order, id)
}

// IsFavorite returns whether a consultation is marked as favorite
func (s *Store) IsFavorite(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.loadMeta()
	if err != nil {
		return false, err
	}

	if m, exists := meta.Meta[id]; exists {
		return m.IsFavorite, nil
	}

	return false, nil
}

// ToggleFavorite toggles the favorite status and returns the new value
func (s *Store) ToggleFavorite(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadConversation(id); err != nil {
		return false, err
	}

	meta, err := s.loadMeta()
	if err != nil {
		return false, err
	}

	s.ensureInMeta(meta, id)
	meta.Meta[id].IsFavorite = !meta.Meta[id].IsFavorite
	newStatus := meta.Meta[id].IsFavorite

	if err := s.saveMeta(meta); err != nil {
		return false, err
	}

	return newStatus, nil
}

// SetFavorite sets the favorite status to a specific value
func (s *Store) SetFavorite(id string, isFavorite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadConversation(id); err != nil {
		return err
	}

	meta, err := s.loadMeta()
	if err != nil {
		return err
	}

	s.ensureInMeta(meta, id)
	meta.Meta[id].IsFavorite = isFavorite

	return s.saveMeta(meta)
}

// MoveConversation moves a consultation to a new 0-based position in the
// display order
func (s *Store) MoveConversation(id string, newIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.loadMeta()
	if err != nil {
		return err
	}

	currentIndex := -1
	for i, oid := range meta.Order {
		if oid == id {
			currentIndex = i
			break
		}
	}
	if currentIndex == -1 {
		return fmt.Errorf("conversation not found in order: %s", id)
	}

	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex >= len(meta.Order) {
		newIndex = len(meta.Order) - 1
	}
	if currentIndex == newIndex {
		return nil
	}

	meta.Order = append(meta.Order[:currentIndex], meta.Order[currentIndex+1:]...)
	meta.Order = append(meta.Order[:newIndex], append([]string{id}, meta.Order[newIndex:]...)...)

	return s.saveMeta(meta)
}

// GetOrderIndex returns the 0-based position in the display order, or -1
func (s *Store) GetOrderIndex(id string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.loadMeta()
	if err != nil {
		return -1, err
	}

	for i, oid := range meta.Order {
		if oid == id {
			return i, nil
		}
	}

	return -1, nil
}
