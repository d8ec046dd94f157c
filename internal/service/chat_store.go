package service

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/findmyteacher-api/internal/models"
)

// ChatStoreOption customises a ChatStore.
type ChatStoreOption func(*ChatStore)

// WithClock overrides the time source used to stamp appended messages.
func WithClock(now func() time.Time) ChatStoreOption {
	return func(s *ChatStore) {
		if now != nil {
			s.now = now
		}
	}
}

// ChatStore holds one session's conversation threads. Appending a message is
// the only mutation; threads are never created, reordered or removed.
type ChatStore struct {
	mu       sync.RWMutex
	chats    []models.Chat
	index    map[string]int
	activeID string
	now      func() time.Time
}

// NewChatStore copies chats into a new store and selects the first thread.
func NewChatStore(chats []models.Chat, opts ...ChatStoreOption) *ChatStore {
	s := &ChatStore{
		chats: make([]models.Chat, 0, len(chats)),
		index: make(map[string]int, len(chats)),
		now:   time.Now,
	}
	for _, chat := range chats {
		if _, dup := s.index[chat.ID]; dup {
			continue
		}
		s.index[chat.ID] = len(s.chats)
		s.chats = append(s.chats, chat.Clone())
	}
	if len(s.chats) > 0 {
		s.activeID = s.chats[0].ID
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectChat makes chatID the active thread. Unknown ids leave the current
// selection untouched; the return value reports whether the id was accepted.
func (s *ChatStore) SelectChat(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[chatID]; !ok {
		return false
	}
	s.activeID = chatID
	return true
}

// ActiveChatID returns the selected thread id, or "" when nothing is selected.
func (s *ChatStore) ActiveChatID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// ActiveChat returns a copy of the selected thread.
func (s *ChatStore) ActiveChat() (models.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == "" {
		return models.Chat{}, false
	}
	return s.chats[s.index[s.activeID]].Clone(), true
}

// Chat returns a copy of the thread with the given id.
func (s *ChatStore) Chat(chatID string) (models.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[chatID]
	if !ok {
		return models.Chat{}, false
	}
	return s.chats[i].Clone(), true
}

// Chats returns copies of every thread in load order.
func (s *ChatStore) Chats() []models.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Chat, len(s.chats))
	for i, chat := range s.chats {
		out[i] = chat.Clone()
	}
	return out
}

// AppendMessage adds a new message from sender to the end of chatID. It is a
// no-op returning false when the chat is unknown, the sender is not a chat
// role or text is blank. Repeated calls append repeated messages.
func (s *ChatStore) AppendMessage(chatID string, sender models.Role, text string) (models.Message, bool) {
	if !sender.Valid() || strings.TrimSpace(text) == "" {
		return models.Message{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[chatID]
	if !ok {
		return models.Message{}, false
	}
	chat := &s.chats[i]

	ts := s.now().UTC()
	if last, ok := chat.LastMessage(); ok && ts.Before(last.Timestamp) {
		ts = last.Timestamp
	}
	msg := models.Message{
		ID:        nextMessageID(chat.Messages),
		Sender:    sender,
		Text:      text,
		Timestamp: ts,
	}
	chat.Messages = append(chat.Messages, msg)
	return msg, true
}

// Sidebar derives the conversation list for viewer over the current threads.
func (s *ChatStore) Sidebar(viewer models.Role, query string) []models.SidebarEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DeriveSidebar(s.chats, viewer, query)
}

// DeriveSidebar lists, in input order, every non-empty thread whose
// counterpart name contains query case-insensitively. The counterpart is the
// participant on the other side from viewer.
func DeriveSidebar(chats []models.Chat, viewer models.Role, query string) []models.SidebarEntry {
	needle := strings.ToLower(strings.TrimSpace(query))
	counterpartRole := viewer.Counterpart()

	out := make([]models.SidebarEntry, 0, len(chats))
	for _, chat := range chats {
		last, ok := chat.LastMessage()
		if !ok {
			continue
		}
		counterpart := chat.Participants.ByRole(counterpartRole)
		if needle != "" && !strings.Contains(strings.ToLower(counterpart.Name), needle) {
			continue
		}
		out = append(out, models.SidebarEntry{
			ChatID:      chat.ID,
			Counterpart: counterpart,
			LastMessage: last,
		})
	}
	return out
}

// nextMessageID returns "m<N+1>" for a thread of N messages, stepping past any
// id already taken by seeded messages.
func nextMessageID(messages []models.Message) string {
	taken := make(map[string]struct{}, len(messages))
	for _, m := range messages {
		taken[m.ID] = struct{}{}
	}
	for n := len(messages) + 1; ; n++ {
		id := "m" + strconv.Itoa(n)
		if _, dup := taken[id]; !dup {
			return id
		}
	}
}
