package service

import (
	"go.uber.org/zap"

	"github.com/noah-isme/findmyteacher-api/internal/models"
	appErrors "github.com/noah-isme/findmyteacher-api/pkg/errors"
)

type chatStoreResolver interface {
	Store(sessionID string) (*ChatStore, error)
}

// SendOutcome describes a send attempt against a thread.
type SendOutcome struct {
	Chat     models.Chat     `json:"chat"`
	Message  *models.Message `json:"message,omitempty"`
	Appended bool            `json:"appended"`
}

// ChatService exposes a session's chat store to the HTTP layer. The acting
// role always comes from the session.
type ChatService struct {
	stores  chatStoreResolver
	metrics *MetricsService
	logger  *zap.Logger
}

// NewChatService constructs a ChatService.
func NewChatService(stores chatStoreResolver, metrics *MetricsService, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{stores: stores, metrics: metrics, logger: logger}
}

// Sidebar lists the session's conversations as seen by its role.
func (s *ChatService) Sidebar(session models.Session, query string) ([]models.SidebarEntry, error) {
	store, err := s.stores.Store(session.ID)
	if err != nil {
		return nil, err
	}
	return store.Sidebar(session.Role, query), nil
}

// Select changes the active thread. Unknown ids are ignored; the returned id
// is the active thread after the call.
func (s *ChatService) Select(session models.Session, chatID string) (string, bool, error) {
	store, err := s.stores.Store(session.ID)
	if err != nil {
		return "", false, err
	}
	accepted := store.SelectChat(chatID)
	return store.ActiveChatID(), accepted, nil
}

// Active returns the session's selected thread.
func (s *ChatService) Active(session models.Session) (*models.Chat, error) {
	store, err := s.stores.Store(session.ID)
	if err != nil {
		return nil, err
	}
	chat, ok := store.ActiveChat()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no active chat")
	}
	return &chat, nil
}

// Get returns one thread of the session.
func (s *ChatService) Get(session models.Session, chatID string) (*models.Chat, error) {
	store, err := s.stores.Store(session.ID)
	if err != nil {
		return nil, err
	}
	chat, ok := store.Chat(chatID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "chat not found")
	}
	return &chat, nil
}

// Send appends text to chatID on behalf of the session role. Blank text is
// not an error: the outcome reports Appended=false and the thread unchanged.
func (s *ChatService) Send(session models.Session, chatID, text string) (*SendOutcome, error) {
	store, err := s.stores.Store(session.ID)
	if err != nil {
		return nil, err
	}
	if _, ok := store.Chat(chatID); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "chat not found")
	}

	msg, appended := store.AppendMessage(chatID, session.Role, text)
	s.metrics.RecordChatMessage(appended)

	chat, _ := store.Chat(chatID)
	outcome := &SendOutcome{Chat: chat, Appended: appended}
	if appended {
		outcome.Message = &msg
		s.logger.Debug("chat message appended",
			zap.String("session_id", session.ID),
			zap.String("chat_id", chatID),
			zap.String("message_id", msg.ID))
	}
	return outcome, nil
}
