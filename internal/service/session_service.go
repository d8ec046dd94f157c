package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/findmyteacher-api/internal/models"
	appErrors "github.com/noah-isme/findmyteacher-api/pkg/errors"
)

const sessionIssuer = "findmyteacher-api"

// ChatSeedSource supplies the threads every new session starts from.
type ChatSeedSource interface {
	Chats(ctx context.Context) ([]models.Chat, error)
}

// SessionConfig defines signing and lifetime for viewer sessions.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

type sessionEntry struct {
	session   models.Session
	store     *ChatStore
	expiresAt time.Time
}

// SessionService issues viewer sessions and owns each session's chat store.
// Sessions are held in memory only; ending one discards its messages.
type SessionService struct {
	seed      ChatSeedSource
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	config    SessionConfig
	now       func() time.Time
	storeOpts []ChatStoreOption

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewSessionService constructs a SessionService.
func NewSessionService(seed ChatSeedSource, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, cfg SessionConfig) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &SessionService{
		seed:      seed,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		config:    cfg,
		now:       time.Now,
		sessions:  make(map[string]*sessionEntry),
	}
}

// WithSessionClock overrides the service clock; the same clock stamps chat
// messages of sessions started afterwards.
func (s *SessionService) WithSessionClock(now func() time.Time) *SessionService {
	s.now = now
	s.storeOpts = append(s.storeOpts, WithClock(now))
	return s
}

// Start opens a session for the requested role and returns its bearer token.
func (s *SessionService) Start(ctx context.Context, req models.StartSessionRequest) (*models.StartSessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "role must be student or teacher")
	}

	chats, err := s.seed.Chats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chats")
	}

	issuedAt := s.now().UTC()
	session := models.Session{ID: uuid.NewString(), Role: req.Role, IssuedAt: issuedAt}
	expiresAt := issuedAt.Add(s.config.TTL)

	token, err := s.sign(session, expiresAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session")
	}

	s.mu.Lock()
	evicted := s.evictExpiredLocked(issuedAt)
	s.sessions[session.ID] = &sessionEntry{
		session:   session,
		store:     NewChatStore(chats, s.storeOpts...),
		expiresAt: expiresAt,
	}
	active := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(active)
	if evicted > 0 {
		s.logger.Info("expired sessions evicted", zap.Int("count", evicted))
	}
	s.logger.Info("session started", zap.String("session_id", session.ID), zap.String("role", string(session.Role)))

	return &models.StartSessionResponse{Token: token, ExpiresAt: expiresAt, Session: session}, nil
}

func (s *SessionService) sign(session models.Session, expiresAt time.Time) (string, error) {
	claims := models.SessionClaims{
		SessionID: session.ID,
		Role:      session.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   session.ID,
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			NotBefore: jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

// Resolve validates a bearer token and returns the live session behind it.
func (s *SessionService) Resolve(tokenString string) (*models.Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(s.now))
	if errors.Is(err, jwt.ErrTokenExpired) {
		if token != nil {
			if claims, ok := token.Claims.(*models.SessionClaims); ok {
				s.End(claims.SessionID)
			}
		}
		return nil, appErrors.ErrSessionEnded
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session token")
	}
	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}

	s.mu.Lock()
	entry, ok := s.sessions[claims.SessionID]
	if !ok {
		s.mu.Unlock()
		return nil, appErrors.ErrSessionEnded
	}
	if !s.now().Before(entry.expiresAt) {
		s.mu.Unlock()
		s.End(claims.SessionID)
		return nil, appErrors.ErrSessionEnded
	}
	session := entry.session
	s.mu.Unlock()
	return &session, nil
}

// Store returns the chat store owned by a live session.
func (s *SessionService) Store(sessionID string) (*ChatStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, appErrors.ErrSessionEnded
	}
	return entry.store, nil
}

// End discards a session and its chat store. Ending an unknown session is a no-op.
func (s *SessionService) End(sessionID string) {
	s.mu.Lock()
	_, existed := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	active := len(s.sessions)
	s.mu.Unlock()

	if existed {
		s.metrics.SetActiveSessions(active)
		s.logger.Info("session ended", zap.String("session_id", sessionID))
	}
}

// ActiveCount reports how many sessions are registered.
func (s *SessionService) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionService) evictExpiredLocked(now time.Time) int {
	evicted := 0
	for id, entry := range s.sessions {
		if !now.Before(entry.expiresAt) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}
