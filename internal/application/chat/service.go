// Package chat implements the assistant transcript shown next to the planner
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/domain/planner"
	"github.com/holidaytable/planner/internal/ports/inbound"
	"github.com/holidaytable/planner/internal/ports/outbound"
)

const (
	Greeting     = "Привіт! Я ваш AI помічник. Допомогти спланувати меню або порадити рецепт?"
	ErrorReply   = "Виникла помилка. Спробуйте пізніше."
	ThinkingText = "Думаю..."

	// DefaultSessionTTL is how long an idle transcript is kept
	DefaultSessionTTL = 24 * time.Hour
)

// StateReader supplies the planner snapshot the assistant is told about
type StateReader interface {
	State(ctx context.Context) planner.AppState
}

// TurnRecorder observes every completed chat turn
type TurnRecorder interface {
	ChatTurn(failed bool)
}

type session struct {
	messages []inbound.ChatMessage
	thinking bool
	lastSeen time.Time
}

// Service implements inbound.ChatService with in-memory transcripts
type Service struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	state    StateReader
	ai       outbound.AIGateway
	turns    TurnRecorder
	now      func() time.Time
	logger   *zap.Logger
}

var _ inbound.ChatService = (*Service)(nil)

// Option customizes a Service
type Option func(*Service)

// WithTTL sets the idle expiry of sessions
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTurnRecorder reports every turn to r
func WithTurnRecorder(r TurnRecorder) Option {
	return func(s *Service) { s.turns = r }
}

// NewService creates a new chat service
func NewService(state StateReader, ai outbound.AIGateway, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		sessions: make(map[string]*session),
		ttl:      DefaultSessionTTL,
		state:    state,
		ai:       ai,
		now:      time.Now,
		logger:   logger.Named("chat-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transcript returns the session transcript, starting a new one if needed
func (s *Service) Transcript(sessionID string) inbound.ChatTranscript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(sessionID, s.session(sessionID))
}

// Send appends the user's message, asks the assistant and appends its
// reply. A failed request appends ErrorReply and returns the error along
// with the transcript. Blank messages are ignored.
func (s *Service) Send(ctx context.Context, sessionID, message string) (inbound.ChatTranscript, error) {
	message = strings.TrimSpace(message)

	s.mu.Lock()
	sess := s.session(sessionID)
	if message == "" {
		t := s.snapshot(sessionID, sess)
		s.mu.Unlock()
		return t, nil
	}
	sess.messages = append(sess.messages, inbound.ChatMessage{
		Role:   inbound.ChatRoleUser,
		Text:   message,
		SentAt: s.now(),
	})
	sess.thinking = true
	s.mu.Unlock()

	reply, err := s.ai.ChatWithAI(ctx, message, ContextLine(s.state.State(ctx)))
	if err != nil {
		s.logger.Warn("Chat request failed", zap.String("session", sessionID), zap.Error(err))
		reply = ErrorReply
	}
	if s.turns != nil {
		s.turns.ChatTurn(err != nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.messages = append(sess.messages, inbound.ChatMessage{
		Role:   inbound.ChatRoleModel,
		Text:   reply,
		SentAt: s.now(),
	})
	sess.thinking = false
	sess.lastSeen = s.now()
	s.sessions[sessionID] = sess

	return s.snapshot(sessionID, sess), err
}

// Sessions returns the number of live transcripts
func (s *Service) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire()
	return len(s.sessions)
}

// ContextLine describes the party the way the assistant prompt expects it
func ContextLine(state planner.AppState) string {
	names := make([]string, 0, len(state.Menu))
	for _, d := range state.Menu {
		names = append(names, d.Name)
	}
	return fmt.Sprintf("Гостей: %d, Меню: [%s]", state.PeopleCount, strings.Join(names, ", "))
}

// session must be called with mu held
func (s *Service) session(id string) *session {
	s.expire()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{messages: []inbound.ChatMessage{{
			Role:   inbound.ChatRoleModel,
			Text:   Greeting,
			SentAt: s.now(),
		}}}
		s.sessions[id] = sess
	}
	sess.lastSeen = s.now()
	return sess
}

func (s *Service) expire() {
	cutoff := s.now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) && !sess.thinking {
			delete(s.sessions, id)
		}
	}
}

func (s *Service) snapshot(id string, sess *session) inbound.ChatTranscript {
	msgs := make([]inbound.ChatMessage, len(sess.messages))
	copy(msgs, sess.messages)
	return inbound.ChatTranscript{SessionID: id, Messages: msgs, Thinking: sess.thinking}
}
