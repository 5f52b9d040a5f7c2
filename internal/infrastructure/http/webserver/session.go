package webserver

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionCookie is the cookie holding the browser session id
const SessionCookie = "holidaytable-session"

type sessionKey struct{}

// Session is the per-browser view state between requests. The planner
// state itself is shared; only transient form values live here.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time

	mu    sync.Mutex
	flash map[string]string
}

// Flash stores a value that the next page render consumes
func (s *Session) Flash(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash[key] = value
}

// TakeFlash returns and clears a flash value
func (s *Session) TakeFlash(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.flash[key]
	delete(s.flash, key)
	return v
}

// SessionStore keeps browser sessions in memory
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	secure   bool
	now      func() time.Time
	logger   *zap.Logger
}

// NewSessionStore creates a new session store
func NewSessionStore(ttl time.Duration, secure bool, logger *zap.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		secure:   secure,
		now:      time.Now,
		logger:   logger.Named("sessions"),
	}
}

// Get returns the live session named by the request cookie
func (s *SessionStore) Get(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}

	s.mu.RLock()
	sess, ok := s.sessions[cookie.Value]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if s.now().After(sess.ExpiresAt) {
		s.Delete(sess.ID)
		return nil, false
	}
	return sess, true
}

// New creates and registers a fresh session
func (s *SessionStore) New() *Session {
	now := s.now()
	sess := &Session{
		ID:        generateSessionID(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		flash:     make(map[string]string),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Delete removes a session
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of stored sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Middleware loads or creates the session and stores it on the request context
func (s *SessionStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.Get(r)
		if !ok {
			sess = s.New()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.secure,
				SameSite: http.SameSiteLaxMode,
				Expires:  sess.ExpiresAt,
				MaxAge:   int(s.ttl.Seconds()),
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

// Cleanup drops expired sessions every interval until ctx is done
func (s *SessionStore) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expire()
		}
	}
}

func (s *SessionStore) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, id)
			s.logger.Debug("Cleaned up expired session", zap.String("session_id", id))
		}
	}
}

// SessionFrom returns the session stored by Middleware
func SessionFrom(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey{}).(*Session)
	return sess
}

func generateSessionID() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
