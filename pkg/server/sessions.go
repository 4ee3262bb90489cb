package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mikeboe/agent-helper/pkg/report"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session already has a consumer")
)

const (
	eventBuffer = 256

	statusProgress = "progress"
	statusComplete = "complete"
)

// Event is one SSE payload.
type Event struct {
	Status      string                    `json:"status"`
	Message     string                    `json:"message,omitempty"`
	Report      string                    `json:"report,omitempty"`
	HeaderImage string                    `json:"header_image,omitempty"`
	ImagePrompt string                    `json:"image_prompt,omitempty"`
	Sources     []report.ExtractedArticle `json:"sources,omitempty"`
}

// Session carries progress from one report job to one stream consumer.
// Progress goes through a buffered channel; the final result is stored
// before the channel is closed so a late consumer still sees it.
type Session struct {
	ID        string
	Query     string
	CreatedAt time.Time

	events chan Event
	result report.Result

	// guarded by Registry.mu
	attached   bool
	finishedAt time.Time
}

// Publish queues a progress message. It never blocks: when nobody drains
// the buffer, further progress is dropped.
func (s *Session) Publish(message string) bool {
	select {
	case s.events <- Event{Status: statusProgress, Message: message}:
		return true
	default:
		return false
	}
}

// Events is the consumer side of the session.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Result is valid once Events has been closed.
func (s *Session) Result() report.Result {
	return s.result
}

// Registry maps session ids to sessions. The mutex guards the map and
// attachment state only.
type Registry struct {
	TTL    time.Duration
	Logger *slog.Logger

	now      func() time.Time
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		TTL:      ttl,
		Logger:   slog.Default(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session for query.
func (r *Registry) Create(query string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Query:     query,
		CreatedAt: r.now(),
		events:    make(chan Event, eventBuffer),
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Complete stores the job result and closes the event stream. Only the
// session's producer may call it, once.
func (r *Registry) Complete(s *Session, result report.Result) {
	s.result = result
	close(s.events)

	r.mu.Lock()
	s.finishedAt = r.now()
	r.mu.Unlock()
}

// Attach claims the consumer side of a session.
func (r *Registry) Attach(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.attached {
		return nil, ErrSessionBusy
	}
	s.attached = true
	return s, nil
}

// Detach releases the consumer side so the stream can be reopened.
func (r *Registry) Detach(s *Session) {
	r.mu.Lock()
	s.attached = false
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict drops completed sessions older than TTL and any session older than
// four times TTL. It returns the number removed.
func (r *Registry) Evict() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		done := !s.finishedAt.IsZero() && now.Sub(s.finishedAt) > r.TTL
		stale := now.Sub(s.CreatedAt) > 4*r.TTL
		if done || stale {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor evicts sessions every interval until ctx is cancelled.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.Logger.Info("Evicted report sessions", "count", n)
			}
		}
	}
}

// DefaultMCPIdleTTL is how long an MCP session survives without requests.
const DefaultMCPIdleTTL = time.Hour

// MCPSessions tracks MCP session ids by last use. Sessions idle for longer
// than TTL are invalid and get swept on Open and by RunJanitor.
type MCPSessions struct {
	TTL time.Duration

	now      func() time.Time
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func NewMCPSessions(ttl time.Duration) *MCPSessions {
	return &MCPSessions{
		TTL:      ttl,
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
	}
}

// Open registers a new session and returns its id.
func (m *MCPSessions) Open() string {
	id := uuid.NewString()
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep(now)
	m.lastSeen[id] = now
	return id
}

// Touch reports whether id is live and refreshes it.
func (m *MCPSessions) Touch(id string) bool {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	seen, ok := m.lastSeen[id]
	if !ok {
		return false
	}
	if now.Sub(seen) > m.TTL {
		delete(m.lastSeen, id)
		return false
	}
	m.lastSeen[id] = now
	return true
}

// Evict drops idle sessions and returns how many went.
func (m *MCPSessions) Evict() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweep(now)
}

func (m *MCPSessions) sweep(now time.Time) int {
	removed := 0
	for id, seen := range m.lastSeen {
		if now.Sub(seen) > m.TTL {
			delete(m.lastSeen, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked sessions.
func (m *MCPSessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lastSeen)
}

// RunJanitor evicts idle sessions every interval until ctx is cancelled.
func (m *MCPSessions) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Evict()
		}
	}
}
