// Package registry holds the in-memory, process-wide table of live browser
// sessions. It performs no I/O; everything durable about a session lives in
// the audit store.
package registry

import (
	"strconv"
	"sync"
	"time"

	"github.com/shehryarbajwa/browser-agent/pkg/models"
)

// IDGenerator produces a new unique session id
type IDGenerator func() string

// Registry is the authoritative table of live sessions. Construct one with
// New and share it by reference; all methods are safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	now      func() time.Time
	newID    IDGenerator
}

// Option customizes a Registry
type Option func(*Registry)

// WithClock injects a time source, used by tests for determinism
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator injects a session id generator
func WithIDGenerator(gen IDGenerator) Option {
	return func(r *Registry) { r.newID = gen }
}

// New creates an empty session registry
func New(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.newID == nil {
		r.newID = defaultIDGenerator(r.now)
	}
	return r
}

// defaultIDGenerator yields sess_<base36 millis>_<base36 counter>. The
// counter keeps ids unique even for same-millisecond bursts.
func defaultIDGenerator(now func() time.Time) IDGenerator {
	var mu sync.Mutex
	var counter int64
	return func() string {
		mu.Lock()
		counter++
		n := counter
		mu.Unlock()
		ts := strconv.FormatInt(now().UnixMilli(), 36)
		return "sess_" + ts + "_" + strconv.FormatInt(n, 36)
	}
}

// Create registers a new running session and returns a copy of it
func (r *Registry) Create(req models.CreateSessionRequest) *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	clientID := req.ClientID
	if clientID == "" {
		clientID = "local"
	}

	now := r.now()
	s := &models.Session{
		ID:           r.newID(),
		Profile:      req.Profile,
		ClientID:     clientID,
		Viewport:     req.Viewport,
		UserAgent:    req.UserAgent,
		Status:       models.StatusRunning,
		WindowID:     nil,
		Visible:      true,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	r.sessions[s.ID] = s
	return cloneSession(s)
}

// Get returns a copy of the session, or nil if it is not live
func (r *Registry) Get(id string) *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	return cloneSession(s)
}

// List returns copies of all live sessions matching the filter
func (r *Registry) List(filter models.SessionFilter) []*models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if filter.Profile != "" && s.Profile != filter.Profile {
			continue
		}
		if filter.ClientID != "" && s.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, cloneSession(s))
	}
	return out
}

// Touch bumps the session's lastActiveAt. Callers invoke it only after an
// engine call has completed, so the sweep's idle check never counts
// in-flight work.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.LastActiveAt = r.now()
	}
}

// SetWindow binds a window handle to the session. Non-positive handles
// clear the binding.
func (r *Registry) SetWindow(id string, windowID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return
	}
	if windowID > 0 {
		s.WindowID = &windowID
	} else {
		s.WindowID = nil
	}
}

// Show marks the session visible. It only flips the flag; moving the actual
// window is the window host's job.
func (r *Registry) Show(id string) {
	r.setVisible(id, true)
}

// Hide marks the session hidden
func (r *Registry) Hide(id string) {
	r.setVisible(id, false)
}

func (r *Registry) setVisible(id string, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.Visible = visible
	}
}

// Close removes the session from the table and returns a terminal snapshot
// with closedAt set. Closing an unknown or already-closed id returns nil,
// which is what makes overlapping sweep triggers safe.
func (r *Registry) Close(id string) *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	delete(r.sessions, id)

	now := r.now()
	s.Status = models.StatusClosed
	s.ClosedAt = &now
	return cloneSession(s)
}

// Len reports the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func cloneSession(s *models.Session) *models.Session {
	out := *s
	if s.Viewport != nil {
		v := *s.Viewport
		out.Viewport = &v
	}
	if s.WindowID != nil {
		w := *s.WindowID
		out.WindowID = &w
	}
	if s.ClosedAt != nil {
		t := *s.ClosedAt
		out.ClosedAt = &t
	}
	return &out
}
