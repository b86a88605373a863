package export

import (
	"sync"
	"time"

	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/google/uuid"
)

// Session is one export run against one source.
type Session struct {
	ID      string
	Source  string
	Started time.Time

	mu       sync.Mutex
	state    types.SessionState
	progress float64
}

func newSession(source string) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Source:  source,
		Started: time.Now(),
		state:   types.SessionStateIdle,
	}
}

func (s *Session) State() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *Session) setState(st types.SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) setProgress(p float64) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
}

// registry allows one active session per source path.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func (r *registry) claim(source string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions == nil {
		r.sessions = make(map[string]*Session)
	}
	if _, busy := r.sessions[source]; busy {
		return nil, false
	}
	s := newSession(source)
	r.sessions[source] = s
	return s, true
}

func (r *registry) release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.Source] == s {
		delete(r.sessions, s.Source)
	}
}

func (r *registry) active() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
