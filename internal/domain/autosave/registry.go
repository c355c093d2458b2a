package autosave

import (
	"sync"
	"time"
)

// Registry holds the live sessions of one process. Its mutex also guards
// every field of every session it holds, except saveMu.
type Registry struct {
	mu       sync.Mutex
	sessions map[Key]*session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[Key]*session)}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// The helpers below require r.mu.

func (r *Registry) lookup(key Key) *session {
	return r.sessions[key]
}

func (r *Registry) live(s *session) bool {
	return r.sessions[s.key] == s
}

func (r *Registry) open(key Key, tenantID string, now time.Time) *session {
	s := &session{
		key:          key,
		tenantID:     tenantID,
		state:        StateIdle,
		lastActivity: now,
		done:         make(chan struct{}),
	}
	r.sessions[key] = s
	return s
}

func (r *Registry) getOrOpen(key Key, tenantID string, now time.Time) *session {
	if s := r.sessions[key]; s != nil {
		return s
	}
	return r.open(key, tenantID, now)
}

// remove detaches s, cancels its timer and wakes any retry wait. An
// in-flight save keeps running; its result is discarded because the session
// is no longer live.
func (r *Registry) remove(s *session) {
	if r.sessions[s.key] == s {
		delete(r.sessions, s.key)
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (r *Registry) forProject(projectID string) []*session {
	var out []*session
	for k, s := range r.sessions {
		if k.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) all() []*session {
	out := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
