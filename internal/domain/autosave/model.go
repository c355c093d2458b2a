// Package autosave debounces editor changes into project writes and retries
// transient store failures in the background.
package autosave

import (
	"sync"
	"time"

	"github.com/rpggio/photobook/internal/domain/project"
)

// State is the lifecycle state of an editing session.
type State string

const (
	StateIdle      State = "idle"
	StatePending   State = "pending"
	StateSaving    State = "saving"
	StateRetryWait State = "retry_wait"
	StateFailed    State = "failed"
)

// Key identifies a session: one editor of one project.
type Key struct {
	UserID    string
	ProjectID string
}

// Config tunes debounce, retry and idle sweeping.
type Config struct {
	Debounce      time.Duration
	BaseBackoff   time.Duration
	MaxBackoff    time.Duration
	MaxRetries    uint64
	SaveTimeout   time.Duration
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// DefaultConfig is the production tuning.
var DefaultConfig = Config{
	Debounce:      2 * time.Second,
	BaseBackoff:   time.Second,
	MaxBackoff:    10 * time.Second,
	MaxRetries:    3,
	SaveTimeout:   30 * time.Second,
	IdleTimeout:   30 * time.Minute,
	SweepInterval: 5 * time.Minute,
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultConfig.Debounce
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = DefaultConfig.BaseBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultConfig.MaxBackoff
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = DefaultConfig.SaveTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultConfig.IdleTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultConfig.SweepInterval
	}
	return c
}

// SessionInfo is a point-in-time view of a session.
type SessionInfo struct {
	UserID            string     `json:"user_id"`
	ProjectID         string     `json:"project_id"`
	TenantID          string     `json:"tenant_id"`
	State             State      `json:"state"`
	HasPendingChanges bool       `json:"has_pending_changes"`
	RetryCount        int        `json:"retry_count"`
	LastSave          *time.Time `json:"last_save,omitempty"`
	LastActivity      time.Time  `json:"last_activity"`
	LastError         string     `json:"last_error,omitempty"`
	FailedAt          *time.Time `json:"failed_at,omitempty"`
	LastVersion       int64      `json:"last_version"`
}

// EventType names a published autosave outcome.
type EventType string

const (
	EventSaved  EventType = "autosave.saved"
	EventFailed EventType = "autosave.failed"
)

// Event is published after each background save settles.
type Event struct {
	Type      EventType `json:"type"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	ProjectID string    `json:"project_id"`
	Version   int64     `json:"version,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

type session struct {
	key      Key
	tenantID string
	state    State

	pending    *project.Patch
	generation uint64
	timer      *time.Timer

	lastSave     *time.Time
	lastActivity time.Time
	retryCount   int
	lastError    string
	failedAt     *time.Time
	lastVersion  int64

	// saveMu serializes writes for this session. It is taken before the
	// registry lock, never while holding it.
	saveMu sync.Mutex
	done   chan struct{}
}

func (s *session) info() SessionInfo {
	return SessionInfo{
		UserID:            s.key.UserID,
		ProjectID:         s.key.ProjectID,
		TenantID:          s.tenantID,
		State:             s.state,
		HasPendingChanges: s.pending != nil,
		RetryCount:        s.retryCount,
		LastSave:          s.lastSave,
		LastActivity:      s.lastActivity,
		LastError:         s.lastError,
		FailedAt:          s.failedAt,
		LastVersion:       s.lastVersion,
	}
}
