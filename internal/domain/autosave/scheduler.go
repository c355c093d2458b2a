package autosave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/photobook/internal/domain/activity"
	"github.com/rpggio/photobook/internal/domain/project"
	"github.com/sethvargo/go-retry"
)

// Scheduler turns bursts of edits into single debounced writes.
type Scheduler struct {
	saver      Saver
	registry   *Registry
	publisher  Publisher
	activities project.ActivityLogger
	cfg        Config
	logger     *slog.Logger
	now        func() time.Time
}

// NewScheduler creates a scheduler. publisher and activities may be nil.
func NewScheduler(saver Saver, registry *Registry, publisher Publisher, activities project.ActivityLogger, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Scheduler{
		saver:      saver,
		registry:   registry,
		publisher:  publisher,
		activities: activities,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		now:        time.Now,
	}
}

// StartSession opens a fresh session, replacing any existing one for the
// key. A pending timer of the old session is cancelled; a save already in
// flight finishes but its result is ignored.
func (s *Scheduler) StartSession(projectID, userID, tenantID string) SessionInfo {
	key := Key{UserID: userID, ProjectID: projectID}
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	if old := s.registry.lookup(key); old != nil {
		s.registry.remove(old)
	}
	sess := s.registry.open(key, tenantID, s.now())
	s.logger.Debug("autosave session started", "project_id", projectID, "user_id", userID)
	return sess.info()
}

// ScheduleAutoSave records patch as the pending change and re-arms the
// debounce timer. Only the latest patch is written when the timer fires.
func (s *Scheduler) ScheduleAutoSave(projectID, userID, tenantID string, patch project.Patch) SessionInfo {
	key := Key{UserID: userID, ProjectID: projectID}
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()

	sess := s.registry.getOrOpen(key, tenantID, s.now())
	p := patch
	sess.pending = &p
	sess.generation++
	sess.lastActivity = s.now()
	if sess.state != StateSaving && sess.state != StateRetryWait {
		sess.state = StatePending
	}
	if sess.timer != nil {
		sess.timer.Stop()
	}
	gen := sess.generation
	sess.timer = time.AfterFunc(s.cfg.Debounce, func() { s.fire(sess, gen) })
	return sess.info()
}

// ForceAutoSave writes immediately, bypassing the debounce. A non-nil patch
// replaces whatever is pending. With nothing to write it returns the current
// project untouched.
func (s *Scheduler) ForceAutoSave(ctx context.Context, projectID, userID, tenantID string, patch *project.Patch, expectedVersion *int64) (*project.Project, error) {
	key := Key{UserID: userID, ProjectID: projectID}

	s.registry.mu.Lock()
	sess := s.registry.getOrOpen(key, tenantID, s.now())
	if patch != nil {
		p := *patch
		sess.pending = &p
		sess.generation++
	}
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}
	sess.lastActivity = s.now()
	s.registry.mu.Unlock()

	sess.saveMu.Lock()
	defer sess.saveMu.Unlock()

	s.registry.mu.Lock()
	pending, gen, tenant := sess.pending, sess.generation, sess.tenantID
	if pending != nil {
		sess.state = StateSaving
	}
	s.registry.mu.Unlock()

	if pending == nil {
		return s.saver.Get(ctx, tenant, userID, projectID)
	}

	proj, err := s.saver.Update(ctx, tenant, project.UpdateRequest{
		ProjectID:       projectID,
		OwnerID:         userID,
		Patch:           *pending,
		ExpectedVersion: expectedVersion,
	})

	s.registry.mu.Lock()
	if err != nil {
		if s.registry.live(sess) {
			s.failed(sess, gen, err)
		}
		s.registry.mu.Unlock()
		s.logger.Warn("forced save failed", "project_id", projectID, "user_id", userID, "error", err)
		return nil, err
	}
	if s.registry.live(sess) {
		s.saved(sess, gen, proj)
	}
	s.registry.mu.Unlock()

	s.publish(Event{Type: EventSaved, TenantID: tenant, UserID: userID, ProjectID: projectID, Version: proj.CurrentVersion, At: s.now()})
	return proj, nil
}

// StopSession discards the session and any unsaved change.
func (s *Scheduler) StopSession(projectID, userID string) bool {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	sess := s.registry.lookup(Key{UserID: userID, ProjectID: projectID})
	if sess == nil {
		return false
	}
	s.registry.remove(sess)
	return true
}

// StopProjectSessions stops every editor's session on a project.
func (s *Scheduler) StopProjectSessions(projectID string) int {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	sessions := s.registry.forProject(projectID)
	for _, sess := range sessions {
		s.registry.remove(sess)
	}
	return len(sessions)
}

// GetSessionInfo reports the state of a session.
func (s *Scheduler) GetSessionInfo(projectID, userID string) (SessionInfo, bool) {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	sess := s.registry.lookup(Key{UserID: userID, ProjectID: projectID})
	if sess == nil {
		return SessionInfo{}, false
	}
	return sess.info(), true
}

// Sweep stops sessions that have been inactive longer than the idle
// timeout. Sessions with a save scheduled or in progress are kept.
func (s *Scheduler) Sweep(now time.Time) int {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	n := 0
	for _, sess := range s.registry.all() {
		if sess.state == StateSaving || sess.state == StateRetryWait {
			continue
		}
		if sess.pending != nil && sess.timer != nil {
			continue
		}
		if now.Sub(sess.lastActivity) > s.cfg.IdleTimeout {
			s.registry.remove(sess)
			n++
		}
	}
	return n
}

// Run sweeps idle sessions until ctx is cancelled, then stops all sessions.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return nil
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.logger.Info("idle autosave sessions stopped", "count", n)
			}
		}
	}
}

// Close stops every session.
func (s *Scheduler) Close() {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	for _, sess := range s.registry.all() {
		s.registry.remove(sess)
	}
}

func (s *Scheduler) fire(sess *session, gen uint64) {
	s.registry.mu.Lock()
	stale := !s.registry.live(sess) || sess.generation != gen
	if !stale {
		sess.timer = nil
	}
	s.registry.mu.Unlock()
	if stale {
		return
	}
	s.flush(sess)
}

// flush writes the latest pending patch, retrying transient failures with
// exponential backoff.
func (s *Scheduler) flush(sess *session) {
	sess.saveMu.Lock()
	defer sess.saveMu.Unlock()

	var backoff retry.Backoff
	for {
		s.registry.mu.Lock()
		if !s.registry.live(sess) || sess.pending == nil {
			s.registry.mu.Unlock()
			return
		}
		patch, gen, tenant := *sess.pending, sess.generation, sess.tenantID
		sess.state = StateSaving
		s.registry.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SaveTimeout)
		proj, err := s.saver.Update(ctx, tenant, project.UpdateRequest{
			ProjectID: sess.key.ProjectID,
			OwnerID:   sess.key.UserID,
			Patch:     patch,
		})
		cancel()

		s.registry.mu.Lock()
		if !s.registry.live(sess) {
			s.registry.mu.Unlock()
			return
		}
		if err == nil {
			s.saved(sess, gen, proj)
			s.registry.mu.Unlock()
			s.logger.Debug("autosaved", "project_id", sess.key.ProjectID, "user_id", sess.key.UserID, "version", proj.CurrentVersion)
			s.publish(Event{Type: EventSaved, TenantID: tenant, UserID: sess.key.UserID, ProjectID: sess.key.ProjectID, Version: proj.CurrentVersion, At: s.now()})
			return
		}

		if project.IsTransient(err) {
			if backoff == nil {
				backoff = s.newBackoff()
			}
			if delay, stop := backoff.Next(); !stop {
				sess.retryCount++
				sess.state = StateRetryWait
				sess.lastError = err.Error()
				attempt := sess.retryCount
				s.registry.mu.Unlock()

				s.logger.Warn("autosave failed, retrying", "project_id", sess.key.ProjectID, "user_id", sess.key.UserID, "attempt", attempt, "delay", delay, "error", err)
				timer := time.NewTimer(delay)
				select {
				case <-timer.C:
				case <-sess.done:
					timer.Stop()
					return
				}
				continue
			}
		}

		s.failed(sess, gen, err)
		retries := sess.retryCount
		s.registry.mu.Unlock()

		s.logger.Error("autosave abandoned", "project_id", sess.key.ProjectID, "user_id", sess.key.UserID, "retries", retries, "error", err)
		s.recordFailure(tenant, sess.key, err)
		return
	}
}

// saved requires the registry lock.
func (s *Scheduler) saved(sess *session, gen uint64, proj *project.Project) {
	now := s.now()
	sess.lastSave = &now
	sess.lastActivity = now
	sess.retryCount = 0
	sess.lastError = ""
	sess.failedAt = nil
	sess.lastVersion = proj.CurrentVersion
	if sess.generation == gen {
		sess.pending = nil
		sess.state = StateIdle
	} else {
		sess.state = StatePending
	}
}

// failed requires the registry lock. Only the payload that failed is
// dropped; edits that arrived meanwhile stay pending on their own timer.
func (s *Scheduler) failed(sess *session, gen uint64, err error) {
	now := s.now()
	sess.lastError = err.Error()
	sess.failedAt = &now
	if sess.generation == gen {
		sess.pending = nil
		sess.state = StateFailed
	} else {
		sess.state = StatePending
	}
}

func (s *Scheduler) recordFailure(tenantID string, key Key, err error) {
	s.publish(Event{Type: EventFailed, TenantID: tenantID, UserID: key.UserID, ProjectID: key.ProjectID, Error: err.Error(), At: s.now()})
	if s.activities == nil {
		return
	}
	userID := key.UserID
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SaveTimeout)
	defer cancel()
	_ = s.activities.Log(ctx, tenantID, &activity.ActivityEntry{
		ProjectID:    key.ProjectID,
		UserID:       &userID,
		ActivityType: activity.TypeAutoSaveFailed,
		Summary:      fmt.Sprintf("Autosave discarded: %v", err),
		CreatedAt:    s.now(),
	})
}

func (s *Scheduler) publish(evt Event) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("publishing autosave event failed", "type", evt.Type, "project_id", evt.ProjectID, "error", err)
	}
}

func (s *Scheduler) newBackoff() retry.Backoff {
	b := retry.NewExponential(s.cfg.BaseBackoff)
	b = retry.WithCappedDuration(s.cfg.MaxBackoff, b)
	return retry.WithMaxRetries(s.cfg.MaxRetries, b)
}
