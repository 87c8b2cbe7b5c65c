// Package sweep runs the periodic pass that finds and reaps expired
// sessions. Each expired session is handled on its own goroutine so one
// slow teardown never delays scanning the rest; the registry's idempotent
// Close makes duplicate triggers for the same session safe.
package sweep

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/shehryarbajwa/browser-agent/internal/audit"
	"github.com/shehryarbajwa/browser-agent/internal/executor"
	"github.com/shehryarbajwa/browser-agent/internal/registry"
	"github.com/shehryarbajwa/browser-agent/internal/windows"
	"github.com/shehryarbajwa/browser-agent/pkg/models"
)

// ScreenshotTaker captures a diagnostic screenshot during auto-closure
type ScreenshotTaker interface {
	Screenshot(ctx context.Context, params executor.ScreenshotParams) (*executor.ScreenshotResult, error)
}

// Config bounds the sweep. A zero duration disables that check entirely.
type Config struct {
	Interval           time.Duration
	MaxSessionDuration time.Duration
	MaxIdleDuration    time.Duration
}

// Reaper owns the sweep loop
type Reaper struct {
	cfg      Config
	registry *registry.Registry
	sink     audit.Sink
	shots    ScreenshotTaker
	host     windows.Host
	now      func() time.Time

	wg  sync.WaitGroup
	sem *semaphore.Weighted
}

// New creates a reaper. shots may be nil to skip diagnostic screenshots.
func New(cfg Config, reg *registry.Registry, sink audit.Sink, shots ScreenshotTaker, host windows.Host) *Reaper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if host == nil {
		host = windows.NoopHost{}
	}
	return &Reaper{
		cfg:      cfg,
		registry: reg,
		sink:     sink,
		shots:    shots,
		host:     host,
		now:      time.Now,
		sem:      semaphore.NewWeighted(8),
	}
}

// WithClock injects a time source for tests
func (r *Reaper) WithClock(now func() time.Time) *Reaper {
	r.now = now
	return r
}

// Run ticks until the context is cancelled, then drains in-flight reaps
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Drain()
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick scans the registry once and dispatches reaping for every expired
// session without awaiting it.
func (r *Reaper) Tick(ctx context.Context) {
	if r.cfg.MaxSessionDuration <= 0 && r.cfg.MaxIdleDuration <= 0 {
		return
	}

	now := r.now()
	for _, s := range r.registry.List(models.SessionFilter{Status: models.StatusRunning}) {
		reason := r.expiryReason(s, now)
		if reason == "" {
			continue
		}

		s := s
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("sweep: reap of %s panicked: %v", s.ID, rec)
				}
			}()
			if err := r.sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer r.sem.Release(1)
			r.reap(ctx, s, reason)
		}()
	}
}

// Drain blocks until every dispatched reap has finished. Tests use it to
// observe reaping deterministically.
func (r *Reaper) Drain() {
	r.wg.Wait()
}

// expiryReason reports why the session is expired: "duration", "idle",
// "duration_and_idle", or "" when it is still live.
func (r *Reaper) expiryReason(s *models.Session, now time.Time) string {
	overDuration := r.cfg.MaxSessionDuration > 0 && now.Sub(s.CreatedAt) > r.cfg.MaxSessionDuration
	overIdle := r.cfg.MaxIdleDuration > 0 && now.Sub(s.LastActiveAt) > r.cfg.MaxIdleDuration

	switch {
	case overDuration && overIdle:
		return "duration_and_idle"
	case overDuration:
		return "duration"
	case overIdle:
		return "idle"
	default:
		return ""
	}
}

func (r *Reaper) reap(ctx context.Context, s *models.Session, reason string) {
	log.Printf("sweep: auto-closing session %s (%s)", s.ID, reason)

	if r.shots != nil {
		shot, err := r.shots.Screenshot(ctx, executor.ScreenshotParams{
			SessionID:   s.ID,
			Description: "auto-close: " + reason,
		})
		if err != nil {
			log.Printf("sweep: screenshot for %s failed: %v", s.ID, err)
		} else {
			r.persistSnapshot(s.ID, shot, "auto-close: "+reason)
		}
	}

	closed := r.registry.Close(s.ID)
	if closed == nil {
		// Another path won the race; it also owns the terminal record
		return
	}

	finished := r.now()
	r.sink.AppendSession(models.SessionRecord{
		SessionID:        closed.ID,
		Profile:          closed.Profile,
		ClientID:         closed.ClientID,
		Status:           models.StatusTimeout,
		FinishedAt:       &finished,
		LastErrorCode:    "TIMEOUT",
		LastErrorMessage: "session auto-closed: " + reason,
	})

	if closed.WindowID != nil {
		if err := r.host.Close(*closed.WindowID); err != nil {
			log.Printf("sweep: window close for %s failed: %v", closed.ID, err)
		}
	}
}

func (r *Reaper) persistSnapshot(sessionID string, shot *executor.ScreenshotResult, description string) {
	now := r.now()
	r.sink.AppendSnapshot(models.SnapshotRecord{
		SnapshotID:  shot.SnapshotID,
		SessionID:   sessionID,
		Path:        shot.Path,
		Description: description,
		CreatedAt:   now,
	})
	r.sink.AppendFile(models.FileRecord{
		FileID:    shot.SnapshotID,
		SessionID: sessionID,
		Path:      shot.Path,
		Name:      shot.SnapshotID + "." + extOf(shot.MimeType),
		Size:      shot.Size,
		MimeType:  shot.MimeType,
		CreatedAt: now,
	})
}

func extOf(mimeType string) string {
	if mimeType == "image/jpeg" {
		return "jpg"
	}
	return "png"
}
