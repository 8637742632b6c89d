// Package audit records mutations into the append-only audit log and exports
// role-scoped slices of it.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/ids"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

// Event describes a mutation to record. ActorID may be empty for system actions.
type Event struct {
	ActorID  string
	Action   string
	Entity   string
	EntityID string
	Metadata map[string]interface{}
}

// Observer receives the outcome of every write.
type Observer interface {
	ObserveAudit(result string)
}

// Trail writes audit entries off the request path.
type Trail struct {
	entries  store.AuditLog
	users    store.Users
	cases    store.Cases
	log      *logger.Logger
	observer Observer
	now      func() time.Time
	location *time.Location

	wg sync.WaitGroup
}

type Option func(*Trail)

// WithObserver reports write outcomes to o.
func WithObserver(o Observer) Option {
	return func(t *Trail) { t.observer = o }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Trail) { t.now = now }
}

// WithLocation sets the timezone export date ranges are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(t *Trail) {
		if loc != nil {
			t.location = loc
		}
	}
}

func New(entries store.AuditLog, users store.Users, cases store.Cases, log *logger.Logger, opts ...Option) *Trail {
	t := &Trail{
		entries:  entries,
		users:    users,
		cases:    cases,
		log:      log,
		now:      time.Now,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record dispatches the write and returns immediately. It never fails the
// caller: lookup and storage errors are logged and counted. The write is
// detached from ctx cancellation so it survives the request finishing.
func (t *Trail) Record(ctx context.Context, ev Event) {
	stamped := t.now()
	detached := context.WithoutCancel(ctx)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				t.observe("panic")
				t.log.Error(detached, "audit write panicked",
					logger.Module("audit"),
					logger.Action("record"),
					zap.Any("panic", r),
					zap.String("entity", ev.Entity),
					zap.String("entity_id", ev.EntityID),
				)
			}
		}()
		t.write(detached, ev, stamped)
	}()
}

func (t *Trail) write(ctx context.Context, ev Event, stamped time.Time) {
	entry := &domain.AuditEntry{
		ID:        ids.NewAt(stamped),
		Action:    ev.Action,
		Entity:    ev.Entity,
		EntityID:  ev.EntityID,
		Metadata:  ev.Metadata,
		Timestamp: stamped,
	}

	if ev.ActorID != "" {
		actor := ev.ActorID
		entry.UserID = &actor

		// snapshot the actor as of now; later renames must not rewrite history
		if u, err := t.users.Get(ctx, actor); err == nil {
			name, role := u.Name, string(u.Role)
			entry.UserName = &name
			entry.Role = &role
		} else {
			t.log.Warn(ctx, "audit actor lookup failed",
				logger.Module("audit"),
				logger.Action("record"),
				zap.String("actor_id", actor),
				zap.Error(err),
			)
		}
	}

	if err := t.entries.Append(ctx, entry); err != nil {
		t.observe("error")
		t.log.Error(ctx, "failed to write audit entry",
			logger.Module("audit"),
			logger.Action("record"),
			zap.String("audit_action", ev.Action),
			zap.String("entity", ev.Entity),
			zap.String("entity_id", ev.EntityID),
			zap.Error(err),
		)
		return
	}
	t.observe("ok")
}

// Flush blocks until every dispatched write has finished or ctx is done.
func (t *Trail) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit flush: %w", ctx.Err())
	}
}

func (t *Trail) observe(result string) {
	if t.observer != nil {
		t.observer.ObserveAudit(result)
	}
}
