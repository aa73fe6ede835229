// Package unitofwork coordinates one atomic batch of entity mutations:
// it stamps ownership fields, diffs the dirty entities, and writes the
// business rows together with their audit rows in a single transaction.
//
// A UnitOfWork is request scoped and must not be shared between goroutines.
package unitofwork

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trailkeeper/internal/database"
	apperrors "trailkeeper/internal/errors"
	"trailkeeper/internal/logger"
	"trailkeeper/internal/metrics"
	"trailkeeper/internal/models"
	"trailkeeper/internal/tracking"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuditWriter persists change records. Implementations must write through
// the transaction carried by ctx (see database.WithTx) and report every
// failure; a returned error aborts the commit.
type AuditWriter interface {
	WriteChangeRecords(ctx context.Context, records []tracking.ChangeRecord, actor string, now time.Time) ([]models.AuditLog, error)
}

// Result describes a successful commit.
type Result struct {
	// Now is the single timestamp shared by every stamp and audit row.
	Now     time.Time
	Changes []tracking.ChangeRecord
	Records []models.AuditLog
}

type entry struct {
	entity   tracking.Entity
	state    tracking.State
	original []tracking.Field
	token    *time.Time
	// dirtySeq orders change records by when the entity first became dirty.
	dirtySeq int
}

type idAssigner interface {
	AssignID()
}

// UnitOfWork tracks entities for one logical operation.
type UnitOfWork struct {
	db      *gorm.DB
	writer  AuditWriter
	actor   string
	clock   func() time.Time
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	entries   []*entry
	index     map[tracking.Entity]*entry
	enlisted  []func(ctx context.Context) error
	seq       int
	phase     Phase
	cancelled bool
}

// Option configures a UnitOfWork.
type Option func(*UnitOfWork)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(u *UnitOfWork) {
		if clock != nil {
			u.clock = clock
		}
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(u *UnitOfWork) {
		if log != nil {
			u.log = log
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(u *UnitOfWork) { u.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(u *UnitOfWork) {
		if t != nil {
			u.tracer = t
		}
	}
}

// New starts an open unit-of-work acting on behalf of actor. An empty actor
// means no identity is available.
func New(db *gorm.DB, writer AuditWriter, actor string, opts ...Option) *UnitOfWork {
	u := &UnitOfWork{
		db:     db,
		writer: writer,
		actor:  actor,
		clock:  time.Now,
		log:    logger.Named("unitofwork"),
		tracer: otel.Tracer("trailkeeper/unitofwork"),
		index:  make(map[tracking.Entity]*entry),
		phase:  PhaseOpen,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Phase returns the current lifecycle phase.
func (u *UnitOfWork) Phase() Phase { return u.phase }

// Actor returns the identity mutations are attributed to.
func (u *UnitOfWork) Actor() string { return u.actor }

// State returns the tracked state of e, Detached if it is not tracked.
func (u *UnitOfWork) State(e tracking.Entity) tracking.State {
	if en, ok := u.index[e]; ok {
		return en.state
	}
	return tracking.Detached
}

func (u *UnitOfWork) ensureOpen() error {
	if u.phase != PhaseOpen {
		return apperrors.Wrap(apperrors.ErrInvalidState, fmt.Errorf("unit of work is %s", u.phase))
	}
	return nil
}

// Load reads the row with the given id into dest and starts tracking it.
func (u *UnitOfWork) Load(ctx context.Context, dest tracking.Entity, id string) error {
	if err := u.ensureOpen(); err != nil {
		return err
	}
	err := database.Conn(ctx, u.db).Where("id = ?", id).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(apperrors.ErrNotFound, fmt.Errorf("%s %s", dest.TableName(), id))
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return u.Attach(dest)
}

// Attach starts tracking an entity that was read elsewhere. Its current
// data fields and concurrency token become the baseline for the diff.
func (u *UnitOfWork) Attach(e tracking.Entity) error {
	if err := u.ensureOpen(); err != nil {
		return err
	}
	if _, ok := u.index[e]; ok {
		return nil
	}
	u.track(&entry{
		entity:   e,
		state:    tracking.Unchanged,
		original: tracking.Snapshot(e),
		token:    e.GetStamps().Token(),
	})
	return nil
}

// Add schedules a new entity for insertion.
func (u *UnitOfWork) Add(e tracking.Entity) error {
	if err := u.ensureOpen(); err != nil {
		return err
	}
	if _, ok := u.index[e]; ok {
		return apperrors.Wrap(apperrors.ErrInvalidState, fmt.Errorf("%s is already tracked", e.TableName()))
	}
	if a, ok := e.(idAssigner); ok {
		a.AssignID()
	}
	en := &entry{entity: e, state: tracking.Added}
	u.track(en)
	u.markDirty(en)
	return nil
}

// Update marks a tracked entity as modified. Whether anything actually
// changed is decided at commit time.
func (u *UnitOfWork) Update(e tracking.Entity) error {
	if err := u.ensureOpen(); err != nil {
		return err
	}
	en, ok := u.index[e]
	if !ok {
		return apperrors.Wrap(apperrors.ErrInvalidState, fmt.Errorf("update of untracked %s", e.TableName()))
	}
	switch en.state {
	case tracking.Unchanged:
		en.state = tracking.Modified
		u.markDirty(en)
	case tracking.Deleted:
		return apperrors.Wrap(apperrors.ErrInvalidState, fmt.Errorf("update of deleted %s", e.TableName()))
	}
	return nil
}

// Remove schedules a tracked entity for deletion. Removing an entity that
// was added in this unit-of-work simply forgets it.
func (u *UnitOfWork) Remove(e tracking.Entity) error {
	if err := u.ensureOpen(); err != nil {
		return err
	}
	en, ok := u.index[e]
	if !ok {
		return apperrors.Wrap(apperrors.ErrInvalidState, fmt.Errorf("remove of untracked %s", e.TableName()))
	}
	if en.state == tracking.Added {
		u.forget(en)
		return nil
	}
	en.state = tracking.Deleted
	u.markDirty(en)
	return nil
}

// Enlist registers an extra write, typically a free-form audit event, to
// run inside the commit transaction after the change records are written.
// A failing enlisted write aborts the commit.
func (u *UnitOfWork) Enlist(fn func(ctx context.Context) error) error {
	if err := u.ensureOpen(); err != nil {
		return err
	}
	u.enlisted = append(u.enlisted, fn)
	return nil
}

// Cancel abandons the unit-of-work. Nothing has been written while it is
// open, so cancelling is always clean; it is refused once commit has
// started.
func (u *UnitOfWork) Cancel() error {
	if err := u.ensureOpen(); err != nil {
		return err
	}
	u.phase = PhaseAborted
	u.cancelled = true
	return nil
}

func (u *UnitOfWork) track(en *entry) {
	u.entries = append(u.entries, en)
	u.index[en.entity] = en
}

func (u *UnitOfWork) markDirty(en *entry) {
	if en.dirtySeq == 0 {
		u.seq++
		en.dirtySeq = u.seq
	}
}

func (u *UnitOfWork) forget(en *entry) {
	delete(u.index, en.entity)
	for i, other := range u.entries {
		if other == en {
			u.entries = append(u.entries[:i], u.entries[i+1:]...)
			return
		}
	}
}
