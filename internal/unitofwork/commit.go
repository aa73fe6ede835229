package unitofwork

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"trailkeeper/internal/database"
	apperrors "trailkeeper/internal/errors"
	"trailkeeper/internal/metrics"
	"trailkeeper/internal/tracking"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Commit runs the unit-of-work to completion. Business rows and audit rows
// are written in one transaction: a stale concurrency token, a failed
// write or a failed audit write rolls everything back and the unit-of-work
// ends Aborted. Cancellation through ctx is honoured until persisting
// starts; after that the commit always resolves.
func (u *UnitOfWork) Commit(ctx context.Context) (*Result, error) {
	if u.cancelled {
		return nil, apperrors.Wrap(apperrors.ErrCancelled, context.Canceled)
	}
	if err := u.ensureOpen(); err != nil {
		return nil, err
	}

	started := time.Now()
	ctx, span := u.tracer.Start(ctx, "unitofwork.Commit")
	defer span.End()

	res, outcome, err := u.commit(ctx)

	span.SetAttributes(
		attribute.String("uow.outcome", outcome),
		attribute.Int("uow.entries", len(u.entries)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	u.metrics.ObserveCommit(outcome, time.Since(started))
	return res, err
}

func (u *UnitOfWork) commit(ctx context.Context) (*Result, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, metrics.OutcomeCancelled, u.cancel(err)
	}

	now := u.clock().UTC().Truncate(time.Microsecond)

	// Detect changes: an update that changed no data is not an update.
	for _, en := range u.entries {
		if en.state == tracking.Modified && len(tracking.Diff(en.original, en.entity.DataFields())) == 0 {
			en.state = tracking.Unchanged
		}
	}
	dirty := u.dirty()
	if len(dirty) == 0 && len(u.enlisted) == 0 {
		u.phase = PhaseCommitted
		return &Result{Now: now}, metrics.OutcomeNoop, nil
	}

	u.phase = PhaseStamping
	saved := make(map[*entry]tracking.Stamps, len(dirty))
	for _, en := range dirty {
		saved[en] = *en.entity.GetStamps()
		tracking.Stamp(en.entity, en.state, u.actor, now)
	}
	if err := ctx.Err(); err != nil {
		u.restore(saved)
		return nil, metrics.OutcomeCancelled, u.cancel(err)
	}

	u.phase = PhaseDiffing
	entries := make([]tracking.Entry, 0, len(dirty))
	for _, en := range dirty {
		entries = append(entries, tracking.Entry{Entity: en.entity, State: en.state, Original: en.original})
	}
	changes := tracking.BuildChangeRecords(entries)
	if err := ctx.Err(); err != nil {
		u.restore(saved)
		return nil, metrics.OutcomeCancelled, u.cancel(err)
	}

	u.phase = PhasePersisting
	pctx := context.WithoutCancel(ctx)
	res := &Result{Now: now, Changes: changes}
	err := u.db.WithContext(pctx).Transaction(func(tx *gorm.DB) error {
		for _, en := range dirty {
			if err := persist(tx, en); err != nil {
				return err
			}
		}

		txCtx := tracking.WithNow(database.WithTx(pctx, tx), now)
		if len(changes) > 0 {
			records, err := u.writer.WriteChangeRecords(txCtx, changes, u.actor, now)
			if err != nil {
				if !errors.Is(err, apperrors.ErrAuditPersistence) {
					err = apperrors.Wrap(apperrors.ErrAuditPersistence, err)
				}
				return err
			}
			res.Records = records
		}
		for _, fn := range u.enlisted {
			if err := fn(txCtx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		u.restore(saved)
		u.phase = PhaseAborted
		outcome := metrics.OutcomeFailed
		if errors.Is(err, apperrors.ErrConcurrencyConflict) {
			outcome = metrics.OutcomeConflict
			u.log.Warnw("Unit of work aborted on stale concurrency token", "actor", u.actor, "error", err)
		} else {
			u.log.Errorw("Unit of work aborted", "actor", u.actor, "error", err)
		}
		if apperrors.CodeOf(err) == "" {
			err = apperrors.Wrap(apperrors.ErrPersistence, err)
		}
		return nil, outcome, err
	}

	u.phase = PhaseCommitted
	for _, en := range dirty {
		if en.state == tracking.Deleted {
			u.forget(en)
			continue
		}
		en.state = tracking.Unchanged
		en.original = tracking.Snapshot(en.entity)
		en.token = en.entity.GetStamps().Token()
	}
	return res, metrics.OutcomeCommitted, nil
}

func (u *UnitOfWork) dirty() []*entry {
	var out []*entry
	for _, en := range u.entries {
		if en.state.Dirty() {
			out = append(out, en)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].dirtySeq < out[j].dirtySeq })
	return out
}

func (u *UnitOfWork) cancel(cause error) error {
	u.phase = PhaseAborted
	u.cancelled = true
	return apperrors.Wrap(apperrors.ErrCancelled, cause)
}

// restore puts back the stamps an aborted commit had applied in memory, so
// the entity still carries the token it was loaded with.
func (u *UnitOfWork) restore(saved map[*entry]tracking.Stamps) {
	for en, stamps := range saved {
		*en.entity.GetStamps() = stamps
	}
}

// persist writes one dirty entity. Updates and deletes only match the row
// while its stored token still equals the one read at load time.
func persist(tx *gorm.DB, en *entry) error {
	table := en.entity.TableName()
	switch en.state {
	case tracking.Added:
		if err := tx.Omit(clause.Associations).Create(en.entity).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrPersistence, fmt.Errorf("insert %s: %w", table, err))
		}
		return nil

	case tracking.Modified:
		res := tx.Model(en.entity).
			Scopes(tokenMatches(en.token)).
			Select("*").
			Omit("id", "created_by", "created_time", clause.Associations).
			Updates(en.entity)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrPersistence, fmt.Errorf("update %s: %w", table, res.Error))
		}
		if res.RowsAffected == 0 {
			return conflict(en)
		}
		return nil

	case tracking.Deleted:
		res := tx.Scopes(tokenMatches(en.token)).Delete(en.entity)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrPersistence, fmt.Errorf("delete %s: %w", table, res.Error))
		}
		if res.RowsAffected == 0 {
			return conflict(en)
		}
		return nil
	}
	return nil
}

func tokenMatches(token *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if token == nil {
			return db.Where("last_modified_time IS NULL")
		}
		return db.Where("last_modified_time = ?", *token)
	}
}

func conflict(en *entry) error {
	return apperrors.Wrap(apperrors.ErrConcurrencyConflict,
		fmt.Errorf("%s %v: stored token no longer matches", en.entity.TableName(), keyOf(en.entity)))
}

func keyOf(e tracking.Entity) string {
	key, err := tracking.EncodeKey(fieldMap(e.KeyFields()))
	if err != nil {
		return "?"
	}
	return key
}

func fieldMap(fields []tracking.Field) tracking.Values {
	out := make(tracking.Values, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Value
	}
	return out
}
