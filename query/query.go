// Package query implements the shared base behavior for query objects:
// result-window limits, advisory hint dispatch, flush-mode negotiation
// and the parameter registration/binding subsystem. Provider-specific
// concerns (plan mutation, execution) live behind the Hooks contract
// supplied by concrete query implementations.
package query

import (
	"fmt"
	"log/slog"
	"math"
)

// Session is the contract the owning session/entity manager supplies to
// its queries: lifecycle checks, default properties and error
// translation. Concrete sessions live in the engine package.
type Session interface {
	// CheckOpen returns ErrSessionClosed when the session is no longer
	// open. When markForRollback is true a closed session is
	// additionally marked rollback-only before the error is returned.
	CheckOpen(markForRollback bool) error

	// Property looks up a session-level default, e.g. the cache
	// retrieve/store modes consulted when only one half of the split
	// cache-mode hints is set on the query.
	Property(name string) (any, bool)

	// FlushMode is the session-level flush mode queries fall back to
	// when no override was set on the query itself.
	FlushMode() FlushModeType

	// ConvertError translates a lower-level persistence error into the
	// caller-facing error family. Query-layer errors pass through.
	ConvertError(err error) error
}

// Hooks is the contract a concrete query implementation supplies. The
// base query validates and stores; hooks propagate values to the
// provider's execution plan. Apply*Hint hooks report whether the hint
// was actually applied; unapplied hints are dropped, not stored.
type Hooks interface {
	ApplyFirstResult(firstResult int)
	ApplyMaxResults(maxResults int)

	// ApplyTimeoutHint receives the timeout in seconds.
	ApplyTimeoutHint(seconds int) bool
	// ApplyLockTimeoutHint receives the lock timeout in seconds.
	ApplyLockTimeoutHint(seconds int) bool
	ApplyCommentHint(comment string) bool
	ApplyFetchSizeHint(fetchSize int) bool
	ApplyCacheableHint(cacheable bool) bool
	ApplyCacheRegionHint(region string) bool
	ApplyReadOnlyHint(readOnly bool) bool
	ApplyCacheModeHint(mode CacheMode) bool
	ApplyFlushModeHint(mode FlushMode) bool

	// CanApplyAliasLockModeHints gates the alias-specific lock-mode
	// hint family; ApplyAliasLockModeHint is only called after it
	// returns true.
	CanApplyAliasLockModeHints() bool
	ApplyAliasLockModeHint(alias string, mode LockMode)

	// IsOrdinalParameterName reports whether the given integer position
	// is really a named parameter in disguise (queries using ":1"-style
	// placeholders register them under the name "1").
	IsOrdinalParameterName(position int) bool
}

// BaseQuery is the common core embedded by every concrete query type.
// A query instance belongs to exactly one session and, like the
// session, is not safe for concurrent mutation.
type BaseQuery struct {
	session Session
	hooks   Hooks
	log     *slog.Logger

	firstResult int
	maxResults  int
	hints       map[string]any
	flushMode   FlushModeType

	registrations []*Registration
}

// NewBaseQuery wires a base query to its owning session and the
// concrete implementation's hooks.
func NewBaseQuery(session Session, hooks Hooks, log *slog.Logger) *BaseQuery {
	if log == nil {
		log = slog.Default()
	}
	return &BaseQuery{
		session:    session,
		hooks:      hooks,
		log:        log,
		maxResults: -1,
		hints:      make(map[string]any),
	}
}

// Session returns the owning session.
func (q *BaseQuery) Session() Session {
	return q.session
}

// SetFirstResult stores the result-window offset and propagates it to
// the execution plan. Negative values are rejected before any state
// changes.
func (q *BaseQuery) SetFirstResult(firstResult int) error {
	if err := q.session.CheckOpen(true); err != nil {
		return err
	}
	if firstResult < 0 {
		return fmt.Errorf("%w: %d passed to SetFirstResult", ErrNegativeLimit, firstResult)
	}
	q.firstResult = firstResult
	q.hooks.ApplyFirstResult(firstResult)
	return nil
}

// FirstResult returns the stored offset. The open check here is the
// relaxed variant: a closed session fails the read but is not marked
// rollback-only, unlike the mutators.
func (q *BaseQuery) FirstResult() (int, error) {
	if err := q.session.CheckOpen(false); err != nil {
		return 0, err
	}
	return q.firstResult, nil
}

// SetMaxResults stores the result-window bound and propagates it to the
// execution plan.
func (q *BaseQuery) SetMaxResults(maxResults int) error {
	if err := q.session.CheckOpen(true); err != nil {
		return err
	}
	if maxResults < 0 {
		return fmt.Errorf("%w: %d passed to SetMaxResults", ErrNegativeLimit, maxResults)
	}
	q.maxResults = maxResults
	q.hooks.ApplyMaxResults(maxResults)
	return nil
}

// SpecifiedMaxResults returns the raw stored bound, -1 when none was
// ever set. Providers use this; callers use MaxResults.
func (q *BaseQuery) SpecifiedMaxResults() int {
	return q.maxResults
}

// MaxResults reports "no limit" as the maximum representable int, per
// the host persistence-API convention.
func (q *BaseQuery) MaxResults() (int, error) {
	if err := q.session.CheckOpen(false); err != nil {
		return 0, err
	}
	if q.maxResults == -1 {
		return math.MaxInt, nil
	}
	return q.maxResults, nil
}

// SetFlushMode stores the caller's flush preference. Auto and Commit
// are mirrored into the provider-level flush-mode hint; Always and
// Manual are accepted and stored but never forwarded.
func (q *BaseQuery) SetFlushMode(mode FlushModeType) error {
	if err := q.session.CheckOpen(true); err != nil {
		return err
	}
	q.flushMode = mode
	switch mode {
	case FlushTypeAuto:
		q.hooks.ApplyFlushModeHint(FlushAuto)
	case FlushTypeCommit:
		q.hooks.ApplyFlushModeHint(FlushCommit)
	}
	return nil
}

// SpecifiedFlushMode returns the stored override, FlushTypeUnspecified
// when the caller never set one.
func (q *BaseQuery) SpecifiedFlushMode() FlushModeType {
	return q.flushMode
}

// FlushMode returns the stored override, falling back to the owning
// session's current flush mode.
func (q *BaseQuery) FlushMode() (FlushModeType, error) {
	if err := q.session.CheckOpen(false); err != nil {
		return FlushTypeUnspecified, err
	}
	if q.flushMode != FlushTypeUnspecified {
		return q.flushMode, nil
	}
	return q.session.FlushMode(), nil
}
