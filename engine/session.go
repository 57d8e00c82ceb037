package engine

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ormkit/persistq/providers/postgres"
	"github.com/ormkit/persistq/query"
)

// Session is one unit of work against the engine's database. It backs
// the query layer's Session contract: open/closed checks with optional
// rollback marking, property lookup and error translation.
type Session struct {
	id           uuid.UUID
	engine       *Engine
	open         bool
	rollbackOnly bool
	flushMode    query.FlushModeType
	props        map[string]any
	log          *slog.Logger
}

func newSession(e *Engine, props map[string]any) *Session {
	id := uuid.New()
	return &Session{
		id:        id,
		engine:    e,
		open:      true,
		flushMode: query.FlushTypeAuto,
		props:     props,
		log:       e.log.With("session_id", id.String()),
	}
}

// ID returns the session identity used in log correlation.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// IsOpen reports whether the session still accepts work.
func (s *Session) IsOpen() bool {
	return s.open
}

// Close ends the session. Every query mutator bound to it fails from
// here on.
func (s *Session) Close() {
	s.open = false
	s.log.Debug("session closed")
}

// CheckOpen implements the query.Session lifecycle contract. Mutators
// call it with markForRollback=true; read accessors use the relaxed
// variant that leaves the rollback flag alone.
func (s *Session) CheckOpen(markForRollback bool) error {
	if s.open {
		return nil
	}
	if markForRollback {
		s.MarkForRollbackOnly()
	}
	return query.ErrSessionClosed
}

// MarkForRollbackOnly flags the session so an enclosing transaction can
// only be rolled back.
func (s *Session) MarkForRollbackOnly() {
	if !s.rollbackOnly {
		s.rollbackOnly = true
		s.log.Debug("session marked rollback-only")
	}
}

// RollbackOnly reports whether the session has been marked.
func (s *Session) RollbackOnly() bool {
	return s.rollbackOnly
}

// Property looks up a session property, falling back to the engine
// defaults the session was opened with.
func (s *Session) Property(name string) (any, bool) {
	v, ok := s.props[name]
	return v, ok
}

// SetProperty overrides a property for this session only.
func (s *Session) SetProperty(name string, value any) {
	s.props[name] = value
}

// FlushMode returns the session-level flush mode queries fall back to.
func (s *Session) FlushMode() query.FlushModeType {
	return s.flushMode
}

// SetFlushMode changes the session-level flush mode.
func (s *Session) SetFlushMode(mode query.FlushModeType) {
	s.flushMode = mode
}

// ConvertError translates lower-level persistence errors into the
// caller-facing family. Query-layer errors and already-translated
// errors pass through untouched.
func (s *Session) ConvertError(err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, query.ErrSessionClosed) ||
		errors.Is(err, query.ErrTypeMismatch) ||
		errors.Is(err, query.ErrParameterNotFound) ||
		errors.Is(err, query.ErrParameterNotBound) ||
		errors.Is(err, query.ErrParameterNotBindable) {
		return err
	}
	return &PersistenceError{Session: s.id, Err: err}
}

// CreateQuery builds a provider query for the given statement text,
// registering any parameters declared in it.
func (s *Session) CreateQuery(sqlText string) (*postgres.Query, error) {
	if err := s.CheckOpen(true); err != nil {
		return nil, err
	}
	return postgres.NewQuery(s, sqlText, s.engine.db, s.engine.regions, s.log), nil
}

// CreateQueryForEntity is CreateQuery with an entity name the provider
// derives default cache-region and alias names from.
func (s *Session) CreateQueryForEntity(sqlText, entityName string) (*postgres.Query, error) {
	if err := s.CheckOpen(true); err != nil {
		return nil, err
	}
	q := postgres.NewQuery(s, sqlText, s.engine.db, s.engine.regions, s.log)
	q.SetEntityName(entityName)
	return q, nil
}
