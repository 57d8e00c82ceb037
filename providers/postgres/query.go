// Package postgres is the PostgreSQL query implementation: it supplies
// the hook contract the base query dispatches into, accumulating limits
// and hints in an execution plan that shapes the final statement.
package postgres

import (
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ormkit/persistq/cache"
	"github.com/ormkit/persistq/database"
	"github.com/ormkit/persistq/dialect"
	"github.com/ormkit/persistq/query"
	"github.com/ormkit/persistq/schema"
)

// Query is a PostgreSQL-backed query object. Parameters declared in the
// statement text (":name", ":1" or "$1" placeholders) are registered at
// construction.
type Query struct {
	*query.BaseQuery

	id      ulid.ULID
	stmt    statement
	db      database.Database
	regions *cache.RegionManager
	dial    dialect.Dialect
	naming  schema.NamingStrategy
	log     *slog.Logger

	entityName string
	plan       executionPlan
}

// NewQuery parses the statement text, registers its parameters and
// wires the base query to this provider's hooks.
func NewQuery(session query.Session, sqlText string, db database.Database, regions *cache.RegionManager, log *slog.Logger) *Query {
	if log == nil {
		log = slog.Default()
	}
	id := ulid.Make()
	q := &Query{
		id:      id,
		stmt:    parseStatement(sqlText),
		db:      db,
		regions: regions,
		dial:    dialect.NewPostgresDialect(),
		naming:  schema.DefaultNamingStrategy(),
		log:     log.With("query_id", id.String()),
		plan:    newExecutionPlan(),
	}
	q.BaseQuery = query.NewBaseQuery(session, q, q.log)

	for _, name := range q.stmt.named {
		_ = q.RegisterParameter(query.NamedParameter(name, query.ModeIn, nil))
	}
	for _, pos := range q.stmt.positional {
		_ = q.RegisterParameter(query.PositionalParameter(pos, query.ModeIn, nil))
	}
	return q
}

// ID returns the query instance identity used in log correlation.
func (q *Query) ID() ulid.ULID {
	return q.id
}

// SetEntityName names the entity this query loads; it feeds the default
// cache-region name when the cache-region hint was not given.
func (q *Query) SetEntityName(name string) {
	q.entityName = name
}

// DefaultAlias returns the alias alias-specific lock-mode hints target
// when the caller did not pick one.
func (q *Query) DefaultAlias() string {
	if q.entityName == "" {
		return ""
	}
	return q.naming.DefaultAlias(q.entityName)
}

// =========================================================================
// query.Hooks
// =========================================================================

func (q *Query) ApplyFirstResult(firstResult int) {
	q.plan.firstResult = firstResult
}

func (q *Query) ApplyMaxResults(maxResults int) {
	q.plan.maxResults = maxResults
}

func (q *Query) ApplyTimeoutHint(seconds int) bool {
	q.plan.timeout = time.Duration(seconds) * time.Second
	return true
}

func (q *Query) ApplyLockTimeoutHint(seconds int) bool {
	q.plan.lockTimeout = time.Duration(seconds) * time.Second
	return true
}

func (q *Query) ApplyCommentHint(comment string) bool {
	q.plan.comment = comment
	return true
}

// ApplyFetchSizeHint declines: pgx streams rows and exposes no
// driver-level fetch size.
func (q *Query) ApplyFetchSizeHint(fetchSize int) bool {
	return false
}

func (q *Query) ApplyCacheableHint(cacheable bool) bool {
	q.plan.cacheable = cacheable
	return true
}

func (q *Query) ApplyCacheRegionHint(region string) bool {
	q.plan.cacheRegion = region
	return true
}

func (q *Query) ApplyReadOnlyHint(readOnly bool) bool {
	q.plan.readOnly = readOnly
	return true
}

func (q *Query) ApplyCacheModeHint(mode query.CacheMode) bool {
	q.plan.cacheMode = mode
	return true
}

func (q *Query) ApplyFlushModeHint(mode query.FlushMode) bool {
	q.plan.flushMode = mode
	return true
}

func (q *Query) CanApplyAliasLockModeHints() bool {
	return true
}

func (q *Query) ApplyAliasLockModeHint(alias string, mode query.LockMode) {
	q.plan.aliasLockModes[alias] = mode
}

// IsOrdinalParameterName reports whether the statement used ":1"-style
// placeholders, which register under the digits as their name.
func (q *Query) IsOrdinalParameterName(position int) bool {
	return q.stmt.ordinalAsNamed
}

var _ query.Hooks = (*Query)(nil)
