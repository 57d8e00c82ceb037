package postgres

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ormkit/persistq/cache"
	"github.com/ormkit/persistq/database"
	"github.com/ormkit/persistq/query"
)

// executionPlan is where the base query's limit and hint dispatch lands.
// It is consumed once, at build time, to shape the statement and its
// execution context.
type executionPlan struct {
	firstResult    int
	maxResults     int
	timeout        time.Duration
	lockTimeout    time.Duration
	comment        string
	cacheable      bool
	cacheRegion    string
	readOnly       bool
	cacheMode      query.CacheMode
	flushMode      query.FlushMode
	aliasLockModes map[string]query.LockMode
}

func newExecutionPlan() executionPlan {
	return executionPlan{
		maxResults:     -1,
		aliasLockModes: make(map[string]query.LockMode),
	}
}

// lockClauseModes is the order lock clauses are appended in; grouping
// by mode keeps the rendered text stable across runs.
var lockClauseModes = []query.LockMode{
	query.LockPessimisticWrite,
	query.LockPessimisticForceIncrement,
	query.LockPessimisticRead,
	query.LockRead,
}

// BuildSQL assembles the final statement text and its driver arguments:
// comment prefix, rewritten body, lock clauses, then LIMIT/OFFSET.
// Named placeholders yield a single pgx.NamedArgs argument.
func (q *Query) BuildSQL() (string, []any, error) {
	args, err := q.arguments()
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString(q.dial.CommentPrefix(q.plan.comment))
	sb.WriteString(q.stmt.text)

	for _, mode := range lockClauseModes {
		var aliases []string
		for alias, m := range q.plan.aliasLockModes {
			if m == mode {
				aliases = append(aliases, alias)
			}
		}
		if len(aliases) == 0 {
			continue
		}
		sort.Strings(aliases)
		if clause := q.dial.LockClause(mode, aliases); clause != "" {
			sb.WriteString(clause)
		}
	}

	if q.plan.maxResults >= 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(q.plan.maxResults))
	}
	if q.plan.firstResult > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(q.plan.firstResult))
	}
	return sb.String(), args, nil
}

func (q *Query) arguments() ([]any, error) {
	if len(q.stmt.named) > 0 && len(q.stmt.positional) > 0 {
		return nil, ErrMixedPlaceholders
	}
	if len(q.stmt.named) > 0 {
		named := make(pgx.NamedArgs, len(q.stmt.named))
		for _, name := range q.stmt.named {
			v, err := q.NamedParameterValue(name)
			if err != nil {
				return nil, err
			}
			named[argName(name)] = v
		}
		return []any{named}, nil
	}
	args := make([]any, 0, len(q.stmt.positional))
	for _, pos := range q.stmt.positional {
		v, err := q.PositionalParameterValue(pos)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// List executes the query and snapshots its rows. Cacheable queries go
// through their region first when the cache mode allows reads, and
// refresh it when it allows writes.
func (q *Query) List(ctx context.Context) ([]cache.Row, error) {
	if err := q.Session().CheckOpen(false); err != nil {
		return nil, err
	}
	sqlText, args, err := q.BuildSQL()
	if err != nil {
		return nil, err
	}

	var region *cache.Region
	var key uint64
	if q.plan.cacheable && q.regions != nil {
		region = q.regions.Region(q.regionName())
		key = cache.Fingerprint(sqlText, q.renderArgs(flattenArgs(args)))
		if q.plan.cacheMode.GetEnabled() {
			if rows, ok := region.Get(key); ok {
				q.log.Debug("query cache hit", "region", region.Name())
				return rows, nil
			}
		}
	}

	if q.plan.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.plan.timeout)
		defer cancel()
	}

	out, err := q.queryRows(ctx, sqlText, args)
	if err != nil {
		return nil, q.Session().ConvertError(err)
	}
	if region != nil && q.plan.cacheMode.PutEnabled() {
		region.Put(key, out)
	}
	return out, nil
}

// queryRows runs the statement and snapshots the result. A lock-timeout
// hint forces a transaction: SET LOCAL keeps the setting scoped to it
// instead of leaking onto whatever pooled connection ran a bare SET.
func (q *Query) queryRows(ctx context.Context, sqlText string, args []any) ([]cache.Row, error) {
	if q.plan.lockTimeout > 0 {
		tx, err := q.db.Begin(ctx)
		if err != nil {
			return nil, err
		}
		out, err := queryRowsInTx(ctx, tx, q.lockTimeoutStatement(), sqlText, args)
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return out, nil
	}

	rows, err := q.db.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return snapshotRows(rows)
}

func queryRowsInTx(ctx context.Context, tx database.Tx, setStmt, sqlText string, args []any) ([]cache.Row, error) {
	if _, err := tx.Exec(ctx, setStmt); err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return snapshotRows(rows)
}

func (q *Query) lockTimeoutStatement() string {
	return fmt.Sprintf("SET LOCAL lock_timeout = %d", q.plan.lockTimeout.Milliseconds())
}

// renderArgs renders argument values for cache keying with the same
// literal formatting the dialect uses in statements.
func (q *Query) renderArgs(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = q.dial.RenderValue(a)
	}
	return out
}

// Single executes the query and returns its only row, or nil when the
// result window is empty.
func (q *Query) Single(ctx context.Context) (cache.Row, error) {
	rows, err := q.List(ctx)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		return nil, fmt.Errorf("query returned %d rows, expected at most one", len(rows))
	}
}

// ExecuteUpdate runs the statement for its side effects and returns the
// affected row count. It is a mutating operation, so a closed session
// is marked rollback-only.
func (q *Query) ExecuteUpdate(ctx context.Context) (int64, error) {
	if err := q.Session().CheckOpen(true); err != nil {
		return 0, err
	}
	sqlText, args, err := q.BuildSQL()
	if err != nil {
		return 0, err
	}
	if q.plan.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.plan.timeout)
		defer cancel()
	}

	if q.plan.lockTimeout > 0 {
		tx, err := q.db.Begin(ctx)
		if err != nil {
			return 0, q.Session().ConvertError(err)
		}
		n, err := execInTx(ctx, tx, q.lockTimeoutStatement(), sqlText, args)
		if err != nil {
			_ = tx.Rollback(ctx)
			return 0, q.Session().ConvertError(err)
		}
		if err := tx.Commit(ctx); err != nil {
			return 0, q.Session().ConvertError(err)
		}
		return n, nil
	}

	res, err := q.db.Exec(ctx, sqlText, args...)
	if err != nil {
		return 0, q.Session().ConvertError(err)
	}
	return res.RowsAffected(), nil
}

func execInTx(ctx context.Context, tx database.Tx, setStmt, sqlText string, args []any) (int64, error) {
	if _, err := tx.Exec(ctx, setStmt); err != nil {
		return 0, err
	}
	res, err := tx.Exec(ctx, sqlText, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

// regionName resolves the cache region: the region hint wins, then the
// entity's table name, then a shared default.
func (q *Query) regionName() string {
	if q.plan.cacheRegion != "" {
		return q.plan.cacheRegion
	}
	if q.entityName != "" {
		return "persistq:" + q.naming.TableName(q.entityName)
	}
	return "persistq:default"
}

func snapshotRows(rows database.Rows) ([]cache.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []cache.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(cache.Row, len(cols))
		for i, col := range cols {
			if i < len(values) {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func flattenArgs(args []any) []any {
	if len(args) == 1 {
		if named, ok := args[0].(pgx.NamedArgs); ok {
			flat := make([]any, 0, len(named)*2)
			keys := make([]string, 0, len(named))
			for k := range named {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				flat = append(flat, k, named[k])
			}
			return flat
		}
	}
	return args
}
