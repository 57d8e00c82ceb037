package dialect

import "github.com/ormkit/persistq/query"

type Dialect interface {
	QuoteIdentifier(name string) string
	RenderValue(v any) string
	// CommentPrefix renders a statement comment to prepend to the query
	// text; empty comments render empty.
	CommentPrefix(comment string) string
	// LockClause renders the row-locking clause for a lock mode scoped
	// to the given result aliases. Modes without a pessimistic clause
	// render empty.
	LockClause(mode query.LockMode, aliases []string) string
}
