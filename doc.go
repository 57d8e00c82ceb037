// Package persistq is a query-object layer for PostgreSQL.
//
// The query package holds the provider-independent core: result-window
// limits, advisory hints, flush-mode negotiation and the parameter
// registry with bind-time type validation. The engine package owns
// sessions, and providers/postgres supplies the concrete query that
// turns hints into an executable statement.
package persistq
