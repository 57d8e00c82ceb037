package query

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =========================================================================
// Test Collaborators
// =========================================================================

type stubSession struct {
	closed       bool
	rollbackOnly bool
	props        map[string]any
	flushMode    FlushModeType
}

func (s *stubSession) CheckOpen(markForRollback bool) error {
	if s.closed {
		if markForRollback {
			s.rollbackOnly = true
		}
		return ErrSessionClosed
	}
	return nil
}

func (s *stubSession) Property(name string) (any, bool) {
	v, ok := s.props[name]
	return v, ok
}

func (s *stubSession) FlushMode() FlushModeType {
	return s.flushMode
}

func (s *stubSession) ConvertError(err error) error {
	return fmt.Errorf("translated: %w", err)
}

type recordingHooks struct {
	firstResults []int
	maxResults   []int
	timeouts     []int
	lockTimeouts []int
	comments     []string
	fetchSizes   []int
	cacheFlags   []bool
	regions      []string
	readOnly     []bool
	cacheModes   []CacheMode
	flushModes   []FlushMode
	aliasLocks   map[string]LockMode

	decline        map[string]bool
	noAliasLocks   bool
	ordinalAsNamed bool
}

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{
		aliasLocks: make(map[string]LockMode),
		decline:    make(map[string]bool),
	}
}

func (h *recordingHooks) ApplyFirstResult(n int) { h.firstResults = append(h.firstResults, n) }
func (h *recordingHooks) ApplyMaxResults(n int)  { h.maxResults = append(h.maxResults, n) }

func (h *recordingHooks) ApplyTimeoutHint(seconds int) bool {
	h.timeouts = append(h.timeouts, seconds)
	return !h.decline["timeout"]
}

func (h *recordingHooks) ApplyLockTimeoutHint(seconds int) bool {
	h.lockTimeouts = append(h.lockTimeouts, seconds)
	return !h.decline["lock_timeout"]
}

func (h *recordingHooks) ApplyCommentHint(comment string) bool {
	h.comments = append(h.comments, comment)
	return !h.decline["comment"]
}

func (h *recordingHooks) ApplyFetchSizeHint(size int) bool {
	h.fetchSizes = append(h.fetchSizes, size)
	return !h.decline["fetch_size"]
}

func (h *recordingHooks) ApplyCacheableHint(cacheable bool) bool {
	h.cacheFlags = append(h.cacheFlags, cacheable)
	return !h.decline["cacheable"]
}

func (h *recordingHooks) ApplyCacheRegionHint(region string) bool {
	h.regions = append(h.regions, region)
	return !h.decline["cache_region"]
}

func (h *recordingHooks) ApplyReadOnlyHint(readOnly bool) bool {
	h.readOnly = append(h.readOnly, readOnly)
	return !h.decline["read_only"]
}

func (h *recordingHooks) ApplyCacheModeHint(mode CacheMode) bool {
	h.cacheModes = append(h.cacheModes, mode)
	return !h.decline["cache_mode"]
}

func (h *recordingHooks) ApplyFlushModeHint(mode FlushMode) bool {
	h.flushModes = append(h.flushModes, mode)
	return !h.decline["flush_mode"]
}

func (h *recordingHooks) CanApplyAliasLockModeHints() bool {
	return !h.noAliasLocks
}

func (h *recordingHooks) ApplyAliasLockModeHint(alias string, mode LockMode) {
	h.aliasLocks[alias] = mode
}

func (h *recordingHooks) IsOrdinalParameterName(position int) bool {
	return h.ordinalAsNamed
}

func newTestQuery() (*BaseQuery, *stubSession, *recordingHooks) {
	session := &stubSession{props: make(map[string]any), flushMode: FlushTypeAuto}
	hooks := newRecordingHooks()
	return NewBaseQuery(session, hooks, nil), session, hooks
}

// =========================================================================
// Limits
// =========================================================================

func TestSetFirstResult(t *testing.T) {
	q, _, hooks := newTestQuery()

	require.NoError(t, q.SetFirstResult(5))
	got, err := q.FirstResult()
	require.NoError(t, err)
	assert.Equal(t, 5, got)
	assert.Equal(t, []int{5}, hooks.firstResults)
}

func TestSetFirstResultNegative(t *testing.T) {
	q, _, hooks := newTestQuery()

	require.NoError(t, q.SetFirstResult(3))
	err := q.SetFirstResult(-1)
	require.ErrorIs(t, err, ErrNegativeLimit)

	got, err := q.FirstResult()
	require.NoError(t, err)
	assert.Equal(t, 3, got, "stored value must be unchanged after a rejected set")
	assert.Equal(t, []int{3}, hooks.firstResults, "hook must not fire for rejected values")
}

func TestMaxResultsUnsetSentinel(t *testing.T) {
	q, _, _ := newTestQuery()

	got, err := q.MaxResults()
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, got)
	assert.Equal(t, -1, q.SpecifiedMaxResults())
}

func TestSetMaxResults(t *testing.T) {
	q, _, hooks := newTestQuery()

	require.NoError(t, q.SetMaxResults(25))
	got, err := q.MaxResults()
	require.NoError(t, err)
	assert.Equal(t, 25, got)
	assert.Equal(t, 25, q.SpecifiedMaxResults())
	assert.Equal(t, []int{25}, hooks.maxResults)

	require.ErrorIs(t, q.SetMaxResults(-5), ErrNegativeLimit)
	got, err = q.MaxResults()
	require.NoError(t, err)
	assert.Equal(t, 25, got)
}

func TestSetMaxResultsZero(t *testing.T) {
	q, _, _ := newTestQuery()

	require.NoError(t, q.SetMaxResults(0))
	got, err := q.MaxResults()
	require.NoError(t, err)
	assert.Equal(t, 0, got, "an explicit zero limit is distinct from unset")
}

func TestClosedSessionMutatorMarksRollback(t *testing.T) {
	q, session, _ := newTestQuery()
	session.closed = true

	require.ErrorIs(t, q.SetFirstResult(1), ErrSessionClosed)
	assert.True(t, session.rollbackOnly)
}

func TestClosedSessionReadIsRelaxed(t *testing.T) {
	q, session, _ := newTestQuery()
	session.closed = true

	_, err := q.FirstResult()
	require.ErrorIs(t, err, ErrSessionClosed)
	assert.False(t, session.rollbackOnly, "read accessors must not mark the session rollback-only")

	_, err = q.MaxResults()
	require.ErrorIs(t, err, ErrSessionClosed)
	_, err = q.Hints()
	require.ErrorIs(t, err, ErrSessionClosed)
	assert.False(t, session.rollbackOnly)
}

// =========================================================================
// Hints
// =========================================================================

func TestSetHintTimeout(t *testing.T) {
	q, _, hooks := newTestQuery()

	require.NoError(t, q.SetHint(HintTimeout, 30))
	assert.Equal(t, []int{30}, hooks.timeouts)

	hints, err := q.Hints()
	require.NoError(t, err)
	assert.Equal(t, 30, hints[HintTimeout])
}

func TestPortableTimeoutConvertsMillisToSeconds(t *testing.T) {
	q, _, hooks := newTestQuery()

	require.NoError(t, q.SetHint(HintPortableTimeout, 1500))
	require.NoError(t, q.SetHint(HintPortableTimeout, 1400))
	require.NoError(t, q.SetHint(HintPortableTimeout, "2000"))
	assert.Equal(t, []int{2, 1, 2}, hooks.timeouts)
}

func TestSetHintValueCoercion(t *testing.T) {
	q, _, hooks := newTestQuery()

	require.NoError(t, q.SetHint(HintCacheable, "true"))
	require.NoError(t, q.SetHint(HintFetchSize, int64(100)))
	require.NoError(t, q.SetHint(HintCacheMode, "get"))
	require.NoError(t, q.SetHint(HintFlushMode, "commit"))

	assert.Equal(t, []bool{true}, hooks.cacheFlags)
	assert.Equal(t, []int{100}, hooks.fetchSizes)
	assert.Equal(t, []CacheMode{CacheGet}, hooks.cacheModes)
	assert.Equal(t, []FlushMode{FlushCommit}, hooks.flushModes)
}

func TestSetHintWrongValueType(t *testing.T) {
	q, _, _ := newTestQuery()

	require.ErrorIs(t, q.SetHint(HintTimeout, struct{}{}), ErrInvalidHintValue)
	require.ErrorIs(t, q.SetHint(HintComment, 42), ErrInvalidHintValue)
	require.ErrorIs(t, q.SetHint(HintCacheRetrieveMode, "use"), ErrInvalidHintValue)

	hints, err := q.Hints()
	require.NoError(t, err)
	assert.Empty(t, hints)
}

func TestUnrecognizedHintIsDropped(t *testing.T) {
	q, _, _ := newTestQuery()

	require.NoError(t, q.SetHint("vendor.some_unknown_hint", "whatever"))

	hints, err := q.Hints()
	require.NoError(t, err)
	assert.Empty(t, hints)
}

func TestDeclinedHintIsNotRetained(t *testing.T) {
	q, _, hooks := newTestQuery()
	hooks.decline["fetch_size"] = true

	require.NoError(t, q.SetHint(HintFetchSize, 50))
	assert.Equal(t, []int{50}, hooks.fetchSizes, "hook still sees the value")

	hints, err := q.Hints()
	require.NoError(t, err)
	assert.NotContains(t, hints, HintFetchSize)
}

func TestCacheRetrieveStoreCombination(t *testing.T) {
	q, _, hooks := newTestQuery()

	// only the retrieve half set: store defaults to Use
	require.NoError(t, q.SetHint(HintCacheRetrieveMode, CacheRetrieveUse))
	require.Equal(t, []CacheMode{CacheNormal}, hooks.cacheModes)

	// store half arrives: combined with the retained retrieve hint
	require.NoError(t, q.SetHint(HintCacheStoreMode, CacheStoreBypass))
	require.Equal(t, []CacheMode{CacheNormal, CacheGet}, hooks.cacheModes)

	// retrieve updated again: uses the most recently set store half
	require.NoError(t, q.SetHint(HintCacheRetrieveMode, CacheRetrieveBypass))
	require.Equal(t, []CacheMode{CacheNormal, CacheGet, CacheIgnore}, hooks.cacheModes)
}

func TestCacheStoreModeSessionDefault(t *testing.T) {
	q, session, hooks := newTestQuery()
	session.props[HintCacheStoreMode] = CacheStoreRefresh

	require.NoError(t, q.SetHint(HintCacheRetrieveMode, CacheRetrieveUse))
	assert.Equal(t, []CacheMode{CacheRefresh}, hooks.cacheModes)
}

func TestAliasLockModeHint(t *testing.T) {
	q, _, hooks := newTestQuery()

	require.NoError(t, q.SetHint(HintAliasLockModePrefix+".u", LockPessimisticWrite))
	assert.Equal(t, LockPessimisticWrite, hooks.aliasLocks["u"])

	require.NoError(t, q.SetHint(HintAliasLockModePrefix+".p", "pessimistic_read"))
	assert.Equal(t, LockPessimisticRead, hooks.aliasLocks["p"])
}

func TestAliasLockModeHintBadValue(t *testing.T) {
	q, _, hooks := newTestQuery()

	// interpretation failure is advisory: logged, never raised
	require.NoError(t, q.SetHint(HintAliasLockModePrefix+".u", "bogus"))
	assert.Empty(t, hooks.aliasLocks)
}

func TestAliasLockModeHintWithoutCapability(t *testing.T) {
	q, _, hooks := newTestQuery()
	hooks.noAliasLocks = true

	require.NoError(t, q.SetHint(HintAliasLockModePrefix+".u", LockPessimisticWrite))
	assert.Empty(t, hooks.aliasLocks)
}

// =========================================================================
// Flush mode
// =========================================================================

func TestFlushModeFallsBackToSession(t *testing.T) {
	q, session, _ := newTestQuery()
	session.flushMode = FlushTypeCommit

	mode, err := q.FlushMode()
	require.NoError(t, err)
	assert.Equal(t, FlushTypeCommit, mode)
	assert.Equal(t, FlushTypeUnspecified, q.SpecifiedFlushMode())
}

func TestSetFlushModeMirrorsAutoAndCommit(t *testing.T) {
	q, _, hooks := newTestQuery()

	require.NoError(t, q.SetFlushMode(FlushTypeAuto))
	require.NoError(t, q.SetFlushMode(FlushTypeCommit))
	assert.Equal(t, []FlushMode{FlushAuto, FlushCommit}, hooks.flushModes)

	mode, err := q.FlushMode()
	require.NoError(t, err)
	assert.Equal(t, FlushTypeCommit, mode)
}

func TestSetFlushModeManualIsStoredNotMirrored(t *testing.T) {
	q, _, hooks := newTestQuery()

	require.NoError(t, q.SetFlushMode(FlushTypeManual))
	assert.Empty(t, hooks.flushModes)

	mode, err := q.FlushMode()
	require.NoError(t, err)
	assert.Equal(t, FlushTypeManual, mode)
}
