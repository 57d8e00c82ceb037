package query

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// foreignHandle simulates a parameter handle built outside the registry,
// carrying only a name or a position.
type foreignHandle struct {
	name     string
	position int
}

func (h foreignHandle) Name() string       { return h.name }
func (h foreignHandle) Position() int      { return h.position }
func (h foreignHandle) Type() reflect.Type { return nil }

var (
	intType  = reflect.TypeOf(0)
	timeType = reflect.TypeOf(time.Time{})
)

func TestRegisterParameterIdempotent(t *testing.T) {
	q, _, _ := newTestQuery()
	r := NamedParameter("id", ModeIn, intType)

	require.NoError(t, q.RegisterParameter(r))
	require.NoError(t, q.RegisterParameter(r))

	params, err := q.Parameters()
	require.NoError(t, err)
	assert.Len(t, params, 1)
}

func TestRegisterParameterNil(t *testing.T) {
	q, _, _ := newTestQuery()
	require.ErrorIs(t, q.RegisterParameter(nil), ErrNilParameter)
}

func TestFindRegistrationByHandle(t *testing.T) {
	q, _, _ := newTestQuery()
	named := NamedParameter("name", ModeIn, nil)
	positional := PositionalParameter(2, ModeIn, nil)
	require.NoError(t, q.RegisterParameter(named))
	require.NoError(t, q.RegisterParameter(positional))

	// the registry's own registration resolves to itself
	require.NoError(t, q.SetParameter(named, "alice"))
	v, err := q.ParameterValue(named)
	require.NoError(t, err)
	assert.Equal(t, "alice", v)

	// foreign handles resolve by name, then position
	require.NoError(t, q.SetParameter(foreignHandle{name: "name", position: -1}, "bob"))
	v, err = q.NamedParameterValue("name")
	require.NoError(t, err)
	assert.Equal(t, "bob", v)

	require.NoError(t, q.SetParameter(foreignHandle{position: 2}, 7))
	v, err = q.PositionalParameterValue(2)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	// a handle carrying neither does not resolve
	err = q.SetParameter(foreignHandle{position: -1}, 1)
	require.ErrorIs(t, err, ErrParameterNotFound)
}

func TestFindRegistrationMissing(t *testing.T) {
	q, _, _ := newTestQuery()

	_, err := q.ParameterByName("absent")
	require.ErrorIs(t, err, ErrParameterNotFound)

	_, err = q.ParameterByPosition(9)
	require.ErrorIs(t, err, ErrParameterNotFound)

	require.ErrorIs(t, q.SetNamedParameter("absent", 1), ErrParameterNotFound)
	require.ErrorIs(t, q.SetPositionalParameter(9, 1), ErrParameterNotFound)
}

func TestOrdinalParameterAsName(t *testing.T) {
	q, _, hooks := newTestQuery()
	hooks.ordinalAsNamed = true
	require.NoError(t, q.RegisterParameter(NamedParameter("1", ModeIn, intType)))

	require.NoError(t, q.SetPositionalParameter(1, 42))
	v, err := q.PositionalParameterValue(1)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestBindTypeMismatchLeavesPriorBind(t *testing.T) {
	q, _, _ := newTestQuery()
	r := NamedParameter("age", ModeIn, intType)
	require.NoError(t, q.RegisterParameter(r))

	require.NoError(t, q.SetNamedParameter("age", 41))
	require.ErrorIs(t, q.SetNamedParameter("age", "not a number"), ErrTypeMismatch)

	v, err := q.NamedParameterValue("age")
	require.NoError(t, err)
	assert.Equal(t, 41, v, "rejected bind must not disturb the prior bind")
}

func TestBindUnknownTypeSkipsValidation(t *testing.T) {
	q, _, _ := newTestQuery()
	require.NoError(t, q.RegisterParameter(NamedParameter("anything", ModeIn, nil)))

	require.NoError(t, q.SetNamedParameter("anything", struct{ X int }{1}))
}

func TestTemporalQualifierCarveOut(t *testing.T) {
	q, _, _ := newTestQuery()
	require.NoError(t, q.RegisterParameter(NamedParameter("since", ModeIn, timeType)))

	nt := sql.NullTime{Time: time.Now(), Valid: true}

	// qualified: a temporal value may cross runtime types
	require.NoError(t, q.SetNamedParameterTemporal("since", nt, TemporalDate))

	// unqualified: NullTime is not assignable to time.Time
	require.ErrorIs(t, q.SetNamedParameter("since", nt), ErrTypeMismatch)

	// the qualifier does not excuse non-temporal values
	require.ErrorIs(t, q.SetNamedParameterTemporal("since", 12, TemporalDate), ErrTypeMismatch)
}

func TestTemporalQualifierPgtype(t *testing.T) {
	q, _, _ := newTestQuery()
	require.NoError(t, q.RegisterParameter(NamedParameter("day", ModeIn, timeType)))

	d := pgtype.Date{Time: time.Now(), Valid: true}
	require.NoError(t, q.SetNamedParameterTemporal("day", d, TemporalDate))
	require.ErrorIs(t, q.SetNamedParameter("day", d), ErrTypeMismatch)
}

func TestParameterListExpansion(t *testing.T) {
	q, _, _ := newTestQuery()
	require.NoError(t, q.RegisterParameter(NamedParameter("ids", ModeIn, intType)))

	require.NoError(t, q.SetNamedParameter("ids", []any{1, 2, 3}))
	require.NoError(t, q.SetNamedParameter("ids", []int{4, 5}))

	err := q.SetNamedParameter("ids", []any{1, "x", 3})
	require.ErrorIs(t, err, ErrTypeMismatch)

	// the failed list bind keeps the previous one
	v, err := q.NamedParameterValue("ids")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, v)
}

func TestArrayValueNeedsContainerDeclaredType(t *testing.T) {
	q, _, _ := newTestQuery()
	require.NoError(t, q.RegisterParameter(NamedParameter("pair", ModeIn, intType)))
	require.NoError(t, q.RegisterParameter(NamedParameter("pairs", ModeIn, reflect.TypeOf([]int(nil)))))

	// arrays get no list expansion against a scalar slot
	require.ErrorIs(t, q.SetNamedParameter("pair", [2]int{1, 2}), ErrTypeMismatch)

	require.NoError(t, q.SetNamedParameter("pairs", [2]int{1, 2}))
	require.ErrorIs(t, q.SetNamedParameter("pairs", [2]string{"x", "y"}), ErrTypeMismatch)
}

func TestContainerDeclaredType(t *testing.T) {
	q, _, _ := newTestQuery()
	require.NoError(t, q.RegisterParameter(NamedParameter("tags", ModeIn, reflect.TypeOf([]int(nil)))))

	require.NoError(t, q.SetNamedParameter("tags", []int{1, 2}))
	require.NoError(t, q.SetNamedParameter("tags", []any{1, 2}))
	require.ErrorIs(t, q.SetNamedParameter("tags", []any{"x"}), ErrTypeMismatch)
	require.ErrorIs(t, q.SetNamedParameter("tags", []string{"x"}), ErrTypeMismatch)
}

func TestByteSliceBindsAsScalar(t *testing.T) {
	q, _, _ := newTestQuery()
	require.NoError(t, q.RegisterParameter(NamedParameter("blob", ModeIn, reflect.TypeOf([]byte(nil)))))

	require.NoError(t, q.SetNamedParameter("blob", []byte{0x01, 0x02}))
}

func TestParameterValueLifecycle(t *testing.T) {
	q, _, _ := newTestQuery()
	r := NamedParameter("score", ModeIn, intType)
	require.NoError(t, q.RegisterParameter(r))

	_, err := q.ParameterValue(r)
	require.ErrorIs(t, err, ErrParameterNotBound)

	bound, err := q.IsBound(r)
	require.NoError(t, err)
	assert.False(t, bound)

	require.NoError(t, q.SetParameter(r, 99))

	bound, err = q.IsBound(r)
	require.NoError(t, err)
	assert.True(t, bound)

	v, err := q.ParameterValue(r)
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}

func TestOutParameterIsNotBindable(t *testing.T) {
	q, _, _ := newTestQuery()
	out := NamedParameter("result", ModeOut, intType)
	require.NoError(t, q.RegisterParameter(out))

	require.ErrorIs(t, q.SetParameter(out, 1), ErrParameterNotBindable)

	_, err := q.ParameterValue(out)
	require.ErrorIs(t, err, ErrParameterNotBindable)

	bound, err := q.IsBound(out)
	require.NoError(t, err)
	assert.False(t, bound)
}

func TestTypedParameterLookup(t *testing.T) {
	q, _, _ := newTestQuery()
	require.NoError(t, q.RegisterParameter(NamedParameter("when", ModeIn, timeType)))
	require.NoError(t, q.RegisterParameter(PositionalParameter(1, ModeIn, intType)))

	_, err := q.TypedParameterByName("when", timeType)
	require.NoError(t, err)

	_, err = q.TypedParameterByName("when", reflect.TypeOf(""))
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = q.TypedParameterByPosition(1, intType)
	require.NoError(t, err)

	_, err = q.TypedParameterByPosition(1, reflect.TypeOf(int64(0)))
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestTypedParameterUnknownDeclaredType(t *testing.T) {
	q, _, _ := newTestQuery()
	require.NoError(t, q.RegisterParameter(NamedParameter("free", ModeIn, nil)))

	// nothing to validate against when analysis yielded no type
	_, err := q.TypedParameterByName("free", reflect.TypeOf(""))
	require.NoError(t, err)
}

func TestRebindReplacesValue(t *testing.T) {
	q, _, _ := newTestQuery()
	r := NamedParameter("n", ModeIn, intType)
	require.NoError(t, q.RegisterParameter(r))

	require.NoError(t, q.SetParameter(r, 1))
	require.NoError(t, q.SetParameter(r, 2))

	v, err := q.ParameterValue(r)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}
