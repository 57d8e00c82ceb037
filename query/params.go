package query

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// ParameterMode describes how a parameter is declared in the underlying
// statement or procedure signature. Only input-capable modes accept
// binds.
type ParameterMode int

const (
	ModeIn ParameterMode = iota
	ModeOut
	ModeInOut
	ModeRefCursor
)

func (m ParameterMode) String() string {
	switch m {
	case ModeOut:
		return "OUT"
	case ModeInOut:
		return "INOUT"
	case ModeRefCursor:
		return "REF_CURSOR"
	default:
		return "IN"
	}
}

// Parameter is the caller-facing handle for one declared parameter
// slot. Handles obtained from other sources are resolved to this
// query's own registration by name or position before use.
type Parameter interface {
	// Name returns the parameter name, empty for positional parameters.
	Name() string
	// Position returns the ordinal position, -1 for named parameters.
	Position() int
	// Type returns the declared value type, nil when it could not be
	// determined from the query source.
	Type() reflect.Type
}

// Bind is an immutable value holder: the bound value plus the temporal
// qualifier that was in effect, TemporalNone when none was given.
type Bind struct {
	value    any
	temporal TemporalType
}

// Value returns the bound value.
func (b *Bind) Value() any {
	return b.value
}

// Temporal returns the explicitly specified temporal qualifier.
func (b *Bind) Temporal() TemporalType {
	return b.temporal
}

// Registration is the registry's record for one declared parameter
// slot. Name and position are fixed at construction; a registration
// holds at most one bind, and rebinding replaces it.
type Registration struct {
	name     string
	position int
	mode     ParameterMode
	typ      reflect.Type
	bind     *Bind
}

// NamedParameter builds a registration for a named parameter slot.
// typ may be nil when the type could not be statically determined.
func NamedParameter(name string, mode ParameterMode, typ reflect.Type) *Registration {
	return &Registration{name: name, position: -1, mode: mode, typ: typ}
}

// PositionalParameter builds a registration for an ordinal parameter
// slot.
func PositionalParameter(position int, mode ParameterMode, typ reflect.Type) *Registration {
	return &Registration{position: position, mode: mode, typ: typ}
}

func (r *Registration) Name() string        { return r.name }
func (r *Registration) Position() int       { return r.position }
func (r *Registration) Type() reflect.Type  { return r.typ }
func (r *Registration) Mode() ParameterMode { return r.mode }

// Bindable reports whether this slot accepts input values.
func (r *Registration) Bindable() bool {
	return r.mode == ModeIn || r.mode == ModeInOut
}

// CurrentBind returns the current bind, nil when unbound.
func (r *Registration) CurrentBind() *Bind {
	return r.bind
}

func (r *Registration) describe() string {
	if r.name != "" {
		return fmt.Sprintf("name=%s mode=%s", r.name, r.mode)
	}
	return fmt.Sprintf("position=%d mode=%s", r.position, r.mode)
}

// bindValue validates against the declared type (when known) before
// storing; a rejected value leaves any prior bind untouched.
func (r *Registration) bindValue(value any, temporal TemporalType) error {
	if r.typ != nil {
		if err := validateBinding(r.typ, value, temporal); err != nil {
			return err
		}
	}
	r.bind = &Bind{value: value, temporal: temporal}
	return nil
}

var _ Parameter = (*Registration)(nil)

// RegisterParameter adds a registration to this query's registry.
// Registering the same registration again is a logged no-op; the
// registry has set semantics over registration identity.
func (q *BaseQuery) RegisterParameter(r *Registration) error {
	if r == nil {
		return ErrNilParameter
	}
	for _, existing := range q.registrations {
		if existing == r {
			q.log.Debug("parameter registered multiple times", "parameter", r.describe())
			return nil
		}
	}
	q.registrations = append(q.registrations, r)
	return nil
}

// findRegistration resolves a caller-supplied handle to this registry's
// own registration: directly when the handle already is one, otherwise
// by name, then by position.
func (q *BaseQuery) findRegistration(p Parameter) (*Registration, error) {
	if r, ok := p.(*Registration); ok {
		return r, nil
	}
	if p.Name() != "" {
		return q.registrationByName(p.Name())
	}
	if p.Position() >= 0 {
		return q.registrationByPosition(p.Position())
	}
	return nil, fmt.Errorf("%w: unable to resolve parameter handle [%v] to a registration", ErrParameterNotFound, p)
}

func (q *BaseQuery) registrationByName(name string) (*Registration, error) {
	for _, r := range q.registrations {
		if r.name == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: no parameter named %q", ErrParameterNotFound, name)
}

func (q *BaseQuery) registrationByPosition(position int) (*Registration, error) {
	if q.hooks.IsOrdinalParameterName(position) {
		return q.registrationByName(strconv.Itoa(position))
	}
	for _, r := range q.registrations {
		if r.position >= 0 && r.position == position {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: no parameter at position %d", ErrParameterNotFound, position)
}

// Parameters returns every registration on this query.
func (q *BaseQuery) Parameters() ([]Parameter, error) {
	if err := q.session.CheckOpen(false); err != nil {
		return nil, err
	}
	out := make([]Parameter, len(q.registrations))
	for i, r := range q.registrations {
		out[i] = r
	}
	return out, nil
}

// ParameterByName looks up a registration by exact name.
func (q *BaseQuery) ParameterByName(name string) (Parameter, error) {
	if err := q.session.CheckOpen(false); err != nil {
		return nil, err
	}
	return q.registrationByName(name)
}

// ParameterByPosition looks up a registration by position, honoring the
// provider's ordinal-as-named policy.
func (q *BaseQuery) ParameterByPosition(position int) (Parameter, error) {
	if err := q.session.CheckOpen(false); err != nil {
		return nil, err
	}
	return q.registrationByPosition(position)
}

// TypedParameterByName looks up a registration by name and checks that
// its declared type, when known, is the requested type or a supertype
// of it.
func (q *BaseQuery) TypedParameterByName(name string, requested reflect.Type) (Parameter, error) {
	if err := q.session.CheckOpen(false); err != nil {
		return nil, err
	}
	r, err := q.registrationByName(name)
	if err != nil {
		return nil, err
	}
	if err := checkRequestedType(r, requested, fmt.Sprintf("named %q", name)); err != nil {
		return nil, err
	}
	return r, nil
}

// TypedParameterByPosition is TypedParameterByName for ordinal slots.
func (q *BaseQuery) TypedParameterByPosition(position int, requested reflect.Type) (Parameter, error) {
	if err := q.session.CheckOpen(false); err != nil {
		return nil, err
	}
	r, err := q.registrationByPosition(position)
	if err != nil {
		return nil, err
	}
	if err := checkRequestedType(r, requested, fmt.Sprintf("at position %d", position)); err != nil {
		return nil, err
	}
	return r, nil
}

func checkRequestedType(r *Registration, requested reflect.Type, where string) error {
	if r.typ == nil || requested == nil {
		return nil
	}
	if !requested.AssignableTo(r.typ) {
		return fmt.Errorf("%w: parameter type [%s] is not assignment compatible with requested type [%s] for parameter %s",
			ErrTypeMismatch, r.typ, requested, where)
	}
	return nil
}

// SetParameter binds a value through a parameter handle.
func (q *BaseQuery) SetParameter(p Parameter, value any) error {
	return q.bindParameter(p, value, TemporalNone)
}

// SetParameterTemporal binds a date/time value with an explicit
// temporal qualifier.
func (q *BaseQuery) SetParameterTemporal(p Parameter, value any, temporal TemporalType) error {
	return q.bindParameter(p, value, temporal)
}

func (q *BaseQuery) bindParameter(p Parameter, value any, temporal TemporalType) error {
	if err := q.session.CheckOpen(true); err != nil {
		return err
	}
	r, err := q.findRegistration(p)
	if err != nil {
		return err
	}
	return q.bindRegistration(r, value, temporal)
}

// SetNamedParameter binds a value to the named parameter slot.
func (q *BaseQuery) SetNamedParameter(name string, value any) error {
	return q.SetNamedParameterTemporal(name, value, TemporalNone)
}

// SetNamedParameterTemporal binds a qualified date/time value to the
// named parameter slot.
func (q *BaseQuery) SetNamedParameterTemporal(name string, value any, temporal TemporalType) error {
	if err := q.session.CheckOpen(true); err != nil {
		return err
	}
	r, err := q.registrationByName(name)
	if err != nil {
		return err
	}
	return q.bindRegistration(r, value, temporal)
}

// SetPositionalParameter binds a value to the ordinal parameter slot.
func (q *BaseQuery) SetPositionalParameter(position int, value any) error {
	return q.SetPositionalParameterTemporal(position, value, TemporalNone)
}

// SetPositionalParameterTemporal binds a qualified date/time value to
// the ordinal parameter slot.
func (q *BaseQuery) SetPositionalParameterTemporal(position int, value any, temporal TemporalType) error {
	if err := q.session.CheckOpen(true); err != nil {
		return err
	}
	r, err := q.registrationByPosition(position)
	if err != nil {
		return err
	}
	return q.bindRegistration(r, value, temporal)
}

// bindRegistration funnels every bind: binding-layer validation errors
// surface as-is (they are already caller errors), anything lower-level
// goes through the session's error translation.
func (q *BaseQuery) bindRegistration(r *Registration, value any, temporal TemporalType) error {
	if !r.Bindable() {
		return fmt.Errorf("%w: parameter [%s]", ErrParameterNotBindable, r.describe())
	}
	if err := r.bindValue(value, temporal); err != nil {
		if errors.Is(err, ErrTypeMismatch) {
			return err
		}
		return q.session.ConvertError(err)
	}
	return nil
}

// IsBound reports whether the resolved registration is bindable and
// currently holds a bind.
func (q *BaseQuery) IsBound(p Parameter) (bool, error) {
	if err := q.session.CheckOpen(false); err != nil {
		return false, err
	}
	r, err := q.findRegistration(p)
	if err != nil {
		return false, err
	}
	return r.Bindable() && r.bind != nil, nil
}

// ParameterValue returns the value bound through the given handle. It
// fails on non-bindable registrations and, distinctly, on bindable ones
// that were never bound.
func (q *BaseQuery) ParameterValue(p Parameter) (any, error) {
	if err := q.session.CheckOpen(false); err != nil {
		return nil, err
	}
	r, err := q.findRegistration(p)
	if err != nil {
		return nil, err
	}
	if !r.Bindable() {
		return nil, fmt.Errorf("%w: parameter [%s]", ErrParameterNotBindable, r.describe())
	}
	if r.bind == nil {
		return nil, fmt.Errorf("%w: parameter [%s]", ErrParameterNotBound, r.describe())
	}
	return r.bind.value, nil
}

// NamedParameterValue returns the value bound to the named slot.
func (q *BaseQuery) NamedParameterValue(name string) (any, error) {
	if err := q.session.CheckOpen(false); err != nil {
		return nil, err
	}
	r, err := q.registrationByName(name)
	if err != nil {
		return nil, err
	}
	return q.ParameterValue(r)
}

// PositionalParameterValue returns the value bound to the ordinal slot.
func (q *BaseQuery) PositionalParameterValue(position int) (any, error) {
	if err := q.session.CheckOpen(false); err != nil {
		return nil, err
	}
	r, err := q.registrationByPosition(position)
	if err != nil {
		return nil, err
	}
	return q.ParameterValue(r)
}
