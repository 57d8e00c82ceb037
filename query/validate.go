package query

import (
	"database/sql"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// temporalTypes are the runtime types the temporal carve-out applies
// to: an explicitly qualified bind may cross between any of these and a
// temporally-declared parameter even when not directly assignable.
var temporalTypes = map[reflect.Type]struct{}{
	reflect.TypeOf(time.Time{}):          {},
	reflect.TypeOf(sql.NullTime{}):       {},
	reflect.TypeOf(pgtype.Date{}):        {},
	reflect.TypeOf(pgtype.Time{}):        {},
	reflect.TypeOf(pgtype.Timestamp{}):   {},
	reflect.TypeOf(pgtype.Timestamptz{}): {},
}

func isTemporal(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	_, ok := temporalTypes[t]
	return ok
}

// isContainer reports whether t is a slice or array type. Byte slices
// are excluded: they bind as a single blob value.
func isContainer(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	default:
		return false
	}
}

// validateBinding checks a bind value's runtime type against the
// declared parameter type before the bind is stored. A nil declared
// type or nil value leaves nothing to check.
//
// A slice value against a scalar declared type is the parameter-list
// expansion pattern (one slot filled by a collection of scalars): each
// element validates individually. Array values get no such expansion;
// they only bind when the declared type is itself a container.
// Container against container validates component compatibility,
// falling back to element-wise checks for heterogeneous containers.
// Plain scalars must be assignable to the declared type, with the
// temporal carve-out.
func validateBinding(declared reflect.Type, value any, temporal TemporalType) error {
	if declared == nil || value == nil {
		return nil
	}

	vt := reflect.TypeOf(value)
	switch {
	case vt.Kind() == reflect.Array && !isContainer(declared):
		return &BindValidationError{Value: value, Expected: declared, Temporal: temporal}

	case isContainer(vt) && !isContainer(declared):
		rv := reflect.ValueOf(value)
		for i := 0; i < rv.Len(); i++ {
			element := rv.Index(i).Interface()
			if !isValidBindValue(declared, element, temporal) {
				return &BindValidationError{Value: element, Expected: declared, Temporal: temporal, Element: true}
			}
		}
		return nil

	case isContainer(vt):
		return validateContainerBinding(declared, value, temporal)

	default:
		if !isValidBindValue(declared, value, temporal) {
			return &BindValidationError{Value: value, Expected: declared, Temporal: temporal}
		}
		return nil
	}
}

func validateContainerBinding(declared reflect.Type, value any, temporal TemporalType) error {
	vt := reflect.TypeOf(value)
	declaredElem := declared.Elem()
	valueElem := vt.Elem()

	// homogeneous containers are settled by component compatibility
	if valueElem.Kind() != reflect.Interface && valueElem.AssignableTo(declaredElem) {
		return nil
	}

	// []any and incompatible component types: check each element
	rv := reflect.ValueOf(value)
	for i := 0; i < rv.Len(); i++ {
		element := rv.Index(i).Interface()
		if !isValidBindValue(declaredElem, element, temporal) {
			return &BindValidationError{Value: element, Expected: declaredElem, Temporal: temporal, Element: true}
		}
	}
	return nil
}

// isValidBindValue is the scalar compatibility check: direct
// assignability (which covers interface satisfaction), or the temporal
// carve-out when a qualifier was explicitly specified and both the
// declared type and the value are date/time-like.
func isValidBindValue(expected reflect.Type, value any, temporal TemporalType) bool {
	if value == nil {
		return false
	}
	vt := reflect.TypeOf(value)
	if vt.AssignableTo(expected) {
		return true
	}
	if temporal != TemporalNone && isTemporal(expected) && isTemporal(vt) {
		return true
	}
	return false
}
