package query

import (
	"fmt"
	"strings"
)

// TemporalType disambiguates the intended precision of a date/time bind
// value. A single runtime type (time.Time, sql.NullTime, the pgtype
// date/time structs) can stand for DATE, TIME or TIMESTAMP depending on
// caller intent, so the qualifier travels with the bind.
type TemporalType int

const (
	TemporalNone TemporalType = iota
	TemporalDate
	TemporalTime
	TemporalTimestamp
)

func (t TemporalType) String() string {
	switch t {
	case TemporalDate:
		return "DATE"
	case TemporalTime:
		return "TIME"
	case TemporalTimestamp:
		return "TIMESTAMP"
	default:
		return "n/a"
	}
}

// FlushModeType is the caller-facing flush-mode preference stored on a
// query. Only Auto and Commit are mirrored into the provider-level
// flush-mode hint; Always and Manual are stored but never propagated.
type FlushModeType int

const (
	FlushTypeUnspecified FlushModeType = iota
	FlushTypeAuto
	FlushTypeCommit
	FlushTypeAlways
	FlushTypeManual
)

func (m FlushModeType) String() string {
	switch m {
	case FlushTypeAuto:
		return "auto"
	case FlushTypeCommit:
		return "commit"
	case FlushTypeAlways:
		return "always"
	case FlushTypeManual:
		return "manual"
	default:
		return "unspecified"
	}
}

// FlushMode is the provider-level flush mode handed to the concrete
// query through ApplyFlushModeHint.
type FlushMode int

const (
	FlushAuto FlushMode = iota
	FlushCommit
	FlushAlways
	FlushManual
)

func (m FlushMode) String() string {
	switch m {
	case FlushCommit:
		return "commit"
	case FlushAlways:
		return "always"
	case FlushManual:
		return "manual"
	default:
		return "auto"
	}
}

// ParseFlushMode resolves a flush-mode name, case-insensitively.
func ParseFlushMode(name string) (FlushMode, error) {
	switch strings.ToLower(name) {
	case "auto":
		return FlushAuto, nil
	case "commit":
		return FlushCommit, nil
	case "always":
		return FlushAlways, nil
	case "manual":
		return FlushManual, nil
	}
	return FlushAuto, fmt.Errorf("unknown flush mode %q", name)
}

// CacheMode is the effective second-level cache interaction mode. The
// zero value is CacheNormal (read and write through the cache).
type CacheMode int

const (
	CacheNormal CacheMode = iota
	CacheIgnore
	CacheGet
	CachePut
	CacheRefresh
)

func (m CacheMode) String() string {
	switch m {
	case CacheIgnore:
		return "ignore"
	case CacheGet:
		return "get"
	case CachePut:
		return "put"
	case CacheRefresh:
		return "refresh"
	default:
		return "normal"
	}
}

// GetEnabled reports whether this mode reads from the cache.
func (m CacheMode) GetEnabled() bool {
	return m == CacheNormal || m == CacheGet
}

// PutEnabled reports whether this mode writes to the cache.
func (m CacheMode) PutEnabled() bool {
	return m == CacheNormal || m == CachePut || m == CacheRefresh
}

// ParseCacheMode resolves a cache-mode name, case-insensitively.
func ParseCacheMode(name string) (CacheMode, error) {
	switch strings.ToLower(name) {
	case "normal":
		return CacheNormal, nil
	case "ignore":
		return CacheIgnore, nil
	case "get":
		return CacheGet, nil
	case "put":
		return CachePut, nil
	case "refresh":
		return CacheRefresh, nil
	}
	return CacheNormal, fmt.Errorf("unknown cache mode %q", name)
}

// CacheRetrieveMode is the read half of the split cache-mode hints.
type CacheRetrieveMode int

const (
	CacheRetrieveUnspecified CacheRetrieveMode = iota
	CacheRetrieveUse
	CacheRetrieveBypass
)

// CacheStoreMode is the write half of the split cache-mode hints.
type CacheStoreMode int

const (
	CacheStoreUnspecified CacheStoreMode = iota
	CacheStoreUse
	CacheStoreBypass
	CacheStoreRefresh
)

// interpretCacheMode folds the two split-mode hints into one effective
// CacheMode. Unspecified halves default to Use.
func interpretCacheMode(storeMode CacheStoreMode, retrieveMode CacheRetrieveMode) CacheMode {
	if storeMode == CacheStoreUnspecified {
		storeMode = CacheStoreUse
	}
	if retrieveMode == CacheRetrieveUnspecified {
		retrieveMode = CacheRetrieveUse
	}

	switch storeMode {
	case CacheStoreRefresh:
		return CacheRefresh
	case CacheStoreBypass:
		if retrieveMode == CacheRetrieveUse {
			return CacheGet
		}
		return CacheIgnore
	default:
		if retrieveMode == CacheRetrieveBypass {
			return CachePut
		}
		return CacheNormal
	}
}

// LockMode is a row-locking strategy, applied query-wide or per result
// alias through the alias-specific lock-mode hints.
type LockMode int

const (
	LockNone LockMode = iota
	LockRead
	LockOptimistic
	LockOptimisticForceIncrement
	LockPessimisticRead
	LockPessimisticWrite
	LockPessimisticForceIncrement
)

func (m LockMode) String() string {
	switch m {
	case LockRead:
		return "read"
	case LockOptimistic:
		return "optimistic"
	case LockOptimisticForceIncrement:
		return "optimistic_force_increment"
	case LockPessimisticRead:
		return "pessimistic_read"
	case LockPessimisticWrite:
		return "pessimistic_write"
	case LockPessimisticForceIncrement:
		return "pessimistic_force_increment"
	default:
		return "none"
	}
}

// interpretLockMode resolves a hint value into a LockMode. Accepts a
// LockMode directly or its name as a string.
func interpretLockMode(value any) (LockMode, error) {
	switch v := value.(type) {
	case LockMode:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "none":
			return LockNone, nil
		case "read":
			return LockRead, nil
		case "optimistic":
			return LockOptimistic, nil
		case "optimistic_force_increment":
			return LockOptimisticForceIncrement, nil
		case "pessimistic_read":
			return LockPessimisticRead, nil
		case "pessimistic_write":
			return LockPessimisticWrite, nil
		case "pessimistic_force_increment":
			return LockPessimisticForceIncrement, nil
		}
		return LockNone, fmt.Errorf("unknown lock mode %q", v)
	}
	return LockNone, fmt.Errorf("cannot interpret %T as a lock mode", value)
}
