package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Recognized hint names. Hints are advisory: unrecognized names are
// logged and dropped, recognized names the provider declines to apply
// are dropped silently at debug level. Neither aborts query setup.
const (
	// HintTimeout is the query timeout in seconds.
	HintTimeout = "persistq.timeout"

	// HintPortableTimeout is the portable timeout variant carried in
	// milliseconds; it is converted to seconds by rounding before being
	// handed to the provider.
	HintPortableTimeout = "persistence.query.timeout"

	// HintLockTimeout is the pessimistic-lock timeout in seconds.
	HintLockTimeout = "persistq.lock_timeout"

	// HintComment attaches a comment to the generated statement.
	HintComment = "persistq.comment"

	// HintFetchSize suggests a driver fetch size.
	HintFetchSize = "persistq.fetch_size"

	// HintCacheable marks the query's results as cacheable.
	HintCacheable = "persistq.cacheable"

	// HintCacheRegion names the cache region for cacheable results.
	HintCacheRegion = "persistq.cache_region"

	// HintReadOnly marks entities loaded by the query read-only.
	HintReadOnly = "persistq.read_only"

	// HintCacheMode sets the effective cache mode directly.
	HintCacheMode = "persistq.cache_mode"

	// HintFlushMode sets the provider-level flush mode.
	HintFlushMode = "persistq.flush_mode"

	// HintCacheRetrieveMode and HintCacheStoreMode are the split halves
	// of the cache mode; setting either combines it with the other
	// half's current value (query hint, then session default) into one
	// effective cache mode. The same keys name the session properties.
	HintCacheRetrieveMode = "persistence.cache.retrieve_mode"
	HintCacheStoreMode    = "persistence.cache.store_mode"

	// HintAliasLockModePrefix heads the per-alias lock-mode family:
	// "persistq.lock_mode.<alias>".
	HintAliasLockModePrefix = "persistq.lock_mode"
)

// SupportedHints lists every hint name this layer recognizes. The
// alias-specific lock-mode family is represented by its prefix.
func SupportedHints() []string {
	return []string{
		HintTimeout,
		HintPortableTimeout,
		HintLockTimeout,
		HintComment,
		HintFetchSize,
		HintCacheable,
		HintCacheRegion,
		HintReadOnly,
		HintCacheMode,
		HintFlushMode,
		HintCacheRetrieveMode,
		HintCacheStoreMode,
		HintAliasLockModePrefix,
	}
}

// Hints returns the applied hints. Like the other read accessors this
// uses the relaxed open check.
func (q *BaseQuery) Hints() (map[string]any, error) {
	if err := q.session.CheckOpen(false); err != nil {
		return nil, err
	}
	return q.hints, nil
}

// SetHint dispatches a generic name/value hint to the provider hook it
// maps to. Only hints the provider reports as applied are retained; a
// value of the wrong type for a recognized hint is an error, everything
// else degrades to a logged no-op.
func (q *BaseQuery) SetHint(name string, value any) error {
	if err := q.session.CheckOpen(true); err != nil {
		return err
	}

	applied := false
	switch {
	case name == HintTimeout:
		seconds, err := asInt(value)
		if err != nil {
			return hintValueError(name, value, err)
		}
		applied = q.hooks.ApplyTimeoutHint(seconds)

	case name == HintPortableTimeout:
		millis, err := asInt(value)
		if err != nil {
			return hintValueError(name, value, err)
		}
		// portable variant carries milliseconds; convert by rounding
		applied = q.hooks.ApplyTimeoutHint(int(math.Round(float64(millis) / 1000.0)))

	case name == HintLockTimeout:
		seconds, err := asInt(value)
		if err != nil {
			return hintValueError(name, value, err)
		}
		applied = q.hooks.ApplyLockTimeoutHint(seconds)

	case name == HintComment:
		comment, ok := value.(string)
		if !ok {
			return hintValueError(name, value, fmt.Errorf("expected string, got %T", value))
		}
		applied = q.hooks.ApplyCommentHint(comment)

	case name == HintFetchSize:
		size, err := asInt(value)
		if err != nil {
			return hintValueError(name, value, err)
		}
		applied = q.hooks.ApplyFetchSizeHint(size)

	case name == HintCacheable:
		cacheable, err := asBool(value)
		if err != nil {
			return hintValueError(name, value, err)
		}
		applied = q.hooks.ApplyCacheableHint(cacheable)

	case name == HintCacheRegion:
		region, ok := value.(string)
		if !ok {
			return hintValueError(name, value, fmt.Errorf("expected string, got %T", value))
		}
		applied = q.hooks.ApplyCacheRegionHint(region)

	case name == HintReadOnly:
		readOnly, err := asBool(value)
		if err != nil {
			return hintValueError(name, value, err)
		}
		applied = q.hooks.ApplyReadOnlyHint(readOnly)

	case name == HintCacheMode:
		mode, err := asCacheMode(value)
		if err != nil {
			return hintValueError(name, value, err)
		}
		applied = q.hooks.ApplyCacheModeHint(mode)

	case name == HintFlushMode:
		mode, err := asFlushMode(value)
		if err != nil {
			return hintValueError(name, value, err)
		}
		applied = q.hooks.ApplyFlushModeHint(mode)

	case name == HintCacheRetrieveMode:
		retrieveMode, ok := value.(CacheRetrieveMode)
		if !ok {
			return hintValueError(name, value, fmt.Errorf("expected CacheRetrieveMode, got %T", value))
		}
		applied = q.hooks.ApplyCacheModeHint(interpretCacheMode(q.currentStoreMode(), retrieveMode))

	case name == HintCacheStoreMode:
		storeMode, ok := value.(CacheStoreMode)
		if !ok {
			return hintValueError(name, value, fmt.Errorf("expected CacheStoreMode, got %T", value))
		}
		applied = q.hooks.ApplyCacheModeHint(interpretCacheMode(storeMode, q.currentRetrieveMode()))

	case strings.HasPrefix(name, HintAliasLockModePrefix+"."):
		if q.hooks.CanApplyAliasLockModeHints() {
			alias := name[len(HintAliasLockModePrefix)+1:]
			mode, err := interpretLockMode(value)
			if err != nil {
				q.log.Warn("unable to determine lock mode value", "hint", name, "value", value)
			} else {
				q.hooks.ApplyAliasLockModeHint(alias, mode)
			}
		}

	default:
		q.log.Warn("ignoring unrecognized query hint", "hint", name)
	}

	if applied {
		q.hints[name] = value
	} else {
		q.log.Debug("skipping unsupported query hint", "hint", name)
	}
	return nil
}

// currentStoreMode resolves the store-mode half when only the retrieve
// half is being set: the query's own hint first, then the session
// default.
func (q *BaseQuery) currentStoreMode() CacheStoreMode {
	if v, ok := q.hints[HintCacheStoreMode]; ok {
		if mode, ok := v.(CacheStoreMode); ok {
			return mode
		}
	}
	if v, ok := q.session.Property(HintCacheStoreMode); ok {
		if mode, ok := v.(CacheStoreMode); ok {
			return mode
		}
	}
	return CacheStoreUnspecified
}

func (q *BaseQuery) currentRetrieveMode() CacheRetrieveMode {
	if v, ok := q.hints[HintCacheRetrieveMode]; ok {
		if mode, ok := v.(CacheRetrieveMode); ok {
			return mode
		}
	}
	if v, ok := q.session.Property(HintCacheRetrieveMode); ok {
		if mode, ok := v.(CacheRetrieveMode); ok {
			return mode
		}
	}
	return CacheRetrieveUnspecified
}

// asInt coerces hint values that arrive as any of the common integer
// carriers, including numeric strings.
func asInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("expected integer, got %T", value)
}

func asBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("expected boolean, got %q", v)
		}
		return b, nil
	}
	return false, fmt.Errorf("expected boolean, got %T", value)
}

func asCacheMode(value any) (CacheMode, error) {
	switch v := value.(type) {
	case CacheMode:
		return v, nil
	case string:
		return ParseCacheMode(v)
	}
	return CacheNormal, fmt.Errorf("expected CacheMode, got %T", value)
}

func asFlushMode(value any) (FlushMode, error) {
	switch v := value.(type) {
	case FlushMode:
		return v, nil
	case string:
		return ParseFlushMode(v)
	}
	return FlushAuto, fmt.Errorf("expected FlushMode, got %T", value)
}
