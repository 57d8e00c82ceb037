// Package schema carries the naming strategy the provider uses to
// derive table, alias and default cache-region names from entity names.
package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

// pluralizeClient is a singleton instance for consistent pluralization behavior.
var pluralizeClient = pluralizer.NewClient()

// NamingStrategy converts Go-style entity names to database-flavored
// identifiers. Implementations should return consistent results for the
// same input.
type NamingStrategy interface {
	// TableName converts an entity name to its table name.
	TableName(entityName string) string
	// DefaultAlias derives the default result alias for an entity.
	DefaultAlias(entityName string) string
}

// snakeCaseStrategy produces snake_case identifiers with plural table
// names: "BlogPost" -> table "blog_posts", alias "blog_post".
type snakeCaseStrategy struct{}

// DefaultNamingStrategy returns the snake_case plural strategy.
func DefaultNamingStrategy() NamingStrategy {
	return snakeCaseStrategy{}
}

func (snakeCaseStrategy) TableName(entityName string) string {
	return pluralizeClient.Pluralize(toSnakeCase(entityName), 2, false)
}

func (snakeCaseStrategy) DefaultAlias(entityName string) string {
	return toSnakeCase(entityName)
}

// toSnakeCase converts any naming convention to snake_case.
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}

	// already snake_case
	if strings.Contains(name, "_") && !hasUpperCase(name) {
		return strings.ToLower(name)
	}

	var result strings.Builder
	result.Grow(len(name) + 10)

	runes := []rune(name)
	for i, r := range runes {
		needsUnderscore := false
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			// aB -> a_b, a1B -> a1_b, ABc -> a_bc
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				needsUnderscore = true
			} else if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				needsUnderscore = true
			}
		}
		if needsUnderscore {
			result.WriteByte('_')
		}
		result.WriteRune(unicode.ToLower(r))
	}

	return result.String()
}

// hasUpperCase returns true if the string contains any uppercase letters.
func hasUpperCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
