package postgres

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// ErrMixedPlaceholders indicates a statement used both named (":name")
// and positional ("$n") placeholders; binds cannot be passed to the
// driver in one style.
var ErrMixedPlaceholders = errors.New("statement mixes named and positional placeholders")

// statement is the parsed form of the caller's SQL text. Named
// placeholders are rewritten to "@name" so the text is ready for
// pgx.NamedArgs; "$n" placeholders are left in place.
type statement struct {
	text           string
	named          []string
	positional     []int
	ordinalAsNamed bool
}

func parseStatement(sqlText string) statement {
	var out strings.Builder
	var named []string
	var positional []int
	seenName := make(map[string]bool)
	seenPos := make(map[int]bool)
	ordinalAsNamed := false

	runes := []rune(sqlText)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\'', '"':
			// Copy the literal or quoted identifier through untouched.
			// A doubled quote escape reads as close-then-reopen, which
			// scans the same either way.
			quote := r
			out.WriteRune(r)
			for i++; i < len(runes); i++ {
				out.WriteRune(runes[i])
				if runes[i] == quote {
					break
				}
			}
		case ':':
			if i+1 < len(runes) && runes[i+1] == ':' {
				out.WriteString("::")
				i++
				continue
			}
			j := i + 1
			for j < len(runes) && isIdentRune(runes[j]) {
				j++
			}
			if j == i+1 {
				out.WriteRune(r)
				continue
			}
			name := string(runes[i+1 : j])
			if unicode.IsDigit(rune(name[0])) {
				ordinalAsNamed = true
			}
			if !seenName[name] {
				seenName[name] = true
				named = append(named, name)
			}
			out.WriteByte('@')
			out.WriteString(argName(name))
			i = j - 1
		case '$':
			j := i + 1
			for j < len(runes) && unicode.IsDigit(runes[j]) {
				j++
			}
			if j == i+1 {
				out.WriteRune(r)
				continue
			}
			n, _ := strconv.Atoi(string(runes[i+1 : j]))
			if !seenPos[n] {
				seenPos[n] = true
				positional = append(positional, n)
			}
			out.WriteString(string(runes[i:j]))
			i = j - 1
		default:
			out.WriteRune(r)
		}
	}
	sort.Ints(positional)
	return statement{
		text:           out.String(),
		named:          named,
		positional:     positional,
		ordinalAsNamed: ordinalAsNamed,
	}
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// argName maps a registration name to a pgx named-argument key. Ordinal
// registrations are digit-named, which pgx rejects, so they get a "p"
// prefix; parseStatement rewrites the placeholder the same way.
func argName(name string) string {
	if name != "" && unicode.IsDigit(rune(name[0])) {
		return "p" + name
	}
	return name
}
