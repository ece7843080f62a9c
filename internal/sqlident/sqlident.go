// Package sqlident gates every string interpolated into DDL behind a single
// conservative predicate, and quotes identifiers that pass it. The layout
// initializer refuses to emit any DDL for an identifier that fails the
// predicate.
package sqlident

import (
	"regexp"
	"strings"
)

var safePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// IsSafe reports whether s may be interpolated into DDL as an identifier.
// It is deliberately conservative: it rejects some strings a database would
// happily accept as quoted identifiers (hyphens, spaces), because the only
// alternative, full SQL-identifier quoting and escaping, is easy to get
// wrong. Any caller building DDL must check IsSafe before constructing the
// statement; callers must never rely on QuoteIdentifier alone for safety.
func IsSafe(s string) bool {
	return s != "" && safePattern.MatchString(s)
}

// QuoteIdentifier backtick-quotes a SQL identifier (table or column name),
// escaping any backtick within it by doubling it. It does not itself enforce
// IsSafe; callers that accept externally-declared names (Typenames,
// Fieldnames) must validate with IsSafe first, since IsSafe's rejection of
// unsafe names is a hard precondition for the Layout Initializer, not merely
// cosmetic escaping.
func QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, "`", "``")
	return "`" + escaped + "`"
}
