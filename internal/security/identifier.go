package security

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierRegex matches identifiers that are safe to interpolate into SQL:
// alphanumeric plus underscore, starting with a letter or underscore.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// maxIdentifierLen is the MySQL identifier length limit; ClickHouse allows
// longer names but nothing this tool addresses needs them.
const maxIdentifierLen = 64

// ValidateIdentifier checks that a database, table, or column name is safe
// for SQL interpolation. Identifiers cannot be bound as query parameters, so
// every name that reaches a query string must pass through here first.
// Reserved words are allowed because identifiers are always backtick-quoted.
func ValidateIdentifier(identifier string, identifierType string) error {
	if len(identifier) == 0 {
		return fmt.Errorf("%s cannot be empty", identifierType)
	}
	if len(identifier) > maxIdentifierLen {
		return fmt.Errorf("%s too long (%d characters, max %d): %s", identifierType, len(identifier), maxIdentifierLen, identifier)
	}
	if !identifierRegex.MatchString(identifier) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric and underscore allowed, must start with letter or underscore): %s", identifierType, identifier)
	}
	return nil
}

// EscapeIdentifier backtick-quotes an identifier, doubling any embedded
// backticks. Always used together with ValidateIdentifier, never instead of
// it.
func EscapeIdentifier(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

// ValidateAndEscapeIdentifier validates then escapes in one step; this is
// what callers building queries should use.
func ValidateAndEscapeIdentifier(identifier string, identifierType string) (string, error) {
	if err := ValidateIdentifier(identifier, identifierType); err != nil {
		return "", err
	}
	return EscapeIdentifier(identifier), nil
}
