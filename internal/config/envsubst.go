package config

import (
	"fmt"
	"os"
	"strings"
)

// expandEnvWithDefaults expands environment variable references in the input:
//   - ${VAR} or $VAR: the value of VAR (empty string if unset)
//   - ${VAR:-default}: "default" if VAR is unset or empty
//   - ${VAR:?error message}: fail if VAR is unset or empty
//
// Anything that does not parse as a reference ($100, ${}, an unclosed brace)
// passes through unchanged.
func expandEnvWithDefaults(input string) (string, error) {
	var out strings.Builder
	out.Grow(len(input))

	for i := 0; i < len(input); {
		if input[i] != '$' {
			out.WriteByte(input[i])
			i++
			continue
		}

		if i+1 < len(input) && input[i+1] == '{' {
			end := strings.IndexByte(input[i+2:], '}')
			if end < 0 {
				// Unclosed brace, emit the rest verbatim
				out.WriteString(input[i:])
				break
			}
			ref := input[i : i+3+end]
			value, ok, err := resolveBracedRef(input[i+2 : i+2+end])
			if err != nil {
				return "", err
			}
			if ok {
				out.WriteString(value)
			} else {
				out.WriteString(ref)
			}
			i += 3 + end
			continue
		}

		// Shorthand $VAR
		j := i + 1
		for j < len(input) && isNameByte(input[j], j > i+1) {
			j++
		}
		if j == i+1 {
			out.WriteByte('$')
			i++
			continue
		}
		out.WriteString(os.Getenv(input[i+1 : j]))
		i = j
	}

	return out.String(), nil
}

// resolveBracedRef evaluates the content between ${ and }. ok is false when
// the content is not a valid reference and should pass through untouched.
func resolveBracedRef(expr string) (value string, ok bool, err error) {
	name := expr
	operator := ""
	operand := ""

	if idx := strings.IndexByte(expr, ':'); idx >= 0 {
		if idx+1 >= len(expr) || (expr[idx+1] != '-' && expr[idx+1] != '?') {
			return "", false, nil
		}
		name = expr[:idx]
		operator = expr[idx : idx+2]
		operand = expr[idx+2:]
	}

	if !isValidName(name) {
		return "", false, nil
	}

	got := os.Getenv(name)

	switch operator {
	case ":-":
		if got == "" {
			return operand, true, nil
		}
		return got, true, nil
	case ":?":
		if got == "" {
			if operand != "" {
				return "", false, fmt.Errorf("environment variable %s is required: %s", name, operand)
			}
			return "", false, fmt.Errorf("environment variable %s is required but not set", name)
		}
		return got, true, nil
	default:
		return got, true, nil
	}
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isNameByte(name[i], i > 0) {
			return false
		}
	}
	return true
}

func isNameByte(b byte, notFirst bool) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b == '_':
		return true
	case b >= '0' && b <= '9':
		return notFirst
	default:
		return false
	}
}
