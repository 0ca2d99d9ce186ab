package mirror

import (
	"strconv"
	"strings"
)

// CoerceBool interprets a human-edited cell as a boolean. Native booleans
// pass through, numbers map zero/non-zero, and a small vocabulary of strings
// is accepted. Anything else is unrecognized (ok=false) and the field is
// treated as absent, never an error.
func CoerceBool(v any) (value bool, ok bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case int:
		return x != 0, true
	case int64:
		return x != 0, true
	case float64:
		return x != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		}
	}
	return false, false
}

// CoerceInt parses a cell as an integer. Empty means absent; non-numeric
// text is absent too, never an error.
func CoerceInt(v any) (value int, ok bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x == float64(int(x)) {
			return int(x), true
		}
		return 0, false
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// CoerceStatus lowercases and trims a status cell. Empty means absent.
func CoerceStatus(v any) (value string, ok bool) {
	s, isStr := v.(string)
	if !isStr {
		return "", false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	return s, true
}
