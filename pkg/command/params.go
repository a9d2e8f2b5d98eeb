package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidParams is returned (wrapped) when a request parameter is missing
// or has the wrong type
var ErrInvalidParams = errors.New("invalid params")

// Params is the flat parameter set of a request. Values come from decoded
// JSON (strings, bools, float64 numbers) or from the command line (strings).
type Params map[string]any

// String returns a string parameter, or "" when it is absent
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", nil
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return "", fmt.Errorf("%s: expected a string, got %T: %w", key, v, ErrInvalidParams)
}

// RequiredString returns a string parameter that must be present and non-empty
func (p Params) RequiredString(key string) (string, error) {
	s, err := p.String(key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%s is required: %w", key, ErrInvalidParams)
	}
	return s, nil
}

// Bool returns a boolean parameter, or def when it is absent
func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, fmt.Errorf("%s: %q is not a boolean: %w", key, b, ErrInvalidParams)
		}
		return parsed, nil
	}
	return false, fmt.Errorf("%s: expected a boolean, got %T: %w", key, v, ErrInvalidParams)
}

// Int returns an integer parameter, or def when it is absent
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%s: %v is not an integer: %w", key, n, ErrInvalidParams)
		}
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not an integer: %w", key, n, ErrInvalidParams)
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("%s: expected an integer, got %T: %w", key, v, ErrInvalidParams)
}
