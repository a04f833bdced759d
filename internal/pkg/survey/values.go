package survey

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/greenlean/greenlean/internal/pkg/schema"
)

// ParseValue converts a raw decoded JSON answer into the representation
// stored on the profile snapshot. Multi-choice and free-text answers become
// string slices, scales and numerics become ints, booleans stay booleans.
func ParseValue(kind schema.ValueKind, raw interface{}) (interface{}, error) {
	switch kind {
	case schema.ValueMultiChoice:
		return parseStringList(raw)
	case schema.ValueScale:
		n, err := parseInt(raw)
		if err != nil {
			return nil, err
		}
		if n < 1 || n > 10 {
			return nil, fmt.Errorf("%w: scale value %d out of range 1-10", ErrInvalidValue, n)
		}
		return n, nil
	case schema.ValueNumeric:
		return parseInt(raw)
	case schema.ValueBoolean:
		return parseBool(raw)
	case schema.ValueText:
		s, err := parseString(raw)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	case schema.ValueSingleChoice:
		return parseString(raw)
	default:
		return nil, fmt.Errorf("%w: unknown value kind %q", ErrInvalidValue, kind)
	}
}

func parseString(raw interface{}) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, raw)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty answer", ErrInvalidValue)
	}
	return s, nil
}

func parseStringList(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: expected string list element, got %T", ErrInvalidValue, item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		// A bare string answer is a list of one.
		s, err := parseString(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	default:
		return nil, fmt.Errorf("%w: expected list, got %T", ErrInvalidValue, raw)
	}
}

func parseInt(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: expected number, got %T", ErrInvalidValue, raw)
	}
}

func parseBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: expected boolean, got %T", ErrInvalidValue, raw)
	}
}
