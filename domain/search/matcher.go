package search

import (
	"strings"

	"github.com/sarychlabs/sarychdb/domain/record"
	apperrors "github.com/sarychlabs/sarychdb/pkg/errors"
)

// Mode selects the matcher predicate.
type Mode string

const (
	// ModeDefault matches the query as a substring anywhere in the document.
	ModeDefault Mode = "default"
	// ModeKey matches documents containing a key named exactly like the
	// query, at any depth.
	ModeKey Mode = "key"
	// ModeValue matches documents where some leaf value is textually equal
	// to the query.
	ModeValue Mode = "value"
)

// ParseMode maps the queryType header value to a Mode. Absence means
// ModeDefault.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "":
		return ModeDefault, nil
	case "key":
		return ModeKey, nil
	case "value":
		return ModeValue, nil
	default:
		return "", apperrors.NewBadRequestError("queryType must be 'key' or 'value'")
	}
}

// Matches evaluates the mode's predicate for query against a JSON value.
// An empty query matches everything. The traversal returns on the first
// hit; short-circuiting is part of the contract, not an optimization.
func Matches(v interface{}, query string, mode Mode) bool {
	if query == "" {
		return true
	}
	return matchValue(v, query, mode)
}

func matchValue(v interface{}, query string, mode Mode) bool {
	switch val := v.(type) {
	case map[string]interface{}:
		return matchObject(val, query, mode)
	case record.Record:
		return matchObject(val, query, mode)
	case []interface{}:
		for _, elem := range val {
			if matchValue(elem, query, mode) {
				return true
			}
		}
		return false
	default:
		return matchScalar(val, query, mode)
	}
}

func matchObject(obj map[string]interface{}, query string, mode Mode) bool {
	for k, v := range obj {
		if mode == ModeKey && k == query {
			return true
		}
		if matchValue(v, query, mode) {
			return true
		}
	}
	return false
}

func matchScalar(v interface{}, query string, mode Mode) bool {
	text, ok := record.ScalarText(v)
	if !ok {
		// Null has no textual form and never matches.
		return false
	}

	switch mode {
	case ModeValue:
		return text == query
	case ModeKey:
		return false
	default:
		return strings.Contains(text, query)
	}
}
