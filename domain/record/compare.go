package record

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Type buckets for ordering heterogeneous values under one sort key.
// Missing keys sort before null; the rest follow
// null < boolean < number < string < array < object.
const (
	rankMissing = iota
	rankNull
	rankBool
	rankNumber
	rankString
	rankArray
	rankObject
)

func valueRank(v interface{}, present bool) int {
	if !present {
		return rankMissing
	}
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case json.Number, float64, int64, int:
		return rankNumber
	case string:
		return rankString
	case []interface{}:
		return rankArray
	case map[string]interface{}, Record:
		return rankObject
	default:
		return rankObject
	}
}

// CompareValues imposes a deterministic total order over JSON values so that
// sorting stays stable even when documents mix types under the same key.
// present flags distinguish a missing key from an explicit null.
func CompareValues(a interface{}, aPresent bool, b interface{}, bPresent bool) int {
	ra, rb := valueRank(a, aPresent), valueRank(b, bPresent)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case rankMissing, rankNull:
		return 0
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		if ab == bb {
			return 0
		}
		if !ab {
			return -1
		}
		return 1
	case rankNumber:
		fa, _ := NumericValue(a)
		fb, _ := NumericValue(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	case rankString:
		return strings.Compare(a.(string), b.(string))
	default:
		// Arrays and objects compare by canonical JSON form; encoding/json
		// emits object keys in sorted order, which makes the form canonical.
		return strings.Compare(canonicalJSON(a), canonicalJSON(b))
	}
}

// ValuesEqual reports JSON value equality under the same comparison rules
// used for sorting, so 1, 1.0 and json.Number("1") are all equal.
func ValuesEqual(a, b interface{}) bool {
	return CompareValues(a, true, b, true) == 0
}

// NumericValue extracts the numeric value of a scalar, reporting whether the
// input was numeric at all.
func NumericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// ScalarText returns the textual form of a scalar leaf: strings verbatim,
// numbers and booleans by their canonical text. Composite values and null
// report ok=false.
func ScalarText(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int:
		return strconv.Itoa(val), true
	default:
		return "", false
	}
}

func canonicalJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
