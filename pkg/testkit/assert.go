package testkit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Lookup walks a decoded JSON document along a dotted path. Numeric
// segments index arrays: "data.order.items.0.quantity".
func Lookup(doc interface{}, path string) (interface{}, bool) {
	cur := doc
	if path == "" {
		return cur, true
	}
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// AssertPaths checks every path in expect against doc. Expected values are
// compared after a JSON round trip so 3000 and 3000.0 are equal. The
// special value "*" only requires the path to exist.
func AssertPaths(t *testing.T, label string, doc interface{}, expect map[string]interface{}) {
	t.Helper()
	for path, want := range expect {
		got, ok := Lookup(doc, path)
		if !assert.True(t, ok, "[%s] missing %s", label, path) {
			continue
		}
		if want == "*" {
			continue
		}
		assert.Equal(t, normalize(want), got, "[%s] %s", label, path)
	}
}

// AssertJSONEqual compares two JSON documents ignoring key order and
// whitespace.
func AssertJSONEqual(t *testing.T, label string, expected, actual []byte) {
	t.Helper()
	assert.JSONEq(t, string(expected), string(actual), "[%s] response body mismatch", label)
}

func normalize(v interface{}) interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// stringify renders a captured value for use inside a URL or string.
func stringify(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
