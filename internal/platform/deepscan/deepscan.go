// Package deepscan walks arbitrarily nested decoded-JSON values. The external
// provider does not pin its payload shapes per field, so extractors scan for
// nodes matching a predicate instead of following fixed paths.
package deepscan

import "strconv"

// Node is one object found during a scan.
type Node = map[string]any

// Collect returns every descendant object (including root itself) for which
// pred returns true, in depth-first order. Nil and scalar nodes are skipped.
func Collect(root any, pred func(Node) bool) []Node {
	var out []Node
	walk(root, func(n Node) {
		if pred(n) {
			out = append(out, n)
		}
	})
	return out
}

// Walk invokes fn on every descendant object.
func Walk(root any, fn func(Node)) {
	walk(root, fn)
}

func walk(value any, fn func(Node)) {
	switch v := value.(type) {
	case Node:
		fn(v)
		for _, child := range v {
			walk(child, fn)
		}
	case []any:
		for _, item := range v {
			walk(item, fn)
		}
	}
}

// String returns the first non-empty string among the named fields.
func String(n Node, keys ...string) string {
	for _, key := range keys {
		if s, ok := n[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Number coerces a scalar to float64. Provider payloads carry numbers both as
// JSON numbers and as quoted strings; anything else degrades to (0, false).
func Number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// NumberField coerces the named field of a node.
func NumberField(n Node, key string) (float64, bool) {
	value, ok := n[key]
	if !ok {
		return 0, false
	}
	return Number(value)
}

// ID renders an identifier field as its canonical string form: numeric ids
// lose any fractional rendering ("5" not "5.000000"), string ids pass
// through, everything else is empty.
func ID(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
