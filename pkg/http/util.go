package http

import (
	"sort"
	"strings"
)

// Param is a single query pair, kept in the order it was added.
type Param struct {
	Key   string
	Value string
}

// SortedParams turns a map into pairs ordered by key.
func SortedParams(m map[string]string) []Param {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]Param, 0, len(keys))
	for _, k := range keys {
		params = append(params, Param{Key: k, Value: m[k]})
	}
	return params
}

// BuildRawURL concatenates base and path and appends params as a query string
// opened by "?", even when path already carries one. Keys and values are
// written verbatim, without percent-encoding, so callers must pass URL-safe
// values.
func BuildRawURL(baseURL, path string, params []Param) string {
	var sb strings.Builder
	sb.WriteString(baseURL)
	sb.WriteString(path)

	sep := "?"
	for _, p := range params {
		sb.WriteString(sep)
		sb.WriteString(p.Key)
		sb.WriteByte('=')
		sb.WriteString(p.Value)
		sep = "&"
	}

	return sb.String()
}
