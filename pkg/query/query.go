package query

import (
	"net/url"
	"strings"
)

// Filters extracts the column-scoped filter parameters from a query string.
//
// Every parameter prefixed with "filter_" is collected under its bare column
// name; empty values are dropped so they never reach the upstream service.
func Filters(values url.Values) map[string]string {
	filters := make(map[string]string)
	for key, vals := range values {
		if !strings.HasPrefix(key, "filter_") || len(vals) == 0 {
			continue
		}
		clean := strings.TrimSpace(vals[0])
		if clean == "" {
			continue
		}
		filters[strings.TrimPrefix(key, "filter_")] = clean
	}
	return filters
}

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}
