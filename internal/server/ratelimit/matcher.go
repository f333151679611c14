package ratelimit

import (
	"strings"
)

// MatchRoute returns the first route whose method and pattern match.
// A "{}" segment in a pattern matches any single path segment.
// GET /health is always unlimited.
func MatchRoute(path, method string, routes []Route) *Route {
	if path == "/health" && method == "GET" {
		return &Route{Pattern: "/health"}
	}

	segments := splitPath(path)
	for i := range routes {
		r := &routes[i]
		if r.Method == method && matchSegments(splitPath(r.Pattern), segments) {
			return r
		}
	}
	return nil
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, seg := range pattern {
		if seg != "{}" && seg != path[i] {
			return false
		}
	}
	return true
}
