// Package pathutil maps request paths to route templates and validates path ids.
package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern pairs a dynamic route regexp with the label it reports as.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// Patterns are matched in order; most specific first.
var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/tasks/stream$`), Template: "/tasks/stream"},
	{Pattern: regexp.MustCompile(`^/tasks/[^/]+$`), Template: "/tasks/:id"},
}

// NormalizePath collapses dynamic segments so metrics labels stay bounded.
//
//	NormalizePath("/tasks/6f1c...")   // "/tasks/:id"
//	NormalizePath("/tasks/stream")    // "/tasks/stream"
//	NormalizePath("/tasks/abc/")      // "/tasks/:id"
//	NormalizePath("/health?x=1")      // "/health"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return path
}
