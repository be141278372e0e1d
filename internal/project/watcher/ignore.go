package watcher

import (
	"path/filepath"
	"strings"
	"sync"
)

// IgnoreMatcher decides which paths the watcher skips. Patterns use glob
// syntax matched against individual path components or against the full
// slash-separated path when the pattern contains a separator.
type IgnoreMatcher struct {
	mu       sync.RWMutex
	patterns []string
}

// DefaultIgnorePatterns are directories no diff view wants to track.
var DefaultIgnorePatterns = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"vendor",
	"target",
	"__pycache__",
	"*.swp",
	"*~",
}

// NewIgnoreMatcher creates a matcher with the given patterns on top of
// the defaults.
func NewIgnoreMatcher(patterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	m.Add(DefaultIgnorePatterns...)
	m.Add(patterns...)
	return m
}

// Add registers additional patterns. Empty strings are skipped.
func (m *IgnoreMatcher) Add(patterns ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p != "" {
			m.patterns = append(m.patterns, p)
		}
	}
}

// Count returns the number of registered patterns.
func (m *IgnoreMatcher) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.patterns)
}

// Match returns true if path should be ignored. The path is compared
// component-wise, so a pattern like "vendor" matches anything beneath a
// vendor directory at any depth.
func (m *IgnoreMatcher) Match(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slashed := filepath.ToSlash(path)
	components := strings.Split(slashed, "/")

	for _, pattern := range m.patterns {
		if strings.Contains(pattern, "/") {
			if ok, _ := filepath.Match(pattern, slashed); ok {
				return true
			}
			continue
		}
		for _, c := range components {
			if ok, _ := filepath.Match(pattern, c); ok {
				return true
			}
		}
	}
	return false
}
