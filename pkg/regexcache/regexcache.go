// Package regexcache keeps compiled regular expressions keyed by pattern so
// fingerprint lists are compiled once per process.
//
// Usage:
//
//	re := regexcache.MustFold(`you have an error in your sql syntax`)
//	if re.MatchString(body) { ... }
package regexcache

import (
	"regexp"
	"sync"
)

var cache sync.Map // pattern -> *regexp.Regexp

// Get returns the compiled regexp for pattern, compiling it on first use.
func Get(pattern string) (*regexp.Regexp, error) {
	if cached, ok := cache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	actual, _ := cache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

// MustGet is Get that panics on an invalid pattern.
func MustGet(pattern string) *regexp.Regexp {
	re, err := Get(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// Fold returns a case-insensitive version of pattern.
func Fold(pattern string) (*regexp.Regexp, error) {
	return Get("(?i)" + pattern)
}

// MustFold is Fold that panics on an invalid pattern.
func MustFold(pattern string) *regexp.Regexp {
	return MustGet("(?i)" + pattern)
}

// FirstMatch returns the index and matched text of the first regexp in res
// that matches s, or -1 and "" when none does.
func FirstMatch(res []*regexp.Regexp, s string) (int, string) {
	for i, re := range res {
		if m := re.FindString(s); m != "" {
			return i, m
		}
	}
	return -1, ""
}

// Size returns the number of cached patterns.
func Size() int {
	n := 0
	cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Clear empties the cache. Tests only.
func Clear() {
	cache.Range(func(key, _ any) bool {
		cache.Delete(key)
		return true
	})
}
