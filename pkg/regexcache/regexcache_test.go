package regexcache

import (
	"regexp"
	"sync"
	"testing"
)

func TestGet_CachesCompiled(t *testing.T) {
	re1, err := Get(`ora-\d{5}`)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	re2, err := Get(`ora-\d{5}`)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if re1 != re2 {
		t.Error("expected the same *regexp.Regexp for a repeated pattern")
	}
}

func TestGet_InvalidPattern(t *testing.T) {
	if _, err := Get(`(unclosed`); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestMustGet_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustGet should panic on an invalid pattern")
		}
	}()
	MustGet(`[`)
}

func TestFold_CaseInsensitive(t *testing.T) {
	re := MustFold(`you have an error in your sql syntax`)
	if !re.MatchString("You Have An Error In Your SQL Syntax near ''") {
		t.Error("folded pattern should match regardless of case")
	}
}

func TestFirstMatch(t *testing.T) {
	res := []*regexp.Regexp{MustFold(`sqlite3?\.`), MustFold(`pg_query\(\)`)}

	idx, m := FirstMatch(res, "Warning: PG_QUERY() failed")
	if idx != 1 || m != "PG_QUERY()" {
		t.Errorf("FirstMatch = (%d, %q), want (1, \"PG_QUERY()\")", idx, m)
	}

	idx, m = FirstMatch(res, "all good")
	if idx != -1 || m != "" {
		t.Errorf("FirstMatch on clean text = (%d, %q), want (-1, \"\")", idx, m)
	}
}

func TestGet_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Get(`concurrent-\w+`); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if Size() == 0 {
		t.Error("cache should not be empty")
	}
}
