package injector

import (
	"context"
	"errors"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortexscan/vortex/pkg/crawler"
	"github.com/vortexscan/vortex/pkg/finding"
	"github.com/vortexscan/vortex/pkg/httpclient"
	"github.com/vortexscan/vortex/pkg/probe"
)

func newFetcher(t *testing.T) *probe.Fetcher {
	t.Helper()
	f, err := probe.NewFetcher(httpclient.DefaultConfig())
	require.NoError(t, err)
	return f
}

func loginForm(action string) crawler.Form {
	return crawler.Form{
		Action: action,
		Method: "post",
		Inputs: []crawler.InputField{
			{Name: "csrf", Type: "hidden", Value: "tok"},
			{Name: "user", Type: "text"},
			{Name: "pass", Type: "password"},
		},
	}
}

// recorder is an httptest handler that logs every submitted value of a field.
type recorder struct {
	mu     sync.Mutex
	field  string
	values []string
	reply  func(v string) string
}

func (rc *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	v := r.Form.Get(rc.field)
	rc.mu.Lock()
	rc.values = append(rc.values, v)
	rc.mu.Unlock()
	w.Header().Set("Content-Type", "text/html")
	io.WriteString(w, rc.reply(v))
}

func (rc *recorder) seen() []string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return append([]string(nil), rc.values...)
}

func TestInject_SQLiStopsAtFirstHit(t *testing.T) {
	rc := &recorder{field: "user", reply: func(v string) string {
		if v == "' OR '1'='1" {
			return "You have an error in your SQL syntax; check the manual"
		}
		return "invalid login"
	}}
	srv := httptest.NewServer(rc)
	defer srv.Close()

	in := New(newFetcher(t), Config{
		External: map[finding.Class][]string{finding.SQLInjection: {"' AND 1=1--"}},
	}, WithDetectors(DefaultDetectors()[0]))

	got, stats := in.Inject(context.Background(), []crawler.Form{loginForm(srv.URL + "/login")})
	require.Len(t, got, 1)
	f := got[0]
	assert.Equal(t, finding.SQLInjection, f.Class)
	assert.Equal(t, "user", f.Parameter)
	assert.Equal(t, "' OR '1'='1", f.Payload)
	assert.Equal(t, srv.URL+"/login", f.TargetURL)
	assert.Equal(t, finding.High, f.Severity)
	assert.Contains(t, f.Evidence, "mysql")

	assert.Equal(t, []string{`'`, `"`, `';--`, `') OR '1'='1`, `' OR '1'='1`}, rc.seen(),
		"external payloads are not tried once a built-in payload hits")
	assert.Equal(t, int64(5), stats.Requests)
}

func TestInject_FirstPayloadHit(t *testing.T) {
	rc := &recorder{field: "user", reply: func(v string) string {
		if strings.Contains(v, "'") {
			return "Warning: mysql_fetch_array() expects parameter 1 to be resource"
		}
		return "ok"
	}}
	srv := httptest.NewServer(rc)
	defer srv.Close()

	got, _ := New(newFetcher(t), Config{}, WithDetectors(DefaultDetectors()[0])).
		Inject(context.Background(), []crawler.Form{loginForm(srv.URL)})
	require.Len(t, got, 1)
	assert.Equal(t, "'", got[0].Payload)
	assert.Len(t, rc.seen(), 1)
}

func TestInject_ReflectedXSS(t *testing.T) {
	rc := &recorder{field: "q", reply: func(v string) string {
		return "<p>Results for " + v + "</p>"
	}}
	srv := httptest.NewServer(rc)
	defer srv.Close()

	form := crawler.Form{
		Action: srv.URL + "/search?lang=en",
		Method: "get",
		Inputs: []crawler.InputField{{Name: "q", Type: "search"}},
	}
	got, _ := New(newFetcher(t), Config{}).Inject(context.Background(), []crawler.Form{form})

	require.Len(t, got, 1, "echo without error text gives XSS only")
	assert.Equal(t, finding.ReflectedXSS, got[0].Class)
	assert.Equal(t, "q", got[0].Parameter)
	assert.Equal(t, `<script>alert('vortex')</script>`, got[0].Payload)
	assert.Equal(t, finding.Medium, got[0].Severity)
}

func TestInject_EscapedReflectionTriesExternal(t *testing.T) {
	rc := &recorder{field: "q", reply: func(v string) string {
		if v == "VORTEX-RAW" {
			return "raw " + v
		}
		return html.EscapeString(v)
	}}
	srv := httptest.NewServer(rc)
	defer srv.Close()

	in := New(newFetcher(t), Config{
		External: map[finding.Class][]string{finding.ReflectedXSS: {"<b>x</b>", "VORTEX-RAW", "never-sent"}},
	}, WithDetectors(DefaultDetectors()[1]))

	got, _ := in.Inject(context.Background(), []crawler.Form{{
		Action: srv.URL, Method: "post", Inputs: []crawler.InputField{{Name: "q", Type: "text"}},
	}})
	require.Len(t, got, 1)
	assert.Equal(t, "VORTEX-RAW", got[0].Payload)
	assert.NotContains(t, rc.seen(), "never-sent")
	assert.Len(t, rc.seen(), 5)
}

func TestInject_BothClassesOnOneForm(t *testing.T) {
	rc := &recorder{field: "user", reply: func(v string) string {
		return "Unclosed quotation mark after the character string '" + v + "'"
	}}
	srv := httptest.NewServer(rc)
	defer srv.Close()

	got, stats := New(newFetcher(t), Config{}).Inject(context.Background(), []crawler.Form{loginForm(srv.URL)})
	require.Len(t, got, 2)
	assert.Equal(t, finding.SQLInjection, got[0].Class)
	assert.Equal(t, finding.ReflectedXSS, got[1].Class)
	assert.Equal(t, 2, stats.Tasks)
}

func TestInject_SkipsUntestableForms(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer srv.Close()

	forms := []crawler.Form{
		{Action: srv.URL, Method: "post", Inputs: []crawler.InputField{{Name: "agree", Type: "checkbox"}}},
		{Action: "", Method: "post", Inputs: []crawler.InputField{{Name: "q", Type: "text"}}},
		{Action: srv.URL, Method: "get"},
	}
	got, stats := New(newFetcher(t), Config{}).Inject(context.Background(), forms)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Equal(t, int32(0), hits.Load())
	assert.Equal(t, 6, stats.Skipped)
	assert.Equal(t, 0, stats.Tasks)
}

// flakySubmitter fails the first request of every pair, then echoes.
type flakySubmitter struct {
	mu    sync.Mutex
	calls int
}

func (f *flakySubmitter) Submit(_ context.Context, _, _ string, values url.Values) (*probe.Page, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if n == 1 {
		return nil, errors.New("i/o timeout")
	}
	return &probe.Page{StatusCode: 200, Body: []byte(values.Get("user"))}, nil
}

func TestInject_NetworkErrorIsInconclusive(t *testing.T) {
	sub := &flakySubmitter{}
	got, stats := New(sub, Config{}, WithDetectors(DefaultDetectors()[1])).
		Inject(context.Background(), []crawler.Form{loginForm("http://app.example.com/login")})

	require.Len(t, got, 1)
	assert.Equal(t, `"><svg/onload=alert('vortex')>`, got[0].Payload, "second payload hits after the first errored")
	assert.Equal(t, int64(1), stats.Inconclusive)
	assert.Equal(t, int64(2), stats.Requests)
}

func TestInject_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sub := &flakySubmitter{}
	got, _ := New(sub, Config{}).Inject(ctx, []crawler.Form{loginForm("http://app.example.com/login")})
	assert.Empty(t, got)
	assert.Equal(t, 0, sub.calls)
}

func TestBuildValues(t *testing.T) {
	form := crawler.Form{Inputs: []crawler.InputField{
		{Name: "csrf", Type: "hidden", Value: "tok"},
		{Name: "user", Type: "text"},
		{Name: "pass", Type: "password"},
		{Name: "remember", Type: "checkbox", Value: "1"},
	}}
	idx, ok := form.FirstTextInput()
	require.True(t, ok)

	v := BuildValues(form, idx, "<x>", "test")
	assert.Equal(t, url.Values{
		"csrf":     {"tok"},
		"user":     {"<x>"},
		"pass":     {"test"},
		"remember": {"1"},
	}, v)
}

func TestNew_Defaults(t *testing.T) {
	in := New(nil, Config{})
	assert.Equal(t, 10, in.config.Concurrency)
	assert.Equal(t, "test", in.config.Filler)
	assert.Len(t, in.detectors, 2)
}
