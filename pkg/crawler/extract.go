package crawler

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DisallowedExtensions are path suffixes that never serve HTML.
var DisallowedExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico", ".bmp",
	".mp3", ".mp4", ".wav", ".avi", ".mov", ".webm",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".zip", ".tar", ".gz", ".rar", ".7z",
	".woff", ".woff2", ".ttf", ".eot", ".otf",
	".css", ".js", ".json", ".xml",
}

// Canonical strips the fragment and a trailing slash and lowercases the
// scheme and host. The bare root path canonicalizes to the origin without
// a slash. Returns "" for unparseable or non-http(s) URLs.
func Canonical(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}

// resolveURL resolves href against base. Empty, fragment-only and
// javascript:/mailto:/tel:/data: references yield "".
func resolveURL(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// resolveAction resolves a form action against the page URL. Empty and
// fragment-only actions submit to the page itself; javascript: and
// unparseable actions yield "".
func resolveAction(action string, base *url.URL) string {
	action = strings.TrimSpace(action)
	if action == "" || strings.HasPrefix(action, "#") {
		page := *base
		page.Fragment = ""
		page.RawFragment = ""
		return page.String()
	}
	return resolveURL(action, base)
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

func allowedExtension(raw string, disallowed []string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return true
	}
	for _, d := range disallowed {
		if ext == d {
			return false
		}
	}
	return true
}

// parsed is what one HTML page contributes to a crawl.
type parsed struct {
	forms []Form
	links []string
}

// parsePage extracts forms and same-origin canonical links from body.
// Malformed markup is parsed leniently; a page the parser rejects
// contributes nothing.
func parsePage(body []byte, pageURL string) parsed {
	base, err := url.Parse(pageURL)
	if err != nil {
		return parsed{}
	}
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return parsed{}
	}
	doc := goquery.NewDocumentFromNode(root)

	var out parsed
	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		out.forms = append(out.forms, extractForm(s, base, pageURL))
	})

	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs := resolveURL(href, base)
		if abs == "" {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || !sameOrigin(u, base) {
			return
		}
		if c := Canonical(abs); c != "" && !seen[c] {
			seen[c] = true
			out.links = append(out.links, c)
		}
	})
	return out
}

func extractForm(s *goquery.Selection, base *url.URL, pageURL string) Form {
	f := Form{
		SourceURL: pageURL,
		Method:    "get",
		Inputs:    []InputField{},
	}

	f.Action = resolveAction(s.AttrOr("action", ""), base)
	if m := strings.ToLower(strings.TrimSpace(s.AttrOr("method", ""))); m != "" {
		f.Method = m
	}

	s.Find("input, textarea, select").Each(func(_ int, in *goquery.Selection) {
		name := strings.TrimSpace(in.AttrOr("name", ""))
		if name == "" {
			return
		}
		field := InputField{
			Name: name,
			Type: strings.ToLower(strings.TrimSpace(in.AttrOr("type", ""))),
		}
		if field.Type == "" {
			field.Type = "text"
		}
		if v, ok := in.Attr("value"); ok {
			field.Value = v
		} else {
			field.Value = defaultValue(in)
		}
		f.Inputs = append(f.Inputs, field)
	})

	f.Score = ScoreInputs(f.Inputs)
	return f
}

// defaultValue is the text of a textarea or the selected (else first)
// option of a select.
func defaultValue(in *goquery.Selection) string {
	switch goquery.NodeName(in) {
	case "textarea":
		return in.Text()
	case "select":
		opt := in.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = in.Find("option").First()
		}
		if opt.Length() == 0 {
			return ""
		}
		if v, ok := opt.Attr("value"); ok {
			return v
		}
		return strings.TrimSpace(opt.Text())
	}
	return ""
}
