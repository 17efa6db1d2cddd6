package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const videoPage = `<html><head>
<title>Fallback title</title>
<meta property="og:title" content="Best Biryani in Hyderabad">
<meta property="og:description" content="We tried the famous dum biryani at Spice Route">
<meta property="og:image" content="https://cdn.example.com/thumb.jpg">
<meta itemprop="interactionCount" content="48213">
</head><body></body></html>`

func newTestChecker(retries int) *Checker {
	c := NewChecker(2*time.Second, retries, zap.NewNop())
	c.backoff = time.Millisecond
	return c
}

func TestCheckReachable(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte(videoPage))
	}))
	defer srv.Close()

	res, err := newTestChecker(0).Check(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.State != StateReachable || res.HTTPStatus != http.StatusOK {
		t.Errorf("state = %q status = %d", res.State, res.HTTPStatus)
	}
	if res.Title != "Best Biryani in Hyderabad" {
		t.Errorf("title = %q", res.Title)
	}
	if res.ImageURL != "https://cdn.example.com/thumb.jpg" {
		t.Errorf("image = %q", res.ImageURL)
	}
	if res.Views == nil || *res.Views != 48213 {
		t.Errorf("views = %v, want 48213", res.Views)
	}
	if res.LangGuess != "en" {
		t.Errorf("lang = %q, want en", res.LangGuess)
	}
	if !strings.Contains(ua, "foodvlog-linkcheck") {
		t.Errorf("user agent = %q", ua)
	}
}

func TestCheckGone(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusGone} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(status)
		}))

		res, err := newTestChecker(3).Check(context.Background(), srv.URL)
		srv.Close()
		if err != nil {
			t.Fatalf("status %d: Check: %v", status, err)
		}
		if res.State != StateGone || res.HTTPStatus != status {
			t.Errorf("status %d: result = %+v", status, res)
		}
		if calls.Load() != 1 {
			t.Errorf("status %d: %d requests, want no retries", status, calls.Load())
		}
	}
}

func TestCheckRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(videoPage))
	}))
	defer srv.Close()

	res, err := newTestChecker(3).Check(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.State != StateReachable || calls.Load() != 3 {
		t.Errorf("state = %q after %d calls", res.State, calls.Load())
	}

	calls.Store(-100)
	if _, err := newTestChecker(1).Check(context.Background(), srv.URL); err == nil {
		t.Error("expected error once retries are exhausted")
	}
}

func TestParseDocumentFallbacks(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><head>
<title> चाट की दुकान </title>
<meta name="description" content="पुरानी दिल्ली">
</head><body><span class="view-count">1.2K views</span></body></html>`))
	if err != nil {
		t.Fatal(err)
	}

	res := parseDocument(doc)
	if res.Title != "चाट की दुकान" {
		t.Errorf("title = %q", res.Title)
	}
	if res.Description != "पुरानी दिल्ली" {
		t.Errorf("description = %q", res.Description)
	}
	if res.Views == nil || *res.Views != 1200 {
		t.Errorf("views = %v, want 1200", res.Views)
	}
	if res.LangGuess != "hi" {
		t.Errorf("lang = %q, want hi", res.LangGuess)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"1.2K", 1200},
		{"1.5M", 1500000},
		{"123", 123},
		{"12,345", 12345},
		{"1 234", 1234},
		{"5.6K views", 5600},
		{"0", 0},
		{"", 0},
		{"no number", 0},
		{"42k", 42000},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseCount(tt.input); got != tt.expected {
				t.Errorf("parseCount(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGuessLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"नमस्ते दुनिया", "hi"},
		{"Street food tour of Old Delhi", "en"},
		{"வணக்கம் உலகம்", "ta"},
		{"سلام دنیا", "ur"},
		{"", "unknown"},
		{"12345 !!!", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := guessLanguage(tt.input); got != tt.expected {
				t.Errorf("guessLanguage(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
