package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Link states
const (
	StateReachable = "reachable"
	StateGone      = "gone"
)

// Result is what a sponsored post URL currently shows.
type Result struct {
	URL         string    `json:"url"`
	State       string    `json:"state"`
	HTTPStatus  int       `json:"http_status"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Views       *int      `json:"views,omitempty"`
	LangGuess   string    `json:"lang_guess"`
	FetchedAt   time.Time `json:"fetched_at"`
}

type Checker struct {
	httpClient *http.Client
	log        *zap.Logger
	maxRetries int
	backoff    time.Duration
}

func NewChecker(timeout time.Duration, maxRetries int, log *zap.Logger) *Checker {
	return &Checker{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		maxRetries: maxRetries,
		backoff:    500 * time.Millisecond,
	}
}

// Check fetches url and extracts its page metadata. A 404 or 410 is
// reported as StateGone without error; transport failures and other
// statuses are retried and then returned as errors.
func (p *Checker) Check(ctx context.Context, url string) (*Result, error) {
	var doc *goquery.Document
	var status int
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * p.backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; foodvlog-linkcheck/1.0)")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		status = resp.StatusCode

		if status == http.StatusNotFound || status == http.StatusGone {
			resp.Body.Close()
			return &Result{URL: url, State: StateGone, HTTPStatus: status, LangGuess: "unknown", FetchedAt: time.Now()}, nil
		}
		if status != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", status, url)
			continue
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		return nil, lastErr
	}

	res := parseDocument(doc)
	res.URL = url
	res.State = StateReachable
	res.HTTPStatus = status
	res.FetchedAt = time.Now()
	p.log.Debug("link checked", zap.String("url", url), zap.String("title", res.Title))
	return res, nil
}

func parseDocument(doc *goquery.Document) *Result {
	res := &Result{}

	res.Title = metaContent(doc, "og:title")
	if res.Title == "" {
		res.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	res.Description = metaContent(doc, "og:description")
	if res.Description == "" {
		res.Description = metaContent(doc, "description")
	}
	res.ImageURL = metaContent(doc, "og:image")

	// Views: structured data first, then visible counters.
	if v := metaContent(doc, "interactionCount"); v != "" {
		if n := parseCount(v); n > 0 {
			res.Views = &n
		}
	}
	if res.Views == nil {
		doc.Find(".view-count, .views, [data-views]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if attr, ok := s.Attr("data-views"); ok {
				text = attr
			}
			if n := parseCount(text); n > 0 {
				res.Views = &n
				return false
			}
			return true
		})
	}

	res.LangGuess = guessLanguage(res.Title + " " + res.Description)
	return res
}

// metaContent looks a key up in property, name and itemprop attributes.
func metaContent(doc *goquery.Document, key string) string {
	for _, attr := range []string{"property", "name", "itemprop"} {
		if v, ok := doc.Find(fmt.Sprintf(`meta[%s=%q]`, attr, key)).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

var viewCountRE = regexp.MustCompile(`[\d,.]+[KkMm]?`)

func parseCount(text string) int {
	text = strings.ReplaceAll(text, " ", "")
	text = strings.ReplaceAll(text, ",", "")

	match := viewCountRE.FindString(text)
	if match == "" {
		return 0
	}

	multiplier := 1
	if strings.HasSuffix(match, "K") || strings.HasSuffix(match, "k") {
		multiplier = 1000
		match = match[:len(match)-1]
	} else if strings.HasSuffix(match, "M") || strings.HasSuffix(match, "m") {
		multiplier = 1000000
		match = match[:len(match)-1]
	}

	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return int(f * float64(multiplier))
}

// guessLanguage is a script-based guess, good enough to flag posts whose
// page is not in a language the vendor's audience reads.
func guessLanguage(text string) string {
	var devanagari, latin, arabic, tamil, total int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		switch {
		case unicode.Is(unicode.Devanagari, r):
			devanagari++
		case unicode.Is(unicode.Tamil, r):
			tamil++
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}
	if total == 0 {
		return "unknown"
	}

	share := func(n int) float64 { return float64(n) / float64(total) }
	switch {
	case share(devanagari) >= 0.3:
		return "hi"
	case share(tamil) >= 0.3:
		return "ta"
	case share(arabic) >= 0.3:
		return "ur"
	case share(latin) >= 0.3:
		return "en"
	default:
		return "other"
	}
}
