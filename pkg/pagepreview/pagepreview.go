package pagepreview

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

const snippetLimit = 500

// Preview is a short summary of a reported page.
type Preview struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Snippet     string `json:"snippet"`
}

type Fetcher struct {
	httpCli *http.Client
}

func New() *Fetcher {
	return &Fetcher{
		httpCli: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Fetch downloads the reported page and extracts title, description and a
// body snippet. Reported pages are hostile by definition, so the response
// is only ever parsed, never trusted.
func (f *Fetcher) Fetch(ctx context.Context, link string) (Preview, error) {
	u, err := url.Parse(link)
	if err != nil {
		return Preview{}, errors.Wrap(err, "parsing reported url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Preview{}, errors.Errorf("unsupported scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return Preview{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpCli.Do(req)
	if err != nil {
		return Preview{}, errors.Wrap(err, "fetching reported page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Preview{}, errors.Errorf("reported page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Preview{}, errors.Wrap(err, "parsing reported page")
	}

	preview := Preview{URL: link}
	preview.Title, _ = doc.Find("meta[property='og:title']").Attr("content")
	if preview.Title == "" {
		preview.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	preview.Description, _ = doc.Find("meta[name='description']").Attr("content")
	preview.Snippet = snippet(doc)
	return preview, nil
}

// snippet concatenates paragraph text until the limit is reached.
func snippet(doc *goquery.Document) string {
	var b strings.Builder
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
		return b.Len() < snippetLimit
	})
	return truncate(b.String(), snippetLimit)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
