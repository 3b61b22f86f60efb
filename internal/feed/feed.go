package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "jobtailor (+https://github.com/r0cstar09/jobtailor)"
)

// RawEntry is one feed item as delivered by the transport, before
// normalization. Summary may contain HTML.
type RawEntry struct {
	GUID      string
	Title     string
	Link      string
	Author    string
	Summary   string
	Published *time.Time
}

// FetchError wraps any failure to retrieve or parse the feed. There is
// nothing to process without entries, so callers treat it as fatal for the
// whole run.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	logger     *zap.Logger
	parser     *gofeed.Parser
}

func New(logger *zap.Logger) *Client {
	return &Client{
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		UserAgent: userAgent,
		logger:    logger,
		parser:    gofeed.NewParser(),
	}
}

// Fetch retrieves the feed and returns its entries in feed order.
func (c *Client) Fetch(ctx context.Context, url string) ([]RawEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.UserAgent)

	c.logger.Debug("fetching feed", zap.String("url", url))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("bad status: %s", resp.Status)}
	}

	parsed, err := c.parser.Parse(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("parse feed body: %w", err)}
	}

	entries := make([]RawEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entries = append(entries, entryFromItem(item))
	}

	c.logger.Debug("fetched feed",
		zap.String("url", url),
		zap.String("feed_title", parsed.Title),
		zap.Int("entries", len(entries)),
	)

	return entries, nil
}

func entryFromItem(item *gofeed.Item) RawEntry {
	entry := RawEntry{
		GUID:      item.GUID,
		Title:     item.Title,
		Link:      item.Link,
		Summary:   item.Description,
		Published: item.PublishedParsed,
	}

	// Atom feeds often carry the body in content rather than summary.
	if entry.Summary == "" {
		entry.Summary = item.Content
	}

	if entry.Published == nil {
		entry.Published = item.UpdatedParsed
	}

	if item.Author != nil {
		entry.Author = item.Author.Name
	}
	if entry.Author == "" && len(item.Authors) > 0 && item.Authors[0] != nil {
		entry.Author = item.Authors[0].Name
	}

	return entry
}
