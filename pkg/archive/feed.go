package archive

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedDiscovery finds recently added recording identifiers via a
// collection's RSS feed. Cheaper than a full search when run on a schedule.
type FeedDiscovery struct {
	client *http.Client
	parser *gofeed.Parser
	url    string
	filter *Filter
}

// NewFeedDiscovery creates a feed-based discoverer. For archive.org the URL
// is the collection-rss endpoint, e.g.
// https://archive.org/services/collection-rss.php?collection=GratefulDead
func NewFeedDiscovery(feedURL string, filter *Filter) *FeedDiscovery {
	return &FeedDiscovery{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		url:    feedURL,
		filter: filter,
	}
}

// Discover returns the identifiers currently listed in the feed.
func (f *FeedDiscovery) Discover(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed status %d", resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var ids []string
	seen := make(map[string]bool)
	for _, entry := range parsed.Items {
		id := identifierFromLink(entry.Link)
		if id == "" || seen[id] {
			continue
		}
		if f.filter != nil && !f.filter.Match(id, entry.Title) {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// identifierFromLink extracts the item identifier from a details URL,
// e.g. "https://archive.org/details/gd1977-05-08.sbd" -> "gd1977-05-08.sbd".
func identifierFromLink(link string) string {
	_, after, ok := strings.Cut(link, "/details/")
	if !ok {
		return ""
	}
	if idx := strings.IndexAny(after, "/?#"); idx >= 0 {
		after = after[:idx]
	}
	return after
}
