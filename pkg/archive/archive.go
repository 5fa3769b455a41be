package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tapegrade/tapegrade/pkg/rating"
)

const (
	defaultBaseURL = "https://archive.org"
	userAgent      = "tapegrade/1.0"
)

// Doc is one result row from the archive.org search API.
type Doc struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	Venue      string `json:"venue"`
}

// Metadata holds the fields of a recording's metadata document that the
// ratings pipeline uses.
type Metadata struct {
	Title       string
	Description string
	Date        string
	Venue       string
}

// Recording is a fully fetched recording: metadata plus its review set.
type Recording struct {
	Identifier  string
	Title       string
	Description string
	Date        string
	Venue       string
	Reviews     []rating.Review
}

// Client talks to the archive.org metadata and search APIs. Every request
// passes through a shared rate limiter; archive.org throttles aggressive
// clients.
type Client struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	filter  *Filter
}

// New creates an archive.org client. baseURL is overridable for tests; rps
// caps requests per second.
func New(baseURL string, rps float64, filter *Filter) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		filter:  filter,
	}
}

// Search queries the advanced search API for recordings in a collection,
// oldest first.
func (c *Client) Search(ctx context.Context, collection string, rows int) ([]Doc, error) {
	if rows <= 0 {
		rows = 1000
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("collection:%s AND mediatype:etree", collection))
	params.Add("fl[]", "identifier")
	params.Add("fl[]", "title")
	params.Add("fl[]", "date")
	params.Add("fl[]", "venue")
	params.Add("sort[]", "date asc")
	params.Set("rows", strconv.Itoa(rows))
	params.Set("output", "json")

	var result struct {
		Response struct {
			Docs []Doc `json:"docs"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, "/advancedsearch.php?"+params.Encode(), &result); err != nil {
		return nil, fmt.Errorf("search collection %s: %w", collection, err)
	}

	var docs []Doc
	for _, d := range result.Response.Docs {
		if d.Identifier == "" {
			continue
		}
		if c.filter != nil && !c.filter.Match(d.Identifier, d.Title) {
			continue
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Metadata fetches a recording's metadata document.
func (c *Client) Metadata(ctx context.Context, identifier string) (*Metadata, error) {
	var result struct {
		Metadata struct {
			Title       string     `json:"title"`
			Description flatString `json:"description"`
			Date        string     `json:"date"`
			Venue       string     `json:"venue"`
		} `json:"metadata"`
	}
	if err := c.getJSON(ctx, "/metadata/"+identifier, &result); err != nil {
		return nil, fmt.Errorf("fetch metadata %s: %w", identifier, err)
	}
	return &Metadata{
		Title:       result.Metadata.Title,
		Description: string(result.Metadata.Description),
		Date:        result.Metadata.Date,
		Venue:       result.Metadata.Venue,
	}, nil
}

// Reviews fetches a recording's reviews. Reviews with absent or
// non-positive stars carry no rating and are dropped here, before a
// rating.Review is ever constructed.
func (c *Client) Reviews(ctx context.Context, identifier string) ([]rating.Review, error) {
	var result struct {
		Reviews []struct {
			Stars       starValue `json:"stars"`
			ReviewTitle string    `json:"reviewtitle"`
			ReviewBody  string    `json:"reviewbody"`
			ReviewDate  string    `json:"reviewdate"`
		} `json:"reviews"`
	}
	if err := c.getJSON(ctx, "/metadata/"+identifier+"/reviews", &result); err != nil {
		return nil, fmt.Errorf("fetch reviews %s: %w", identifier, err)
	}

	var reviews []rating.Review
	for _, r := range result.Reviews {
		if r.Stars <= 0 {
			continue
		}
		reviews = append(reviews, rating.Review{
			Stars: float64(r.Stars),
			Text:  strings.TrimSpace(r.ReviewTitle + " " + r.ReviewBody),
			Date:  r.ReviewDate,
		})
	}
	return reviews, nil
}

// Collect fetches metadata and reviews for each identifier with bounded
// concurrency. Identifiers that fail to fetch or have no rated reviews are
// skipped; collection is best-effort per recording. Result order follows the
// input order.
func (c *Client) Collect(ctx context.Context, identifiers []string) []Recording {
	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		sem        = make(chan struct{}, 4) // fan-out limit; the limiter paces actual requests
		recordings = make(map[string]Recording)
	)

	for _, id := range identifiers {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			meta, err := c.Metadata(ctx, id)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", id, err)
				return
			}
			reviews, err := c.Reviews(ctx, id)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", id, err)
				return
			}
			if len(reviews) == 0 {
				return
			}

			mu.Lock()
			recordings[id] = Recording{
				Identifier:  id,
				Title:       meta.Title,
				Description: meta.Description,
				Date:        meta.Date,
				Venue:       meta.Venue,
				Reviews:     reviews,
			}
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	var out []Recording
	for _, id := range identifiers {
		if rec, ok := recordings[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// starValue tolerates archive.org's habit of returning star counts as
// strings ("5") or numbers (5). Unparseable values decode to zero and get
// dropped by the caller.
type starValue float64

func (s *starValue) UnmarshalJSON(b []byte) error {
	str := strings.Trim(string(b), `"`)
	if str == "" || str == "null" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		*s = 0
		return nil
	}
	*s = starValue(f)
	return nil
}

// flatString accepts a JSON string or an array of strings (archive.org
// emits both for description) and flattens to one string.
type flatString string

func (f *flatString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flatString(s)
		return nil
	}
	var parts []string
	if err := json.Unmarshal(b, &parts); err == nil {
		*f = flatString(strings.Join(parts, " "))
		return nil
	}
	*f = ""
	return nil
}
