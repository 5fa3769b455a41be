package archive

import "context"

// Discoverer yields recording identifiers to collect. Two implementations:
// SearchDiscovery walks the collection via the search API, FeedDiscovery
// tails the collection RSS feed.
type Discoverer interface {
	Discover(ctx context.Context) ([]string, error)
}

// SearchDiscovery discovers identifiers through the advanced search API.
type SearchDiscovery struct {
	client     *Client
	collection string
	rows       int
}

// NewSearchDiscovery creates a search-based discoverer.
func NewSearchDiscovery(client *Client, collection string, rows int) *SearchDiscovery {
	return &SearchDiscovery{client: client, collection: collection, rows: rows}
}

// Discover returns identifiers in the collection, oldest first.
func (s *SearchDiscovery) Discover(ctx context.Context) ([]string, error) {
	docs, err := s.client.Search(ctx, s.collection, s.rows)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Identifier)
	}
	return ids, nil
}
