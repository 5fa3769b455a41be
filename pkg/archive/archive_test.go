package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(handler http.Handler) (*Client, func()) {
	srv := httptest.NewServer(handler)
	c := New(srv.URL, 1000, nil)
	return c, srv.Close
}

func TestSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/advancedsearch.php", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("q"), "collection:GratefulDead")
		assert.Equal(t, "json", r.URL.Query().Get("output"))
		w.Write([]byte(`{"response":{"docs":[
			{"identifier":"gd1977-05-08.sbd","title":"Barton Hall SBD","date":"1977-05-08","venue":"Barton Hall"},
			{"identifier":"","title":"broken doc"},
			{"identifier":"gd1977-05-09.aud","title":"Buffalo AUD","date":"1977-05-09","venue":"War Memorial"}
		]}}`))
	})

	c, done := testClient(mux)
	defer done()

	docs, err := c.Search(context.Background(), "GratefulDead", 10)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "gd1977-05-08.sbd", docs[0].Identifier)
	assert.Equal(t, "Barton Hall", docs[0].Venue)
}

func TestSearchAppliesFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/advancedsearch.php", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"docs":[
			{"identifier":"gd1977-05-08.sbd","title":"Barton Hall"},
			{"identifier":"gd1977-05-08.partial","title":"incomplete tape"}
		]}}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := New(srv.URL, 1000, NewFilter(nil, []string{"partial"}))

	docs, err := c.Search(context.Background(), "GratefulDead", 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "gd1977-05-08.sbd", docs[0].Identifier)
}

func TestMetadata(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metadata/gd1977-05-08.sbd", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"metadata":{
			"title":"Grateful Dead Live at Barton Hall",
			"description":["Soundboard","Miller transfer"],
			"date":"1977-05-08",
			"venue":"Barton Hall, Cornell University"
		}}`))
	})

	c, done := testClient(mux)
	defer done()

	meta, err := c.Metadata(context.Background(), "gd1977-05-08.sbd")
	require.NoError(t, err)
	assert.Equal(t, "Grateful Dead Live at Barton Hall", meta.Title)
	assert.Equal(t, "Soundboard Miller transfer", meta.Description, "array descriptions flatten")
	assert.Equal(t, "Barton Hall, Cornell University", meta.Venue)
}

func TestReviews(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metadata/gd1977-05-08.sbd/reviews", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reviews":[
			{"stars":"5","reviewtitle":"The one","reviewbody":"Best ever","reviewdate":"2004-01-01"},
			{"stars":4,"reviewtitle":"","reviewbody":"great sound","reviewdate":"2005-02-02"},
			{"stars":"0","reviewtitle":"no rating","reviewbody":"","reviewdate":""},
			{"stars":"","reviewtitle":"blank stars","reviewbody":"","reviewdate":""}
		]}`))
	})

	c, done := testClient(mux)
	defer done()

	reviews, err := c.Reviews(context.Background(), "gd1977-05-08.sbd")
	require.NoError(t, err)
	require.Len(t, reviews, 2, "unrated reviews are dropped before construction")
	assert.Equal(t, 5.0, reviews[0].Stars)
	assert.Equal(t, "The one Best ever", reviews[0].Text)
	assert.Equal(t, 4.0, reviews[1].Stars)
	assert.Equal(t, "great sound", reviews[1].Text)
}

func TestReviewsHTTPError(t *testing.T) {
	c, done := testClient(http.NotFoundHandler())
	defer done()

	_, err := c.Reviews(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestCollect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metadata/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metadata/gd1":
			w.Write([]byte(`{"metadata":{"title":"t1","date":"1977-05-08","venue":"v"}}`))
		case "/metadata/gd1/reviews":
			w.Write([]byte(`{"reviews":[{"stars":"5"}]}`))
		case "/metadata/gd2":
			w.Write([]byte(`{"metadata":{"title":"t2","date":"1977-05-09","venue":"v"}}`))
		case "/metadata/gd2/reviews":
			w.Write([]byte(`{"reviews":[]}`)) // no reviews -> skipped
		default:
			http.NotFound(w, r)
		}
	})

	c, done := testClient(mux)
	defer done()

	recs := c.Collect(context.Background(), []string{"gd1", "gd2", "gd3"})
	require.Len(t, recs, 1)
	assert.Equal(t, "gd1", recs[0].Identifier)
	assert.Len(t, recs[0].Reviews, 1)
}

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		id      string
		title   string
		want    bool
	}{
		{"no keywords matches all", nil, nil, "gd77", "anything", true},
		{"include hit", []string{"1977"}, nil, "gd1977-05-08", "", true},
		{"include miss", []string{"1977"}, nil, "gd1980-01-01", "", false},
		{"exclude wins", []string{"1977"}, []string{"partial"}, "gd1977.partial", "", false},
		{"case insensitive", []string{"SBD"}, nil, "gd77.sbd.miller", "", true},
		{"title matches too", []string{"barton"}, nil, "gd77", "Barton Hall", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(tt.include, tt.exclude)
			assert.Equal(t, tt.want, f.Match(tt.id, tt.title))
		})
	}
}

func TestFeedDiscovery(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Grateful Dead</title>
<item><title>Barton Hall</title><link>https://archive.org/details/gd1977-05-08.sbd</link></item>
<item><title>Buffalo</title><link>https://archive.org/details/gd1977-05-09.aud?tab=about</link></item>
<item><title>Dup</title><link>https://archive.org/details/gd1977-05-08.sbd</link></item>
<item><title>No details link</title><link>https://archive.org/about</link></item>
</channel></rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feed))
	}))
	defer srv.Close()

	d := NewFeedDiscovery(srv.URL, nil)
	ids, err := d.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gd1977-05-08.sbd", "gd1977-05-09.aud"}, ids)
}
