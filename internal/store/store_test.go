package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapegrade/tapegrade/pkg/rating"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertRecordingReplacesReviews(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := &Recording{
		Identifier:  "gd1977-05-08.sbd",
		Title:       "Barton Hall",
		Date:        "1977-05-08",
		Venue:       "Barton Hall, Cornell University",
		CollectedAt: time.Now().UTC(),
		Reviews: []rating.Review{
			{Stars: 5, Text: "the one", Date: "2004-01-01"},
			{Stars: 4, Text: "great", Date: "2005-01-01"},
		},
	}
	require.NoError(t, s.UpsertRecording(ctx, rec))

	// Re-collect with a changed review set; reviews must not accumulate.
	rec.Reviews = []rating.Review{{Stars: 3, Text: "revised", Date: "2006-01-01"}}
	require.NoError(t, s.UpsertRecording(ctx, rec))

	recs, err := s.ListRecordings(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Len(t, recs[0].Reviews, 1)
	assert.Equal(t, 3.0, recs[0].Reviews[0].Stars)
	assert.Equal(t, "revised", recs[0].Reviews[0].Text)

	count, err := s.CountRecordings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListRecordingsOrder(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, rec := range []*Recording{
		{Identifier: "gd1977-05-09.aud", Date: "1977-05-09", CollectedAt: now},
		{Identifier: "gd1977-05-08.sbd", Date: "1977-05-08", CollectedAt: now},
		{Identifier: "gd1977-05-08.aud", Date: "1977-05-08", CollectedAt: now},
	} {
		require.NoError(t, s.UpsertRecording(ctx, rec))
	}

	recs, err := s.ListRecordings(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "gd1977-05-08.aud", recs[0].Identifier)
	assert.Equal(t, "gd1977-05-08.sbd", recs[1].Identifier)
	assert.Equal(t, "gd1977-05-09.aud", recs[2].Identifier)
}

func TestReplaceRatings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := []RecordingRatingRow{
		{Identifier: "a", Rating: 3.0, ReviewCount: 2, SourceType: "AUD", Confidence: 0.4, ComputedAt: now},
		{Identifier: "b", Rating: 4.0, ReviewCount: 5, SourceType: "SBD", Confidence: 1.0, ComputedAt: now},
	}
	require.NoError(t, s.ReplaceRecordingRatings(ctx, first))

	// A second generation run replaces, never appends.
	second := []RecordingRatingRow{
		{Identifier: "c", Rating: 4.5, ReviewCount: 6, SourceType: "SBD", Confidence: 1.0, ComputedAt: now},
	}
	require.NoError(t, s.ReplaceRecordingRatings(ctx, second))

	rows, err := s.ListRecordingRatings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0].Identifier)
}

func TestListShowRatings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rows := []ShowRatingRow{
		{ShowKey: "1977-05-08_barton", Date: "1977-05-08", Rating: 4.5, Confidence: 0.9, BestRecording: "x", RecordingCount: 3, ComputedAt: now},
		{ShowKey: "1977-05-09_buffalo", Date: "1977-05-09", Rating: 4.0, Confidence: 0.5, BestRecording: "y", RecordingCount: 1, ComputedAt: now},
		{ShowKey: "1977-05-22_pembroke", Date: "1977-05-22", Rating: 4.8, Confidence: 0.8, BestRecording: "z", RecordingCount: 2, ComputedAt: now},
	}
	require.NoError(t, s.ReplaceShowRatings(ctx, rows))

	got, err := s.ListShowRatings(ctx, ShowListOpts{MinConfidence: 0.7})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1977-05-22_pembroke", got[0].ShowKey, "sorted by rating descending")
	assert.Equal(t, "1977-05-08_barton", got[1].ShowKey)

	limited, err := s.ListShowRatings(ctx, ShowListOpts{MinConfidence: 0, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
