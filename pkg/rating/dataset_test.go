package rating

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileOpts() CompileOpts {
	return CompileOpts{
		InclusionThreshold: 2.5,
		GeneratedAt:        time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		Version:            "1.0.0",
	}
}

func showEntry(key string, rating, confidence float64) ShowEntry {
	return ShowEntry{
		Key: key,
		Rating: ShowRating{
			Date:            key[:10],
			Venue:           "Venue",
			AverageRating:   rating,
			ConfidenceScore: confidence,
			BestRecordingID: key + ".sbd",
			RecordingRatings: []RecordingRating{
				{Identifier: key + ".sbd"},
			},
		},
	}
}

func TestCompileThresholdFiltering(t *testing.T) {
	recordings := []RecordingRating{
		{Identifier: "keep", AverageRating: 3.2, ReviewCount: 4, SourceType: SourceSBD},
		{Identifier: "drop", AverageRating: 2.1, ReviewCount: 9, SourceType: SourceAUD},
	}
	shows := []ShowEntry{
		showEntry("1977-05-08_a", 3.9, 0.9),
		showEntry("1977-05-09_b", 2.0, 0.9),
	}

	ds := Compile(recordings, shows, compileOpts())

	require.Contains(t, ds.RecordingRatings, "keep")
	require.NotContains(t, ds.RecordingRatings, "drop")
	require.Contains(t, ds.ShowRatings, "1977-05-08_a")
	require.NotContains(t, ds.ShowRatings, "1977-05-09_b")

	assert.Equal(t, 1, ds.Metadata.TotalRecordings)
	assert.Equal(t, 1, ds.Metadata.TotalShows)
}

func TestCompileSummaries(t *testing.T) {
	recordings := []RecordingRating{
		{Identifier: "r1", AverageRating: 4.0, ReviewCount: 4, SourceType: SourceSBD},
	}
	shows := []ShowEntry{showEntry("1977-05-08_barton", 4.1, 0.8)}

	ds := Compile(recordings, shows, compileOpts())

	rec := ds.RecordingRatings["r1"]
	assert.Equal(t, 4.0, rec.Rating)
	assert.Equal(t, 4, rec.ReviewCount)
	assert.Equal(t, SourceSBD, rec.SourceType)
	assert.InDelta(t, 0.8, rec.Confidence, 1e-9)

	show := ds.ShowRatings["1977-05-08_barton"]
	assert.Equal(t, "1977-05-08", show.Date)
	assert.Equal(t, 4.1, show.Rating)
	assert.Equal(t, "1977-05-08_barton.sbd", show.BestRecording)
	assert.Equal(t, 1, show.RecordingCount)

	assert.Equal(t, "2026-08-29T12:00:00Z", ds.Metadata.GeneratedAt)
	assert.Equal(t, "1.0.0", ds.Metadata.Version)
}

func TestCompileWellReviewedCounter(t *testing.T) {
	recordings := []RecordingRating{
		{Identifier: "a", AverageRating: 3.0, ReviewCount: 3, SourceType: SourceSBD},
		{Identifier: "b", AverageRating: 3.0, ReviewCount: 2, SourceType: SourceSBD},
		{Identifier: "c", AverageRating: 3.0, ReviewCount: 7, SourceType: SourceAUD},
	}
	ds := Compile(recordings, nil, compileOpts())
	assert.Equal(t, 2, ds.Metadata.WellReviewed)
}

func TestCompileTopShowsConfidenceBar(t *testing.T) {
	shows := []ShowEntry{
		showEntry("1977-05-08_a", 4.5, 0.9),
		showEntry("1977-05-09_b", 4.8, 0.5), // high rating, low confidence
		showEntry("1977-05-10_c", 4.0, 0.7), // exactly at the bar
	}
	ds := Compile(nil, shows, compileOpts())

	require.Len(t, ds.TopShows, 2)
	assert.Equal(t, "1977-05-08_a", ds.TopShows[0].ShowKey)
	assert.Equal(t, "1977-05-10_c", ds.TopShows[1].ShowKey)
}

func TestCompileTopShowsStableTies(t *testing.T) {
	shows := []ShowEntry{
		showEntry("1977-05-08_a", 4.0, 0.9),
		showEntry("1977-05-09_b", 4.0, 0.9),
		showEntry("1977-05-10_c", 4.0, 0.9),
	}
	ds := Compile(nil, shows, compileOpts())

	require.Len(t, ds.TopShows, 3)
	assert.Equal(t, "1977-05-08_a", ds.TopShows[0].ShowKey)
	assert.Equal(t, "1977-05-09_b", ds.TopShows[1].ShowKey)
	assert.Equal(t, "1977-05-10_c", ds.TopShows[2].ShowKey)
}

func TestCompileTopShowsCap(t *testing.T) {
	var shows []ShowEntry
	for i := 0; i < 150; i++ {
		shows = append(shows, showEntry(fmt.Sprintf("1977-05-%03d_v", i), 4.0, 0.9))
	}
	ds := Compile(nil, shows, compileOpts())

	assert.Len(t, ds.TopShows, 100)
	assert.Equal(t, 150, ds.Metadata.TotalShows)
}
