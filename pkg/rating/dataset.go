package rating

import (
	"sort"
	"time"
)

// Metadata carries summary counters for a compiled dataset.
type Metadata struct {
	GeneratedAt     string `json:"generated_at"`
	Version         string `json:"version"`
	TotalRecordings int    `json:"total_recordings"`
	TotalShows      int    `json:"total_shows"`
	WellReviewed    int    `json:"well_reviewed_recordings"`
}

// RecordingSummary is the per-recording entry in the report.
type RecordingSummary struct {
	Rating      float64    `json:"rating"`
	ReviewCount int        `json:"review_count"`
	SourceType  SourceType `json:"source_type"`
	Confidence  float64    `json:"confidence"`
}

// ShowSummary is the per-show entry in the report.
type ShowSummary struct {
	Date           string  `json:"date"`
	Venue          string  `json:"venue"`
	Rating         float64 `json:"rating"`
	Confidence     float64 `json:"confidence"`
	BestRecording  string  `json:"best_recording"`
	RecordingCount int     `json:"recording_count"`
}

// TopShow is one entry of the ranked top-shows list.
type TopShow struct {
	ShowKey string  `json:"show_key"`
	Rating  float64 `json:"rating"`
	Date    string  `json:"date"`
	Venue   string  `json:"venue"`
}

// Dataset is the complete ratings report. Map keys serialize in sorted order
// under encoding/json, which keeps diffs between runs reproducible.
type Dataset struct {
	Metadata         Metadata                    `json:"metadata"`
	RecordingRatings map[string]RecordingSummary `json:"recording_ratings"`
	ShowRatings      map[string]ShowSummary      `json:"show_ratings"`
	TopShows         []TopShow                   `json:"top_shows"`
}

// ShowEntry pairs a show key with its rating. Compile receives shows as an
// ordered slice because the top-shows tie-break depends on insertion order.
type ShowEntry struct {
	Key    string
	Rating ShowRating
}

// Defaults for compilation thresholds.
const (
	topShowConfidence = 0.7
	topShowLimit      = 100
	wellReviewedMin   = 3
)

// CompileOpts configures dataset compilation. GeneratedAt is supplied by the
// caller so compilation stays a pure function of its inputs.
type CompileOpts struct {
	InclusionThreshold float64 // minimum average rating to appear in the report
	GeneratedAt        time.Time
	Version            string
}

// Compile assembles recording- and show-level results into the final report.
// Entries below the inclusion threshold are excluded here, at reporting
// time; they may still have contributed to upstream weighted sums.
func Compile(recordings []RecordingRating, shows []ShowEntry, opts CompileOpts) *Dataset {
	recordingRatings := make(map[string]RecordingSummary)
	wellReviewed := 0
	for _, rec := range recordings {
		if rec.AverageRating < opts.InclusionThreshold {
			continue
		}
		recordingRatings[rec.Identifier] = RecordingSummary{
			Rating:      rec.AverageRating,
			ReviewCount: rec.ReviewCount,
			SourceType:  rec.SourceType,
			Confidence:  ReviewConfidence(rec.ReviewCount),
		}
		if rec.ReviewCount >= wellReviewedMin {
			wellReviewed++
		}
	}

	showRatings := make(map[string]ShowSummary)
	var topShows []TopShow
	for _, entry := range shows {
		show := entry.Rating
		if show.AverageRating < opts.InclusionThreshold {
			continue
		}
		showRatings[entry.Key] = ShowSummary{
			Date:           show.Date,
			Venue:          show.Venue,
			Rating:         show.AverageRating,
			Confidence:     show.ConfidenceScore,
			BestRecording:  show.BestRecordingID,
			RecordingCount: len(show.RecordingRatings),
		}

		if show.ConfidenceScore >= topShowConfidence {
			topShows = append(topShows, TopShow{
				ShowKey: entry.Key,
				Rating:  show.AverageRating,
				Date:    show.Date,
				Venue:   show.Venue,
			})
		}
	}

	// Rank by rating; stable sort keeps insertion order on ties.
	sort.SliceStable(topShows, func(i, j int) bool {
		return topShows[i].Rating > topShows[j].Rating
	})
	if len(topShows) > topShowLimit {
		topShows = topShows[:topShowLimit]
	}

	return &Dataset{
		Metadata: Metadata{
			GeneratedAt:     opts.GeneratedAt.Format(time.RFC3339),
			Version:         opts.Version,
			TotalRecordings: len(recordingRatings),
			TotalShows:      len(showRatings),
			WellReviewed:    wellReviewed,
		},
		RecordingRatings: recordingRatings,
		ShowRatings:      showRatings,
		TopShows:         topShows,
	}
}
