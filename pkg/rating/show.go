package rating

import (
	"errors"
	"sort"
)

// ErrNoRecordings is returned when show aggregation is asked to rate a show
// with no recordings. Fatal for that show only; callers skip it.
var ErrNoRecordings = errors.New("no recordings to aggregate")

// ShowRating is the aggregated result for all recordings of one show.
// BestRecordingID always references an element of RecordingRatings.
type ShowRating struct {
	Date            string
	Venue           string
	AverageRating   float64
	ConfidenceScore float64
	BestRecordingID string
	RecordingRatings []RecordingRating
}

// showConfidenceSaturation is the total review count across a show's
// recordings at which confidence reaches 1.0.
const showConfidenceSaturation = 10.0

// AggregateShow combines the recordings of one show into a ShowRating.
// Date and venue come from the grouping key the caller used to assemble the
// input set, not from recording content.
//
// The best recording is picked by a composite ordering, most significant
// first: soundboard with 3+ reviews, then any recording with 5+ reviews,
// then average rating, then review count. The sort is stable so exact ties
// keep their input order and reruns stay deterministic.
func AggregateShow(date, venue string, recordings []RecordingRating) (ShowRating, error) {
	if len(recordings) == 0 {
		return ShowRating{}, ErrNoRecordings
	}

	sorted := make([]RecordingRating, len(recordings))
	copy(sorted, recordings)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]

		aSBD := a.SourceType == SourceSBD && a.ReviewCount >= 3
		bSBD := b.SourceType == SourceSBD && b.ReviewCount >= 3
		if aSBD != bSBD {
			return aSBD
		}

		aWell := a.ReviewCount >= 5
		bWell := b.ReviewCount >= 5
		if aWell != bWell {
			return aWell
		}

		if a.AverageRating != b.AverageRating {
			return a.AverageRating > b.AverageRating
		}
		return a.ReviewCount > b.ReviewCount
	})
	best := sorted[0]

	// Show-level average, weighted by review count and source trust.
	totalWeight := 0.0
	weightedSum := 0.0
	totalReviews := 0
	for _, rec := range recordings {
		weight := float64(rec.ReviewCount) * SourceWeight(rec.SourceType)
		weightedSum += rec.AverageRating * weight
		totalWeight += weight
		totalReviews += rec.ReviewCount
	}

	// Zero total weight means no recording has a qualifying review. A valid
	// if uninteresting show, not an error.
	avg := 0.0
	if totalWeight > 0 {
		avg = weightedSum / totalWeight
	}

	confidence := float64(totalReviews) / showConfidenceSaturation
	if confidence > 1.0 {
		confidence = 1.0
	}

	return ShowRating{
		Date:             date,
		Venue:            venue,
		AverageRating:    avg,
		ConfidenceScore:  confidence,
		BestRecordingID:  best.Identifier,
		RecordingRatings: recordings,
	}, nil
}
