package rating

// Review is one person's opinion of one recording. Stars below 1.0 are
// treated as noise and never contribute to a score.
type Review struct {
	Stars float64 `json:"stars"`
	Text  string  `json:"text"`
	Date  string  `json:"date"`
}

// RecordingRating is the scored result for one recording. Reviews holds the
// filtered set that produced AverageRating; ReviewCount is its length.
type RecordingRating struct {
	Identifier    string
	AverageRating float64
	ReviewCount   int
	SourceType    SourceType
	Reviews       []Review
}

// minStars is the noise floor: reviews below it are excluded from scoring.
const minStars = 1.0

// confidenceSaturation is the review count at which the confidence factor
// reaches 1.0 and damping stops.
const confidenceSaturation = 5.0

// filterReviews keeps reviews with stars at or above the noise floor.
func filterReviews(reviews []Review) []Review {
	var valid []Review
	for _, r := range reviews {
		if r.Stars >= minStars {
			valid = append(valid, r)
		}
	}
	return valid
}

// ScoreRecording converts a recording's reviews and source type into one
// scalar quality score. Two damping stages keep thin evidence in check:
// the source weight discounts less trusted capture methods, and the
// confidence factor pulls sparsely reviewed recordings toward half their
// weighted average. A recording with 5+ qualifying reviews is undamped.
func ScoreRecording(reviews []Review, sourceType SourceType) float64 {
	valid := filterReviews(reviews)
	if len(valid) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, r := range valid {
		sum += r.Stars
	}
	avg := sum / float64(len(valid))

	weighted := avg * SourceWeight(sourceType)

	confidence := float64(len(valid)) / confidenceSaturation
	if confidence > 1.0 {
		confidence = 1.0
	}

	return weighted * (0.5 + 0.5*confidence)
}

// RateRecording scores a recording and packages the result. The returned
// rating keeps only the reviews that passed the stars filter, so
// ReviewCount and AverageRating always describe the same set.
func RateRecording(identifier string, reviews []Review, sourceType SourceType) RecordingRating {
	valid := filterReviews(reviews)
	return RecordingRating{
		Identifier:    identifier,
		AverageRating: ScoreRecording(reviews, sourceType),
		ReviewCount:   len(valid),
		SourceType:    sourceType,
		Reviews:       valid,
	}
}

// ReviewConfidence is the [0,1] confidence for a single recording's rating,
// saturating at 5 qualifying reviews.
func ReviewConfidence(reviewCount int) float64 {
	c := float64(reviewCount) / confidenceSaturation
	if c > 1.0 {
		return 1.0
	}
	return c
}
