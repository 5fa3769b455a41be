package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tapegrade/tapegrade/internal/store"
	"github.com/tapegrade/tapegrade/pkg/rating"
)

// Generator runs the ratings pipeline over stored recordings: normalize,
// classify, score, group into shows, aggregate, compile.
type Generator struct {
	store     store.Store
	threshold float64
	version   string
}

// New creates a generator. threshold is the minimum average rating for a
// recording or show to appear in the report.
func New(s store.Store, threshold float64, version string) *Generator {
	if version == "" {
		version = "1.0.0"
	}
	return &Generator{
		store:     s,
		threshold: threshold,
		version:   version,
	}
}

// Generate computes the full ratings dataset from stored data and persists
// the per-recording and per-show results. Records with unrecognized dates
// are skipped; a show that fails to aggregate is skipped; the batch
// continues either way.
func (g *Generator) Generate(ctx context.Context) (*rating.Dataset, error) {
	recordings, err := g.store.ListRecordings(ctx, store.ListOpts{})
	if err != nil {
		return nil, fmt.Errorf("load recordings: %w", err)
	}

	var rated []rating.RecordingRating
	showGroups := make(map[string][]rating.RecordingRating)
	showDates := make(map[string]string)
	showVenues := make(map[string]string)
	var showOrder []string
	skipped := 0

	for _, rec := range recordings {
		date, err := rating.NormalizeDate(rec.Date)
		if errors.Is(err, rating.ErrUnrecognizedDate) {
			fmt.Fprintf(os.Stderr, "  skipping %s: %v\n", rec.Identifier, err)
			skipped++
			continue
		}

		sourceType := rating.ClassifySource(rec.Title, rec.Description)
		rr := rating.RateRecording(rec.Identifier, rec.Reviews, sourceType)
		rated = append(rated, rr)

		key := rating.ShowKey(date, rec.Venue)
		if _, ok := showGroups[key]; !ok {
			showOrder = append(showOrder, key)
			showDates[key] = date
			showVenues[key] = rec.Venue
		}
		showGroups[key] = append(showGroups[key], rr)
	}

	shows := make([]rating.ShowEntry, 0, len(showOrder))
	for _, key := range showOrder {
		show, err := rating.AggregateShow(showDates[key], showVenues[key], showGroups[key])
		if err != nil {
			fmt.Fprintf(os.Stderr, "  skipping show %s: %v\n", key, err)
			continue
		}
		shows = append(shows, rating.ShowEntry{Key: key, Rating: show})
	}

	ds := rating.Compile(rated, shows, rating.CompileOpts{
		InclusionThreshold: g.threshold,
		GeneratedAt:        time.Now().UTC(),
		Version:            g.version,
	})

	if err := g.persist(ctx, ds); err != nil {
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "rated %d recordings across %d shows (%d skipped)\n",
		ds.Metadata.TotalRecordings, ds.Metadata.TotalShows, skipped)
	return ds, nil
}

func (g *Generator) persist(ctx context.Context, ds *rating.Dataset) error {
	now := time.Now().UTC()

	recRows := make([]store.RecordingRatingRow, 0, len(ds.RecordingRatings))
	for id, summary := range ds.RecordingRatings {
		recRows = append(recRows, store.RecordingRatingRow{
			Identifier:  id,
			Rating:      summary.Rating,
			ReviewCount: summary.ReviewCount,
			SourceType:  string(summary.SourceType),
			Confidence:  summary.Confidence,
			ComputedAt:  now,
		})
	}
	if err := g.store.ReplaceRecordingRatings(ctx, recRows); err != nil {
		return fmt.Errorf("persist recording ratings: %w", err)
	}

	showRows := make([]store.ShowRatingRow, 0, len(ds.ShowRatings))
	for key, summary := range ds.ShowRatings {
		showRows = append(showRows, store.ShowRatingRow{
			ShowKey:        key,
			Date:           summary.Date,
			Venue:          summary.Venue,
			Rating:         summary.Rating,
			Confidence:     summary.Confidence,
			BestRecording:  summary.BestRecording,
			RecordingCount: summary.RecordingCount,
			ComputedAt:     now,
		})
	}
	if err := g.store.ReplaceShowRatings(ctx, showRows); err != nil {
		return fmt.Errorf("persist show ratings: %w", err)
	}
	return nil
}

// WriteDataset serializes a dataset to disk. encoding/json sorts map keys,
// so output is byte-stable across runs with identical input.
func WriteDataset(ds *rating.Dataset, path string, pretty bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}
