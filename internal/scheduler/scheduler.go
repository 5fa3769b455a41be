package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tapegrade/tapegrade/internal/generator"
	"github.com/tapegrade/tapegrade/internal/store"
	"github.com/tapegrade/tapegrade/pkg/alert"
	"github.com/tapegrade/tapegrade/pkg/archive"
)

// Scheduler runs periodic collection and ratings generation.
type Scheduler struct {
	store       store.Store
	client      *archive.Client
	discover    archive.Discoverer
	gen         *generator.Generator
	alertMgr    *alert.Manager
	outputPath  string
	pretty      bool
	maxRecs     int
	collectInt  time.Duration
	generateInt time.Duration
}

// New creates a new scheduler.
func New(
	s store.Store,
	client *archive.Client,
	discover archive.Discoverer,
	gen *generator.Generator,
	alertMgr *alert.Manager,
	outputPath string,
	pretty bool,
	maxRecs int,
	collectInt, generateInt time.Duration,
) *Scheduler {
	if collectInt == 0 {
		collectInt = 6 * time.Hour
	}
	if generateInt == 0 {
		generateInt = 12 * time.Hour
	}
	return &Scheduler{
		store:       s,
		client:      client,
		discover:    discover,
		gen:         gen,
		alertMgr:    alertMgr,
		outputPath:  outputPath,
		pretty:      pretty,
		maxRecs:     maxRecs,
		collectInt:  collectInt,
		generateInt: generateInt,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	collectTicker := time.NewTicker(s.collectInt)
	generateTicker := time.NewTicker(s.generateInt)
	defer collectTicker.Stop()
	defer generateTicker.Stop()

	// Run immediately on start.
	fmt.Fprintln(os.Stderr, "scheduler: initial collection...")
	s.collect(ctx)
	fmt.Fprintln(os.Stderr, "scheduler: initial generation...")
	s.generateAndAlert(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (collect every %s, generate every %s)\n",
		s.collectInt, s.generateInt)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-collectTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: collecting...")
			s.collect(ctx)
		case <-generateTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: generating...")
			s.generateAndAlert(ctx)
		}
	}
}

func (s *Scheduler) collect(ctx context.Context) {
	ids, err := s.discover.Discover(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  discovery error: %v\n", err)
		return
	}
	if s.maxRecs > 0 && len(ids) > s.maxRecs {
		ids = ids[:s.maxRecs]
	}

	stored := 0
	now := time.Now().UTC()
	for _, rec := range s.client.Collect(ctx, ids) {
		err := s.store.UpsertRecording(ctx, &store.Recording{
			Identifier:  rec.Identifier,
			Title:       rec.Title,
			Description: rec.Description,
			Date:        rec.Date,
			Venue:       rec.Venue,
			CollectedAt: now,
			Reviews:     rec.Reviews,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "  store error: %v\n", err)
			continue
		}
		stored++
	}
	fmt.Fprintf(os.Stderr, "  stored %d of %d discovered recordings\n", stored, len(ids))
}

func (s *Scheduler) generateAndAlert(ctx context.Context) {
	// Snapshot the current top shows so newly qualifying ones can be
	// announced after regeneration.
	previous := make(map[string]bool)
	if rows, err := s.store.ListShowRatings(ctx, store.ShowListOpts{MinConfidence: 0.7}); err == nil {
		for _, row := range rows {
			previous[row.ShowKey] = true
		}
	}

	ds, err := s.gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  generation error: %v\n", err)
		return
	}

	if s.outputPath != "" {
		if err := generator.WriteDataset(ds, s.outputPath, s.pretty); err != nil {
			fmt.Fprintf(os.Stderr, "  output error: %v\n", err)
		}
	}

	if !s.alertMgr.HasNotifiers() {
		return
	}

	var fresh []alert.Show
	for _, top := range ds.TopShows {
		if previous[top.ShowKey] {
			continue
		}
		show := ds.ShowRatings[top.ShowKey]
		fresh = append(fresh, alert.Show{
			Key:        top.ShowKey,
			Date:       top.Date,
			Venue:      top.Venue,
			Rating:     top.Rating,
			Confidence: show.Confidence,
		})
	}
	if len(fresh) == 0 {
		return
	}

	notification := &alert.Notification{
		Title: fmt.Sprintf("%d newly top-rated shows", len(fresh)),
		Body:  fmt.Sprintf("%d shows crossed the confidence bar in the latest run.", len(fresh)),
		Shows: fresh,
	}
	if err := s.alertMgr.Broadcast(ctx, notification); err != nil {
		fmt.Fprintf(os.Stderr, "  alert error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  alerted %d new top shows\n", len(fresh))
}
