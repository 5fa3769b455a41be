package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/tapegrade/tapegrade/internal/config"
	"github.com/tapegrade/tapegrade/internal/generator"
	"github.com/tapegrade/tapegrade/internal/scheduler"
	"github.com/tapegrade/tapegrade/internal/store"
	"github.com/tapegrade/tapegrade/pkg/alert"
	"github.com/tapegrade/tapegrade/pkg/archive"
	"github.com/tapegrade/tapegrade/pkg/server"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildClient(cfg *config.Config) *archive.Client {
	filter := archive.NewFilter(cfg.Archive.IncludeKeywords, cfg.Archive.ExcludeKeywords)
	return archive.New(cfg.Archive.BaseURL, cfg.Archive.RequestsPerSecond, filter)
}

func buildDiscoverer(cfg *config.Config, client *archive.Client, useFeed bool) archive.Discoverer {
	if useFeed && cfg.Archive.FeedURL != "" {
		filter := archive.NewFilter(cfg.Archive.IncludeKeywords, cfg.Archive.ExcludeKeywords)
		return archive.NewFeedDiscovery(cfg.Archive.FeedURL, filter)
	}
	return archive.NewSearchDiscovery(client, cfg.Archive.Collection, 1000)
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func runCollect(useFeed bool, max int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if max <= 0 {
		max = cfg.Archive.MaxRecordings
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	client := buildClient(cfg)
	discover := buildDiscoverer(cfg, client, useFeed)

	ctx := context.Background()
	fmt.Fprintf(os.Stderr, "discovering recordings in %s...\n", cfg.Archive.Collection)
	ids, err := discover.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover recordings: %w", err)
	}
	if max > 0 && len(ids) > max {
		ids = ids[:max]
	}
	fmt.Fprintf(os.Stderr, "fetching %d recordings...\n", len(ids))

	stored := 0
	now := time.Now().UTC()
	for _, rec := range client.Collect(ctx, ids) {
		err := db.UpsertRecording(ctx, &store.Recording{
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

	fmt.Fprintf(os.Stderr, "\nstored %d recordings with reviews\n", stored)
	return nil
}

func runGenerate(output string, pretty bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if output == "" {
		output = cfg.Output.Path
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	gen := generator.New(db, cfg.Rating.InclusionThreshold, cfg.Output.Version)
	ds, err := gen.Generate(context.Background())
	if err != nil {
		return fmt.Errorf("generate ratings: %w", err)
	}

	if err := generator.WriteDataset(ds, output, pretty); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "dataset written to %s (%d top shows)\n", output, len(ds.TopShows))
	return nil
}

func runTop(jsonOutput bool, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	shows, err := db.ListShowRatings(context.Background(), store.ShowListOpts{
		MinConfidence: 0.7,
		Limit:         limit,
	})
	if err != nil {
		return fmt.Errorf("list show ratings: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(shows)
	}

	if len(shows) == 0 {
		fmt.Println("no rated shows found (try: tapegrade collect && tapegrade generate)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RATING\tCONF\tDATE\tVENUE\tBEST RECORDING")
	for _, s := range shows {
		fmt.Fprintf(w, "%.2f\t%.1f\t%s\t%s\t%s\n",
			s.Rating, s.Confidence, s.Date, s.Venue, s.BestRecording)
	}
	return w.Flush()
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	gen := generator.New(db, cfg.Rating.InclusionThreshold, cfg.Output.Version)
	srv := server.New(db, gen, port)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	client := buildClient(cfg)
	discover := buildDiscoverer(cfg, client, true)
	gen := generator.New(db, cfg.Rating.InclusionThreshold, cfg.Output.Version)
	alertMgr := buildAlertManager(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(db, client, discover, gen, alertMgr,
		cfg.Output.Path, cfg.Output.Pretty, cfg.Archive.MaxRecordings,
		cfg.Schedule.ParseCollectInterval(),
		cfg.Schedule.ParseGenerateInterval(),
	)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	srv := server.New(db, gen, port)
	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	return srv.ListenAndServe()
}
