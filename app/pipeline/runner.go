package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rental-comb/app/database"
	"github.com/lysyi3m/rental-comb/app/enrich"
	"github.com/lysyi3m/rental-comb/app/filter"
	"github.com/lysyi3m/rental-comb/app/listing"
	"github.com/lysyi3m/rental-comb/app/notify"
	"github.com/lysyi3m/rental-comb/app/source"
)

var ErrFetch = errors.New("fetching listings failed")

// Options carries the delivery parameters of a deployment.
type Options struct {
	ListingChannel string
	LogChannel     string
	Username       string
	LogUsername    string
	IconEmoji      string

	// DryRun logs eligible listings without sending or marking them.
	DryRun bool
}

type Summary struct {
	Fetched  int
	Filtered int
	Notified int
	Skipped  int // already seen, directly or through a repost
	Failed   int // delivery failures, left unmarked for the next run
	Dropped  int // failed enrichment
	Duration time.Duration
}

type Runner struct {
	source   source.Source
	query    source.Query
	chain    *filter.Chain
	enricher *enrich.Enricher
	store    database.SeenStore
	notifier notify.Notifier
	options  Options
}

func NewRunner(src source.Source, query source.Query, chain *filter.Chain, enricher *enrich.Enricher,
	store database.SeenStore, notifier notify.Notifier, options Options) *Runner {
	return &Runner{
		source:   src,
		query:    query,
		chain:    chain,
		enricher: enricher,
		store:    store,
		notifier: notifier,
		options:  options,
	}
}

// Run performs one fetch, filter, enrich, notify pass. A fetch or store
// failure aborts the run and no summary is sent; delivery failures are
// logged and counted.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	run := newRun()
	summary := &Summary{}

	records, err := r.source.Fetch(ctx, r.query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	summary.Fetched = len(records)
	slog.Info("Listings fetched", "run", run.ID, "count", summary.Fetched)

	result := r.chain.Run(records)
	summary.Filtered = len(result.Passed)
	slog.Info("Listings filtered", "run", run.ID, "count", summary.Filtered, "rejected", len(result.Rejected))

	// ids reported during a dry run, standing in for the marks a real run makes
	reported := make(map[string]bool)

	for _, record := range result.Passed {
		enriched, err := r.enricher.Apply(record)
		if err != nil {
			slog.Warn("Dropping listing that failed enrichment", "run", run.ID, "id", record.ID, "error", err)
			summary.Dropped++
			continue
		}

		if err := r.process(ctx, enriched, reported, summary); err != nil {
			return nil, err
		}
	}

	summary.Duration = run.GetDuration()

	slog.Info("Task completed",
		"type", "ProcessListings",
		"run", run.ID,
		"duration", summary.Duration,
		"fetched", summary.Fetched,
		"filtered", summary.Filtered,
		"notified", summary.Notified,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"dropped", summary.Dropped)

	r.sendSummary(ctx, summary)

	return summary, nil
}

func (r *Runner) process(ctx context.Context, record listing.Record, reported map[string]bool, summary *Summary) error {
	eligible, err := Eligible(ctx, r.store, record)
	if err != nil {
		return err
	}
	if !eligible {
		slog.Debug("Listing already seen, skipping", "id", record.ID, "repost_of", valueOf(record.RepostOf))
		summary.Skipped++
		return nil
	}

	msg := notify.Message{
		Channel:   r.options.ListingChannel,
		Text:      notify.FormatListing(record),
		Username:  r.options.Username,
		IconEmoji: r.options.IconEmoji,
	}

	if r.options.DryRun {
		if reported[record.ID] || (record.RepostOf != nil && reported[*record.RepostOf]) {
			slog.Debug("Listing already reported in this dry run, skipping", "id", record.ID)
			summary.Skipped++
			return nil
		}
		reported[record.ID] = true

		slog.Info("Dry run, not sending", "id", record.ID, "channel", msg.Channel, "text", msg.Text)
		summary.Notified++
		return nil
	}

	if err := r.notifier.Send(ctx, msg); err != nil {
		slog.Error("Failed to deliver listing notification", "id", record.ID, "url", record.URL, "error", err)
		summary.Failed++
		return nil
	}

	if err := r.store.MarkSeen(ctx, record.ID); err != nil {
		return fmt.Errorf("listing %s was sent but could not be marked seen: %w", record.ID, err)
	}

	summary.Notified++
	return nil
}

func (r *Runner) sendSummary(ctx context.Context, summary *Summary) {
	if r.options.DryRun {
		return
	}

	msg := notify.Message{
		Channel:   r.options.LogChannel,
		Text:      notify.FormatSummary(summary.Fetched, summary.Filtered, summary.Notified),
		Username:  r.options.LogUsername,
		IconEmoji: r.options.IconEmoji,
	}
	if err := r.notifier.Send(ctx, msg); err != nil {
		slog.Warn("Failed to deliver run summary", "channel", msg.Channel, "error", err)
	}
}

// Eligible reports whether record may be notified: neither its own id nor
// the id it reposts has been seen. A repost of a never-seen id is eligible.
func Eligible(ctx context.Context, store database.SeenStore, record listing.Record) (bool, error) {
	seen, err := store.Seen(ctx, record.ID)
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}

	if record.RepostOf == nil || *record.RepostOf == "" {
		return true, nil
	}

	seen, err = store.Seen(ctx, *record.RepostOf)
	if err != nil {
		return false, err
	}
	return !seen, nil
}

func valueOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
