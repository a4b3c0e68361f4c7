package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rental-comb/app/cfg"
	"github.com/lysyi3m/rental-comb/app/database"
	"github.com/lysyi3m/rental-comb/app/enrich"
	"github.com/lysyi3m/rental-comb/app/filter"
	"github.com/lysyi3m/rental-comb/app/notify"
	"github.com/lysyi3m/rental-comb/app/pipeline"
	"github.com/lysyi3m/rental-comb/app/source"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Rental Comb", "version", appCfg.Version, "dry_run", appCfg.DryRun)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appCfg); err != nil {
		slog.Error("Run failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, appCfg *cfg.Cfg) error {
	if err := jitter(ctx, appCfg.StartupJitter); err != nil {
		return err
	}

	store := database.NewSQLiteStore(appCfg.StorePath)
	version, dirty, err := store.Migrate(ctx)
	if err != nil {
		return err
	}
	seenCount, err := store.Count(ctx)
	if err != nil {
		return err
	}
	slog.Info("Dedup store ready", "path", store.Path(), "version", version, "dirty", dirty, "seen", seenCount)

	httpClient := &http.Client{}
	src, err := source.New(appCfg.Source, httpClient, appCfg.UserAgent, appCfg.Timeout)
	if err != nil {
		return err
	}

	query := source.Query{
		Site:     appCfg.Site,
		Area:     appCfg.Area,
		Category: appCfg.Category,
		Sort:     source.SortNewest,
		Limit:    appCfg.Limit,
		Params:   appCfg.Params,
	}

	blacklist := append(filter.DefaultBlacklist(appCfg.BlacklistBedrooms...), appCfg.Blacklist...)
	chain := filter.NewDefaultChain(appCfg.MinBedrooms, appCfg.Neighborhoods, blacklist)

	var notifier notify.Notifier
	if appCfg.DryRun {
		notifier = notify.NewLogNotifier()
	} else {
		notifier = notify.NewSlackNotifier(appCfg.SlackToken, "")
	}

	runner := pipeline.NewRunner(src, query, chain, enrich.NewEnricher(), store, notifier, pipeline.Options{
		ListingChannel: appCfg.ListingChannel,
		LogChannel:     appCfg.LogChannel,
		Username:       appCfg.Username,
		LogUsername:    appCfg.LogUsername,
		IconEmoji:      appCfg.IconEmoji,
		DryRun:         appCfg.DryRun,
	})

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("Rental Comb finished", "notified", summary.Notified, "duration", summary.Duration)
	return nil
}

// jitter sleeps for a random duration in [0, max) so scheduled runs do not
// hit the site at a fixed minute.
func jitter(ctx context.Context, limit time.Duration) error {
	if limit <= 0 {
		return nil
	}

	delay := rand.N(limit)
	slog.Info("Delaying start", "delay", delay.Round(time.Second))

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
