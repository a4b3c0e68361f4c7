package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Slack configuration
	SlackToken     string `long:"slack-token" env:"SLACK_TOKEN" description:"Slack bot token (required unless --dry-run)"`
	ListingChannel string `long:"listing-channel" env:"LISTING_CHANNEL" default:"#bot-incoming" description:"Channel for new listings"`
	LogChannel     string `long:"log-channel" env:"LOG_CHANNEL" default:"#bot-logs" description:"Channel for run summaries"`
	Username       string `long:"username" env:"SLACK_USERNAME" default:"craig" description:"Sender name for listing messages"`
	LogUsername    string `long:"log-username" env:"SLACK_LOG_USERNAME" default:"craig-logs" description:"Sender name for summary messages"`
	IconEmoji      string `long:"icon-emoji" env:"SLACK_ICON_EMOJI" default:":robot_face:" description:"Sender icon emoji"`

	// Dedup store configuration
	StorePath string `long:"store-path" env:"STORE_PATH" default:"./listing.db" description:"Path of the SQLite file holding seen listing ids"`

	// Search configuration
	Source   string `long:"source" env:"SOURCE" default:"html" choice:"html" choice:"rss" description:"Search results format to read"`
	Site     string `long:"site" env:"SITE" default:"sfbay" description:"Craigslist site"`
	Area     string `long:"area" env:"AREA" default:"eby" description:"Craigslist sub-area (may be empty)"`
	Category string `long:"category" env:"CATEGORY" default:"apa" description:"Craigslist category"`
	Limit    int    `long:"limit" env:"RESULT_LIMIT" default:"50" description:"Maximum number of listings fetched per run"`

	// Filter configuration
	MinBedrooms       int      `long:"min-bedrooms" env:"MIN_BEDROOMS" default:"3" description:"Minimum bedroom count for listings that report one"`
	Neighborhoods     []string `long:"neighborhood" env:"NEIGHBORHOODS" env-delim:"," default:"berkeley" default:"oakland" description:"Accepted neighborhood substring (repeatable)"`
	Blacklist         []string `long:"blacklist" env:"NAME_BLACKLIST" env-delim:"," description:"Additional title substring that disqualifies a listing (repeatable)"`
	BlacklistBedrooms []int    `long:"blacklist-bedrooms" env:"BLACKLIST_BEDROOMS" env-delim:"," default:"1" default:"2" description:"Bedroom counts whose title variants (\"2 br\", \"2bed\"...) are blacklisted"`

	// Application configuration
	ProfilePath   string        `long:"profile" env:"PROFILE" description:"YAML search profile overriding search, filter and channel settings"`
	StartupJitter time.Duration `long:"jitter" env:"STARTUP_JITTER" default:"0s" description:"Maximum random delay before the run starts"`
	Timeout       time.Duration `long:"timeout" env:"FETCH_TIMEOUT" default:"30s" description:"Timeout for fetching search results"`
	UserAgent     string        `long:"user-agent" env:"USER_AGENT" default:"rental-comb/1.0" description:"User agent string for HTTP requests"`
	DryRun        bool          `long:"dry-run" env:"DRY_RUN" description:"Log eligible listings instead of sending them; nothing is marked seen"`
	Debug         bool          `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load reads .env (if present), environment variables and command-line flags.
// It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SlackToken:        raw.SlackToken,
		ListingChannel:    raw.ListingChannel,
		LogChannel:        raw.LogChannel,
		Username:          raw.Username,
		LogUsername:       raw.LogUsername,
		IconEmoji:         raw.IconEmoji,
		StorePath:         raw.StorePath,
		Source:            raw.Source,
		Site:              raw.Site,
		Area:              raw.Area,
		Category:          raw.Category,
		Limit:             raw.Limit,
		MinBedrooms:       raw.MinBedrooms,
		Neighborhoods:     raw.Neighborhoods,
		Blacklist:         raw.Blacklist,
		BlacklistBedrooms: raw.BlacklistBedrooms,
		ProfilePath:       raw.ProfilePath,
		StartupJitter:     raw.StartupJitter,
		Timeout:           raw.Timeout,
		UserAgent:         raw.UserAgent,
		DryRun:            raw.DryRun,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if cfg.ProfilePath != "" {
		profile, err := LoadProfile(cfg.ProfilePath)
		if err != nil {
			return nil, err
		}
		profile.apply(cfg)
	}

	cfg.Neighborhoods = cleanList(cfg.Neighborhoods)
	cfg.Blacklist = cleanList(cfg.Blacklist)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if cfg.SlackToken == "" && !cfg.DryRun {
		return fmt.Errorf("slack token is required (set SLACK_TOKEN or use --dry-run)")
	}

	requiredFields := map[string]string{
		"store path":      cfg.StorePath,
		"site":            cfg.Site,
		"category":        cfg.Category,
		"listing channel": cfg.ListingChannel,
		"log channel":     cfg.LogChannel,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	nonNegativeFields := map[string]int{
		"limit":        cfg.Limit,
		"min bedrooms": cfg.MinBedrooms,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if len(cfg.Neighborhoods) == 0 {
		return fmt.Errorf("at least one neighborhood is required")
	}

	if cfg.StartupJitter < 0 || cfg.Timeout < 0 {
		return fmt.Errorf("jitter and timeout must be non-negative")
	}

	return nil
}

// cleanList trims comma-separated entries and drops blank ones, so
// NAME_BLACKLIST= or "berkeley, oakland" behave as written.
func cleanList(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			cleaned = append(cleaned, value)
		}
	}
	return cleaned
}
