package cfg

import "time"

type Cfg struct {
	// Slack
	SlackToken     string
	ListingChannel string
	LogChannel     string
	Username       string
	LogUsername    string
	IconEmoji      string

	// Dedup store
	StorePath string

	// Search
	Source   string
	Site     string
	Area     string
	Category string
	Limit    int
	Params   map[string]string

	// Filters
	MinBedrooms       int
	Neighborhoods     []string
	Blacklist         []string
	BlacklistBedrooms []int

	// Application
	ProfilePath   string
	StartupJitter time.Duration
	Timeout       time.Duration
	UserAgent     string
	DryRun        bool
	Debug         bool
	Version       string
}
