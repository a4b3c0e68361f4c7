package cfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/rental-comb/app/source"
)

// Profile bundles the search, filter and channel settings of one deployment.
// Fields left out of the file keep their flag or environment value.
type Profile struct {
	Source   string            `yaml:"source"`
	Site     string            `yaml:"site"`
	Area     *string           `yaml:"area"`
	Category string            `yaml:"category"`
	Limit    int               `yaml:"limit"`
	Params   map[string]string `yaml:"params"`
	Filters  ProfileFilters    `yaml:"filters"`
	Notify   ProfileNotify     `yaml:"notify"`
}

type ProfileFilters struct {
	MinBedrooms       *int     `yaml:"min_bedrooms"`
	Neighborhoods     []string `yaml:"neighborhoods"`
	Blacklist         []string `yaml:"blacklist"`
	BlacklistBedrooms *[]int   `yaml:"blacklist_bedrooms"`
}

type ProfileNotify struct {
	ListingChannel string `yaml:"listing_channel"`
	LogChannel     string `yaml:"log_channel"`
	Username       string `yaml:"username"`
	LogUsername    string `yaml:"log_username"`
	IconEmoji      string `yaml:"icon_emoji"`
}

func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := profile.validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}

	return &profile, nil
}

func (p *Profile) validate() error {
	if p.Source != "" && p.Source != source.KindHTML && p.Source != source.KindRSS {
		return fmt.Errorf("invalid source: %s", p.Source)
	}

	if p.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}

	if p.Filters.MinBedrooms != nil && *p.Filters.MinBedrooms < 0 {
		return fmt.Errorf("min bedrooms must be non-negative")
	}

	for i, hood := range p.Filters.Neighborhoods {
		if hood == "" {
			return fmt.Errorf("empty neighborhood at index %d", i)
		}
	}

	for i, word := range p.Filters.Blacklist {
		if word == "" {
			return fmt.Errorf("empty blacklist entry at index %d", i)
		}
	}

	return nil
}

func (p *Profile) apply(cfg *Cfg) {
	overrideString(&cfg.Source, p.Source)
	overrideString(&cfg.Site, p.Site)
	if p.Area != nil {
		cfg.Area = *p.Area
	}
	overrideString(&cfg.Category, p.Category)
	if p.Limit > 0 {
		cfg.Limit = p.Limit
	}
	if len(p.Params) > 0 {
		cfg.Params = p.Params
	}

	if p.Filters.MinBedrooms != nil {
		cfg.MinBedrooms = *p.Filters.MinBedrooms
	}
	if p.Filters.Neighborhoods != nil {
		cfg.Neighborhoods = p.Filters.Neighborhoods
	}
	if p.Filters.Blacklist != nil {
		cfg.Blacklist = p.Filters.Blacklist
	}
	if p.Filters.BlacklistBedrooms != nil {
		cfg.BlacklistBedrooms = *p.Filters.BlacklistBedrooms
	}

	overrideString(&cfg.ListingChannel, p.Notify.ListingChannel)
	overrideString(&cfg.LogChannel, p.Notify.LogChannel)
	overrideString(&cfg.Username, p.Notify.Username)
	overrideString(&cfg.LogUsername, p.Notify.LogUsername)
	overrideString(&cfg.IconEmoji, p.Notify.IconEmoji)
}

func overrideString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
