package config

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

// Pattern pairs a regular expression source with the label it maps to. The
// expression is compiled later, in one pass, by the label package.
type Pattern struct {
	Expr  string
	Label string
}

// Aliases holds the pattern lists for each matchable window property. Slice
// order mirrors the order patterns appear in the config file; first match wins.
type Aliases struct {
	Class    []Pattern
	Instance []Pattern
	Name     []Pattern
	AppID    []Pattern
}

// General holds string-valued display settings.
type General struct {
	Separator       string
	SplitAt         string
	EmptyLabel      string
	DisplayProperty string
	DefaultIcon     string
}

// Options holds boolean display toggles.
type Options struct {
	NoNames          bool
	NoIconNames      bool
	RemoveDuplicates bool
	FocusFix         bool
}

// Config is the top-level configuration document.
type Config struct {
	Icons   map[string]string
	Aliases Aliases
	General General
	Options Options
}

// Window properties a workspace label can fall back to.
const (
	PropertyClass    = "class"
	PropertyInstance = "instance"
	PropertyName     = "name"
	PropertyAppID    = "app_id"
)

const (
	DefaultSeparator       = " | "
	DefaultSplitAt         = " "
	DefaultDisplayProperty = PropertyClass
)

// rawConfig mirrors the TOML document shape. Alias tables decode into plain
// maps; their entry order is recovered from toml.MetaData afterwards.
type rawConfig struct {
	Icons   map[string]string            `toml:"icons"`
	Aliases map[string]map[string]string `toml:"aliases"`
	General map[string]string            `toml:"general"`
	Options map[string]bool              `toml:"options"`
}

// Default returns a configuration with no icons or aliases and all defaults
// applied, matching the behavior when no config file exists.
func Default() *Config {
	cfg := &Config{Icons: map[string]string{}}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a TOML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a TOML document into a validated Config.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg := &Config{Icons: raw.Icons}
	if cfg.Icons == nil {
		cfg.Icons = map[string]string{}
	}
	if err := cfg.Aliases.fromRaw(raw.Aliases, md); err != nil {
		return nil, err
	}
	if err := cfg.General.fromRaw(raw.General); err != nil {
		return nil, err
	}
	if err := cfg.Options.fromRaw(raw.Options); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fromRaw rebuilds the ordered pattern lists. TOML maps lose document order,
// so the order is taken from the decoder metadata key sequence.
func (a *Aliases) fromRaw(raw map[string]map[string]string, md toml.MetaData) error {
	for category := range raw {
		switch category {
		case PropertyClass, PropertyInstance, PropertyName, PropertyAppID:
		default:
			return fmt.Errorf("unknown alias category %q", category)
		}
	}
	for _, key := range md.Keys() {
		if len(key) != 3 || key[0] != "aliases" {
			continue
		}
		category, expr := key[1], key[2]
		label, ok := raw[category][expr]
		if !ok {
			continue
		}
		pattern := Pattern{Expr: expr, Label: label}
		switch category {
		case PropertyClass:
			a.Class = append(a.Class, pattern)
		case PropertyInstance:
			a.Instance = append(a.Instance, pattern)
		case PropertyName:
			a.Name = append(a.Name, pattern)
		case PropertyAppID:
			a.AppID = append(a.AppID, pattern)
		}
	}
	return nil
}

func (g *General) fromRaw(raw map[string]string) error {
	for key, value := range raw {
		switch key {
		case "separator":
			g.Separator = value
		case "split_at":
			g.SplitAt = value
		case "empty_label":
			g.EmptyLabel = value
		case "display_property":
			g.DisplayProperty = value
		case "default_icon":
			g.DefaultIcon = value
		default:
			return fmt.Errorf("unknown general setting %q", key)
		}
	}
	return nil
}

func (o *Options) fromRaw(raw map[string]bool) error {
	for key, value := range raw {
		switch key {
		case "no_names":
			o.NoNames = value
		case "no_icon_names":
			o.NoIconNames = value
		case "remove_duplicates":
			o.RemoveDuplicates = value
		case "focus_fix":
			o.FocusFix = value
		default:
			return fmt.Errorf("unknown option %q", key)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.General.Separator == "" {
		c.General.Separator = DefaultSeparator
	}
	if c.General.SplitAt == "" {
		c.General.SplitAt = DefaultSplitAt
	}
	if c.General.DisplayProperty == "" {
		c.General.DisplayProperty = DefaultDisplayProperty
	}
}

// Validate performs basic sanity checks.
func (c *Config) Validate() error {
	switch c.General.DisplayProperty {
	case PropertyClass, PropertyInstance, PropertyName, PropertyAppID:
	default:
		return fmt.Errorf("display_property must be one of class/instance/name/app_id, got %q", c.General.DisplayProperty)
	}
	if n := utf8.RuneCountInString(c.General.SplitAt); n > 1 {
		return fmt.Errorf("split_at must be a single character, got %q", c.General.SplitAt)
	}
	return nil
}

// SplitChar returns the rune separating the preserved workspace prefix from
// the generated title suffix. An unset or empty value falls back to space.
func (g General) SplitChar() rune {
	for _, r := range g.SplitAt {
		return r
	}
	return ' '
}

// Icon looks up the configured icon for a resolved title.
func (c *Config) Icon(title string) (string, bool) {
	icon, ok := c.Icons[title]
	return icon, ok
}

// FallbackIcon returns the icon used when a title has no dedicated icon,
// either from the icons table under "default_icon" or from the general
// default_icon setting.
func (c *Config) FallbackIcon() (string, bool) {
	if icon, ok := c.Icons["default_icon"]; ok {
		return icon, true
	}
	if c.General.DefaultIcon != "" {
		return c.General.DefaultIcon, true
	}
	return "", false
}
