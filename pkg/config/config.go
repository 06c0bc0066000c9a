// Package config loads ecomap settings from a TOML file.
//
// Every setting has a default, so an empty or missing file is valid. Values
// in the file override the defaults table by table:
//
//	[canvas]
//	width = 1920
//
//	[chart]
//	title = "Fintech Landscape"
//	orientation = "portrait"
//
//	[tiers.large]
//	box_width = 440
//
//	[server]
//	addr = ":8080"
//	session_backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
// CLI flags override the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/io"
	"github.com/matzehuels/ecomap/pkg/layout"
)

// FileName is the config file looked up by [Find].
const FileName = "ecomap.toml"

// Backend names shared by [CacheConfig] and [ServerConfig].
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is the full settings tree.
type Config struct {
	Canvas  layout.Canvas          `toml:"canvas"`
	Tiers   map[string]layout.Tier `toml:"tiers"`
	Chart   ChartConfig            `toml:"chart"`
	Mapping io.Mapping             `toml:"mapping"`
	Export  ExportConfig           `toml:"export"`
	Server  ServerConfig           `toml:"server"`
	Cache   CacheConfig            `toml:"cache"`
}

// ChartConfig seeds the chart of new maps.
type ChartConfig struct {
	Title              string `toml:"title"`
	Subtitle           string `toml:"subtitle"`
	Orientation        string `toml:"orientation"`
	ShowLogoBackground bool   `toml:"show_logo_background"`
}

// ExportConfig holds defaults for the render command.
type ExportConfig struct {
	Formats []string `toml:"formats"`
	Scale   float64  `toml:"scale"`
	RSVG    bool     `toml:"rsvg"`
	Output  string   `toml:"output"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	SessionTTL     Duration `toml:"session_ttl"`
	SessionBackend string   `toml:"session_backend"`
	SessionDir     string   `toml:"session_dir"`
	RedisURL       string   `toml:"redis_url"`
	MaxUploadMB    int      `toml:"max_upload_mb"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	Prefix   string   `toml:"prefix"`
	TTL      Duration `toml:"ttl"`
}

// Duration is a time.Duration written as "90m" or "24h" in TOML.
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	chart := ecosystem.DefaultChart()
	return Config{
		Canvas: layout.DefaultCanvas(),
		Chart: ChartConfig{
			Title:              chart.Title,
			Orientation:        string(chart.Orientation),
			ShowLogoBackground: chart.ShowLogoBackground,
		},
		Export: ExportConfig{
			Formats: []string{"png"},
			Scale:   2,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			SessionTTL:     Duration{24 * time.Hour},
			SessionBackend: BackendMemory,
			MaxUploadMB:    10,
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			TTL:     Duration{7 * 24 * time.Hour},
		},
	}
}

// Load reads path on top of [Default]. Unknown keys are rejected so typos
// do not pass silently.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Find returns the first ecomap.toml in dir or the user config directory.
// It returns "" when neither exists.
func Find(dir string) string {
	candidates := []string{filepath.Join(dir, FileName)}
	if base, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(base, "ecomap", FileName))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// Validate checks every table and reports the first problem.
func (c Config) Validate() error {
	if err := c.Canvas.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "[canvas]")
	}
	for name, t := range c.Tiers {
		if _, err := ecosystem.ParseSize(name); err != nil || name == "" {
			return errors.New(errors.ErrCodeInvalidInput, "[tiers]: unknown tier %q", name)
		}
		if t.BoxWidth < 0 || t.TileHeight < 0 || t.Gap < 0 || t.Padding < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "[tiers.%s]: sizes must not be negative", name)
		}
	}
	if _, err := ecosystem.ParseOrientation(c.Chart.Orientation); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "[chart]")
	}
	if c.Export.Scale <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "[export]: scale must be positive, got %g", c.Export.Scale)
	}
	if !slices.Contains([]string{BackendMemory, BackendFile, BackendRedis}, c.Server.SessionBackend) {
		return errors.New(errors.ErrCodeInvalidInput, "[server]: unknown session_backend %q", c.Server.SessionBackend)
	}
	if c.Server.SessionBackend == BackendRedis && c.Server.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidInput, "[server]: session_backend redis needs redis_url")
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "[server]: max_upload_mb must be positive")
	}
	if !slices.Contains([]string{BackendNone, BackendMemory, BackendFile, BackendRedis}, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidInput, "[cache]: unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidInput, "[cache]: backend redis needs redis_url")
	}
	return nil
}

// TierTable merges the [tiers] overrides into the default tier table.
// Zero fields in an override keep the default value.
func (c Config) TierTable() layout.TierTable {
	table := layout.DefaultTiers()
	for name, o := range c.Tiers {
		size, err := ecosystem.ParseSize(name)
		if err != nil {
			continue
		}
		t := table[size]
		merge(&t.BoxWidth, o.BoxWidth)
		merge(&t.TileWidth, o.TileWidth)
		merge(&t.TileHeight, o.TileHeight)
		merge(&t.Gap, o.Gap)
		merge(&t.CategoryHeader, o.CategoryHeader)
		merge(&t.SubcategoryHeader, o.SubcategoryHeader)
		merge(&t.SubcategorySpacing, o.SubcategorySpacing)
		merge(&t.Padding, o.Padding)
		merge(&t.TitleFont, o.TitleFont)
		merge(&t.SubtitleFont, o.SubtitleFont)
		merge(&t.TileFont, o.TileFont)
		merge(&t.LogoSize, o.LogoSize)
		table[size] = t
	}
	return table
}

func merge(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// Engine builds a layout engine from [canvas] and [tiers].
func (c Config) Engine() *layout.Engine {
	return layout.New(layout.WithCanvas(c.Canvas), layout.WithTiers(c.TierTable()))
}

// ChartDefaults is the chart new maps start with.
func (c Config) ChartDefaults() ecosystem.ChartCustomization {
	chart := ecosystem.DefaultChart()
	chart.Title = c.Chart.Title
	chart.Subtitle = c.Chart.Subtitle
	if o, err := ecosystem.ParseOrientation(c.Chart.Orientation); err == nil {
		chart.Orientation = o
	}
	chart.ShowLogoBackground = c.Chart.ShowLogoBackground
	return chart
}

// String renders the config as TOML.
func (c Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("# encode config: %v\n", err)
	}
	return b.String()
}
