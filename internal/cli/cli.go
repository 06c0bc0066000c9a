package cli

import (
	"context"
	stdio "io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ecomap/pkg/buildinfo"
	"github.com/matzehuels/ecomap/pkg/cache"
	"github.com/matzehuels/ecomap/pkg/config"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/pipeline"
	"github.com/matzehuels/ecomap/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "ecomap"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out *printer

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w stdio.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    newPrinter(os.Stdout),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the loaded configuration.
func (c *CLI) Config() config.Config { return c.cfg }

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Ecomap turns company lists into ecosystem maps",
		Long:         `Ecomap is a CLI tool for turning a CSV or JSON list of companies into a categorized ecosystem map, with automatic layout, interactive editing and PNG, SVG, PDF, JSON and DOT export.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			c.out = newPrinter(cmd.OutOrStdout())
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./"+config.FileName+" or the user config dir)")

	// Register all subcommands
	root.AddCommand(c.columnsCommand())
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())
	registerCompletions(root)

	return root
}

// loadConfig reads --config, or the first ecomap.toml found.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		path = config.Find(".")
	}
	if path == "" {
		c.cfg = config.Default()
		return nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Logger.Debug("loaded config", "path", path)
	c.cfg = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if c.cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, c.cfg.Cache.Prefix)
	}
	runner := pipeline.NewRunner(ch, keyer, c.Logger)
	runner.ArtifactTTL = c.cfg.Cache.TTL.Duration
	return runner, nil
}

// newCache opens the configured cache backend. A file cache that cannot be
// created falls back to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.cfg.Cache
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendMemory:
		return cache.NewMemoryCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect cache")
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Debug("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Debug("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns [cache] dir, or the user cache directory
// (~/.cache/ecomap/ on Linux).
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// newStore creates an empty store configured from the loaded config.
func (c *CLI) newStore() *store.Store {
	return store.New(
		store.WithEngine(c.cfg.Engine()),
		store.WithLogger(c.Logger),
		store.WithChart(c.cfg.ChartDefaults()),
	)
}

// parseFormats parses a comma-separated format string into a slice.
// Empty input uses [export] formats.
func (c *CLI) parseFormats(s string) []string {
	if strings.TrimSpace(s) == "" {
		return c.cfg.Export.Formats
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
