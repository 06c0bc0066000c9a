package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ecomap/pkg/cache"
	"github.com/matzehuels/ecomap/pkg/config"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/observability"
	"github.com/matzehuels/ecomap/pkg/server"
	"github.com/matzehuels/ecomap/pkg/session"
	"github.com/matzehuels/ecomap/pkg/store"
)

// serveCommand creates the serve command for the HTTP editor API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for interactive map editing",
		Long: `Serve exposes editing sessions over HTTP under /api/v1. Each session holds one
map: upload a table, choose the column mapping, add logos, move and resize
boxes and export the result.

Sessions live in memory, in a directory or in Redis, chosen by
[server] session_backend in the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+config.Default().Server.Addr+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, noCache bool) error {
	cfg := c.cfg.Server

	if c.Logger.GetLevel() <= log.DebugLevel {
		defer observability.InstallAll(observability.NewLogHooks(c.Logger))()
	}

	backend, err := c.sessionBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	factory := func() *store.Store { return c.newStore() }
	mgr := server.NewManager(backend, factory, cfg.SessionTTL.Duration, c.Logger)
	srv := server.New(server.Config{
		Addr:           cfg.Addr,
		MaxUploadSize:  int64(cfg.MaxUploadMB) << 20,
		AllowedOrigins: cfg.AllowedOrigins,
	}, mgr, runner, c.Logger)

	c.out.field("Address", "http://"+cfg.Addr+"/api/v1")
	c.out.field("Sessions", cfg.SessionBackend)
	c.out.field("Session TTL", cfg.SessionTTL.Duration.String())
	c.out.field("Origins", strings.Join(cfg.AllowedOrigins, ", "))
	c.out.blank()
	return srv.ListenAndServe(ctx)
}

// sessionBackend opens the configured session store.
func (c *CLI) sessionBackend(ctx context.Context) (session.Store, error) {
	cfg := c.cfg.Server
	switch cfg.SessionBackend {
	case config.BackendFile:
		return session.NewFileStore(cfg.SessionDir)
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "[server] redis_url")
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect session store")
		}
		var keyer cache.Keyer = cache.NewDefaultKeyer()
		if c.cfg.Cache.Prefix != "" {
			keyer = cache.NewScopedKeyer(keyer, c.cfg.Cache.Prefix)
		}
		return session.NewRedisStore(client, keyer), nil
	}
	return session.NewMemoryStore(), nil
}
