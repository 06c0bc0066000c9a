package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ecomap/pkg/cache"
)

// Runner runs builds and exports against a shared cache. It keeps no
// per-run state, so the CLI and every HTTP request can use one Runner
// concurrently.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// ArtifactTTL and TableTTL override cache.TTLArtifact and
	// cache.TTLTable when positive.
	ArtifactTTL time.Duration
	TableTTL    time.Duration
}

// NewRunner returns a runner. A nil cache disables caching, a nil keyer
// means unscoped keys and a nil logger means log.Default.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	r := &Runner{Cache: c, Keyer: keyer, Logger: logger}
	if r.Cache == nil {
		r.Cache = cache.NewNullCache()
	}
	if r.Keyer == nil {
		r.Keyer = cache.NewDefaultKeyer()
	}
	if r.Logger == nil {
		r.Logger = log.Default()
	}
	return r
}

// Execute builds the map described by opts and renders every requested
// format. Options are validated for both stages before any work starts.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, err
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	result, err := r.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := r.Render(ctx, result, opts); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) Close() error { return r.Cache.Close() }

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

func (r *Runner) artifactTTL() time.Duration { return orTTL(r.ArtifactTTL, cache.TTLArtifact) }
func (r *Runner) tableTTL() time.Duration    { return orTTL(r.TableTTL, cache.TTLTable) }

func orTTL(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
