package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/matzehuels/ecomap/pkg/cache"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/observability"
	"github.com/matzehuels/ecomap/pkg/render"
	"github.com/matzehuels/ecomap/pkg/render/sink"
	"github.com/matzehuels/ecomap/pkg/store"
)

// Scene builds the render scene for the store's current state.
func Scene(st *store.Store) render.Scene {
	return render.NewScene(st.Categories(), st.Chart(), st.Engine().Tiers(), st.Logos())
}

// SceneHash returns a content hash of the scene. Logo references are
// replaced by hashes of the logo bytes, so re-importing the same logos
// yields the same hash.
func SceneHash(s render.Scene) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	pairs := make([]string, 0, 2*len(s.Logos))
	for ref, l := range s.Logos {
		pairs = append(pairs, ref, "sha256:"+cache.Hash(l.Data))
	}
	if len(pairs) == 0 {
		return cache.Hash(data), nil
	}
	return cache.Hash([]byte(strings.NewReplacer(pairs...).Replace(string(data)))), nil
}

// Render exports result.Store in every requested format and stores the
// outputs in result.Artifacts. Artifacts are cached by scene hash.
func (r *Runner) Render(ctx context.Context, result *Result, opts Options) (err error) {
	if err := opts.ValidateForRender(); err != nil {
		return err
	}
	logger := r.logger(opts)
	start := time.Now()

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	defer func() { hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err) }()

	result.Scene = Scene(result.Store)
	hash, err := SceneHash(result.Scene)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "hash scene")
	}
	result.SceneHash = hash
	if result.Artifacts == nil {
		result.Artifacts = make(map[string][]byte)
	}

	allHit := true
	for _, name := range opts.Formats {
		f, err := sink.ParseFormat(name)
		if err != nil {
			return err
		}
		data, hit, err := r.renderFormat(ctx, result.Scene, hash, f, opts)
		if err != nil {
			return err
		}
		allHit = allHit && hit
		result.Artifacts[string(f)] = data
	}
	result.CacheInfo.RenderHit = allHit
	result.Stats.RenderTime = time.Since(start)

	logger.Info("rendered map",
		"formats", strings.Join(opts.Formats, ","),
		"cached", allHit,
		"duration", result.Stats.RenderTime)
	return nil
}

func (r *Runner) renderFormat(ctx context.Context, s render.Scene, hash string, f sink.Format, opts Options) ([]byte, bool, error) {
	key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(string(f)))
	if !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.Logger.Debug("artifact cache read failed", "format", f, "error", err)
		} else if hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	data, err := sink.Export(ctx, s, f, opts.SinkOptions())
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, data, r.artifactTTL()); err != nil {
		r.Logger.Debug("artifact cache write failed", "format", f, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}
