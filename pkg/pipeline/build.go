package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/matzehuels/ecomap/pkg/cache"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/io"
	"github.com/matzehuels/ecomap/pkg/layout"
	"github.com/matzehuels/ecomap/pkg/observability"
	"github.com/matzehuels/ecomap/pkg/store"
)

// Build reads the input table, registers logos and lays the map out.
//
// When a snapshot is given (Options.Snapshot or Options.Previous) it is
// restored first, so positions, sizes and colors of unchanged categories
// survive the import.
func (r *Runner) Build(ctx context.Context, opts Options) (result *Result, err error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := r.logger(opts)
	start := time.Now()

	input := opts.Input
	if input == "" {
		input = opts.InputName
	}
	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, input)
	defer func() {
		n := 0
		if result != nil {
			n = result.Stats.Companies
		}
		hooks.OnBuildComplete(ctx, input, n, time.Since(start), err)
	}()

	table, hit, err := r.readTable(ctx, opts)
	if err != nil {
		return nil, err
	}

	mapping := opts.Mapping.Or(io.SuggestMapping(table.Columns))
	if mapping != opts.Mapping {
		logger.Debug("suggested mapping",
			"name", mapping.CompanyName,
			"category", mapping.Category,
			"subcategory", mapping.Subcategory,
			"logo", mapping.LogoFilename)
	}

	engine := layout.New(layout.WithCanvas(opts.Canvas), layout.WithTiers(opts.Tiers))
	storeOpts := []store.Option{store.WithEngine(engine), store.WithLogger(logger)}
	if opts.Chart != nil {
		storeOpts = append(storeOpts, store.WithChart(*opts.Chart))
	}
	st := store.New(storeOpts...)

	if err := restore(st, opts); err != nil {
		return nil, err
	}
	if err := st.UpdateChart(opts.chartUpdate()); err != nil {
		return nil, err
	}
	if opts.LogoDir != "" {
		n, err := LoadLogos(ctx, st, opts.LogoDir)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded logos", "dir", opts.LogoDir, "count", n)
	}

	change, err := st.Import(table, mapping)
	if err != nil {
		return nil, err
	}

	result = &Result{
		Store:     st,
		Artifacts: make(map[string][]byte),
		Skipped:   st.UploadErrors(),
		Unmatched: st.Unmatched(),
		Clamped:   change.Clamped,
	}
	result.CacheInfo.TableHit = hit
	result.Stats.Companies = len(st.Companies())
	result.Stats.Categories = len(st.Categories())
	result.Stats.Logos = st.Logos().Len()
	result.Stats.BuildTime = time.Since(start)

	logger.Info("built map",
		"companies", result.Stats.Companies,
		"categories", result.Stats.Categories,
		"logos", result.Stats.Logos,
		"skipped", len(result.Skipped),
		"duration", result.Stats.BuildTime)
	for _, msg := range result.Skipped {
		logger.Warn("skipped row", "reason", msg)
	}
	for _, name := range result.Clamped {
		logger.Warn("category does not fit the canvas", "category", name)
	}
	return result, nil
}

// readTable parses the input, consulting the table cache by content hash.
func (r *Runner) readTable(ctx context.Context, opts Options) (*io.Table, bool, error) {
	data, name := opts.Data, opts.InputName
	if name == "" {
		name = opts.Input
	}
	if data == nil {
		var err error
		if data, err = os.ReadFile(opts.Input); err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", opts.Input)
		}
	}
	format, err := io.FormatFromName(name)
	if err != nil {
		return nil, false, err
	}

	key := r.Keyer.TableKey(cache.Hash(append([]byte(format+":"), data...)))
	if !opts.Refresh {
		var t io.Table
		switch err := cache.GetJSON(ctx, r.Cache, key, &t); {
		case err == nil:
			observability.Cache().OnCacheHit(ctx, "table")
			return &t, true, nil
		case !stderrors.Is(err, cache.ErrCacheMiss):
			r.Logger.Debug("table cache read failed", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "table")
	}

	t, err := io.Read(name, bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}
	if err := cache.SetJSON(ctx, r.Cache, key, t, r.tableTTL()); err != nil {
		r.Logger.Debug("table cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "table", len(data))
	}
	return t, false, nil
}

func restore(st *store.Store, opts Options) error {
	switch {
	case opts.Previous != nil:
		st.Restore(*opts.Previous)
	case opts.Snapshot != "":
		doc, err := io.ImportSnapshot(opts.Snapshot)
		if err != nil {
			return err
		}
		st.Restore(doc)
	}
	return nil
}
