package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/pipeline"
)

// watchDelay collapses the burst of events an editor save produces.
const watchDelay = 250 * time.Millisecond

// watchBuild rebuilds whenever the input file or a logo changes. Each
// rebuild restores the previous result so manual edits and logo
// references carry over. It returns when ctx is done.
func (c *CLI) watchBuild(ctx context.Context, runner *pipeline.Runner, popts pipeline.Options, o *buildOpts, last *pipeline.Result) error {
	logger := loggerFromContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create watcher")
	}
	defer watcher.Close()

	match, dirs, err := watchTargets(popts.Input, popts.LogoDir)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "watch %s", dir)
		}
	}

	c.out.blank()
	c.out.info("Watching %s for changes (Ctrl+C to stop)", popts.Input)

	return debounce(ctx, watcher.Events, watcher.Errors, watchDelay, match, logger, func() {
		doc := last.Store.Snapshot()
		next := popts
		next.Previous = &doc
		next.Snapshot = ""

		c.out.blank()
		tm := startTimer(logger)
		result, err := c.buildOnce(ctx, runner, next, o)
		if err != nil {
			c.out.fail("%v", err)
			return
		}
		tm.done("Rebuilt %s", popts.Input)
		last = result
	})
}

// watchTargets returns the directories to watch and a filter that accepts
// events for the input file or any file in the logo directory.
func watchTargets(input, logoDir string) (func(fsnotify.Event) bool, []string, error) {
	in, err := filepath.Abs(input)
	if err != nil {
		return nil, nil, err
	}
	dirs := []string{filepath.Dir(in)}

	var logos string
	if logoDir != "" {
		if logos, err = filepath.Abs(logoDir); err != nil {
			return nil, nil, err
		}
		if logos != dirs[0] {
			dirs = append(dirs, logos)
		}
	}

	match := func(ev fsnotify.Event) bool {
		if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
			return false
		}
		name, err := filepath.Abs(ev.Name)
		if err != nil {
			return false
		}
		if name == in {
			return true
		}
		return logos != "" && filepath.Dir(name) == logos && pipeline.IsLogoFile(name)
	}
	return match, dirs, nil
}

// debounce calls fn once events have been quiet for delay. Events that
// match rejects are ignored. It returns nil when ctx is done or the event
// channel closes.
func debounce(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, delay time.Duration, match func(fsnotify.Event) bool, logger *log.Logger, fn func()) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !match(ev) {
				continue
			}
			logger.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				timer.Reset(delay)
			}
			fire = timer.C
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch error", "error", err)
		case <-fire:
			fire = nil
			fn()
		}
	}
}
