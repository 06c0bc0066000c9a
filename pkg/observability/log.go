package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug logs.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) OnBuildStart(_ context.Context, input string) {
	h.logger.Debug("build started", "input", input)
}

func (h *LogHooks) OnBuildComplete(_ context.Context, input string, companies int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("build failed", "input", input, "duration", d, "error", err)
		return
	}
	h.logger.Debug("build finished", "input", input, "companies", companies, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render started", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "formats", formats, "duration", d, "error", err)
		return
	}
	h.logger.Debug("render finished", "formats", formats, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, kind string) {
	h.logger.Debug("cache hit", "kind", kind)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, kind string) {
	h.logger.Debug("cache miss", "kind", kind)
}

func (h *LogHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.logger.Debug("cache set", "kind", kind, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "duration", d)
}

func (h *LogHooks) OnSessionCreated(_ context.Context, id string) {
	h.logger.Debug("session created", "id", id)
}

func (h *LogHooks) OnSessionRestored(_ context.Context, id string) {
	h.logger.Debug("session restored", "id", id)
}

func (h *LogHooks) OnSessionEvicted(_ context.Context, id, reason string) {
	h.logger.Debug("session evicted", "id", id, "reason", reason)
}
