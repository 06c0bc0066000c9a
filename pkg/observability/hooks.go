// Package observability lets the binary observe builds, exports, cache
// lookups, HTTP requests and editing sessions without the library packages
// knowing where the events go.
//
// Library code reports events through the accessors:
//
//	observability.Pipeline().OnBuildStart(ctx, input)
//	observability.Session().OnSessionEvicted(ctx, id, observability.EvictExpired)
//
// The binary decides what listens. [Install] replaces any subset of the
// hook families and returns a function that puts the previous ones back:
//
//	hooks := observability.NewLogHooks(logger)
//	restore := observability.Install(observability.Hooks{
//		Pipeline: hooks,
//		Session:  hooks,
//	})
//	defer restore()
//
// Until something is installed every family is a no-op.
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// PipelineHooks observes the build and render stages.
type PipelineHooks interface {
	OnBuildStart(ctx context.Context, input string)
	OnBuildComplete(ctx context.Context, input string, companies int, duration time.Duration, err error)
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks observes cache traffic. kind is "table" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
}

// HTTPHooks observes API requests. route is the matched chi pattern.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, route string)
	OnResponse(ctx context.Context, method, route string, status int, duration time.Duration)
}

// Reasons passed to [SessionHooks.OnSessionEvicted].
const (
	EvictExpired = "expired"
	EvictDeleted = "deleted"
)

// SessionHooks observes the lifecycle of server-side editing sessions.
type SessionHooks interface {
	OnSessionCreated(ctx context.Context, id string)
	// OnSessionRestored fires when a session is loaded back from the
	// backend into memory.
	OnSessionRestored(ctx context.Context, id string)
	OnSessionEvicted(ctx context.Context, id, reason string)
}

// Noop implements every hook family and does nothing. Embed it to
// implement only some methods.
type Noop struct{}

func (Noop) OnBuildStart(context.Context, string)                               {}
func (Noop) OnBuildComplete(context.Context, string, int, time.Duration, error) {}
func (Noop) OnRenderStart(context.Context, []string)                            {}
func (Noop) OnRenderComplete(context.Context, []string, time.Duration, error)   {}
func (Noop) OnCacheHit(context.Context, string)                                 {}
func (Noop) OnCacheMiss(context.Context, string)                                {}
func (Noop) OnCacheSet(context.Context, string, int)                            {}
func (Noop) OnRequest(context.Context, string, string)                          {}
func (Noop) OnResponse(context.Context, string, string, int, time.Duration)     {}
func (Noop) OnSessionCreated(context.Context, string)                           {}
func (Noop) OnSessionRestored(context.Context, string)                          {}
func (Noop) OnSessionEvicted(context.Context, string, string)                   {}

// Hooks bundles one implementation per family. Nil fields are left
// unchanged by [Install].
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
	Session  SessionHooks
}

func noop() *Hooks {
	return &Hooks{Pipeline: Noop{}, Cache: Noop{}, HTTP: Noop{}, Session: Noop{}}
}

var (
	installMu sync.Mutex
	current   atomic.Pointer[Hooks]
)

func init() { current.Store(noop()) }

// Install replaces the non-nil families of h and returns a function that
// restores the hooks active before the call.
func Install(h Hooks) (restore func()) {
	installMu.Lock()
	defer installMu.Unlock()

	prev := current.Load()
	next := *prev
	if h.Pipeline != nil {
		next.Pipeline = h.Pipeline
	}
	if h.Cache != nil {
		next.Cache = h.Cache
	}
	if h.HTTP != nil {
		next.HTTP = h.HTTP
	}
	if h.Session != nil {
		next.Session = h.Session
	}
	current.Store(&next)

	return func() {
		installMu.Lock()
		defer installMu.Unlock()
		current.Store(prev)
	}
}

// InstallAll installs a value implementing every family, such as
// [LogHooks].
func InstallAll(h interface {
	PipelineHooks
	CacheHooks
	HTTPHooks
	SessionHooks
}) (restore func()) {
	return Install(Hooks{Pipeline: h, Cache: h, HTTP: h, Session: h})
}

// Reset drops every installed hook.
func Reset() {
	installMu.Lock()
	defer installMu.Unlock()
	current.Store(noop())
}

func Pipeline() PipelineHooks { return current.Load().Pipeline }
func Cache() CacheHooks       { return current.Load().Cache }
func HTTP() HTTPHooks         { return current.Load().HTTP }
func Session() SessionHooks   { return current.Load().Session }
