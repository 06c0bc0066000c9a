package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

type countingSession struct {
	Noop
	created, evicted []string
}

func (c *countingSession) OnSessionCreated(_ context.Context, id string) {
	c.created = append(c.created, id)
}

func (c *countingSession) OnSessionEvicted(_ context.Context, id, reason string) {
	c.evicted = append(c.evicted, id+":"+reason)
}

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	if _, ok := Pipeline().(Noop); !ok {
		t.Errorf("Pipeline() = %T, want Noop", Pipeline())
	}
	if _, ok := Session().(Noop); !ok {
		t.Errorf("Session() = %T, want Noop", Session())
	}
	Pipeline().OnBuildComplete(ctx, "companies.csv", 3, time.Second, nil)
	Cache().OnCacheSet(ctx, "artifact", 1024)
	HTTP().OnResponse(ctx, "GET", "/api/v1/sessions/{id}", 200, time.Second)
	Session().OnSessionEvicted(ctx, "abc", EvictExpired)
}

func TestInstallRestore(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	ctx := context.Background()

	sess := &countingSession{}
	restore := Install(Hooks{Session: sess})

	if _, ok := Pipeline().(Noop); !ok {
		t.Error("Install changed a family that was left nil")
	}
	Session().OnSessionCreated(ctx, "a")
	Session().OnSessionEvicted(ctx, "a", EvictDeleted)
	if len(sess.created) != 1 || sess.evicted[0] != "a:deleted" {
		t.Errorf("got created=%v evicted=%v", sess.created, sess.evicted)
	}

	restore()
	if _, ok := Session().(Noop); !ok {
		t.Errorf("after restore Session() = %T, want Noop", Session())
	}
}

func TestInstallNested(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	outer := &countingSession{}
	inner := &countingSession{}
	restoreOuter := Install(Hooks{Session: outer})
	restoreInner := Install(Hooks{Session: inner})

	if Session() != inner {
		t.Error("inner install not active")
	}
	restoreInner()
	if Session() != outer {
		t.Error("restore did not bring back the outer hooks")
	}
	restoreOuter()
}

func TestLogHooks(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	restore := InstallAll(NewLogHooks(logger))
	defer restore()

	ctx := context.Background()
	Pipeline().OnBuildComplete(ctx, "companies.csv", 3, time.Millisecond, nil)
	Pipeline().OnBuildComplete(ctx, "broken.csv", 0, time.Millisecond, errors.New("boom"))
	Cache().OnCacheHit(ctx, "artifact")
	HTTP().OnResponse(ctx, "POST", "/api/v1/sessions", 201, time.Millisecond)
	Session().OnSessionEvicted(ctx, "abc", EvictExpired)

	out := buf.String()
	for _, want := range []string{
		"build finished", "companies=3", "build failed", "boom",
		"cache hit", "kind=artifact", "status=201", "session evicted", "reason=expired",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
