package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
)

func sample() *Session {
	s := New(time.Hour)
	s.Document.Companies = []ecosystem.Company{ecosystem.NewCompany("Acme", "Infra", "", "", 0)}
	s.Document.Chart = ecosystem.DefaultChart()
	return s
}

func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	sess := sample()
	if err := st.Set(ctx, sess); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, err := st.Get(ctx, sess.ID)
	if err != nil || got == nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if got.ID != sess.ID || len(got.Document.Companies) != 1 || got.Document.Companies[0].Name != "Acme" {
		t.Errorf("Get returned %+v", got)
	}

	// Mutating the returned copy does not change the stored session.
	got.Document.Companies[0].Name = "Changed"
	again, _ := st.Get(ctx, sess.ID)
	if again.Document.Companies[0].Name != "Acme" {
		t.Error("stored session shares memory with callers")
	}

	if missing, err := st.Get(ctx, New(time.Hour).ID); missing != nil || err != nil {
		t.Errorf("Get(unknown) = %v, %v; want nil, nil", missing, err)
	}

	if err := st.Delete(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ := st.Get(ctx, sess.ID); got != nil {
		t.Error("session survived Delete")
	}
	if err := st.Delete(ctx, sess.ID); err != nil {
		t.Errorf("Delete(absent) = %v", err)
	}
}

func exerciseExpiry(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	sess := sample()
	sess.ExpiresAt = time.Now().Add(-time.Minute)
	if err := st.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if got, err := st.Get(ctx, sess.ID); got != nil || err != nil {
		t.Errorf("Get(expired) = %v, %v; want nil, nil", got, err)
	}
	if err := st.Cleanup(ctx); err != nil {
		t.Errorf("Cleanup error: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	st := NewMemoryStore()
	exerciseStore(t, st)
	exerciseExpiry(t, st)
	if st.Len() != 0 {
		t.Errorf("Len after Cleanup = %d, want 0", st.Len())
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, st)
	exerciseExpiry(t, st)

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("%d files left after expiry and cleanup", len(entries))
	}
}

func TestFileStoreCleanupUsesDeadline(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	keep := sample()
	gone := sample()
	gone.ExpiresAt = time.Now().Add(-time.Minute)
	for _, sess := range []*Session{keep, gone} {
		if err := st.Set(ctx, sess); err != nil {
			t.Fatal(err)
		}
	}
	stale := filepath.Join(dir, keep.ID+".123.tmp")
	if err := os.WriteFile(stale, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	if err := st.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != keep.ID+".json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("got files %v, want only %s.json", names, keep.ID)
	}
}

func TestFileStoreRejectsBadIDs(t *testing.T) {
	dir := t.TempDir()
	st, _ := NewFileStore(dir)
	ctx := context.Background()

	if got, err := st.Get(ctx, "../../etc/passwd"); got != nil || err != nil {
		t.Errorf("Get(traversal) = %v, %v", got, err)
	}
	bad := sample()
	bad.ID = "../escape"
	if err := st.Set(ctx, bad); err == nil {
		t.Error("Set(bad id) should fail")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.json")); !os.IsNotExist(err) {
		t.Error("file written outside the store")
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("ECOMAP_TEST_REDIS_URL")
	if url == "" {
		t.Skip("ECOMAP_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatal(err)
	}
	st := NewRedisStore(redis.NewClient(opts), nil)
	defer st.Close()
	exerciseStore(t, st)
	exerciseExpiry(t, st)
}

func TestTouch(t *testing.T) {
	s := New(time.Minute)
	before := s.ExpiresAt
	time.Sleep(time.Millisecond)
	s.Touch()
	if !s.ExpiresAt.After(before) {
		t.Error("Touch did not extend the deadline")
	}
	if s.IsExpired() {
		t.Error("fresh session reported expired")
	}
}

func TestNewDefaults(t *testing.T) {
	s := New(0)
	if s.TTL != DefaultTTL {
		t.Errorf("TTL = %v, want %v", s.TTL, DefaultTTL)
	}
	if !ValidID(s.ID) {
		t.Errorf("ID %q not valid", s.ID)
	}
	if ValidID("nope") {
		t.Error("ValidID accepted garbage")
	}
}
