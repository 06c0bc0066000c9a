// Package session persists editing sessions between requests.
//
// A session is one browser tab's map: the imported companies, the chart
// customization, the logo registry and any pending import. The HTTP server
// keeps a live [store.Store] per session and writes its snapshot back
// after every change, so any backend below can serve it:
//   - [MemoryStore]: in-process, lost on restart
//   - [FileStore]: one JSON file per session, for single-host deployments
//   - [RedisStore]: shared by every server replica
//
// Sessions expire after a period of inactivity; [Session.Touch] pushes the
// deadline forward. There is no durable storage beyond that.
//
//	sess := session.New(session.DefaultTTL)
//	sess.Document = st.Snapshot()
//	err := backend.Set(ctx, sess)
//
// [store.Store]: github.com/matzehuels/ecomap/pkg/store.Store
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/ecomap/pkg/io"
)

// DefaultTTL is the inactivity timeout of a session.
const DefaultTTL = 24 * time.Hour

// Session is one editing session.
type Session struct {
	ID        string        `json:"id"`
	Document  io.Document   `json:"document"`
	TTL       time.Duration `json:"ttl"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// New creates an empty session with a random ID.
func New(ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Document:  io.Document{Version: io.DocumentVersion},
		TTL:       ttl,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch records activity and extends the deadline by TTL.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
	s.ExpiresAt = s.UpdatedAt.Add(s.TTL)
}

// ValidID reports whether id has the form produced by [New].
func ValidID(id string) bool {
	return uuid.Validate(id) == nil
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session until its ExpiresAt.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions. Backends with native expiry
	// implement it as a no-op.
	Cleanup(ctx context.Context) error

	Close() error
}
