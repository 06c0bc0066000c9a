package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const sessionExt = ".json"

// FileStore keeps one JSON file per session, for single-host servers.
//
// Each file's modification time is set to the session's ExpiresAt, so
// Cleanup can drop expired sessions from the directory listing without
// decoding documents that may carry logo blobs.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore opens (and creates) dir. An empty dir means
// <user config dir>/ecomap/sessions.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config dir: %w", err)
		}
		dir = filepath.Join(base, "ecomap", "sessions")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// file maps well-formed IDs to a path inside dir. Anything else has no
// file, which keeps request input out of the filesystem.
func (s *FileStore) file(id string) (string, bool) {
	if !ValidID(id) {
		return "", false
	}
	return filepath.Join(s.dir, id+sessionExt), true
}

func (s *FileStore) Get(ctx context.Context, id string) (*Session, error) {
	path, ok := s.file(id)
	if !ok {
		return nil, nil
	}

	s.mu.Lock()
	data, err := os.ReadFile(path)
	s.mu.Unlock()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}

	sess := new(Session)
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if sess.IsExpired() {
		return nil, s.Delete(ctx, id)
	}
	return sess, nil
}

// Set writes the session through a temporary file and a rename, so a
// reader never sees a partial document.
func (s *FileStore) Set(ctx context.Context, sess *Session) error {
	path, ok := s.file(sess.ID)
	if !ok {
		return fmt.Errorf("invalid session id %q", sess.ID)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, sess.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("write session %s: %w", sess.ID, err)
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err = errors.Join(werr, cerr); err == nil {
		err = os.Chtimes(tmp.Name(), time.Now(), sess.ExpiresAt)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	path, ok := s.file(id)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session %s: %w", id, err)
	}
	return nil
}

// Cleanup removes session files whose deadline has passed and temporary
// files left behind by interrupted writes.
func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	now := time.Now()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := e.Name()
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		switch {
		case strings.HasSuffix(name, ".tmp") && now.Sub(info.ModTime()) > time.Hour:
		case strings.HasSuffix(name, sessionExt) && now.After(info.ModTime()):
		default:
			continue
		}
		os.Remove(filepath.Join(s.dir, name))
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the session directory.
func (s *FileStore) Path() string { return s.dir }

var _ Store = (*FileStore)(nil)
