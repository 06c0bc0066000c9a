package cache

// ScopedKeyer wraps a Keyer with a prefix for isolation in a shared
// backend.
//
// Example usage:
//
//	// Keys of one deployment in a shared Redis
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ecomap:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TableKey generates a prefixed key for parsed imports.
func (k *ScopedKeyer) TableKey(contentHash string) string {
	return k.prefix + k.inner.TableKey(contentHash)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sceneHash, opts)
}

// SessionKey generates a prefixed key for sessions.
func (k *ScopedKeyer) SessionKey(id string) string {
	return k.prefix + k.inner.SessionKey(id)
}
