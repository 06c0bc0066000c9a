package cache

// Keyer derives cache keys.
type Keyer interface {
	// TableKey identifies a parsed import by the hash of its raw bytes.
	TableKey(contentHash string) string
	// ArtifactKey identifies a rendered export by the hash of its scene.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
	// SessionKey identifies a stored editing session.
	SessionKey(id string) string
}

// ArtifactKeyOpts are the render options that change the output bytes.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Scale    float64 `json:"scale,omitempty"`
	NoLogos  bool    `json:"no_logos,omitempty"`
	RSVG     bool    `json:"rsvg,omitempty"`
	Collapse bool    `json:"collapse,omitempty"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// TableKey returns "table:<hash>".
func (DefaultKeyer) TableKey(contentHash string) string {
	return "table:" + contentHash
}

// ArtifactKey hashes the scene hash together with the render options.
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sceneHash, opts)
}

// SessionKey returns "session:<id>".
func (DefaultKeyer) SessionKey(id string) string {
	return "session:" + id
}

var _ Keyer = DefaultKeyer{}
