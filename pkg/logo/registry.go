// Package logo keeps uploaded logo images and matches them to companies.
//
// Every logo gets an opaque reference ("logo:<uuid>") that companies carry
// in [ecosystem.Company.LogoRef]. Uploading a file with the same base name
// replaces the blob and revokes the old reference, so a stale reference
// never resolves to the wrong image.
package logo

import (
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/errors"
)

// RefPrefix starts every logo reference.
const RefPrefix = "logo:"

// Logo is one uploaded image.
type Logo struct {
	Ref         string `json:"ref"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Key returns the match key of a file name: the base name without its
// extension, lowercased.
func Key(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Registry maps logo keys to images. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byKey  map[string]*Logo
	byRef  map[string]*Logo
	assign map[string]string // company ID -> logo key
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[string]*Logo),
		byRef:  make(map[string]*Logo),
		assign: make(map[string]string),
	}
}

// Add stores a logo and returns its new reference. When a logo with the
// same key existed, its reference is invalidated and returned as revoked.
func (r *Registry) Add(filename string, data []byte) (ref, revoked string, err error) {
	key := Key(filename)
	if key == "" {
		return "", "", errors.New(errors.ErrCodeInvalidInput, "logo file name is empty")
	}
	if len(data) == 0 {
		return "", "", errors.New(errors.ErrCodeInvalidInput, "logo %s is empty", filename)
	}

	l := &Logo{
		Ref:         RefPrefix + uuid.NewString(),
		Filename:    filepath.Base(filename),
		ContentType: sniff(filename, data),
		Data:        slices.Clone(data),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byKey[key]; ok {
		delete(r.byRef, old.Ref)
		revoked = old.Ref
	}
	r.byKey[key] = l
	r.byRef[l.Ref] = l
	return l.Ref, revoked, nil
}

// Remove deletes the logo stored under filename's key and returns its
// revoked reference. Manual associations pointing at it are dropped.
func (r *Registry) Remove(filename string) (string, error) {
	key := Key(filename)

	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byKey[key]
	if !ok {
		return "", errors.New(errors.ErrCodeNotFound, "logo not found: %s", filename)
	}
	delete(r.byKey, key)
	delete(r.byRef, l.Ref)
	for id, k := range r.assign {
		if k == key {
			delete(r.assign, id)
		}
	}
	return l.Ref, nil
}

// Associate links an uploaded logo to one company regardless of names.
func (r *Registry) Associate(filename, companyID string) error {
	key := Key(filename)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[key]; !ok {
		return errors.New(errors.ErrCodeNotFound, "logo not found: %s", filename)
	}
	r.assign[companyID] = key
	return nil
}

// Resolve returns the reference of the logo for c, or "" when none
// matches. Manual associations win, then the company's logo file name,
// then the company name.
func (r *Registry) Resolve(c ecosystem.Company) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(c)
}

func (r *Registry) resolve(c ecosystem.Company) string {
	if key, ok := r.assign[c.ID]; ok {
		if l, ok := r.byKey[key]; ok {
			return l.Ref
		}
	}
	if c.LogoFilename != "" {
		if l, ok := r.byKey[Key(c.LogoFilename)]; ok {
			return l.Ref
		}
	}
	if l, ok := r.byKey[strings.ToLower(strings.TrimSpace(c.Name))]; ok {
		return l.Ref
	}
	return ""
}

// Apply returns a copy of companies with LogoRef resolved.
func (r *Registry) Apply(companies []ecosystem.Company) []ecosystem.Company {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ecosystem.Company, len(companies))
	for i, c := range companies {
		c.LogoRef = r.resolve(c)
		out[i] = c
	}
	return out
}

// Unmatched returns the file names of logos no company resolves to,
// sorted.
func (r *Registry) Unmatched(companies []ecosystem.Company) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	used := make(map[string]bool)
	for _, c := range companies {
		if ref := r.resolve(c); ref != "" {
			used[ref] = true
		}
	}
	var out []string
	for _, l := range r.byKey {
		if !used[l.Ref] {
			out = append(out, l.Filename)
		}
	}
	slices.Sort(out)
	return out
}

// Blob returns the logo for ref.
func (r *Registry) Blob(ref string) (Logo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byRef[ref]
	if !ok {
		return Logo{}, false
	}
	return *l, true
}

// Len returns the number of stored logos.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}

// State is the serializable content of a registry.
type State struct {
	Logos        []Logo            `json:"logos,omitempty"`
	Associations map[string]string `json:"associations,omitempty"`
}

// Export returns the registry content ordered by file name.
func (r *Registry) Export() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := State{Associations: make(map[string]string, len(r.assign))}
	for _, l := range r.byKey {
		st.Logos = append(st.Logos, *l)
	}
	slices.SortFunc(st.Logos, func(a, b Logo) int { return strings.Compare(a.Filename, b.Filename) })
	for id, k := range r.assign {
		st.Associations[id] = k
	}
	return st
}

// Import replaces the registry content with st. Stored references are
// kept so companies in the same snapshot still resolve.
func (r *Registry) Import(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey = make(map[string]*Logo, len(st.Logos))
	r.byRef = make(map[string]*Logo, len(st.Logos))
	r.assign = make(map[string]string, len(st.Associations))
	for i := range st.Logos {
		l := st.Logos[i]
		if l.Ref == "" {
			l.Ref = RefPrefix + uuid.NewString()
		}
		if l.ContentType == "" {
			l.ContentType = sniff(l.Filename, l.Data)
		}
		r.byKey[Key(l.Filename)] = &l
		r.byRef[l.Ref] = &l
	}
	for id, k := range st.Associations {
		r.assign[id] = k
	}
}

func sniff(filename string, data []byte) string {
	if strings.EqualFold(filepath.Ext(filename), ".svg") {
		return "image/svg+xml"
	}
	return http.DetectContentType(data)
}
