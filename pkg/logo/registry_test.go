package logo

import (
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func TestKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Acme.png", "acme"},
		{"logos/ACME.SVG", "acme"},
		{" acme ", "acme"},
		{"acme.tar.gz", "acme.tar"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Key(tt.in); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	r := NewRegistry()
	acme, _, err := r.Add("Acme.png", pngHeader)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	custom, _, _ := r.Add("custom-mark.svg", []byte("<svg/>"))

	tests := []struct {
		name    string
		company ecosystem.Company
		want    string
	}{
		{"by name", ecosystem.NewCompany("ACME", "Infra", "", "", 0), acme},
		{"by logo filename", ecosystem.NewCompany("Other", "Infra", "", "custom-mark.png", 1), custom},
		{"filename beats name", ecosystem.NewCompany("Acme", "Infra", "", "custom-mark", 2), custom},
		{"no match", ecosystem.NewCompany("Globex", "Infra", "", "", 3), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.company); got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddReplacesAndRevokes(t *testing.T) {
	r := NewRegistry()
	first, revoked, _ := r.Add("acme.png", pngHeader)
	if revoked != "" {
		t.Errorf("first Add revoked %q", revoked)
	}
	second, revoked, _ := r.Add("ACME.jpg", []byte("\xff\xd8\xff\xe0jpeg"))
	if revoked != first {
		t.Errorf("revoked = %q, want %q", revoked, first)
	}
	if first == second {
		t.Error("replacement reused the old ref")
	}
	if _, ok := r.Blob(first); ok {
		t.Error("revoked ref still resolves")
	}
	l, ok := r.Blob(second)
	if !ok || l.ContentType != "image/jpeg" {
		t.Errorf("Blob(second) = %+v, %v", l, ok)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	if !strings.HasPrefix(second, RefPrefix) {
		t.Errorf("ref %q lacks prefix", second)
	}
}

func TestAddRejectsEmpty(t *testing.T) {
	r := NewRegistry()
	if _, _, err := r.Add("", pngHeader); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Add(empty name) = %v", err)
	}
	if _, _, err := r.Add("a.png", nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Add(empty data) = %v", err)
	}
}

func TestUnmatched(t *testing.T) {
	r := NewRegistry()
	r.Add("Acme.png", pngHeader)
	r.Add("Stray Logo.PNG", pngHeader)
	r.Add("b.svg", []byte("<svg/>"))

	companies := []ecosystem.Company{ecosystem.NewCompany("Acme", "Infra", "", "", 0)}
	if got := r.Unmatched(companies); !slices.Equal(got, []string{"Stray Logo.PNG", "b.svg"}) {
		t.Errorf("Unmatched() = %v", got)
	}
}

func TestAssociateAndRemove(t *testing.T) {
	r := NewRegistry()
	ref, _, _ := r.Add("mark.png", pngHeader)
	c := ecosystem.NewCompany("Globex", "Infra", "", "", 0)

	if err := r.Associate("missing.png", c.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Associate(missing) = %v", err)
	}
	if err := r.Associate("mark.png", c.ID); err != nil {
		t.Fatalf("Associate: %v", err)
	}
	if got := r.Resolve(c); got != ref {
		t.Errorf("Resolve after Associate = %q, want %q", got, ref)
	}

	revoked, err := r.Remove("MARK.png")
	if err != nil || revoked != ref {
		t.Fatalf("Remove = %q, %v", revoked, err)
	}
	if got := r.Resolve(c); got != "" {
		t.Errorf("Resolve after Remove = %q", got)
	}
	if _, err := r.Remove("mark.png"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second Remove = %v", err)
	}
}

func TestApply(t *testing.T) {
	r := NewRegistry()
	ref, _, _ := r.Add("acme.png", pngHeader)
	in := []ecosystem.Company{
		ecosystem.NewCompany("Acme", "Infra", "", "", 0),
		ecosystem.NewCompany("Globex", "Infra", "", "", 1),
	}
	out := r.Apply(in)
	if out[0].LogoRef != ref || out[1].LogoRef != "" {
		t.Errorf("Apply() = %+v", out)
	}
	if in[0].LogoRef != "" {
		t.Error("Apply mutated its input")
	}
}

func TestExportImport(t *testing.T) {
	r := NewRegistry()
	ref, _, _ := r.Add("acme.png", pngHeader)
	r.Associate("acme.png", "x-1")

	restored := NewRegistry()
	restored.Import(r.Export())
	if l, ok := restored.Blob(ref); !ok || l.Filename != "acme.png" {
		t.Errorf("restored Blob = %+v, %v", l, ok)
	}
	if got := restored.Resolve(ecosystem.Company{ID: "x-1", Name: "zzz"}); got != ref {
		t.Errorf("restored association = %q", got)
	}
}
