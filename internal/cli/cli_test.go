package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/ecomap/pkg/io"
)

const testCSV = `Company,Group,Subgroup
Acme,Infrastructure,Compute
Globex,Infrastructure,Storage
Initech,Data,
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// testEnv writes an empty config and the sample table into a temp dir.
func testEnv(t *testing.T) (dir, cfg, input string) {
	t.Helper()
	dir = t.TempDir()
	cfg = writeFile(t, dir, "ecomap.toml", "[cache]\nbackend = \"none\"\n")
	input = writeFile(t, dir, "companies.csv", testCSV)
	return dir, cfg, input
}

func TestRootCommand(t *testing.T) {
	root := New(os.Stderr, LogInfo).RootCommand()
	want := []string{"build", "cache", "columns", "completion", "config", "edit", "render", "serve"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestColumnsCommand(t *testing.T) {
	_, cfg, input := testEnv(t)

	out, err := runCLI(t, "--config", cfg, "columns", input)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Company", "Group", "Subgroup", "Acme", "ecomap build"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestColumnsIncompleteMapping(t *testing.T) {
	dir, cfg, _ := testEnv(t)
	input := writeFile(t, dir, "vendors.csv", "Vendor,Kind\nAcme,Infra\n")

	out, err := runCLI(t, "--config", cfg, "columns", input)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "--name <col> --category <col>") {
		t.Errorf("output should explain the missing mapping:\n%s", out)
	}
}

func TestBuildCommand(t *testing.T) {
	dir, cfg, input := testEnv(t)
	base := filepath.Join(dir, "out", "map")
	save := filepath.Join(dir, "map.json")

	out, err := runCLI(t, "--config", cfg, "build", input,
		"-f", "svg,JSON,dot", "-o", base, "--save", save,
		"--title", "Cloud Native", "--orientation", "portrait")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Built Cloud Native", "3 companies", base + ".svg", "ecomap edit " + save} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	for _, ext := range []string{".svg", ".json", ".dot"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("missing %s: %v", ext, err)
		}
	}

	svg, _ := os.ReadFile(base + ".svg")
	if !strings.Contains(string(svg), "Cloud Native") {
		t.Error("svg does not contain the title")
	}
	var scene struct {
		Orientation string `json:"orientation"`
	}
	data, _ := os.ReadFile(base + ".json")
	if err := json.Unmarshal(data, &scene); err != nil || scene.Orientation != "portrait" {
		t.Errorf("scene orientation = %q, %v", scene.Orientation, err)
	}

	doc, err := io.ImportSnapshot(save)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Companies) != 3 || doc.Chart.Title != "Cloud Native" {
		t.Errorf("saved %d companies titled %q", len(doc.Companies), doc.Chart.Title)
	}
}

func TestBuildCommandMappingFlags(t *testing.T) {
	dir, cfg, _ := testEnv(t)
	input := writeFile(t, dir, "vendors.csv", "Vendor,Kind\nAcme,Infra\nGlobex,Data\n")
	out := filepath.Join(dir, "vendors.json")

	if _, err := runCLI(t, "--config", cfg, "build", input, "-f", "json", "-o", out); err == nil {
		t.Fatal("build without a complete mapping should fail")
	}
	if _, err := runCLI(t, "--config", cfg, "build", input, "-f", "json", "-o", out,
		"--name", "Vendor", "--category", "Kind"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Error(err)
	}
}

func TestBuildCommandErrors(t *testing.T) {
	dir, cfg, input := testEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"build", input, "-f", "gif"}},
		{"missing input", []string{"build", filepath.Join(dir, "missing.csv"), "-f", "json"}},
		{"stdout needs one format", []string{"build", input, "-f", "svg,json", "-o", "-"}},
		{"bad orientation", []string{"build", input, "-f", "json", "--orientation", "diagonal"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, append([]string{"--config", cfg}, tt.args...)...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRenderCommand(t *testing.T) {
	dir, cfg, input := testEnv(t)
	save := filepath.Join(dir, "map.json")
	if _, err := runCLI(t, "--config", cfg, "build", input, "-f", "json", "-o", filepath.Join(dir, "build.json"), "--save", save); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "--config", cfg, "render", save, "-f", "svg,json"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "map.svg")); err != nil {
		t.Error(err)
	}
	// The scene dump must not overwrite the document it was rendered from.
	if _, err := os.Stat(filepath.Join(dir, "map.scene.json")); err != nil {
		t.Error(err)
	}
	if _, err := io.ImportSnapshot(save); err != nil {
		t.Errorf("document damaged: %v", err)
	}
}

func TestRenderEmptyDocument(t *testing.T) {
	dir, cfg, _ := testEnv(t)
	empty := writeFile(t, dir, "empty.json", `{"version": 1, "companies": [], "chart": {}}`)

	if _, err := runCLI(t, "--config", cfg, "render", empty, "-f", "svg"); err == nil {
		t.Error("rendering an empty map should fail")
	}
}

func TestConfigCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "ecomap.toml", "[chart]\ntitle = \"Fintech\"\n")

	out, err := runCLI(t, "--config", cfg, "config")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `title = "Fintech"`) {
		t.Errorf("config output missing title:\n%s", out)
	}

	bad := writeFile(t, dir, "bad.toml", "[chart]\ntitel = \"typo\"\n")
	if _, err := runCLI(t, "--config", bad, "config"); err == nil {
		t.Error("unknown keys should fail")
	}
}

func TestMappingPrecedence(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	c.cfg.Mapping = io.Mapping{Category: "Segment"}

	got := c.mapping([]string{"Company", "Group", "Segment", "Logo"}, io.Mapping{LogoFilename: "Icon"})
	want := io.Mapping{CompanyName: "Company", Category: "Segment", LogoFilename: "Icon"}
	if got != want {
		t.Errorf("mapping() = %+v, want %+v", got, want)
	}
}
