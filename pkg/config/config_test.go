package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[canvas]
width = 1920

[chart]
title = "Fintech"
orientation = "portrait"

[tiers.large]
box_width = 440

[mapping]
company_name = "Company"
category = "Segment"

[server]
session_ttl = "90m"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Canvas.Width != 1920 || cfg.Canvas.Height != 1800 {
		t.Errorf("canvas = %+v, want width override only", cfg.Canvas)
	}
	if cfg.Server.SessionTTL.Duration != 90*time.Minute {
		t.Errorf("session_ttl = %v", cfg.Server.SessionTTL)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("addr = %q, want default", cfg.Server.Addr)
	}
	if cfg.Mapping.Category != "Segment" {
		t.Errorf("mapping = %+v", cfg.Mapping)
	}

	chart := cfg.ChartDefaults()
	if chart.Title != "Fintech" || chart.Orientation != ecosystem.Portrait || !chart.ShowLogoBackground {
		t.Errorf("ChartDefaults() = %+v", chart)
	}

	tiers := cfg.TierTable()
	if tiers[ecosystem.SizeLarge].BoxWidth != 440 {
		t.Errorf("large box width = %g, want 440", tiers[ecosystem.SizeLarge].BoxWidth)
	}
	if tiers[ecosystem.SizeLarge].TileHeight == 0 {
		t.Error("override cleared unset tier fields")
	}
	if got := cfg.Engine().Canvas().Width; got != 1920 {
		t.Errorf("Engine canvas width = %g", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
		want string
	}{
		{"syntax", "[canvas\nwidth = 1", errors.ErrCodeInvalidFormat, "read config"},
		{"unknown key", "[canvas]\nwidht = 100", errors.ErrCodeInvalidInput, "canvas.widht"},
		{"small canvas", "[canvas]\nwidth = 100", errors.ErrCodeInvalidInput, "[canvas]"},
		{"orientation", "[chart]\norientation = \"diagonal\"", errors.ErrCodeInvalidInput, "[chart]"},
		{"tier", "[tiers.huge]\nbox_width = 1", errors.ErrCodeInvalidInput, "huge"},
		{"backend", "[server]\nsession_backend = \"mongo\"", errors.ErrCodeInvalidInput, "mongo"},
		{"redis url", "[cache]\nbackend = \"redis\"", errors.ErrCodeInvalidInput, "redis_url"},
		{"scale", "[export]\nscale = 0.0", errors.ErrCodeInvalidInput, "scale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() succeeded")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %q, want %q", errors.GetCode(err), tt.code)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Load(absent) should fail")
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if got := Find(dir); got != "" && filepath.Dir(got) == dir {
		t.Errorf("Find() = %q in empty dir", got)
	}
	path := filepath.Join(dir, FileName)
	os.WriteFile(path, nil, 0o644)
	if got := Find(dir); got != path {
		t.Errorf("Find() = %q, want %q", got, path)
	}
}

func TestString(t *testing.T) {
	out := Default().String()
	for _, want := range []string{"[canvas]", "[server]", `session_ttl = "24h0m0s"`} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}
}
