package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Roots) != 0 {
		t.Fatalf("expected no roots, got %v", cfg.Roots)
	}
	if cfg.Rules == nil {
		t.Fatalf("rules map must be initialized")
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("roots = [broken"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed config must be an error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	cfg := Default()
	cfg.AddRoot("/data/docs")
	rule := cfg.Rules["/data/docs"]
	rule.IndexHidden = true
	rule.MaxDepth = 3
	rule.MimeFilters = []string{"text/*"}
	rule.WatchFilesystem = true
	cfg.Rules["/data/docs"] = rule

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Roots) != 1 || got.Roots[0] != "/data/docs" {
		t.Fatalf("roots mangled: %v", got.Roots)
	}
	r := got.RuleFor("/data/docs")
	if !r.IndexHidden || r.MaxDepth != 3 || !r.WatchFilesystem {
		t.Fatalf("rule mangled: %+v", r)
	}
	if len(r.MimeFilters) != 1 || r.MimeFilters[0] != "text/*" {
		t.Fatalf("mime filters mangled: %v", r.MimeFilters)
	}
}

func TestAddRootDeduplicates(t *testing.T) {
	cfg := Default()
	if !cfg.AddRoot("/data/docs") {
		t.Fatalf("first add rejected")
	}
	if cfg.AddRoot("/data/docs/") {
		t.Fatalf("normalized duplicate accepted")
	}
	if len(cfg.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(cfg.Roots))
	}
	if _, ok := cfg.Rules["/data/docs"]; !ok {
		t.Fatalf("add must seed a default rule")
	}
}

func TestRemoveRoot(t *testing.T) {
	cfg := Default()
	cfg.AddRoot("/data/docs")
	cfg.AddRoot("/data/music")

	if !cfg.RemoveRoot("/data/docs") {
		t.Fatalf("remove of registered root failed")
	}
	if cfg.RemoveRoot("/data/docs") {
		t.Fatalf("second remove should fail")
	}
	if len(cfg.Roots) != 1 || cfg.Roots[0] != "/data/music" {
		t.Fatalf("surviving roots wrong: %v", cfg.Roots)
	}
	if _, ok := cfg.Rules["/data/docs"]; ok {
		t.Fatalf("removed root's rule must be dropped")
	}
}

func TestRuleForUnknownRootFallsBack(t *testing.T) {
	cfg := Default()
	r := cfg.RuleFor("/nowhere")
	d := DefaultRule()
	if r.MaxDepth != d.MaxDepth || r.ScanIntervalMinutes != d.ScanIntervalMinutes {
		t.Fatalf("fallback rule differs from defaults: %+v", r)
	}
}
