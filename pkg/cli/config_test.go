package cli

import (
	"path/filepath"
	"testing"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadConfigWithPath("parlor", path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestConfig_AddAndUseContext(t *testing.T) {
	cfg := testConfig(t)

	err := cfg.AddContext("prod", &Context{
		BaseURL:  "https://api.parlor.dev",
		Username: "ada",
	})
	if err != nil {
		t.Fatalf("add context: %v", err)
	}

	// The first context becomes current automatically.
	ctx, err := cfg.GetCurrentContext("")
	if err != nil {
		t.Fatalf("current context: %v", err)
	}
	if ctx.Name != "prod" || ctx.Username != "ada" {
		t.Errorf("context = %+v", ctx)
	}

	if err := cfg.AddContext("staging", &Context{BaseURL: "https://staging.parlor.dev"}); err != nil {
		t.Fatalf("add context: %v", err)
	}
	if cfg.CurrentContext != "prod" {
		t.Errorf("current = %q, adding a second context must not switch", cfg.CurrentContext)
	}

	if err := cfg.UseContext("staging"); err != nil {
		t.Fatalf("use context: %v", err)
	}
	if cfg.CurrentContext != "staging" {
		t.Errorf("current = %q, want staging", cfg.CurrentContext)
	}
}

func TestConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadConfigWithPath("parlor", path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.AddContext("prod", &Context{BaseURL: "https://api.parlor.dev", PageSize: 25}); err != nil {
		t.Fatalf("add: %v", err)
	}

	again, err := LoadConfigWithPath("parlor", path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	ctx, err := again.GetContext("prod")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ctx.BaseURL != "https://api.parlor.dev" || ctx.PageSize != 25 {
		t.Errorf("reloaded context = %+v", ctx)
	}
}

func TestConfig_DeleteContext(t *testing.T) {
	cfg := testConfig(t)
	if err := cfg.AddContext("prod", &Context{BaseURL: "https://api.parlor.dev"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := cfg.DeleteContext("prod"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if cfg.CurrentContext != "" {
		t.Errorf("current = %q after deleting it", cfg.CurrentContext)
	}
	if err := cfg.DeleteContext("prod"); err == nil {
		t.Error("deleting a missing context should fail")
	}
	if _, err := cfg.GetCurrentContext(""); err == nil {
		t.Error("current context lookup should fail with none set")
	}
}

func TestConfig_ContextNames(t *testing.T) {
	cfg := testConfig(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := cfg.AddContext(name, &Context{BaseURL: "https://x"}); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	names := cfg.ContextNames()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
