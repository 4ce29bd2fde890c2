package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 3001 {
		t.Fatalf("expected port 3001, got %d", cfg.Port)
	}
	if cfg.Store != StoreJSON {
		t.Fatalf("expected json store, got %q", cfg.Store)
	}
	if len(cfg.FormPaths) != 1 || cfg.FormPaths[0] != "public/form.json" {
		t.Fatalf("unexpected form paths: %v", cfg.FormPaths)
	}
	if cfg.AuthEnabled() {
		t.Fatal("auth should be disabled without admin password")
	}
	if got := cfg.SubmissionsFile(); got != filepath.Join("data", "submissions.json") {
		t.Fatalf("unexpected submissions file %q", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "4100")
	t.Setenv("JOINUS_STORE", " SQLite ")
	t.Setenv("JOINUS_FORM_PATHS", "a.json, ,b.yaml")
	t.Setenv("JOINUS_ADMIN_PASS", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != ":4100" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if cfg.Store != StoreSQLite {
		t.Fatalf("expected sqlite store, got %q", cfg.Store)
	}
	if len(cfg.FormPaths) != 2 || cfg.FormPaths[1] != "b.yaml" {
		t.Fatalf("unexpected form paths: %v", cfg.FormPaths)
	}
	if !cfg.AuthEnabled() {
		t.Fatal("auth should be enabled")
	}
	if !cfg.InsecureJWTSecret() {
		t.Fatal("default jwt secret with admin auth should be flagged")
	}
}

func TestInsecureJWTSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JOINUS_ADMIN_PASS", "secret")
	t.Setenv("JOINUS_JWT_SECRET", "a-real-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InsecureJWTSecret() {
		t.Fatal("custom jwt secret should not be flagged")
	}

	cfg.AdminPass = ""
	cfg.JWTSecret = DefaultJWTSecret
	if cfg.InsecureJWTSecret() {
		t.Fatal("default secret without admin auth is not used for tokens")
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JOINUS_STORE", "mongo")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown store")
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}
