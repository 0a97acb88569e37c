package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfig = `
database_path: /tmp/cardledger.db
default_user_id: default_user
exclude_pattern: "%scotiabank%"
web:
  listen_address: "127.0.0.1:8000"
gemini:
  model: gemini-2.5-flash
investeasy:
  base_url: https://investeasy.example.com/dev
  token: team-jwt
homefinder:
  base_url: https://listings.example.com
  api_key: listing-key
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(filePath, []byte(contents), 0o644); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}
	return filePath
}

func TestLoad(t *testing.T) {

	cfg, err := Load(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("unexpected config load error: %v", err)
	}

	if got, want := cfg.DatabasePath, "/tmp/cardledger.db"; got != want {
		t.Errorf("database path got %s want %s", got, want)
	}
	if got, want := cfg.DefaultUserID, "default_user"; got != want {
		t.Errorf("default user got %s want %s", got, want)
	}
	// The exclude pattern is upper-cased on load.
	if got, want := cfg.ExcludePattern, "%SCOTIABANK%"; got != want {
		t.Errorf("exclude pattern got %s want %s", got, want)
	}
	if got, want := cfg.Web.ListenAddress, "127.0.0.1:8000"; got != want {
		t.Errorf("listen address got %s want %s", got, want)
	}
	// RecentLimit defaults when unset.
	if got, want := cfg.Web.RecentLimit, 10; got != want {
		t.Errorf("recent limit got %d want %d", got, want)
	}
	if got, want := cfg.InvestEasy.Token, "team-jwt"; got != want {
		t.Errorf("investeasy token got %s want %s", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadValidation(t *testing.T) {

	tests := []struct {
		name     string
		contents string
	}{
		{"empty", ""},
		{"no database path", "default_user_id: u\nweb:\n  listen_address: x"},
		{"no default user", "database_path: /tmp/x.db\nweb:\n  listen_address: x"},
		{"no listen address", "database_path: /tmp/x.db\ndefault_user_id: u"},
		{"negative recent limit", "database_path: /tmp/x.db\ndefault_user_id: u\nweb:\n  listen_address: x\n  recent_limit: -2"},
		{"bad yaml", "::"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.contents)); err == nil {
				t.Errorf("expected load error for %s", tt.name)
			}
		})
	}
}

func TestSecretFallbackToEnv(t *testing.T) {

	contents := `
database_path: /tmp/cardledger.db
default_user_id: default_user
web:
  listen_address: "127.0.0.1:8000"
`
	t.Setenv("INVESTEASY_TOKEN", "env-jwt")
	t.Setenv("HOMEFINDER_API_KEY", "env-key")

	cfg, err := Load(writeConfig(t, contents))
	if err != nil {
		t.Fatalf("unexpected config load error: %v", err)
	}
	if got, want := cfg.InvestEasy.Token, "env-jwt"; got != want {
		t.Errorf("investeasy token got %s want %s", got, want)
	}
	if got, want := cfg.HomeFinder.APIKey, "env-key"; got != want {
		t.Errorf("homefinder api key got %s want %s", got, want)
	}
}
