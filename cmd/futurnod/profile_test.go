package main

import (
	"path/filepath"
	"testing"

	"github.com/zubairashfaque/FuturNod-Agents/pkg/config"
)

func TestProfileRoundTripAndResolve(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FUTURNOD_CLI_DIR", dir)

	path := cliConfigPath()
	if path != filepath.Join(dir, "cli.yaml") {
		t.Fatalf("path = %s", path)
	}
	cfg, err := loadCLIConfig(path)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if resolveProfileName("", cfg) != "default" {
		t.Fatalf("expected default profile")
	}

	cfg.Profiles["staging"] = profile{BaseURL: "https://staging.example/", APIKey: "k-123456789", UserID: "alice"}
	cfg.CurrentProfile = "staging"
	if err := saveCLIConfig(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := activeProfile("")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if got.UserID != "alice" || got.APIKey != "k-123456789" {
		t.Fatalf("profile = %+v", got)
	}
	if resolveProfileName("prod", cfg) != "prod" {
		t.Fatalf("flag should win")
	}
}

func TestProfileApplyDefersToEnv(t *testing.T) {
	t.Setenv("AGENT_API_KEY", "from-env")
	t.Setenv("AGENT_API_URL", "")

	var cfg config.Config
	cfg.AgentAPI.APIKey = "from-env"
	profile{BaseURL: "https://p.example/", APIKey: "from-profile", InsecureSkipVerify: true}.apply(&cfg)

	if cfg.AgentAPI.APIKey != "from-env" {
		t.Fatalf("api key = %s", cfg.AgentAPI.APIKey)
	}
	if cfg.AgentAPI.BaseURL != "https://p.example" {
		t.Fatalf("base url = %s", cfg.AgentAPI.BaseURL)
	}
	if !cfg.AgentAPI.InsecureSkipVerify {
		t.Fatalf("insecure not applied")
	}
}

func TestMaskToken(t *testing.T) {
	cases := map[string]string{
		"":             "<unset>",
		"short":        "****",
		"abcd12345xyz": "abcd...5xyz",
	}
	for in, want := range cases {
		if got := maskToken(in); got != want {
			t.Fatalf("maskToken(%q) = %q, want %q", in, got, want)
		}
	}
}
