package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zubairashfaque/FuturNod-Agents/pkg/config"
)

type profile struct {
	BaseURL            string `yaml:"baseUrl"`
	APIKey             string `yaml:"apiKey"`
	UserID             string `yaml:"userId"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify,omitempty"`
	HistoryProvider    string `yaml:"historyProvider,omitempty"`
	RedisAddr          string `yaml:"redisAddr,omitempty"`
	ReportsDir         string `yaml:"reportsDir,omitempty"`
}

type cliConfig struct {
	CurrentProfile string             `yaml:"currentProfile"`
	Profiles       map[string]profile `yaml:"profiles"`
}

// apply fills cfg from the profile wherever no environment variable has
// already set the value.
func (p profile) apply(cfg *config.Config) {
	set := func(env, v string, dst *string) {
		if v != "" && strings.TrimSpace(os.Getenv(env)) == "" {
			*dst = v
		}
	}
	set("AGENT_API_URL", strings.TrimRight(p.BaseURL, "/"), &cfg.AgentAPI.BaseURL)
	set("AGENT_API_KEY", p.APIKey, &cfg.AgentAPI.APIKey)
	set("HISTORY_PROVIDER", p.HistoryProvider, &cfg.History.Provider)
	set("REDIS_ADDR", p.RedisAddr, &cfg.History.RedisAddr)
	set("REPORTS_DIR", p.ReportsDir, &cfg.ReportsDir)
	if p.InsecureSkipVerify {
		cfg.AgentAPI.InsecureSkipVerify = true
	}
}

func cliConfigPath() string {
	if v := strings.TrimSpace(os.Getenv("FUTURNOD_CLI_DIR")); v != "" {
		return filepath.Join(v, "cli.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./cli.yaml"
	}
	return filepath.Join(home, ".futurnod", "cli.yaml")
}

func loadCLIConfig(path string) (cliConfig, error) {
	cfg := cliConfig{Profiles: map[string]profile{}}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]profile{}
	}
	return cfg, nil
}

func saveCLIConfig(cfg cliConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func resolveProfileName(flag string, cfg cliConfig) string {
	if v := strings.TrimSpace(flag); v != "" {
		return v
	}
	if cfg.CurrentProfile != "" {
		return cfg.CurrentProfile
	}
	return "default"
}

func activeProfile(flag string) (profile, error) {
	cfg, err := loadCLIConfig(cliConfigPath())
	if err != nil {
		return profile{}, err
	}
	return cfg.Profiles[resolveProfileName(flag, cfg)], nil
}
