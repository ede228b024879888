package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FN_DOTENV_A=base\nFN_DOTENV_B=base\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env.staging"), []byte("FN_DOTENV_B=staging\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV", "staging")
	t.Setenv("FN_DOTENV_A", "")
	os.Unsetenv("FN_DOTENV_A")
	t.Setenv("FN_DOTENV_B", "")
	os.Unsetenv("FN_DOTENV_B")

	loaded, err := LoadDotEnv(dir)
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected two files, got %v", loaded)
	}
	if got := os.Getenv("FN_DOTENV_A"); got != "base" {
		t.Fatalf("FN_DOTENV_A = %q", got)
	}
	if got := os.Getenv("FN_DOTENV_B"); got != "staging" {
		t.Fatalf("FN_DOTENV_B = %q", got)
	}
}

func TestLoadDotEnvMissingFiles(t *testing.T) {
	t.Setenv("ENV", "prod")
	loaded, err := LoadDotEnv(t.TempDir())
	if err != nil || len(loaded) != 0 {
		t.Fatalf("expected nothing loaded, got %v %v", loaded, err)
	}
}
