package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads dir/.env and then dir/.env.<ENV> over it. Missing files
// are skipped; variables already set in the process win over .env but not
// over .env.<ENV>. It returns the files that were loaded.
func LoadDotEnv(dir string) ([]string, error) {
	var loaded []string
	base := filepath.Join(dir, ".env")
	if err := godotenv.Load(base); err == nil {
		loaded = append(loaded, base)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return loaded, fmt.Errorf("load %s: %w", base, err)
	}

	env := strings.TrimSpace(os.Getenv("ENV"))
	if env == "" {
		return loaded, nil
	}
	overlay := filepath.Join(dir, ".env."+env)
	if err := godotenv.Overload(overlay); err == nil {
		loaded = append(loaded, overlay)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return loaded, fmt.Errorf("load %s: %w", overlay, err)
	}
	return loaded, nil
}
