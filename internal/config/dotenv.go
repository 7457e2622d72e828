package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// dotEnvFiles 우선순위 순서: .env.local > .env.<APP_ENV> > .env
func dotEnvFiles(env string) []string {
	files := []string{".env.local"}
	if env != "" {
		files = append(files, ".env."+env)
	}
	return append(files, ".env")
}

// LoadDotEnv loads the .env files of the working directory for APP_ENV
func LoadDotEnv(env string) ([]string, error) {
	return LoadDotEnvFrom(".", env)
}

// LoadDotEnvFrom loads existing .env files in dir without overriding variables already set.
// Files are applied highest priority first, so the process environment always wins.
// A file that exists but cannot be parsed is an error; nothing from it is applied.
func LoadDotEnvFrom(dir, env string) ([]string, error) {
	var loaded []string
	for _, name := range dotEnvFiles(env) {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("%s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("%s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}
