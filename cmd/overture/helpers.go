package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/germanamz/overture/pkg/host"
	"github.com/joho/godotenv"
)

// loadDotEnv loads environment variables from the given .env file so that
// ${VAR} references in the config expand. A missing file is not an error; any
// other read failure is.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("load env file %s: %w", path, err)
	}

	return nil
}

// resolveConfigPath picks the config file to load: the explicit flag wins,
// then overture.yaml in the working directory. An empty result means run on
// built-in defaults.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if _, err := os.Stat(host.DefaultConfigPath); err == nil {
		return host.DefaultConfigPath
	}

	return ""
}
