// Package config provides configuration file parsing for repovault.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// DefaultEndpoint is the hosting-service API endpoint used when no
// endpoint file exists and no flag overrides it.
const DefaultEndpoint = "https://api.github.com"

// Dir returns the repovault config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/repovault if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "repovault"), nil
}

// LoadEndpoint reads the endpoint file at {dir}/endpoint and returns
// the first non-blank, non-comment line. If the file does not exist or
// holds no usable line, DefaultEndpoint is returned without an error.
func LoadEndpoint(dir string) (string, error) {
	path := filepath.Join(dir, "endpoint")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultEndpoint, nil
		}
		return DefaultEndpoint, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip blank lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, nil
	}

	if err := scanner.Err(); err != nil {
		return DefaultEndpoint, err
	}
	return DefaultEndpoint, nil
}
