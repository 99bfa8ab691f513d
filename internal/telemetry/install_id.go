// Package telemetry provides the persistent installation identifier
// reported in the health payload.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// GetOrCreateInstallID returns a persistent installation UUID stored under
// basePath (default ~/.fueltrack/install_id). It survives restarts; an
// unreadable or malformed file is replaced with a fresh id.
func GetOrCreateInstallID(basePath string) (string, error) {
	if basePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		basePath = filepath.Join(home, ".fueltrack")
	}

	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return "", fmt.Errorf("create %s: %w", basePath, err)
	}

	idPath := filepath.Join(basePath, "install_id")
	if data, err := os.ReadFile(idPath); err == nil {
		id := strings.TrimSpace(string(data))
		if _, err := uuid.Parse(id); err == nil {
			return id, nil
		}
	}

	id := uuid.New().String()
	if err := os.WriteFile(idPath, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write install id: %w", err)
	}
	return id, nil
}
