// Package sqlitepath finds the SQLite brain database when none is configured.
package sqlitepath

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/parley/pkg/dotdir"
)

const dbName = "parley.db"

// ResolveSQLitePath returns override when set, then PARLEY_SQLITE, then the
// first existing candidate database. When none exists it returns a path
// inside the resolved .parley/ directory so a new database can be created.
func ResolveSQLitePath(override, configDir string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("PARLEY_SQLITE")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(target, dbName), nil
}

func sqliteCandidates() []string {
	candidates := []string{
		dbName,
		filepath.Join(".parley", dbName),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".parley", dbName))
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append(candidates, filepath.Join(xdgHome, "parley", dbName))
	}

	return candidates
}
