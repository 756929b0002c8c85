package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileCandidates lists the env files Load reads, most specific first.
func EnvFileCandidates() []string {
	candidates := make([]string, 0, 4)
	if explicit := strings.TrimSpace(os.Getenv("BRYNIX_ENV_FILE")); explicit != "" {
		candidates = append(candidates, expandHome(explicit))
	}
	candidates = append(candidates, ".env")
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "brynixbot", "env"),
			filepath.Join(home, ConfigDir, "env"),
		)
	}
	return candidates
}

// LoadEnvFileCandidates loads every existing candidate. Variables already in
// the process environment are never overridden, so earlier files win.
// It returns the files that were loaded.
func LoadEnvFileCandidates() []string {
	var loaded []string
	seen := map[string]struct{}{}
	for _, p := range EnvFileCandidates() {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err == nil {
			loaded = append(loaded, abs)
		}
	}
	return loaded
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}
