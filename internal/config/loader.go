package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/brynix/brynixbot/internal/secrets"
)

// EnvPrefix is the optional prefix for every variable, e.g.
// BRYNIX_OPENAI_API_KEY. The bare names are read as a fallback.
const EnvPrefix = "BRYNIX"

// ConfigFile is the optional JSON config file name under ConfigDir.
const ConfigFile = "config.json"

// ConfigPath returns the path to the optional JSON config file.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("BRYNIX_CONFIG")); explicit != "" {
		return expandHome(explicit), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// Load builds the configuration.
// Priority: environment (including env files) > JSON file > keyring > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	LoadEnvFileCandidates()

	if path, err := ConfigPath(); err == nil {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.Secrets.Keyring {
		if _, err := secrets.Fill(secrets.NewKeyring(cfg.Secrets.Service), SecretTargets(cfg)); err != nil {
			return nil, err
		}
	}

	for _, p := range []*string{
		&cfg.WhatsApp.SessionPath,
		&cfg.Storage.LinksPath,
		&cfg.Storage.ActivityPath,
		&cfg.Scheduler.LockPath,
		&cfg.Log.File,
	} {
		*p = expandHome(strings.TrimSpace(*p))
	}
	cfg.OpenAI.BaseURL = strings.TrimRight(cfg.OpenAI.BaseURL, "/")
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	sections := []struct {
		name string
		spec any
	}{
		{"openai", &cfg.OpenAI},
		{"whatsapp", &cfg.WhatsApp},
		{"storage", &cfg.Storage},
		{"google", &cfg.Google},
		{"drive", &cfg.Drive},
		{"alerts", &cfg.Alerts},
		{"kafka", &cfg.Kafka},
		{"gateway", &cfg.Gateway},
		{"bot", &cfg.Bot},
		{"log", &cfg.Log},
		{"scheduler", &cfg.Scheduler},
		{"secrets", &cfg.Secrets},
	}
	for _, s := range sections {
		if err := envconfig.Process(EnvPrefix, s.spec); err != nil {
			return fmt.Errorf("config %s: %w", s.name, err)
		}
	}

	var alt driveAltConfig
	if err := envconfig.Process(EnvPrefix, &alt); err != nil {
		return fmt.Errorf("config drive: %w", err)
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&cfg.Drive.ClientID, alt.ClientID)
	fill(&cfg.Drive.ClientSecret, alt.ClientSecret)
	fill(&cfg.Drive.RefreshToken, alt.RefreshToken)
	fill(&cfg.Drive.RedirectURL, alt.RedirectURL)
	fill(&cfg.Drive.RootFolderID, alt.RootFolderID)
	return nil
}

// SecretTargets maps keyring names to the fields they fill.
func SecretTargets(cfg *Config) map[string]*string {
	return map[string]*string{
		"OPENAI_API_KEY":             &cfg.OpenAI.APIKey,
		"GOOGLE_SA_JSON":             &cfg.Google.ServiceAccountJSON,
		"GOOGLE_OAUTH_CLIENT_SECRET": &cfg.Drive.ClientSecret,
		"GOOGLE_OAUTH_REFRESH_TOKEN": &cfg.Drive.RefreshToken,
		"GATEWAY_AUTH_TOKEN":         &cfg.Gateway.AuthToken,
		"SLACK_WEBHOOK_URL":          &cfg.Alerts.SlackWebhook,
		"KAFKA_PASSWORD":             &cfg.Kafka.Password,
	}
}

// Save writes cfg to the JSON config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
