// Package config provides configuration types and loading for brynixbot.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// ConfigDir is the state directory under the user's home.
const ConfigDir = ".brynixbot"

// Config is the root configuration struct.
type Config struct {
	OpenAI    OpenAIConfig    `json:"openai"`
	WhatsApp  WhatsAppConfig  `json:"whatsapp"`
	Storage   StorageConfig   `json:"storage"`
	Google    GoogleConfig    `json:"google"`
	Drive     DriveConfig     `json:"drive"`
	Alerts    AlertsConfig    `json:"alerts"`
	Kafka     KafkaConfig     `json:"kafka"`
	Gateway   GatewayConfig   `json:"gateway"`
	Bot       BotConfig       `json:"bot"`
	Log       LogConfig       `json:"log"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Secrets   SecretsConfig   `json:"secrets"`
}

// ---------------------------------------------------------------------------
// Providers
// ---------------------------------------------------------------------------

// OpenAIConfig configures the reply generator and text-to-speech.
type OpenAIConfig struct {
	APIKey   string `json:"apiKey" envconfig:"OPENAI_API_KEY"`
	BaseURL  string `json:"baseUrl" envconfig:"OPENAI_BASE_URL"`
	Model    string `json:"model" envconfig:"AI_MODEL"`
	TTSModel string `json:"ttsModel" envconfig:"TTS_MODEL"`
	Voice    string `json:"voice" envconfig:"TTS_VOICE"`
}

// ---------------------------------------------------------------------------
// WhatsApp and storage
// ---------------------------------------------------------------------------

// WhatsAppConfig configures the WhatsApp session.
type WhatsAppConfig struct {
	SessionPath      string        `json:"sessionPath" envconfig:"WA_SESSION_PATH"`
	QRTerminal       bool          `json:"qrTerminal" envconfig:"WA_QR_TERMINAL"`
	WatchdogInterval time.Duration `json:"watchdogInterval" envconfig:"WA_WATCHDOG_INTERVAL"`
	ReinitCooldown   time.Duration `json:"reinitCooldown" envconfig:"WA_REINIT_COOLDOWN"`
}

// StorageConfig selects where links and the activity journal live.
type StorageConfig struct {
	SQLiteDriver  string `json:"sqliteDriver" envconfig:"SQLITE_DRIVER"`
	LinksBackend  string `json:"linksBackend" envconfig:"LINKS_BACKEND"`
	LinksPath     string `json:"linksPath" envconfig:"LINKS_DB_PATH"`
	ActivityPath  string `json:"activityPath" envconfig:"ACTIVITY_DB_PATH"`
	ActivityStore bool   `json:"activityStore" envconfig:"ACTIVITY_ENABLED"`
}

// ---------------------------------------------------------------------------
// Google
// ---------------------------------------------------------------------------

// GoogleConfig holds the Sheets service account, as inline JSON, base64 or a file path.
type GoogleConfig struct {
	ServiceAccountJSON string `json:"serviceAccountJson" envconfig:"GOOGLE_SA_JSON"`
}

// DriveConfig holds the Drive OAuth refresh-token credentials. Both the
// GOOGLE_OAUTH_* and the DRIVE_* names are read.
type DriveConfig struct {
	ClientID     string `json:"clientId" envconfig:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string `json:"clientSecret" envconfig:"GOOGLE_OAUTH_CLIENT_SECRET"`
	RefreshToken string `json:"refreshToken" envconfig:"GOOGLE_OAUTH_REFRESH_TOKEN"`
	RedirectURL  string `json:"redirectUrl" envconfig:"GOOGLE_OAUTH_REDIRECT_URI"`
	RootFolderID string `json:"rootFolderId" envconfig:"GOOGLE_DRIVE_ROOT_FOLDER_ID"`
}

// driveAltConfig is the DRIVE_* spelling of DriveConfig.
type driveAltConfig struct {
	ClientID     string `envconfig:"DRIVE_CLIENT_ID"`
	ClientSecret string `envconfig:"DRIVE_CLIENT_SECRET"`
	RefreshToken string `envconfig:"DRIVE_REFRESH_TOKEN"`
	RedirectURL  string `envconfig:"DRIVE_REDIRECT_URI"`
	RootFolderID string `envconfig:"DRIVE_ROOT_FOLDER_ID"`
}

// ---------------------------------------------------------------------------
// Alerts and events
// ---------------------------------------------------------------------------

// AlertsConfig configures operator notifications.
type AlertsConfig struct {
	WebhookURL    string `json:"webhookUrl" envconfig:"ALERT_WEBHOOK_URL"`
	SlackWebhook  string `json:"slackWebhook" envconfig:"SLACK_WEBHOOK_URL"`
	SlackUsername string `json:"slackUsername" envconfig:"SLACK_USERNAME"`
}

// KafkaConfig enables publishing activity entries.
type KafkaConfig struct {
	Brokers       string `json:"brokers" envconfig:"KAFKA_BROKERS"`
	Topic         string `json:"topic" envconfig:"KAFKA_TOPIC"`
	SASLMechanism string `json:"saslMechanism" envconfig:"KAFKA_SASL_MECHANISM"`
	Username      string `json:"username" envconfig:"KAFKA_USERNAME"`
	Password      string `json:"password" envconfig:"KAFKA_PASSWORD"`
	TLS           bool   `json:"tls" envconfig:"KAFKA_TLS"`
}

// Enabled reports whether both brokers and topic are set.
func (k KafkaConfig) Enabled() bool { return k.Brokers != "" && k.Topic != "" }

// ---------------------------------------------------------------------------
// Gateway, bot and logging
// ---------------------------------------------------------------------------

// GatewayConfig configures the HTTP surface.
type GatewayConfig struct {
	Port      int    `json:"port" envconfig:"PORT"`
	AuthToken string `json:"authToken" envconfig:"GATEWAY_AUTH_TOKEN"`
}

// BotConfig configures the router.
type BotConfig struct {
	Aliases  string `json:"aliases" envconfig:"BOT_ALIASES"`
	Timezone string `json:"timezone" envconfig:"TZ"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level string `json:"level" envconfig:"LOG_LEVEL"`
	File  string `json:"file" envconfig:"LOG_FILE"`
}

// SchedulerConfig configures the digest scheduler.
type SchedulerConfig struct {
	Enabled       bool          `json:"enabled" envconfig:"SCHEDULER_ENABLED"`
	TickInterval  time.Duration `json:"tickInterval" envconfig:"SCHEDULER_TICK"`
	MaxConcurrent int           `json:"maxConcurrent" envconfig:"SCHEDULER_MAX_CONCURRENT"`
	LockPath      string        `json:"lockPath" envconfig:"SCHEDULER_LOCK_PATH"`
}

// SecretsConfig enables the OS keyring as a fallback for credentials.
type SecretsConfig struct {
	Keyring bool   `json:"keyring" envconfig:"SECRETS_KEYRING"`
	Service string `json:"service" envconfig:"SECRETS_SERVICE"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dir := filepath.Join(home, ConfigDir)
	return &Config{
		OpenAI: OpenAIConfig{
			BaseURL:  "https://api.openai.com/v1",
			Model:    "gpt-4o-mini",
			TTSModel: "tts-1",
			Voice:    "nova",
		},
		WhatsApp: WhatsAppConfig{
			SessionPath:      filepath.Join(dir, "whatsapp.db"),
			WatchdogInterval: 60 * time.Second,
			ReinitCooldown:   30 * time.Second,
		},
		Storage: StorageConfig{
			SQLiteDriver:  "sqlite",
			LinksBackend:  "sqlite",
			LinksPath:     filepath.Join(dir, "links.db"),
			ActivityPath:  filepath.Join(dir, "activity.db"),
			ActivityStore: true,
		},
		Gateway: GatewayConfig{Port: 3000},
		Bot: BotConfig{
			Aliases:  "alice,bot",
			Timezone: "America/Sao_Paulo",
		},
		Log: LogConfig{Level: "info"},
		Alerts: AlertsConfig{
			SlackUsername: "Alice",
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			TickInterval:  30 * time.Second,
			MaxConcurrent: 4,
			LockPath:      filepath.Join(dir, "scheduler.lock"),
		},
	}
}
