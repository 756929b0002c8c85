package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/brynix/brynixbot/internal/config"
	"github.com/brynix/brynixbot/internal/drive"
	"github.com/brynix/brynixbot/internal/links"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader(cmd, "🏷️ BRYNIX Bot Version")
		fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and runtime status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printHeader(cmd, "📊 BRYNIX Bot Status")
	fmt.Fprintf(out, "Version:  %s\n", version)

	if path, err := config.ConfigPath(); err == nil {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(out, "Config:   ✓ Found (%s)\n", path)
		} else {
			fmt.Fprintln(out, "Config:   - Environment only")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "Config:   ✗ %v\n", err)
		return err
	}

	check(out, "OpenAI:  ", cfg.OpenAI.APIKey != "", "API key set", "OPENAI_API_KEY missing, replies use the fallback text")
	check(out, "Sheets:  ", cfg.Google.ServiceAccountJSON != "", "service account set", "GOOGLE_SA_JSON missing")
	driveCfg := driveOAuth(cfg)
	if missing := driveCfg.Missing(); len(missing) == 0 {
		fmt.Fprintln(out, "Drive:    ✓ OAuth configured")
	} else {
		fmt.Fprintf(out, "Drive:    ✗ missing %v\n", missing)
	}
	check(out, "Alerts:  ", cfg.Alerts.WebhookURL != "" || cfg.Alerts.SlackWebhook != "", "configured", "no webhook configured")
	check(out, "Kafka:   ", cfg.Kafka.Enabled(), cfg.Kafka.Topic+" @ "+cfg.Kafka.Brokers, "disabled")

	if _, err := os.Stat(cfg.WhatsApp.SessionPath); err == nil {
		fmt.Fprintf(out, "Session:  ✓ %s\n", cfg.WhatsApp.SessionPath)
	} else {
		fmt.Fprintln(out, "Session:  ✗ Not paired yet (run 'brynixbot serve' and scan the QR)")
	}

	if kv, closeKV, err := links.Open(cfg.Storage.LinksBackend, cfg.Storage.SQLiteDriver, cfg.Storage.LinksPath); err == nil {
		all, err := links.NewRegistry(kv).Links(cmd.Context())
		closeKV()
		if err == nil {
			fmt.Fprintf(out, "Links:    %d group(s) (%s)\n", len(all), cfg.Storage.LinksBackend)
		}
	} else {
		fmt.Fprintf(out, "Links:    ✗ %v\n", err)
	}

	if state, err := gatewayStatus(cmd.Context(), cfg.Gateway.Port); err == nil {
		fmt.Fprintf(out, "Gateway:  ✓ running, whatsapp=%s\n", state)
	} else {
		fmt.Fprintln(out, "Gateway:  - not running")
	}
	return nil
}

func check(out io.Writer, label string, ok bool, good, bad string) {
	if ok {
		fmt.Fprintf(out, "%s ✓ %s\n", label, good)
		return
	}
	fmt.Fprintf(out, "%s ✗ %s\n", label, bad)
}

func driveOAuth(cfg *config.Config) drive.OAuthConfig {
	return drive.OAuthConfig{
		ClientID:     cfg.Drive.ClientID,
		ClientSecret: cfg.Drive.ClientSecret,
		RefreshToken: cfg.Drive.RefreshToken,
		RedirectURL:  cfg.Drive.RedirectURL,
		RootFolderID: cfg.Drive.RootFolderID,
	}
}

// gatewayStatus asks a local serve process for its WhatsApp state.
func gatewayStatus(ctx context.Context, port int) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://127.0.0.1:%d/wa-status", port), nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.Status, nil
}
