package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brynix/brynixbot/internal/activity"
	"github.com/brynix/brynixbot/internal/alert"
	"github.com/brynix/brynixbot/internal/bot"
	"github.com/brynix/brynixbot/internal/config"
	"github.com/brynix/brynixbot/internal/drive"
	"github.com/brynix/brynixbot/internal/gateway"
	"github.com/brynix/brynixbot/internal/intent"
	"github.com/brynix/brynixbot/internal/links"
	"github.com/brynix/brynixbot/internal/logging"
	"github.com/brynix/brynixbot/internal/provider"
	"github.com/brynix/brynixbot/internal/scheduler"
	"github.com/brynix/brynixbot/internal/sheets"
	"github.com/brynix/brynixbot/internal/whatsapp"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

var (
	serveQRFile  string
	serveNoSched bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to WhatsApp and serve the HTTP gateway",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveQRFile, "qr-file", "", "also write the pairing QR code to this PNG file")
	serveCmd.Flags().BoolVar(&serveNoSched, "no-scheduler", false, "disable daily and weekly digests")
}

var serveSignalNotify = signal.Notify

// app holds everything serve wires together.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	links     *links.Registry
	sheets    sheets.Reader
	journal   *activity.Journal
	speaker   provider.Speaker
	alerts    *alert.Dispatcher
	sup       *whatsapp.Supervisor
	router    *bot.Router
	scheduler *scheduler.Scheduler
	gateway   *gateway.Server
	closers   []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("shutdown")
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, closeLog, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closeLog()

	printHeader(cmd, "🤖 BRYNIX Bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	if serveNoSched {
		a.scheduler = nil
	}

	sigChan := make(chan os.Signal, 1)
	serveSignalNotify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errc := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Gateway.Port)
		if err := a.gateway.ListenAndServe(ctx, addr); err != nil {
			errc <- err
		}
	}()

	if err := a.sup.Start(ctx); err != nil {
		// The watchdog keeps retrying; a broken session store is the usual cause.
		log.Error().Err(err).Msg("whatsapp start failed")
	}
	go a.sup.RunWatchdog(ctx, cfg.WhatsApp.WatchdogInterval)
	if a.scheduler != nil {
		go func() {
			if err := a.scheduler.Run(ctx); err != nil {
				log.Error().Err(err).Msg("scheduler stopped")
			}
		}()
	}
	if serveQRFile != "" {
		go writeQRFile(ctx, a.sup, serveQRFile, log)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Gateway listening on :%d (state=%s)\n", cfg.Gateway.Port, a.sup.Status())

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errc:
		log.Error().Err(err).Msg("gateway stopped")
		cancel()
		a.sup.Stop()
		return err
	}
	cancel()
	a.sup.Stop()
	return nil
}

// buildApp wires the stores, integrations, WhatsApp supervisor, router,
// scheduler and gateway. Optional integrations that are not configured are
// left out with a warning.
func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	loc, err := time.LoadLocation(cfg.Bot.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("tz", cfg.Bot.Timezone).Msg("unknown timezone, using local time")
		loc = time.Local
	}

	kv, closeKV, err := links.Open(cfg.Storage.LinksBackend, cfg.Storage.SQLiteDriver, cfg.Storage.LinksPath)
	if err != nil {
		return nil, fmt.Errorf("open links: %w", err)
	}
	a.closers = append(a.closers, closeKV)
	a.links = links.NewRegistry(kv)

	if cfg.Google.ServiceAccountJSON != "" {
		r, err := sheets.NewGoogleReader(ctx, cfg.Google.ServiceAccountJSON)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("sheets: %w", err)
		}
		a.sheets = r
	} else {
		log.Warn().Msg("GOOGLE_SA_JSON not set, sheet commands are disabled")
	}

	var uploader drive.Uploader
	if u, err := drive.NewGoogleUploader(ctx, driveOAuth(cfg)); err == nil {
		uploader = u
	} else if errors.Is(err, drive.ErrNotConfigured) {
		log.Warn().Strs("missing", driveOAuth(cfg).Missing()).Msg("drive upload disabled")
	} else {
		a.Close()
		return nil, fmt.Errorf("drive: %w", err)
	}

	openai := provider.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model).
		WithTTSModel(cfg.OpenAI.TTSModel)
	replier := provider.NewReplyGenerator(openai, cfg.OpenAI.Model, logging.Component(log, "reply"))
	if cfg.OpenAI.APIKey != "" {
		a.speaker = openai
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, replies use the fallback text and audio is off")
	}

	var store *activity.Store
	if cfg.Storage.ActivityStore {
		store, err = activity.NewStore(cfg.Storage.SQLiteDriver, cfg.Storage.ActivityPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("activity store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
	}
	var pub activity.Publisher
	if cfg.Kafka.Enabled() {
		kp, err := activity.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, activity.KafkaAuth{
			Mechanism: cfg.Kafka.SASLMechanism,
			Username:  cfg.Kafka.Username,
			Password:  cfg.Kafka.Password,
			TLS:       cfg.Kafka.TLS,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("kafka: %w", err)
		}
		a.closers = append(a.closers, kp.Close)
		pub = kp
	}
	a.journal = activity.NewJournal(store, pub, logging.Component(log, "activity"))

	a.alerts = alert.FromConfig(logging.Component(log, "alert"), cfg.Alerts.WebhookURL, cfg.Alerts.SlackWebhook, cfg.Alerts.SlackUsername)

	factory := whatsapp.NewWhatsmeowFactory(whatsapp.WhatsmeowConfig{
		SessionPath: cfg.WhatsApp.SessionPath,
		Driver:      cfg.Storage.SQLiteDriver,
		QRTerminal:  cfg.WhatsApp.QRTerminal,
		Log:         logging.Component(log, "whatsmeow"),
	})
	a.closers = append(a.closers, factory.Close)
	a.sup = whatsapp.NewSupervisor(whatsapp.Options{
		Factory:  factory.New,
		Alerts:   a.alerts,
		Cooldown: whatsapp.NewCooldown(cfg.WhatsApp.ReinitCooldown, nil),
		Log:      logging.Component(log, "whatsapp"),
	})

	opts := bot.RouterOptions{
		Links:      a.links,
		Transport:  a.sup,
		Sheets:     a.sheets,
		Drive:      uploader,
		Replier:    replier,
		Speaker:    a.speaker,
		Journal:    a.journal,
		Alerts:     a.alerts,
		Classifier: intent.New(intent.Rules()),
		Aliases:    bot.ParseAliases(cfg.Bot.Aliases),
		Voice:      cfg.OpenAI.Voice,
		Location:   loc,
		Log:        logging.Component(log, "router"),
	}
	a.router = bot.NewRouter(opts)
	a.sup.SetHandler(a.router)

	if cfg.Scheduler.Enabled && a.sheets != nil {
		a.scheduler = scheduler.New(scheduler.Options{
			Config: scheduler.Config{
				Enabled:         true,
				TickInterval:    cfg.Scheduler.TickInterval,
				MaxConcurrent:   cfg.Scheduler.MaxConcurrent,
				LockPath:        cfg.Scheduler.LockPath,
				DefaultTimezone: cfg.Bot.Timezone,
				Voice:           cfg.OpenAI.Voice,
			},
			Links:   a.links,
			Sheets:  a.sheets,
			Sender:  a.sup,
			Speaker: a.speaker,
			Journal: a.journal,
			Log:     logging.Component(log, "scheduler"),
		})
	}

	a.gateway = gateway.New(gateway.Options{
		Conn:      a.sup,
		AuthToken: cfg.Gateway.AuthToken,
		Log:       logging.Component(log, "gateway"),
	})
	return a, nil
}

// writeQRFile mirrors the current pairing code into a PNG until ctx ends.
func writeQRFile(ctx context.Context, sup *whatsapp.Supervisor, path string, log zerolog.Logger) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	var last string
	for {
		if code := sup.QR(); code != "" && code != last {
			if err := qrcode.WriteFile(code, qrcode.Medium, 512, path); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("write qr")
			} else {
				log.Info().Str("path", path).Msg("qr code written")
				last = code
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
