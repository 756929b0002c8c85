package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brynix/brynixbot/internal/config"
	"github.com/brynix/brynixbot/internal/scheduler"
	"github.com/brynix/brynixbot/internal/sheets"
	"github.com/brynix/brynixbot/internal/tasks"
	"github.com/spf13/cobra"
)

var sheetsCheckCmd = &cobra.Command{
	Use:   "sheets-check <sheet-url-or-id>",
	Short: "Read a project sheet and print what the bot would see",
	Args:  cobra.ExactArgs(1),
	RunE:  runSheetsCheck,
}

// newSheetsReader is replaced in tests.
var newSheetsReader = func(ctx context.Context, cfg *config.Config) (sheets.Reader, error) {
	if cfg.Google.ServiceAccountJSON == "" {
		return nil, errors.New("GOOGLE_SA_JSON is not set")
	}
	return sheets.NewGoogleReader(ctx, cfg.Google.ServiceAccountJSON)
}

var sheetsCheckNow = time.Now

func runSheetsCheck(cmd *cobra.Command, args []string) error {
	sheetID, err := sheets.ExtractSheetID(args[0])
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	reader, err := newSheetsReader(ctx, cfg)
	if err != nil {
		return err
	}

	meta, err := reader.ReadMeta(ctx, sheetID)
	if err != nil {
		return fmt.Errorf("read META: %w", err)
	}
	ts, err := reader.ReadTasks(ctx, sheetID)
	if err != nil {
		return fmt.Errorf("read TASKS: %w", err)
	}

	out := cmd.OutOrStdout()
	plan, warns := scheduler.PlanFromMeta(meta, "Projeto", cfg.Bot.Timezone)
	fmt.Fprintln(out, tasks.FullSummary(plan.Project, ts))
	fmt.Fprintln(out)

	now := sheetsCheckNow()
	fmt.Fprintf(out, "Timezone:     %s\n", plan.Location)
	fmt.Fprintf(out, "Next daily:   %s\n", plan.NextDaily(now).Format("Mon 02/01 15:04"))
	fmt.Fprintf(out, "Next weekly:  %s\n", plan.NextWeekly(now).Format("Mon 02/01 15:04"))
	if plan.Quiet != nil {
		fmt.Fprintf(out, "Quiet hours:  %s\n", meta.Get(scheduler.MetaQuietHours, ""))
	}
	if plan.TTS {
		fmt.Fprintln(out, "Voice digest: on")
	}
	for _, w := range warns {
		fmt.Fprintf(out, "⚠ %v\n", w)
	}
	return nil
}
