package main

import (
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/lumethik/tablero/internal/app"
	"github.com/lumethik/tablero/jobs"
)

var (
	refreshEnqueue  bool
	refreshSnapshot bool
	refreshTargets  []string
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Invalidate and re-warm the data cache once",
	Long: `refresh bumps the data cache version and re-fetches every remote
source. With --enqueue the run is handed to the worker instead.`,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshEnqueue, "enqueue", false, "enqueue the refresh for the worker instead of running it")
	refreshCmd.Flags().BoolVar(&refreshSnapshot, "snapshot", false, "copy the spreadsheet into Postgres before warming")
	refreshCmd.Flags().StringSliceVarP(&refreshTargets, "target", "t", nil, "limit the refresh to these sources (directions, sheet)")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)
	payload := jobs.SourceRefreshPayload{Targets: refreshTargets, Snapshot: refreshSnapshot}

	if refreshEnqueue {
		if cfg.RedisAddr == "" {
			return errors.New("--enqueue requires REDIS_ADDR")
		}
		client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer client.Close()
		info, err := client.EnqueueSourceRefresh(ctx, payload)
		if err != nil {
			return fmt.Errorf("enqueue refresh: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s on %s\n", info.ID, info.Queue)
		return nil
	}

	providers, err := app.BuildProviders(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building providers: %w", err)
	}
	defer providers.Close()

	if err := providers.RefreshJob(logger, cfg).Run(ctx, payload); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "refresh complete")
	return nil
}
