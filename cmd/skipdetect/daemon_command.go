package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"skipdetect/internal/blacklist"
	"skipdetect/internal/fftool"
	"skipdetect/internal/library"
	"skipdetect/internal/logging"
	"skipdetect/internal/notify"
	"skipdetect/internal/queue"
	"skipdetect/internal/scheduler"
	"skipdetect/internal/segments"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled analysis passes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockFilePath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire instance lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another skipdetect instance holds %s", cfg.LockFilePath())
			}
			defer lock.Unlock() //nolint:errcheck

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			tool := fftool.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)
			index := library.NewJellyfinIndex(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, nil)
			bl, err := blacklist.Open(cfg.BlacklistDBPath(), cfg.Blacklist.Enabled)
			if err != nil {
				return err
			}
			defer bl.Close() //nolint:errcheck

			store := segments.NewMemoryStore()
			builder := queue.NewBuilder(cfg, index, tool, logger)
			sched := scheduler.New(cfg, builder, tool, store, bl, logger)
			debounce := time.Duration(cfg.Daemon.DebounceSeconds) * time.Second
			runner := scheduler.NewRunner(sched, store, bl, debounce, logger)

			schedule := cron.New()
			if _, err := schedule.AddFunc(cfg.Daemon.Schedule, func() {
				logger.Info("scheduled analysis pass due",
					logging.String("schedule", cfg.Daemon.Schedule))
				runner.TriggerNow(signalCtx)
			}); err != nil {
				return fmt.Errorf("parse daemon schedule %q: %w", cfg.Daemon.Schedule, err)
			}
			schedule.Start()
			defer schedule.Stop()

			if cfg.Daemon.Listen != "" {
				hooks := notify.New(cfg.Daemon.Listen, runner, notify.Options{
					RunOnLibraryChange:  cfg.Daemon.RunOnLibraryChange,
					RunAfterLibraryScan: cfg.Daemon.RunAfterLibraryScan,
				}, logger)
				go func() {
					if err := hooks.Start(signalCtx); err != nil {
						logger.Error("webhook listener failed", logging.Error(err))
					}
				}()
			}

			// SIGHUP forces an immediate pass, e.g. after a manual library
			// import.
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go func() {
				for range hup {
					logger.Info("received SIGHUP, triggering analysis pass")
					runner.TriggerNow(signalCtx)
				}
			}()

			logger.Info("daemon started",
				logging.String("schedule", cfg.Daemon.Schedule),
				logging.Duration("debounce", debounce))
			if runOnStart {
				runner.TriggerNow(signalCtx)
			}

			<-signalCtx.Done()
			logger.Info("daemon shutting down")
			runner.Wait()
			return nil
		},
	}

	cmd.Flags().BoolVar(&runOnStart, "run-on-start", true, "Run an analysis pass immediately on startup")
	return cmd
}
