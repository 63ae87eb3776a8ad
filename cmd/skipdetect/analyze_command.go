package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"skipdetect/internal/blacklist"
	"skipdetect/internal/fftool"
	"skipdetect/internal/library"
	"skipdetect/internal/queue"
	"skipdetect/internal/scheduler"
	"skipdetect/internal/segments"
	"skipdetect/internal/services"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string
	var showProgress bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a full analysis pass over the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			modes := segments.Modes()
			if modeFlag != "all" {
				mode, err := segments.ParseMode(modeFlag)
				if err != nil {
					return err
				}
				modes = []segments.Mode{mode}
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

			out := cmd.OutOrStdout()
			interactive := showProgress && isatty.IsTerminal(os.Stdout.Fd())

			summaries := make([]scheduler.Summary, 0, len(modes))
			for _, mode := range modes {
				var progress func(float64)
				if interactive {
					label := modeLabel(mode)
					progress = func(pct float64) {
						fmt.Fprintf(out, "\r%s analysis: %3.0f%%", label, pct)
					}
				}
				summary, err := sched.Run(signalCtx, mode, progress)
				if interactive {
					fmt.Fprintln(out)
				}
				switch {
				case err == nil:
					summaries = append(summaries, summary)
				case errors.Is(err, services.ErrNoWork):
					fmt.Fprintf(out, "Nothing to analyze for %s\n", modeLabel(mode))
				default:
					return err
				}
			}

			if len(summaries) > 0 {
				fmt.Fprintln(out, renderSummaryTable(summaries))
			}
			if detected := renderSegmentTable(store.All()); detected != "" {
				fmt.Fprintln(out, detected)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "all", "Analysis mode: introduction, credits, or all")
	cmd.Flags().BoolVarP(&showProgress, "progress", "p", false, "Show inline progress")
	return cmd
}

func renderSummaryTable(summaries []scheduler.Summary) string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			modeLabel(s.Mode),
			strconv.Itoa(s.Units),
			strconv.Itoa(s.QueuedItems),
			strconv.Itoa(s.Resolved),
			strconv.Itoa(s.Blacklisted),
			strconv.Itoa(s.Skipped),
		})
	}
	return renderTable(
		[]string{"Mode", "Units", "Items", "Resolved", "Blacklisted", "Skipped"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

func renderSegmentTable(all map[segments.Mode][]segments.Segment) string {
	var rows [][]string
	for _, mode := range segments.Modes() {
		for _, seg := range all[mode] {
			kind := "movie"
			if seg.IsEpisode {
				kind = "episode"
			}
			rows = append(rows, []string{
				modeLabel(mode),
				seg.ItemID.String(),
				kind,
				formatTimestamp(seg.Start),
				formatTimestamp(seg.End),
			})
		}
	}
	if len(rows) == 0 {
		return ""
	}
	return renderTable(
		[]string{"Mode", "Item", "Type", "Start", "End"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}

func formatTimestamp(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
