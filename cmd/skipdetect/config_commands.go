package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"skipdetect/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:         "config",
		Short:       "Configuration utilities",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = config.DefaultConfigPath()
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				expanded = target
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", expanded)
			fmt.Fprintln(out, "Edit the file to set jellyfin.url and jellyfin.api_key before analyzing.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath())
			fmt.Fprintf(out, "State directory: %s\n", cfg.StateDir)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadOrDefault()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"state_dir", cfg.StateDir},
				{"log_level", cfg.LogLevel},
				{"log_format", cfg.LogFormat},
				{"jellyfin.url", cfg.Jellyfin.URL},
				{"analysis.libraries", cfg.Analysis.Libraries},
				{"analysis.skipped_shows", cfg.Analysis.SkippedShows},
				{"analysis.skipped_movies", cfg.Analysis.SkippedMovies},
				{"analysis.percent", strconv.Itoa(cfg.Analysis.Percent)},
				{"analysis.length_limit_minutes", strconv.Itoa(cfg.Analysis.LengthLimitMinutes)},
				{"analysis.min_segment_seconds", strconv.Itoa(cfg.Analysis.MinSegmentSeconds)},
				{"analysis.max_parallelism", strconv.Itoa(cfg.Analysis.MaxParallelism)},
				{"analysis.episode_credits_minutes", strconv.Itoa(cfg.Analysis.EpisodeCreditsMinutes)},
				{"analysis.movie_credits_minutes", strconv.Itoa(cfg.Analysis.MovieCreditsMinutes)},
				{"analysis.analyze_season_zero", yesNo(cfg.Analysis.AnalyzeSeasonZero)},
				{"blacklist.enabled", yesNo(cfg.Blacklist.Enabled)},
				{"tools.ffmpeg", cfg.Tools.FFmpeg},
				{"tools.ffprobe", cfg.Tools.FFprobe},
				{"daemon.schedule", cfg.Daemon.Schedule},
				{"daemon.listen", cfg.Daemon.Listen},
				{"daemon.debounce_seconds", strconv.Itoa(cfg.Daemon.DebounceSeconds)},
				{"daemon.run_on_library_change", yesNo(cfg.Daemon.RunOnLibraryChange)},
				{"daemon.run_after_library_scan", yesNo(cfg.Daemon.RunAfterLibraryScan)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Setting", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}
