package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"skipdetect/internal/deps"
	"skipdetect/internal/fftool"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "deps",
		Short:       "Check that required external tools are installed",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadOrDefault()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))

			// An ffmpeg binary without the chromaprint muxer cannot
			// fingerprint anything; surface that as its own row.
			tool := fftool.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)
			muxer := deps.Status{
				Name:        "Chromaprint muxer",
				Command:     cfg.Tools.FFmpeg,
				Description: "FFmpeg build flag required for fingerprinting",
				Available:   true,
			}
			if err := tool.CheckAvailable(cmd.Context()); err != nil {
				muxer.Available = false
				muxer.Detail = err.Error()
			}
			statuses = append(statuses, muxer)

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = "missing"
				}
				rows = append(rows, []string{
					status.Name,
					status.Command,
					state,
					status.Detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Dependency", "Command", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			if !deps.AllAvailable(statuses) {
				return errors.New("one or more required dependencies are missing")
			}
			return nil
		},
	}
}
