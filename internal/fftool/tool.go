package fftool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"skipdetect/internal/services"
)

// BlockDuration is the length in seconds of one chromaprint fingerprint
// block as produced by ffmpeg's chromaprint muxer.
const BlockDuration = 0.1238

// Tool invokes the external media binaries. It is treated as a pure
// function of (path, window) by the rest of the pipeline.
type Tool struct {
	FFmpegPath  string
	FFprobePath string
}

// New returns a Tool using the provided binary paths, defaulting to PATH
// lookup names when empty.
func New(ffmpeg, ffprobe string) *Tool {
	if strings.TrimSpace(ffmpeg) == "" {
		ffmpeg = "ffmpeg"
	}
	if strings.TrimSpace(ffprobe) == "" {
		ffprobe = "ffprobe"
	}
	return &Tool{FFmpegPath: ffmpeg, FFprobePath: ffprobe}
}

// CheckAvailable verifies that ffmpeg and ffprobe exist and that ffmpeg was
// built with the chromaprint muxer. Failure is fatal for a run: nothing can
// be fingerprinted without it.
func (t *Tool) CheckAvailable(ctx context.Context) error {
	if _, err := exec.LookPath(t.FFmpegPath); err != nil {
		return services.Wrap(services.ErrBackendUnavailable, "fftool", "check",
			fmt.Sprintf("ffmpeg binary %q not found", t.FFmpegPath), err)
	}
	if _, err := exec.LookPath(t.FFprobePath); err != nil {
		return services.Wrap(services.ErrBackendUnavailable, "fftool", "check",
			fmt.Sprintf("ffprobe binary %q not found", t.FFprobePath), err)
	}

	cmd := exec.CommandContext(ctx, t.FFmpegPath, "-hide_banner", "-muxers")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return services.Wrap(services.ErrBackendUnavailable, "fftool", "check",
			"listing ffmpeg muxers failed", err)
	}
	if !bytes.Contains(output, []byte("chromaprint")) {
		return services.Wrap(services.ErrBackendUnavailable, "fftool", "check",
			"ffmpeg is missing chromaprint support; install a build with the chromaprint muxer enabled", nil)
	}
	return nil
}

func (t *Tool) runFFmpeg(ctx context.Context, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, t.FFmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
