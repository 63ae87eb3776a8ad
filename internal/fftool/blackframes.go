package fftool

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"skipdetect/internal/services"
)

// blackdetect tuning: a run must be at least this long and this dark to
// count as a credits transition.
const (
	blackMinDuration  = 0.5
	blackPixThreshold = 0.10
)

var blackStartPattern = regexp.MustCompile(`black_start:([0-9]+(?:\.[0-9]+)?)`)

// BlackFrames scans the window [start, start+length) for sustained black
// frames and returns the absolute start offset of each run, in seconds.
func (t *Tool) BlackFrames(ctx context.Context, path string, start, length float64) ([]float64, error) {
	if length <= 0 {
		return nil, services.Wrap(services.ErrFingerprint, "fftool", "blackframes",
			fmt.Sprintf("non-positive window length %.2f for %s", length, path), nil)
	}

	filter := fmt.Sprintf("blackdetect=d=%.2f:pix_th=%.2f", blackMinDuration, blackPixThreshold)
	args := []string{
		"-hide_banner", "-nostats",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-i", path,
		"-vf", filter,
		"-an",
		"-f", "null", "-",
	}
	_, stderr, err := t.runFFmpeg(ctx, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrFingerprint, "fftool", "blackframes",
			fmt.Sprintf("%s: %s", path, lastLine(stderr)), err)
	}

	// blackdetect reports offsets relative to the seeked output; translate
	// back onto the file's own timeline.
	return parseBlackStarts(string(stderr), start), nil
}

func parseBlackStarts(stderr string, windowStart float64) []float64 {
	matches := blackStartPattern.FindAllStringSubmatch(stderr, -1)
	starts := make([]float64, 0, len(matches))
	for _, match := range matches {
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		starts = append(starts, windowStart+value)
	}
	return starts
}

func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
