package fftool

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"skipdetect/internal/services"
)

// Chapter is one embedded chapter marker of a media file.
type Chapter struct {
	Title string
	Start float64
	End   float64
}

type ffprobeChapters struct {
	Chapters []struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Tags      struct {
			Title string `json:"title"`
		} `json:"tags"`
	} `json:"chapters"`
}

// Chapters returns the chapter marks embedded in the container, if any.
// Files without chapters yield an empty slice, not an error.
func (t *Tool) Chapters(ctx context.Context, path string) ([]Chapter, error) {
	cmd := exec.CommandContext(ctx, t.FFprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_chapters",
		path,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, services.Wrap(services.ErrFingerprint, "fftool", "chapters",
			fmt.Sprintf("%s: %s", path, strings.TrimSpace(string(output))), err)
	}
	return parseChapters(output)
}

func parseChapters(payload []byte) ([]Chapter, error) {
	var decoded ffprobeChapters
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, services.Wrap(services.ErrFingerprint, "fftool", "chapters", "parse ffprobe output", err)
	}
	chapters := make([]Chapter, 0, len(decoded.Chapters))
	for _, raw := range decoded.Chapters {
		start, err := strconv.ParseFloat(raw.StartTime, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseFloat(raw.EndTime, 64)
		if err != nil {
			continue
		}
		chapters = append(chapters, Chapter{
			Title: strings.TrimSpace(raw.Tags.Title),
			Start: start,
			End:   end,
		})
	}
	return chapters, nil
}
