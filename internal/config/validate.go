package config

import (
	"fmt"
	"regexp"
	"strings"

	"skipdetect/internal/services"
)

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.StateDir) == "" {
		problems = append(problems, "state_dir must not be empty")
	}
	if c.Analysis.Percent < 1 || c.Analysis.Percent > 100 {
		problems = append(problems, fmt.Sprintf("analysis.percent must be between 1 and 100, got %d", c.Analysis.Percent))
	}
	if c.Analysis.LengthLimitMinutes < 1 {
		problems = append(problems, fmt.Sprintf("analysis.length_limit_minutes must be positive, got %d", c.Analysis.LengthLimitMinutes))
	}
	if c.Analysis.MinSegmentSeconds < 1 {
		problems = append(problems, fmt.Sprintf("analysis.min_segment_seconds must be positive, got %d", c.Analysis.MinSegmentSeconds))
	}
	if c.Analysis.MaxParallelism < 1 {
		problems = append(problems, fmt.Sprintf("analysis.max_parallelism must be positive, got %d", c.Analysis.MaxParallelism))
	}
	if c.Analysis.EpisodeCreditsMinutes < 1 {
		problems = append(problems, fmt.Sprintf("analysis.episode_credits_minutes must be positive, got %d", c.Analysis.EpisodeCreditsMinutes))
	}
	if c.Analysis.MovieCreditsMinutes < 1 {
		problems = append(problems, fmt.Sprintf("analysis.movie_credits_minutes must be positive, got %d", c.Analysis.MovieCreditsMinutes))
	}
	if _, err := regexp.Compile(c.Analysis.IntroChapterPattern); err != nil {
		problems = append(problems, fmt.Sprintf("analysis.intro_chapter_pattern: %v", err))
	}
	if _, err := regexp.Compile(c.Analysis.CreditsChapterPattern); err != nil {
		problems = append(problems, fmt.Sprintf("analysis.credits_chapter_pattern: %v", err))
	}
	if strings.TrimSpace(c.Jellyfin.URL) == "" {
		problems = append(problems, "jellyfin.url must be set")
	}
	if strings.TrimSpace(c.Jellyfin.APIKey) == "" {
		problems = append(problems, "jellyfin.api_key must be set")
	}

	if len(problems) > 0 {
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			"invalid configuration:\n  - "+strings.Join(problems, "\n  - "), nil)
	}
	return nil
}
