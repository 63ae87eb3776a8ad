package queue

import (
	"log/slog"
	"strconv"
	"strings"

	"skipdetect/internal/logging"
)

// skipSettings is the parsed form of the user's skip-list configuration.
type skipSettings struct {
	libraries []string
	// shows maps a series name to the skipped season numbers. An empty
	// slice skips the whole series.
	shows  map[string][]int
	movies []string
}

func parseSkipSettings(libraries, shows, movies string, logger *slog.Logger) skipSettings {
	settings := skipSettings{
		libraries: splitTrimmed(libraries),
		movies:    splitTrimmed(movies),
		shows:     make(map[string][]int),
	}

	for _, entry := range splitTrimmed(shows) {
		if !strings.Contains(entry, ";") {
			settings.shows[entry] = nil
			continue
		}
		parts := splitOn(entry, ';')
		if len(parts) == 0 {
			continue
		}
		name := parts[0]
		var seasons []int
		for _, suffix := range parts[1:] {
			number := strings.TrimPrefix(strings.ToUpper(suffix), "S")
			season, err := strconv.Atoi(number)
			if err != nil {
				logger.Error("failed to parse season number in skip list, fix your config",
					logging.String("series", name),
					logging.String("season", suffix),
				)
				continue
			}
			seasons = append(seasons, season)
		}
		settings.shows[name] = seasons
	}
	return settings
}

// skipShow reports whether the series/season combination is skip-listed.
func (s skipSettings) skipShow(series string, season int) bool {
	seasons, ok := s.shows[series]
	if !ok {
		return false
	}
	if len(seasons) == 0 {
		return true
	}
	for _, skipped := range seasons {
		if skipped == season {
			return true
		}
	}
	return false
}

func (s skipSettings) skipMovie(name string) bool {
	for _, skipped := range s.movies {
		if skipped == name {
			return true
		}
	}
	return false
}

// librarySelected reports whether the allow-list admits the library. An
// empty allow-list admits everything.
func (s skipSettings) librarySelected(name string) bool {
	if len(s.libraries) == 0 {
		return true
	}
	for _, selected := range s.libraries {
		if selected == name {
			return true
		}
	}
	return false
}

func splitTrimmed(value string) []string {
	return splitOn(value, ',')
}

func splitOn(value string, sep rune) []string {
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == sep }) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
