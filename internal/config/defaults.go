package config

const (
	defaultStateDir              = "~/.local/share/skipdetect"
	defaultLogLevel              = "info"
	defaultLogFormat             = "console"
	defaultAnalysisPercent       = 30
	defaultLengthLimitMinutes    = 15
	defaultMinSegmentSeconds     = 15
	defaultMaxParallelism        = 2
	defaultEpisodeCreditsMinutes = 4
	defaultMovieCreditsMinutes   = 10
	defaultIntroChapterPattern   = `(?i)(^|\s)(intro|introduction|opening|avant|ouverture)(\s|$)`
	defaultCreditsChapterPattern = `(?i)(^|\s)(credits?|outro|end\s?credits?|abspann)(\s|$)`
	defaultDaemonSchedule        = "0 3 * * *"
	defaultDaemonListen          = "127.0.0.1:8790"
	defaultDebounceSeconds       = 300
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		StateDir:  defaultStateDir,
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
		Analysis: Analysis{
			Percent:               defaultAnalysisPercent,
			LengthLimitMinutes:    defaultLengthLimitMinutes,
			MinSegmentSeconds:     defaultMinSegmentSeconds,
			MaxParallelism:        defaultMaxParallelism,
			EpisodeCreditsMinutes: defaultEpisodeCreditsMinutes,
			MovieCreditsMinutes:   defaultMovieCreditsMinutes,
			IntroChapterPattern:   defaultIntroChapterPattern,
			CreditsChapterPattern: defaultCreditsChapterPattern,
		},
		Blacklist: Blacklist{Enabled: true},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Daemon: Daemon{
			Schedule:            defaultDaemonSchedule,
			Listen:              defaultDaemonListen,
			DebounceSeconds:     defaultDebounceSeconds,
			RunOnLibraryChange:  true,
			RunAfterLibraryScan: true,
		},
	}
}

// SettingsChangedFromDefault reports whether the user tuned the core
// analysis thresholds away from the stock values. Used for a one-time info
// log at queue-build time.
func (a Analysis) SettingsChangedFromDefault() bool {
	return a.Percent != defaultAnalysisPercent ||
		a.LengthLimitMinutes != defaultLengthLimitMinutes ||
		a.MinSegmentSeconds != defaultMinSegmentSeconds
}
