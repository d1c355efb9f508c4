package config

const (
	defaultLogDir   = "~/.local/share/subrover/logs"
	defaultCacheDir = "~/.local/share/subrover/cache"
	defaultStateDir = "~/.local/share/subrover/state"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	// Worker pool bounds. The concurrency ceiling keeps a typo from spawning
	// hundreds of interpreter processes at once.
	DefaultConcurrency = 4
	MaxConcurrency     = 100

	// Retry is disabled unless explicitly requested.
	MaxRetryAttempts = 5

	defaultRetryInterval = 2
	defaultTaskTimeout   = 600
	defaultProbeTimeout  = 20
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
			StateDir: defaultStateDir,
		},
		Subtitles: Subtitles{
			Languages:         []string{"en"},
			IgnoreExtraFolder: true,
		},
		Downloads: Downloads{
			Concurrency:        DefaultConcurrency,
			RetryInterval:      defaultRetryInterval,
			TaskTimeout:        defaultTaskTimeout,
			EmbeddedProbeLimit: defaultProbeTimeout,
		},
		Tools: Tools{
			Subliminal: "subliminal",
			FFprobe:    "ffprobe",
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
