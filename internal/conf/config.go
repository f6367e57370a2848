// Package conf loads the service's runtime settings from environment
// variables into a single typed Settings struct.
package conf

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Settings holds every tunable the transcription pipeline reads at
// request time. It is populated once by Load and never mutated after.
type Settings struct {
	Server struct {
		BindAddress string // host:port the HTTP server listens on
		APIKey      string // value required in the X-API-Key header; empty disables auth
	}

	Log struct {
		Level string // slog level name: debug, info, warn, error
		Path  string // JSON log file path, rotated with lumberjack
	}

	Engine struct {
		ModelSize    string // whisper model size: small or medium
		ArtifactsDir string // directory containing the shared libraries and model file
		LanguageHint string // default language passed to the engine when a request omits one; empty means auto
	}

	Segment struct {
		ChunkingEnabled    bool          // whether long inputs are split into chunks at all
		ChunkDuration      time.Duration // target duration of one chunk
		ChunkOverlap       time.Duration // overlap retained between consecutive chunks
		FastPathThreshold  time.Duration // inputs at or below this duration skip chunking
	}

	Timeouts struct {
		ConnectTimeout      time.Duration // dial/connect timeout for the source download
		ChunkTimeout        time.Duration // fixed per-chunk budget, not scaled by RealtimeFactor
		RealtimeFactor      float64       // multiplier applied to source duration for the overall request deadline
		MinRequestTimeout   time.Duration // floor applied to the overall request deadline
	}

	Upload struct {
		MaxSizeBytes int64  // hard cap on downloaded payload size
		TempDir      string // parent directory for per-request scratch directories
	}
}

var (
	instance *Settings
	once     sync.Once
	mu       sync.RWMutex
)

// secondsDuration reads a config key meant to hold a plain count of
// seconds (the WHISPER_*_S env var convention) and converts it to a
// time.Duration.
func secondsDuration(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetFloat64(key) * float64(time.Second))
}

// Load reads environment variables into a new Settings value via viper,
// validates it, and stores it as the process-wide instance.
func Load() (*Settings, error) {
	mu.Lock()
	defer mu.Unlock()

	v := viper.New()
	setDefaults(v)
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("binding environment variables: %w", err)
	}

	settings := &Settings{}
	settings.Server.BindAddress = v.GetString("server.bindaddress")
	settings.Server.APIKey = v.GetString("server.apikey")
	settings.Log.Level = v.GetString("log.level")
	settings.Log.Path = v.GetString("log.path")
	settings.Engine.ModelSize = v.GetString("engine.modelsize")
	settings.Engine.ArtifactsDir = v.GetString("engine.artifactsdir")
	settings.Engine.LanguageHint = v.GetString("engine.languagehint")
	settings.Segment.ChunkingEnabled = v.GetBool("segment.chunkingenabled")
	settings.Segment.ChunkDuration = secondsDuration(v, "segment.chunkduration")
	settings.Segment.ChunkOverlap = secondsDuration(v, "segment.chunkoverlap")
	settings.Segment.FastPathThreshold = secondsDuration(v, "segment.fastpaththreshold")
	settings.Timeouts.ConnectTimeout = secondsDuration(v, "timeouts.connecttimeout")
	settings.Timeouts.ChunkTimeout = secondsDuration(v, "timeouts.chunktimeout")
	settings.Timeouts.RealtimeFactor = v.GetFloat64("timeouts.realtimefactor")
	settings.Timeouts.MinRequestTimeout = secondsDuration(v, "timeouts.minrequesttimeout")
	settings.Upload.MaxSizeBytes = v.GetInt64("upload.maxsizemb") * 1024 * 1024
	settings.Upload.TempDir = v.GetString("upload.tempdir")

	if err := validateSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	instance = settings
	return settings, nil
}

// Setting returns the process-wide settings instance, loading it from
// the environment on first call. Exits the process via log.Fatalf if the
// environment is misconfigured, matching the teacher's startup-fatal
// treatment of unusable configuration.
func Setting() *Settings {
	once.Do(func() {
		if instance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("error loading settings: %v", err)
			}
		}
	})
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// GetSettings returns the current settings instance without triggering
// a load, or nil if Load has never been called.
func GetSettings() *Settings {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}
