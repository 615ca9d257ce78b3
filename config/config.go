// Package config loads the monitor's YAML settings and the API credentials
// from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from either a Go duration
// string ("800ms", "2s") or a bare number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs float64
	if err := value.Decode(&secs); err != nil {
		return fmt.Errorf("invalid duration %v", value.Value)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// Std returns the plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds every tunable of the monitoring session.
type Config struct {
	Detection     Detection     `yaml:"detection"`
	Drowsiness    Drowsiness    `yaml:"drowsiness"`
	Alerts        Alerts        `yaml:"alerts"`
	FaceDetection FaceDetection `yaml:"face_detection"`
	Verifier      Verifier      `yaml:"verifier"`
	Mic           Mic           `yaml:"mic"`
}

// Detection tunes the per-frame eye classification.
type Detection struct {
	// EyeClosedThreshold classifies a frame as eyes-closed when its EAR is
	// strictly below this value.
	EyeClosedThreshold float64 `yaml:"eye_aspect_ratio_threshold"`
	// HistoryFrames is the length of the rolling closure window.
	HistoryFrames int `yaml:"history_frames"`
}

// Drowsiness holds the per-severity escalation thresholds.
type Drowsiness struct {
	Normal  Severity `yaml:"normal"`
	Extreme Severity `yaml:"extreme"`
}

// Severity pairs an escalation threshold with the message spoken when the
// level is reached.
type Severity struct {
	EARThreshold      float64  `yaml:"ear_threshold"`
	DurationThreshold Duration `yaml:"duration_threshold"`
	Message           string   `yaml:"message"`
}

// Alerts tunes playback.
type Alerts struct {
	// Volume scales playback, 0.0 to 1.0.
	Volume float64 `yaml:"volume"`
	// ReAlertInterval is how often the normal alert repeats while the
	// driver stays drowsy without answering.
	ReAlertInterval Duration `yaml:"re_alert_interval"`
	// Language is the speech synthesis language code.
	Language string `yaml:"language"`
}

// FaceDetection tunes the face-missing warning.
type FaceDetection struct {
	// AlertInterval is both the grace period before the first warning and
	// the spacing between repeats.
	AlertInterval Duration `yaml:"alert_interval"`
	Message       string   `yaml:"message"`
}

// Verifier points at the chat-completion service judging voice replies.
type Verifier struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// Mic selects the capture device.
type Mic struct {
	// Device is a substring of the capture device name; empty picks the
	// system default.
	Device string `yaml:"device"`
}

const (
	// DefaultConfigFilename is looked up when no -config flag is given.
	DefaultConfigFilename = "vigil.yaml"

	// EnvAPIKey names the environment variable carrying the Groq key,
	// shared by the transcriber and the verifier.
	EnvAPIKey = "GROQ_API_KEY"
)

var errVolumeOutOfRange = errors.New("alerts.volume must be between 0.0 and 1.0")

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Detection: Detection{
			EyeClosedThreshold: 0.30,
			HistoryFrames:      30,
		},
		Drowsiness: Drowsiness{
			Normal: Severity{
				EARThreshold:      0.30,
				DurationThreshold: Duration(1500 * time.Millisecond),
				Message:           "Hey, are you awake?",
			},
			Extreme: Severity{
				EARThreshold:      0.25,
				DurationThreshold: Duration(800 * time.Millisecond),
				Message:           "Alert! Wake up now!",
			},
		},
		Alerts: Alerts{
			Volume:          0.8,
			ReAlertInterval: Duration(5 * time.Second),
			Language:        "en",
		},
		FaceDetection: FaceDetection{
			AlertInterval: Duration(10 * time.Second),
			Message:       "No face detected! Please position yourself in front of the camera.",
		},
	}
}

// Load reads the YAML file at path, fills gaps with defaults and validates.
// A missing file at the default location is not an error; explicit paths
// must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks ranges and backfills anything the file zeroed out.
func Validate(cfg *Config) error {
	if cfg.Alerts.Volume < 0 || cfg.Alerts.Volume > 1 {
		return errVolumeOutOfRange
	}

	def := Default()
	if cfg.Detection.EyeClosedThreshold <= 0 {
		cfg.Detection.EyeClosedThreshold = def.Detection.EyeClosedThreshold
	}
	if cfg.Detection.HistoryFrames <= 0 {
		cfg.Detection.HistoryFrames = def.Detection.HistoryFrames
	}
	if cfg.Drowsiness.Normal.EARThreshold <= 0 {
		cfg.Drowsiness.Normal.EARThreshold = def.Drowsiness.Normal.EARThreshold
	}
	if cfg.Drowsiness.Normal.DurationThreshold <= 0 {
		cfg.Drowsiness.Normal.DurationThreshold = def.Drowsiness.Normal.DurationThreshold
	}
	if cfg.Drowsiness.Normal.Message == "" {
		cfg.Drowsiness.Normal.Message = def.Drowsiness.Normal.Message
	}
	if cfg.Drowsiness.Extreme.EARThreshold <= 0 {
		cfg.Drowsiness.Extreme.EARThreshold = def.Drowsiness.Extreme.EARThreshold
	}
	if cfg.Drowsiness.Extreme.DurationThreshold <= 0 {
		cfg.Drowsiness.Extreme.DurationThreshold = def.Drowsiness.Extreme.DurationThreshold
	}
	if cfg.Drowsiness.Extreme.Message == "" {
		cfg.Drowsiness.Extreme.Message = def.Drowsiness.Extreme.Message
	}
	if cfg.FaceDetection.AlertInterval <= 0 {
		cfg.FaceDetection.AlertInterval = def.FaceDetection.AlertInterval
	}
	if cfg.FaceDetection.Message == "" {
		cfg.FaceDetection.Message = def.FaceDetection.Message
	}
	if cfg.Alerts.Language == "" {
		cfg.Alerts.Language = def.Alerts.Language
	}

	return nil
}

// APIKey returns the Groq credential, loading a .env file first when one
// sits next to the binary. An empty result is not fatal here; the services
// that need the key degrade on their own.
func APIKey() string {
	_ = godotenv.Load()
	return os.Getenv(EnvAPIKey)
}
