package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vigil.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
detection:
  eye_aspect_ratio_threshold: 0.28
  history_frames: 45
drowsiness:
  normal:
    ear_threshold: 0.32
    duration_threshold: 2s
    message: "You seem tired"
  extreme:
    ear_threshold: 0.22
    duration_threshold: 500ms
    message: "Pull over now"
alerts:
  volume: 0.5
  re_alert_interval: 8s
  language: de
face_detection:
  alert_interval: 15s
  message: "Where did you go"
verifier:
  endpoint: "https://example.com/v1/chat/completions"
  model: "test-model"
mic:
  device: "USB Audio"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.28, cfg.Detection.EyeClosedThreshold)
	assert.Equal(t, 45, cfg.Detection.HistoryFrames)
	assert.Equal(t, 2*time.Second, cfg.Drowsiness.Normal.DurationThreshold.Std())
	assert.Equal(t, "Pull over now", cfg.Drowsiness.Extreme.Message)
	assert.Equal(t, 0.5, cfg.Alerts.Volume)
	assert.Equal(t, "de", cfg.Alerts.Language)
	assert.Equal(t, 15*time.Second, cfg.FaceDetection.AlertInterval.Std())
	assert.Equal(t, "test-model", cfg.Verifier.Model)
	assert.Equal(t, "USB Audio", cfg.Mic.Device)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
drowsiness:
  normal:
    message: "Custom nudge"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Custom nudge", cfg.Drowsiness.Normal.Message)
	def := Default()
	assert.Equal(t, def.Drowsiness.Normal.EARThreshold, cfg.Drowsiness.Normal.EARThreshold)
	assert.Equal(t, def.Drowsiness.Extreme.Message, cfg.Drowsiness.Extreme.Message)
	assert.Equal(t, def.Alerts.Volume, cfg.Alerts.Volume)
	assert.Equal(t, def.FaceDetection.AlertInterval, cfg.FaceDetection.AlertInterval)
}

func TestDurationAcceptsBareSeconds(t *testing.T) {
	path := writeConfig(t, `
drowsiness:
  normal:
    duration_threshold: 1.5
  extreme:
    duration_threshold: 0.8
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Drowsiness.Normal.DurationThreshold.Std())
	assert.Equal(t, 800*time.Millisecond, cfg.Drowsiness.Extreme.DurationThreshold.Std())
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsBadVolume(t *testing.T) {
	path := writeConfig(t, `
alerts:
  volume: 1.5
`)
	_, err := Load(path)
	require.ErrorIs(t, err, errVolumeOutOfRange)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "drowsiness: [not: a: mapping")
	_, err := Load(path)
	require.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, Default(), cfg, "Validate must not mutate a default config")
}
