// Package log is the session log: zerolog through a console writer to
// stderr, and additionally to a session file when a log directory is
// configured.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.Mutex
	logFile *os.File
	logger  = newLogger(os.Stderr)
)

func newLogger(w io.Writer) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	return zerolog.New(console).With().Timestamp().Int("pid", os.Getpid()).Logger()
}

// Init adds a session log file under dir, alongside stderr.
func Init(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(dir, "session_log.txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logger = newLogger(io.MultiWriter(os.Stderr, f))
	return nil
}

func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
		logger = newLogger(os.Stderr)
	}
}

func get() *zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	l := logger
	return &l
}

func Info(msg string) { get().Info().Msg(msg) }

func Warn(msg string) { get().Warn().Msg(msg) }

func Warnf(format string, args ...any) { get().Warn().Msg(fmt.Sprintf(format, args...)) }

func Errorf(format string, args ...any) { get().Error().Msg(fmt.Sprintf(format, args...)) }

func SessionStart(transcriber, device string) {
	get().Info().
		Str("transcriber", transcriber).
		Str("device", device).
		Msg("session_start")
}

func SessionEnd(frames uint64) {
	get().Info().Uint64("frames", frames).Msg("session_end")
}

func LevelChange(level string, ear, closurePct float64) {
	get().Info().
		Str("level", level).
		Float64("ear", ear).
		Float64("closure_pct", closurePct).
		Msg("level_change")
}

func AlertStart(purpose string, loop bool) {
	get().Info().Str("channel", purpose).Bool("loop", loop).Msg("alert_start")
}

func AlertStop(purpose string) {
	get().Info().Str("channel", purpose).Msg("alert_stop")
}

func DialogueStart() { get().Info().Msg("dialogue_start") }

func DialogueEnd(convinced bool) {
	get().Info().Bool("convinced", convinced).Msg("dialogue_end")
}

func Transcript(text string) {
	get().Info().Str("text", text).Msg("transcript")
}

func EchoRejected(text string) {
	get().Info().Str("text", text).Msg("echo_rejected")
}

func VerdictApplied(convinced bool, message string) {
	get().Info().Bool("convinced", convinced).Str("message", message).Msg("verdict")
}

func NoFaceAlert(missing time.Duration) {
	get().Warn().Float64("missing_s", missing.Seconds()).Msg("no_face_alert")
}
