package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vigil/alerts"
	"vigil/audio"
	"vigil/config"
	"vigil/detector"
	"vigil/listener"
	"vigil/log"
	"vigil/mixer"
	"vigil/transcriber"
	"vigil/tts"
	"vigil/verifier"
	"vigil/vision"
)

var version = "dev"

func main() {
	configFlag := flag.String("config", "", "Path to YAML settings (default: ./vigil.yaml when present)")
	traceFlag := flag.String("trace", "", "Replay a recorded measurement trace instead of a live camera feed")
	fpsFlag := flag.Float64("fps", 10, "Frame rate for trace replay (0 = as fast as possible)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: stderr only)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("vigil", version)
		return
	}

	if *logPathFlag != "" {
		if err := log.Init(*logPathFlag); err != nil {
			fmt.Fprintf(os.Stderr, "log init: %v\n", err)
			os.Exit(1)
		}
	}
	defer log.Close()

	if err := run(*configFlag, *traceFlag, *fpsFlag, *deviceFlag); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(configPath, tracePath string, fps float64, deviceName string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if deviceName != "" {
		cfg.Mic.Device = deviceName
	}

	if tracePath == "" {
		return errors.New("no frame source: pass -trace with a recorded measurement file")
	}
	frames, err := vision.OpenTrace(tracePath, fps)
	if err != nil {
		return err
	}
	defer frames.Close()

	apiKey := config.APIKey()
	if apiKey == "" {
		log.Warn("GROQ_API_KEY is not set; voice verification is disabled, alerts still sound")
	}
	trans := transcriber.New()

	audioCtx, err := audio.NewContext()
	if err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	defer audioCtx.Close()

	device := audio.FindDevice(audioCtx, cfg.Mic.Device)
	capture, err := audioCtx.NewCapture(device, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	// The listener starts and stops the device around each capture attempt.
	defer capture.Close()

	mix, err := mixer.New(cfg.Alerts.Volume)
	if err != nil {
		return fmt.Errorf("mixer init: %w", err)
	}
	defer mix.Close()

	mic, err := listener.NewMic(capture, trans)
	if err != nil {
		return err
	}

	ver := verifier.NewRemote(apiKey, cfg.Verifier.Endpoint, cfg.Verifier.Model)
	synth := tts.NewGoogle(cfg.Alerts.Language)

	sched, err := alerts.NewScheduler(mix, synth, mic, ver, alerts.Config{
		NormalMessage:   cfg.Drowsiness.Normal.Message,
		ExtremeMessage:  cfg.Drowsiness.Extreme.Message,
		ReAlertInterval: cfg.Alerts.ReAlertInterval.Std(),
	})
	if err != nil {
		return err
	}
	defer sched.Shutdown()

	det := detector.New(detector.Config{
		EyeClosedThreshold: cfg.Detection.EyeClosedThreshold,
		NormalEAR:          cfg.Drowsiness.Normal.EARThreshold,
		NormalDuration:     cfg.Drowsiness.Normal.DurationThreshold.Std(),
		ExtremeEAR:         cfg.Drowsiness.Extreme.EARThreshold,
		ExtremeDuration:    cfg.Drowsiness.Extreme.DurationThreshold.Std(),
		HistorySize:        cfg.Detection.HistoryFrames,
	})

	log.SessionStart(trans.Name(), capture.DeviceName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	count, err := frameLoop(ctx, frames, det, sched, cfg.FaceDetection)
	log.SessionEnd(count)
	return err
}

// frameLoop drives the session: classify each frame, hand the level to the
// scheduler, and keep the no-face warning on its own clock.
func frameLoop(ctx context.Context, frames vision.Source, det *detector.Detector, sched *alerts.Scheduler, face config.FaceDetection) (uint64, error) {
	var count uint64
	last := detector.Awake

	// Zero while a face is visible; set to the moment it vanished.
	var faceLostAt time.Time
	var lastNoFaceAlert time.Time
	interval := face.AlertInterval.Std()

	for {
		sample, err := frames.Next(ctx)
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if errors.Is(err, context.Canceled) {
			log.Info("interrupted, shutting down")
			return count, nil
		}
		if err != nil {
			return count, err
		}
		count++

		if !sample.FaceFound {
			now := time.Now()
			if faceLostAt.IsZero() {
				faceLostAt = now
				continue
			}
			if now.Sub(faceLostAt) >= interval && now.Sub(lastNoFaceAlert) >= interval {
				log.NoFaceAlert(now.Sub(faceLostAt))
				sched.PlayNoFaceAlert(face.Message)
				lastNoFaceAlert = now
			}
			continue
		}
		faceLostAt = time.Time{}

		level := det.Detect(sample.EAR)
		if level != last {
			log.LevelChange(level.String(), sample.EAR, det.ClosurePct())
			last = level
		}
		sched.Update(level)
	}
}
