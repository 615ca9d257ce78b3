// Package detector converts per-frame eye-aspect-ratio samples into a
// discrete alertness level. Escalation combines the instantaneous EAR, the
// elapsed duration of the current closure run, and a smoothed closure rate
// over a trailing window, so one noisy frame cannot toggle the level and
// recovery requires a sustained pattern of open eyes.
package detector

import "time"

type Config struct {
	// EyeClosedThreshold classifies a frame as closed when EAR falls below it.
	EyeClosedThreshold float64
	NormalEAR          float64
	NormalDuration     time.Duration
	ExtremeEAR         float64
	ExtremeDuration    time.Duration
	HistorySize        int
}

func DefaultConfig() Config {
	return Config{
		EyeClosedThreshold: 0.30,
		NormalEAR:          0.30,
		NormalDuration:     1500 * time.Millisecond,
		ExtremeEAR:         0.25,
		ExtremeDuration:    800 * time.Millisecond,
		HistorySize:        30,
	}
}

type Detector struct {
	cfg     Config
	history *History
	level   Level

	// current closure episode: zero start time means none active
	episodeStart time.Time
	closedFrames int

	now func() time.Time
}

func New(cfg Config) *Detector {
	return &Detector{
		cfg:     cfg,
		history: NewHistory(cfg.HistorySize),
		now:     time.Now,
	}
}

func (d *Detector) Level() Level { return d.level }

// ClosurePct exposes the trailing-window closure rate for status logging.
func (d *Detector) ClosurePct() float64 { return d.history.ClosurePct() }

// Detect consumes one EAR sample and returns the updated level. Called
// exactly once per frame.
func (d *Detector) Detect(ear float64) Level {
	closed := ear < d.cfg.EyeClosedThreshold
	d.history.Push(closed)
	pct := d.history.ClosurePct()

	if closed {
		d.closedFrames++
		if d.episodeStart.IsZero() {
			d.episodeStart = d.now()
		}
		duration := d.now().Sub(d.episodeStart)

		switch {
		case (ear <= d.cfg.ExtremeEAR && duration >= d.cfg.ExtremeDuration) || pct > 70:
			d.level = Extreme
		case (ear <= d.cfg.NormalEAR && duration >= d.cfg.NormalDuration) || pct > 50:
			d.level = Normal
		}
		// Neither gate met: keep the current level. Flapping on borderline
		// frames would restart alerts mid-dialogue.
	} else {
		switch {
		case pct > 40:
			// Recent closure pattern still concerning; one open frame must
			// not stop an active alert.
		case pct > 20:
			if d.level == Extreme {
				d.level = Normal
			}
		default:
			d.closedFrames = 0
			d.episodeStart = time.Time{}
			d.level = Awake
		}
	}

	return d.level
}
