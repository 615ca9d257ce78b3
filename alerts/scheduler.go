// Package alerts coordinates alarm playback with the voice-response
// dialogue. A Scheduler owns the alert state flags and the fixed mixer
// channels; a Monitor runs the background worker that listens for the
// driver's reply and clears alerts when the verifier is convinced.
package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vigil/audio"
	"vigil/detector"
	"vigil/listener"
	"vigil/log"
	"vigil/mixer"
	"vigil/tts"
	"vigil/verifier"
)

// successMessage is spoken when the verifier is convinced but provided no
// message of its own.
const successMessage = "Great! You're awake now. Stay alert."

type Config struct {
	// NormalMessage and ExtremeMessage are synthesized once at startup.
	NormalMessage  string
	ExtremeMessage string
	// ReAlertInterval replays the normal alert while the state stays
	// NORMAL and the channel has gone quiet. Zero disables re-alerting.
	ReAlertInterval time.Duration
}

// Scheduler arbitrates which alert plays. All state transitions happen under
// one mutex: a normal alert never starts while an extreme one is active, an
// extreme alert pre-empts a normal one, and nothing starts or stops alerts
// while a verification dialogue is in flight.
type Scheduler struct {
	mix     mixer.Mixer
	synth   tts.Synthesizer
	msgs    *MessageLog
	monitor *Monitor

	normalSound  *audio.Sound
	extremeSound *audio.Sound
	cfg          Config

	mu             sync.Mutex
	normalActive   bool
	extremeActive  bool
	dialogueActive bool
	// extremePlayed tracks whether the current extreme episode has sounded
	// yet; an escalation during a dialogue defers playback to the worker.
	extremePlayed  bool
	lastNormalPlay time.Time

	now func() time.Time
}

func NewScheduler(mix mixer.Mixer, synth tts.Synthesizer, lst listener.Listener, ver verifier.Verifier, cfg Config) (*Scheduler, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	normalSound, err := synth.Synthesize(ctx, cfg.NormalMessage)
	if err != nil {
		return nil, fmt.Errorf("synthesize normal alert: %w", err)
	}
	extremeSound, err := synth.Synthesize(ctx, cfg.ExtremeMessage)
	if err != nil {
		return nil, fmt.Errorf("synthesize extreme alert: %w", err)
	}

	s := &Scheduler{
		mix:          mix,
		synth:        synth,
		msgs:         NewMessageLog(),
		normalSound:  normalSound,
		extremeSound: extremeSound,
		cfg:          cfg,
		now:          time.Now,
	}
	s.monitor = newMonitor(s, lst, ver, NewEchoFilter(s.msgs))
	return s, nil
}

// Update applies one classified frame. It is called from the frame loop and
// never blocks on playback or dialogue.
func (s *Scheduler) Update(level detector.Level) {
	switch level {
	case detector.Extreme:
		s.escalateExtreme()
	case detector.Normal:
		s.escalateNormal()
	default:
		s.calmDown()
	}
}

func (s *Scheduler) escalateNormal() {
	s.mu.Lock()
	if s.normalActive {
		// Re-nudge a driver who stays in NORMAL without answering.
		if s.cfg.ReAlertInterval > 0 &&
			s.now().Sub(s.lastNormalPlay) >= s.cfg.ReAlertInterval &&
			!s.mix.Channel(mixer.Normal).IsBusy() {
			s.mix.Channel(mixer.Normal).Play(s.normalSound, false)
			s.lastNormalPlay = s.now()
			log.AlertStart(string(mixer.Normal), false)
		}
		s.mu.Unlock()
		return
	}
	if s.extremeActive || s.dialogueActive {
		s.mu.Unlock()
		return
	}
	s.normalActive = true
	s.lastNormalPlay = s.now()
	s.msgs.Append(s.cfg.NormalMessage)
	s.mix.Channel(mixer.Normal).Play(s.normalSound, false)
	log.AlertStart(string(mixer.Normal), false)
	s.mu.Unlock()

	s.monitor.Start()
}

func (s *Scheduler) escalateExtreme() {
	s.mu.Lock()
	if s.normalActive {
		// Extreme pre-empts: silence the milder alarm first.
		s.mix.Channel(mixer.Normal).Stop()
		s.normalActive = false
		log.AlertStop(string(mixer.Normal))
	}
	if s.extremeActive {
		s.mu.Unlock()
		return
	}
	if s.dialogueActive {
		// A dialogue from the normal alert is mid-flight; nothing
		// interrupts it. Latch the severity so the dialogue argues at the
		// right level; the worker plays the sound between rounds.
		s.extremeActive = true
		s.mu.Unlock()
		return
	}
	s.extremeActive = true
	s.extremePlayed = true
	s.msgs.Append(s.cfg.ExtremeMessage)
	s.mix.Channel(mixer.Extreme).Play(s.extremeSound, false)
	log.AlertStart(string(mixer.Extreme), false)
	s.mu.Unlock()

	s.monitor.Start()
}

// playPendingAlert sounds an extreme alert that was latched while a dialogue
// round was in flight. Called by the dialogue worker between rounds, when
// the channels are idle; reports whether anything was played.
func (s *Scheduler) playPendingAlert() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.extremeActive || s.extremePlayed {
		return false
	}
	s.extremePlayed = true
	s.msgs.Append(s.cfg.ExtremeMessage)
	s.mix.Channel(mixer.Extreme).Play(s.extremeSound, false)
	log.AlertStart(string(mixer.Extreme), false)
	return true
}

func (s *Scheduler) calmDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.normalActive {
		s.mix.Channel(mixer.Normal).Stop()
		s.normalActive = false
		log.AlertStop(string(mixer.Normal))
	}
	if s.extremeActive {
		s.mix.Channel(mixer.Extreme).Stop()
		s.extremeActive = false
		s.extremePlayed = false
		log.AlertStop(string(mixer.Extreme))
	}
	// An in-flight dialogue is left alone; its worker notices the alerts
	// are gone and winds down on its own.
}

// PlayNoFaceAlert speaks the face-missing warning once on its own channel.
// Timing (how long the face must be gone, how often to repeat) belongs to
// the frame loop; this just plays.
func (s *Scheduler) PlayNoFaceAlert(message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sound, err := s.synth.Synthesize(ctx, message)
	if err != nil {
		log.Errorf("no-face alert synthesis: %v", err)
		return
	}
	s.msgs.Append(message)
	s.mix.Channel(mixer.NoFace).Play(sound, false)
	log.AlertStart(string(mixer.NoFace), false)
}

// Active reports whether any alert is currently latched.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.normalActive || s.extremeActive
}

// DialogueActive reports whether a verification dialogue worker is alive.
func (s *Scheduler) DialogueActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialogueActive
}

// Shutdown stops the dialogue worker, silences every channel and clears all
// state. Safe to call more than once.
func (s *Scheduler) Shutdown() {
	s.monitor.Stop()
	s.mu.Lock()
	s.normalActive = false
	s.extremeActive = false
	s.extremePlayed = false
	s.mu.Unlock()
	s.mix.StopAll()
}

// beginDialogue claims the dialogue slot. Only one worker runs at a time.
func (s *Scheduler) beginDialogue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialogueActive {
		return false
	}
	s.dialogueActive = true
	return true
}

func (s *Scheduler) endDialogue() {
	s.mu.Lock()
	s.dialogueActive = false
	s.mu.Unlock()
}

// currentLevel reports the severity the dialogue should argue against.
func (s *Scheduler) currentLevel() detector.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.extremeActive:
		return detector.Extreme
	case s.normalActive:
		return detector.Normal
	default:
		return detector.Awake
	}
}

// applyConvinced clears every latched alert after a convincing reply.
func (s *Scheduler) applyConvinced() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.normalActive {
		s.mix.Channel(mixer.Normal).Stop()
		s.normalActive = false
		log.AlertStop(string(mixer.Normal))
	}
	if s.extremeActive {
		s.mix.Channel(mixer.Extreme).Stop()
		s.extremeActive = false
		s.extremePlayed = false
		log.AlertStop(string(mixer.Extreme))
	}
}

// sayReply synthesizes and plays a spoken response on the reply channel and
// remembers it for echo filtering.
func (s *Scheduler) sayReply(ctx context.Context, text string) {
	sound, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		log.Errorf("reply synthesis: %v", err)
		return
	}
	s.msgs.Append(text)
	s.mix.Channel(mixer.Reply).Play(sound, false)
}

func (s *Scheduler) mixerIdle() bool {
	return s.mix.Idle()
}

func (s *Scheduler) stopAllChannels() {
	s.mix.StopAll()
}
