package alerts

import (
	"context"
	"sync"
	"time"

	"vigil/listener"
	"vigil/log"
	"vigil/verifier"
)

// Monitor runs the voice-response dialogue in a single background worker.
// The worker cycles: wait for the speakers to go quiet, capture one
// utterance, drop echoes of our own speech, and ask the verifier whether the
// driver sounds awake. A convincing reply clears the alerts and the worker
// exits; anything else loops for another round.
type Monitor struct {
	sched  *Scheduler
	listen listener.Listener
	verify verifier.Verifier
	echo   *EchoFilter

	// Overridable in tests so rounds complete in milliseconds.
	pollInterval  time.Duration
	settleDelay   time.Duration
	listenTimeout time.Duration
	phraseLimit   time.Duration
	joinTimeout   time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newMonitor(sched *Scheduler, lst listener.Listener, ver verifier.Verifier, echo *EchoFilter) *Monitor {
	return &Monitor{
		sched:         sched,
		listen:        lst,
		verify:        ver,
		echo:          echo,
		pollInterval:  100 * time.Millisecond,
		settleDelay:   500 * time.Millisecond,
		listenTimeout: 5 * time.Second,
		phraseLimit:   10 * time.Second,
		joinTimeout:   2 * time.Second,
	}
}

// Start launches the worker if none is running. It is a no-op while a
// dialogue is already in flight.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.sched.beginDialogue() {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	log.DialogueStart()
	go m.run(ctx, m.done)
}

// Stop cancels the worker and waits for it, bounded by joinTimeout. A worker
// stuck in an audio read is abandoned rather than blocking shutdown.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-time.After(m.joinTimeout):
		log.Warn("dialogue worker did not stop in time")
	}
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	convinced := false
	defer func() {
		m.sched.endDialogue()
		log.DialogueEnd(convinced)
		close(done)
	}()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		if !m.waitIdle(ctx, ticker) {
			return
		}
		if !m.sched.Active() {
			// Driver recovered, or the session is winding down. Nothing
			// left to verify.
			return
		}

		// An escalation that happened mid-round deferred its playback to
		// us. Sound it now and wait for it to finish before listening.
		if m.sched.playPendingAlert() {
			continue
		}

		// Give the room a moment to settle, then force-stop anything a
		// racing Update may have started. The microphone must not hear an
		// alarm mid-capture.
		if !sleepCtx(ctx, m.settleDelay) {
			return
		}
		m.sched.stopAllChannels()

		m.listen.Calibrate(ctx)
		text, err := m.listen.Listen(ctx, m.listenTimeout, m.phraseLimit)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			// Timeout or an unreachable transcriber. No reply yet, keep
			// the alert sounding and try again.
			continue
		}
		log.Transcript(text)
		if m.echo.IsEcho(text) {
			log.EchoRejected(text)
			continue
		}

		verdict := m.verify.Verify(ctx, text, m.sched.currentLevel())
		if ctx.Err() != nil {
			return
		}
		log.VerdictApplied(verdict.Convinced, verdict.Message)
		if verdict.Convinced {
			m.sched.applyConvinced()
			msg := verdict.Message
			if msg == "" {
				msg = successMessage
			}
			m.sched.sayReply(ctx, msg)
			convinced = true
			return
		}
		if verdict.Message != "" {
			m.sched.sayReply(ctx, verdict.Message)
		}
	}
}

// waitIdle blocks until every mixer channel has finished playing. Returns
// false when the context is cancelled first.
func (m *Monitor) waitIdle(ctx context.Context, ticker *time.Ticker) bool {
	for {
		if m.sched.mixerIdle() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
