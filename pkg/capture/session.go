package capture

import (
	"errors"
	"sync"

	"github.com/framecap/capture/pkg/logger"
	"github.com/framecap/capture/pkg/monitoring"
	"github.com/hashicorp/go-multierror"
)

// Encoder turns a sequence of frames into a persisted artifact.
// An encoder is exclusively owned by the session worker after it has
// been passed to Start, so implementations need no internal locking.
type Encoder interface {
	// Encode consumes one frame and may block on I/O.
	// Frames arrive strictly in submission order.
	Encode(Frame) error
	// Finish flushes buffers, writes any container trailer and
	// releases the sink. It runs exactly once, after the last
	// Encode. Implementations absorb failures since no caller
	// remains to handle them.
	Finish()
}

type State uint8

const (
	Idle State = iota
	Capturing
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Stopping:
		return "stopping"
	}
	return "unknown"
}

var (
	ErrAlreadyCapturing = errors.New("capture: the session is already capturing")
	ErrNoEncoder        = errors.New("capture: no encoder given")
)

const DefaultQueue = 64

// Session is the per-target capture state machine. It owns the
// producer end of the frame hand-off queue; a dedicated worker
// goroutine owns the consumer end together with the encoders.
//
// Frame submission never blocks the host: when the queue is full the
// incoming frame is dropped (drop-newest) and accounted for.
type Session struct {
	mu     sync.Mutex
	state  State
	paused bool
	frames chan Frame
	done   chan struct{}

	queue int
	id    Uid
	log   *logger.Logger

	submitted uint64
	dropped   uint64
	encoded   uint64

	emu  sync.Mutex
	errs *multierror.Error
}

type Options struct {
	// Queue is the hand-off queue capacity, DefaultQueue when 0.
	Queue int
}

func NewSession(log *logger.Logger, opts Options) *Session {
	queue := opts.Queue
	if queue <= 0 {
		queue = DefaultQueue
	}
	id := NewUid()
	return &Session{
		queue: queue,
		id:    id,
		log:   log.Extend(log.With().Str("session", id.Short())),
	}
}

func (s *Session) Id() Uid { return s.id }

// Start spawns the encoder worker owning the given encoders and
// begins forwarding frames. Valid only from the idle state.
func (s *Session) Start(encoders ...Encoder) error {
	if len(encoders) == 0 {
		return ErrNoEncoder
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return ErrAlreadyCapturing
	}

	frames := make(chan Frame, s.queue)
	done := make(chan struct{})
	s.frames = frames
	s.done = done
	s.paused = false
	s.submitted, s.dropped, s.encoded = 0, 0, 0
	s.emu.Lock()
	s.errs = nil
	s.emu.Unlock()
	s.state = Capturing

	go func() {
		s.drain(frames, encoders)
		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()
		close(done)
	}()

	s.log.Info().Msgf("capture started, encoders: %v, queue: %v", len(encoders), s.queue)
	return nil
}

// Submit forwards one frame to the worker. Frames submitted outside
// the capturing state or while paused are dropped on purpose.
func (s *Session) Submit(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Capturing || s.paused {
		return
	}
	select {
	case s.frames <- f:
		s.submitted++
		monitoring.FramesSubmitted.WithLabelValues(s.id.Short()).Inc()
	default:
		s.dropped++
		monitoring.FramesDropped.WithLabelValues(s.id.Short()).Inc()
		s.log.Debug().Msgf("frame dropped, the queue is full (%v)", s.queue)
	}
}

// Stop closes the producer end of the queue. The worker keeps
// draining already submitted frames and finishes the encoders
// asynchronously; Stop never waits for that. Idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Capturing {
		return
	}
	close(s.frames)
	s.frames = nil
	s.state = Stopping
	s.log.Info().Msgf("capture stopping, submitted: %v, dropped: %v", s.submitted, s.dropped)
}

// Pause keeps the session capturing but drops submitted frames.
func (s *Session) Pause() {
	s.mu.Lock()
	if s.state == Capturing {
		s.paused = true
	}
	s.mu.Unlock()
}

func (s *Session) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

func (s *Session) IsCapturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Capturing || s.state == Stopping
}

func (s *Session) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Capturing && s.paused
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until the worker of the last started capture has
// finished the encoders. Returns immediately when nothing runs.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close stops the capture and joins the worker, so no goroutine
// holding file handles outlives the session owner.
func (s *Session) Close() {
	s.Stop()
	s.Wait()
}

// Err returns errors the worker has recorded so far, nil when none.
func (s *Session) Err() error {
	s.emu.Lock()
	defer s.emu.Unlock()
	return s.errs.ErrorOrNil()
}

// Dropped reports frames rejected due to queue overflow.
func (s *Session) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Submitted reports frames accepted into the queue.
func (s *Session) Submitted() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

func (s *Session) record(err error) {
	s.emu.Lock()
	s.errs = multierror.Append(s.errs, err)
	s.emu.Unlock()
}
