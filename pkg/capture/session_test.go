package capture

import (
	"errors"
	"sync"
	"testing"

	"github.com/framecap/capture/pkg/logger"
)

// recEncoder records everything the worker feeds it.
type recEncoder struct {
	mu       sync.Mutex
	frames   []Frame
	finished int

	err     error         // returned for every frame when set
	entered chan struct{} // signaled once on the first Encode
	gate    chan struct{} // blocks the first Encode until closed
	once    sync.Once
}

func (r *recEncoder) Encode(f Frame) error {
	r.once.Do(func() {
		if r.entered != nil {
			close(r.entered)
		}
		if r.gate != nil {
			<-r.gate
		}
	})
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
	return r.err
}

func (r *recEncoder) Finish() {
	r.mu.Lock()
	r.finished++
	r.mu.Unlock()
}

func (r *recEncoder) got() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame{}, r.frames...)
}

func frameN(n int) Frame {
	return Frame{W: 1, H: 1, Data: []byte{byte(n), 0, 0, 255}}
}

func TestOrderPreserved(t *testing.T) {
	enc := &recEncoder{}
	s := NewSession(logger.Default(), Options{Queue: 1024})
	if err := s.Start(enc); err != nil {
		t.Fatal(err)
	}
	n := 500
	for i := 0; i < n; i++ {
		s.Submit(frameN(i % 256))
	}
	s.Close()

	got := enc.got()
	if len(got) != n {
		t.Fatalf("want %v frames, got %v", n, len(got))
	}
	for i, f := range got {
		if f.Data[0] != byte(i%256) {
			t.Fatalf("frame %v out of order: %v", i, f.Data[0])
		}
	}
	if enc.finished != 1 {
		t.Errorf("finish ran %v times", enc.finished)
	}
}

func TestFinishAfterLastEncode(t *testing.T) {
	enc := &recEncoder{}
	s := NewSession(logger.Default(), Options{})
	if err := s.Start(enc); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		s.Submit(frameN(i))
	}
	s.Stop()
	if s.IsCapturing() && s.State() != Stopping {
		t.Errorf("unexpected state after stop: %v", s.State())
	}
	s.Wait()

	if enc.finished != 1 {
		t.Fatalf("finish ran %v times", enc.finished)
	}
	if len(enc.got()) != 10 {
		t.Errorf("frames lost before finish: %v", len(enc.got()))
	}
	if s.State() != Idle {
		t.Errorf("session should be idle again, state: %v", s.State())
	}
}

func TestStopIdempotent(t *testing.T) {
	s := NewSession(logger.Default(), Options{})
	s.Stop()
	s.Stop() // never started, no-op

	enc := &recEncoder{}
	if err := s.Start(enc); err != nil {
		t.Fatal(err)
	}
	s.Stop()
	s.Stop()
	s.Wait()
	if enc.finished != 1 {
		t.Errorf("finish ran %v times", enc.finished)
	}
}

func TestDoubleStartRejected(t *testing.T) {
	first := &recEncoder{}
	s := NewSession(logger.Default(), Options{})
	if err := s.Start(first); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(&recEncoder{}); !errors.Is(err, ErrAlreadyCapturing) {
		t.Fatalf("want ErrAlreadyCapturing, got %v", err)
	}
	// the original capture keeps running undisturbed
	s.Submit(frameN(1))
	s.Close()
	if len(first.got()) != 1 {
		t.Errorf("original encoder lost frames: %v", len(first.got()))
	}
}

func TestStartNoEncoder(t *testing.T) {
	s := NewSession(logger.Default(), Options{})
	if err := s.Start(); !errors.Is(err, ErrNoEncoder) {
		t.Fatalf("want ErrNoEncoder, got %v", err)
	}
}

func TestSubmitOutsideCapturing(t *testing.T) {
	enc := &recEncoder{}
	s := NewSession(logger.Default(), Options{})
	s.Submit(frameN(0)) // idle, dropped silently

	if err := s.Start(enc); err != nil {
		t.Fatal(err)
	}
	s.Submit(frameN(1))
	s.Stop()
	s.Submit(frameN(2)) // stopping, not re-admitted
	s.Wait()
	s.Submit(frameN(3)) // idle again

	got := enc.got()
	if len(got) != 1 || got[0].Data[0] != 1 {
		t.Errorf("want exactly the capturing-state frame, got %v", got)
	}
}

func TestPauseResume(t *testing.T) {
	enc := &recEncoder{}
	s := NewSession(logger.Default(), Options{})
	if err := s.Start(enc); err != nil {
		t.Fatal(err)
	}
	s.Submit(frameN(1))
	s.Pause()
	if !s.IsPaused() || !s.IsCapturing() {
		t.Error("paused session should still be capturing")
	}
	s.Submit(frameN(2)) // dropped
	s.Resume()
	s.Submit(frameN(3))
	s.Close()

	got := enc.got()
	if len(got) != 2 || got[0].Data[0] != 1 || got[1].Data[0] != 3 {
		t.Errorf("pause should drop frames: %v", got)
	}
}

func TestOverflowDropsNewest(t *testing.T) {
	queue := 4
	enc := &recEncoder{entered: make(chan struct{}), gate: make(chan struct{})}
	s := NewSession(logger.Default(), Options{Queue: queue})
	if err := s.Start(enc); err != nil {
		t.Fatal(err)
	}

	s.Submit(frameN(0))
	<-enc.entered // the worker is now blocked inside Encode

	// fill the queue, then two more which must be dropped
	for i := 1; i <= queue+2; i++ {
		s.Submit(frameN(i))
	}
	if d := s.Dropped(); d != 2 {
		t.Errorf("want 2 dropped, got %v", d)
	}
	if sub := s.Submitted(); sub != uint64(queue+1) {
		t.Errorf("want %v submitted, got %v", queue+1, sub)
	}

	close(enc.gate)
	s.Close()

	got := enc.got()
	if len(got) != queue+1 {
		t.Fatalf("want %v frames, got %v", queue+1, len(got))
	}
	// drop-newest keeps the accepted prefix intact
	for i, f := range got {
		if f.Data[0] != byte(i) {
			t.Errorf("frame %v out of order: %v", i, f.Data[0])
		}
	}
}

func TestEncodeErrorsRecorded(t *testing.T) {
	bad := errors.New("bad frame")
	enc := &recEncoder{err: bad}
	s := NewSession(logger.Default(), Options{})
	if err := s.Start(enc); err != nil {
		t.Fatal(err)
	}
	s.Submit(frameN(1))
	s.Submit(frameN(2))
	s.Close()

	if err := s.Err(); err == nil || !errors.Is(err, bad) {
		t.Errorf("worker errors not recorded: %v", err)
	}
	// errors are not fatal to the loop
	if len(enc.got()) != 2 {
		t.Errorf("loop aborted on error: %v frames", len(enc.got()))
	}
	if enc.finished != 1 {
		t.Errorf("finish ran %v times", enc.finished)
	}
}

func TestRestartAfterStop(t *testing.T) {
	s := NewSession(logger.Default(), Options{})
	for i := 0; i < 3; i++ {
		enc := &recEncoder{}
		if err := s.Start(enc); err != nil {
			t.Fatal(err)
		}
		s.Submit(frameN(i))
		s.Close()
		if len(enc.got()) != 1 || enc.finished != 1 {
			t.Fatalf("run %v: %v frames, %v finishes", i, len(enc.got()), enc.finished)
		}
	}
	if err := s.Err(); err != nil {
		t.Errorf("restarted session carried errors over: %v", err)
	}
}

func TestMultiEncoderFanOut(t *testing.T) {
	a, b := &recEncoder{}, &recEncoder{}
	s := NewSession(logger.Default(), Options{})
	if err := s.Start(a, b); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		s.Submit(frameN(i))
	}
	s.Close()

	for _, enc := range []*recEncoder{a, b} {
		got := enc.got()
		if len(got) != 5 {
			t.Fatalf("want 5 frames, got %v", len(got))
		}
		for i, f := range got {
			if f.Data[0] != byte(i) {
				t.Errorf("frame %v out of order: %v", i, f.Data[0])
			}
		}
		if enc.finished != 1 {
			t.Errorf("finish ran %v times", enc.finished)
		}
	}
}

func TestConcurrentSubmit(t *testing.T) {
	enc := &recEncoder{}
	s := NewSession(logger.Default(), Options{Queue: 4096})
	if err := s.Start(enc); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	iterations := 222
	wg.Add(iterations)
	for i := 0; i < iterations; i++ {
		go func() {
			s.Submit(frameN(0))
			wg.Done()
		}()
	}
	wg.Wait()
	s.Close()

	if got := len(enc.got()); got != iterations {
		t.Errorf("want %v frames, got %v", iterations, got)
	}
}

func BenchmarkSubmit(b *testing.B) {
	enc := &recEncoder{}
	s := NewSession(logger.Default(), Options{Queue: b.N + 1})
	if err := s.Start(enc); err != nil {
		b.Fatal(err)
	}
	f := frameN(0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Submit(f)
	}
	b.StopTimer()
	s.Close()
}
