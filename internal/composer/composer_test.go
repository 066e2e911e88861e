package composer

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/randomizedcoder/go-runner-swarm/internal/runner"
)

const testTimeout = 5 * time.Second

// =============================================================================
// Mock runners for testing
// =============================================================================

// testRunner is a configurable runner.Runner implementation.
type testRunner struct {
	setupCalls atomic.Int64
	setupErr   error

	// succeedOn: Run reads one signal and returns nil if it matches,
	// an error otherwise. Used for the INT/HUP scenarios.
	succeedOn os.Signal

	// observed records every signal seen by Run, in order.
	mu       sync.Mutex
	observed []os.Signal
}

func (r *testRunner) Setup() error {
	r.setupCalls.Add(1)
	return r.setupErr
}

func (r *testRunner) Run(signals <-chan os.Signal) error {
	sig, ok := <-signals
	if !ok {
		return nil
	}
	r.record(sig)
	if sig == r.succeedOn {
		return nil
	}
	return errors.New("unexpected signal: " + sig.String())
}

func (r *testRunner) record(sig os.Signal) {
	r.mu.Lock()
	r.observed = append(r.observed, sig)
	r.mu.Unlock()
}

func (r *testRunner) signals() []os.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]os.Signal, len(r.observed))
	copy(out, r.observed)
	return out
}

// newSignalRunner returns a runner that succeeds only on sig.
func newSignalRunner(sig os.Signal) *testRunner {
	return &testRunner{succeedOn: sig}
}

// recordingRunner records every signal until it observes stopOn.
type recordingRunner struct {
	testRunner
	stopOn os.Signal
}

func (r *recordingRunner) Run(signals <-chan os.Signal) error {
	for sig := range signals {
		r.record(sig)
		if sig == r.stopOn {
			return nil
		}
	}
	return nil
}

func newRecordingRunner(stopOn os.Signal) *recordingRunner {
	return &recordingRunner{stopOn: stopOn}
}

// failFastRunner returns err without reading any signals.
type failFastRunner struct {
	err error
}

func (r *failFastRunner) Setup() error { return nil }

func (r *failFastRunner) Run(signals <-chan os.Signal) error { return r.err }

// runAsync runs c.Run in a goroutine and returns the result channel.
func runAsync(c *Composer, signals <-chan os.Signal) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- c.Run(signals)
	}()
	return result
}

// waitResult receives the run result or fails the test on timeout.
func waitResult(t *testing.T, result <-chan error) error {
	t.Helper()
	select {
	case err := <-result:
		return err
	case <-time.After(testTimeout):
		t.Fatal("composer.Run did not return in time")
		return nil
	}
}

// =============================================================================
// Success and failure aggregation
// =============================================================================

func TestComposerAllRunnersSucceed(t *testing.T) {
	r1 := newSignalRunner(syscall.SIGINT)
	r2 := newSignalRunner(syscall.SIGINT)

	c := New(Config{Runners: []runner.Runner{r1, r2}})
	if err := c.Setup(); err != nil {
		t.Fatalf("Setup() = %v, want nil", err)
	}

	signals := make(chan os.Signal, 2)
	result := runAsync(c, signals)
	signals <- syscall.SIGINT

	if err := waitResult(t, result); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}

	for i, r := range []*testRunner{r1, r2} {
		got := r.signals()
		if len(got) != 1 || got[0] != syscall.SIGINT {
			t.Errorf("runner %d observed %v, want exactly one SIGINT", i, got)
		}
	}
}

func TestComposerSingleFailureAggregated(t *testing.T) {
	r1 := newSignalRunner(syscall.SIGINT)
	r2 := newSignalRunner(syscall.SIGINT)

	c := New(Config{Runners: []runner.Runner{r1, r2}})

	signals := make(chan os.Signal, 2)
	result := runAsync(c, signals)
	signals <- syscall.SIGHUP

	if err := waitResult(t, result); err == nil {
		t.Error("Run() = nil, want failure from SIGHUP")
	}

	for i, r := range []*testRunner{r1, r2} {
		got := r.signals()
		if len(got) != 1 || got[0] != syscall.SIGHUP {
			t.Errorf("runner %d observed %v, want exactly one SIGHUP", i, got)
		}
	}
}

func TestComposerFirstFailureIsTheResult(t *testing.T) {
	boom := errors.New("boom")
	r1 := &failFastRunner{err: boom}
	r2 := newRecordingRunner(syscall.SIGTERM)

	c := New(Config{Runners: []runner.Runner{r1, r2}})

	signals := make(chan os.Signal, 1)
	result := runAsync(c, signals)

	// r1 has already failed; release r2.
	signals <- syscall.SIGTERM

	if err := waitResult(t, result); !errors.Is(err, boom) {
		t.Errorf("Run() = %v, want %v", err, boom)
	}
}

// =============================================================================
// Error propagation mode
// =============================================================================

func TestComposerErrorSignalBroadcast(t *testing.T) {
	boom := errors.New("boom")
	failing := &failFastRunner{err: boom}
	r1 := newRecordingRunner(syscall.SIGUSR1)
	r2 := newRecordingRunner(syscall.SIGUSR1)

	c := New(Config{
		Runners:     []runner.Runner{failing, r1, r2},
		ErrorSignal: syscall.SIGUSR1,
	})

	// Never send an external signal: the only way r1/r2 can finish is
	// via the synthesized error signal from the failing sibling.
	signals := make(chan os.Signal)
	result := runAsync(c, signals)

	if err := waitResult(t, result); !errors.Is(err, boom) {
		t.Errorf("Run() = %v, want %v", err, boom)
	}

	for i, r := range []*recordingRunner{r1, r2} {
		got := r.signals()
		if len(got) == 0 || got[len(got)-1] != syscall.SIGUSR1 {
			t.Errorf("runner %d observed %v, want trailing SIGUSR1", i, got)
		}
	}
}

func TestComposerNoPropagationWithoutErrorSignal(t *testing.T) {
	boom := errors.New("boom")
	failing := &failFastRunner{err: boom}
	r1 := newRecordingRunner(syscall.SIGTERM)

	c := New(Config{Runners: []runner.Runner{failing, r1}})

	signals := make(chan os.Signal, 1)
	result := runAsync(c, signals)

	// Give the failing runner time to exit, then verify r1 saw nothing.
	time.Sleep(50 * time.Millisecond)
	if got := r1.signals(); len(got) != 0 {
		t.Errorf("runner observed %v, want no synthesized signals", got)
	}

	signals <- syscall.SIGTERM
	if err := waitResult(t, result); !errors.Is(err, boom) {
		t.Errorf("Run() = %v, want %v", err, boom)
	}
}

// =============================================================================
// Setup semantics
// =============================================================================

func TestComposerImplicitAndExplicitSetupEquivalent(t *testing.T) {
	run := func(explicit bool) ([]int64, error) {
		r1 := newSignalRunner(syscall.SIGINT)
		r2 := newSignalRunner(syscall.SIGINT)
		c := New(Config{Runners: []runner.Runner{r1, r2}})

		if explicit {
			if err := c.Setup(); err != nil {
				t.Fatalf("Setup() = %v, want nil", err)
			}
		}

		signals := make(chan os.Signal, 1)
		result := runAsync(c, signals)
		signals <- syscall.SIGINT
		err := waitResult(t, result)

		return []int64{r1.setupCalls.Load(), r2.setupCalls.Load()}, err
	}

	explicitCalls, explicitErr := run(true)
	implicitCalls, implicitErr := run(false)

	if explicitErr != nil || implicitErr != nil {
		t.Fatalf("explicit err = %v, implicit err = %v, want nil for both", explicitErr, implicitErr)
	}
	for i := range explicitCalls {
		if explicitCalls[i] != 1 || implicitCalls[i] != 1 {
			t.Errorf("runner %d setup calls: explicit %d, implicit %d, want 1 each",
				i, explicitCalls[i], implicitCalls[i])
		}
	}
}

func TestComposerSetupFailureShortCircuits(t *testing.T) {
	boom := errors.New("setup boom")
	r1 := &testRunner{}
	r2 := &testRunner{setupErr: boom}
	r3 := &testRunner{}

	c := New(Config{Runners: []runner.Runner{r1, r2, r3}})

	if err := c.Setup(); !errors.Is(err, boom) {
		t.Errorf("Setup() = %v, want %v", err, boom)
	}
	if got := r3.setupCalls.Load(); got != 0 {
		t.Errorf("runner after failure had Setup called %d times, want 0", got)
	}
}

func TestComposerRunReturnsSetupFailure(t *testing.T) {
	boom := errors.New("setup boom")
	r1 := &testRunner{setupErr: boom}

	c := New(Config{Runners: []runner.Runner{r1}})

	signals := make(chan os.Signal)
	if err := c.Run(signals); !errors.Is(err, boom) {
		t.Errorf("Run() = %v, want %v", err, boom)
	}
}

// =============================================================================
// Signal stream semantics
// =============================================================================

func TestComposerClosedSignalChannel(t *testing.T) {
	// A closed inbound channel means "no more signals". It must not
	// wedge or spin the fan-out goroutine, and the runner is free to
	// keep working until it decides to return.
	done := make(chan struct{})
	r1 := runner.Func(func(signals <-chan os.Signal) error {
		<-done
		return nil
	})

	c := New(Config{Runners: []runner.Runner{r1}})

	signals := make(chan os.Signal)
	close(signals)
	result := runAsync(c, signals)

	// The runner keeps working after the source is exhausted.
	time.Sleep(20 * time.Millisecond)
	close(done)

	if err := waitResult(t, result); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}

func TestComposerSignalOrderingPerRunner(t *testing.T) {
	r1 := newRecordingRunner(syscall.SIGTERM)
	r2 := newRecordingRunner(syscall.SIGTERM)

	c := New(Config{Runners: []runner.Runner{r1, r2}})

	signals := make(chan os.Signal, 3)
	result := runAsync(c, signals)

	want := []os.Signal{syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGTERM}
	for _, sig := range want {
		signals <- sig
	}

	if err := waitResult(t, result); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}

	for i, r := range []*recordingRunner{r1, r2} {
		got := r.signals()
		if len(got) != len(want) {
			t.Fatalf("runner %d observed %v, want %v", i, got, want)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("runner %d signal %d = %v, want %v", i, j, got[j], want[j])
			}
		}
	}
}

func TestComposerDropsWhenFeedFull(t *testing.T) {
	release := make(chan struct{})
	blocked := runner.Func(func(signals <-chan os.Signal) error {
		// Never drains its feed.
		<-release
		return nil
	})

	drops := make(chan os.Signal, 8)
	c := New(Config{
		Runners: []runner.Runner{blocked},
		Callbacks: Callbacks{
			OnSignalDrop: func(index int, sig os.Signal) {
				drops <- sig
			},
		},
	})

	signals := make(chan os.Signal, fanoutBuffer+1)
	result := runAsync(c, signals)

	for i := 0; i < fanoutBuffer+1; i++ {
		signals <- syscall.SIGUSR1
	}

	select {
	case <-drops:
	case <-time.After(testTimeout):
		t.Fatal("expected a drop once the feed filled up")
	}

	close(release)
	if err := waitResult(t, result); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}

// =============================================================================
// Callbacks and nesting
// =============================================================================

func TestComposerCallbacksFire(t *testing.T) {
	var starts, exits atomic.Int64
	forwards := make(chan os.Signal, 4)

	r1 := newSignalRunner(syscall.SIGINT)
	c := New(Config{
		Runners: []runner.Runner{r1},
		Callbacks: Callbacks{
			OnRunnerStart:   func(index int) { starts.Add(1) },
			OnRunnerExit:    func(index int, uptime time.Duration, err error) { exits.Add(1) },
			OnSignalForward: func(sig os.Signal) { forwards <- sig },
		},
	})

	signals := make(chan os.Signal, 1)
	result := runAsync(c, signals)
	signals <- syscall.SIGINT

	if err := waitResult(t, result); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if starts.Load() != 1 || exits.Load() != 1 {
		t.Errorf("starts = %d, exits = %d, want 1 and 1", starts.Load(), exits.Load())
	}
	select {
	case sig := <-forwards:
		if sig != syscall.SIGINT {
			t.Errorf("forwarded %v, want SIGINT", sig)
		}
	default:
		t.Error("OnSignalForward never fired")
	}
}

func TestComposerNests(t *testing.T) {
	inner := New(Config{Runners: []runner.Runner{
		newSignalRunner(syscall.SIGINT),
		newSignalRunner(syscall.SIGINT),
	}})
	outer := New(Config{Runners: []runner.Runner{
		inner,
		newSignalRunner(syscall.SIGINT),
	}})

	signals := make(chan os.Signal, 1)
	result := runAsync(outer, signals)
	signals <- syscall.SIGINT

	if err := waitResult(t, result); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}
