package guard

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"racebank/pkg/bankerr"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Mode
		wantError bool
	}{
		{name: "unsafe", input: "unsafe", want: ModeUnsafe},
		{name: "protected", input: "protected", want: ModeProtected},
		{name: "empty", input: "", wantError: true},
		{name: "unknown", input: "serialized", wantError: true},
		{name: "wrong case", input: "Protected", wantError: true},
	}

	for _, test := range tests {
		got, err := ParseMode(test.input)

		if test.wantError {
			if err == nil {
				t.Errorf("%s: want error, got mode %q", test.name, got)
			} else if !bankerr.IsCode(err, bankerr.CodeInvalidMode) {
				t.Errorf("%s: want INVALID_MODE, got %v", test.name, err)
			}
			continue
		}

		if err != nil {
			t.Errorf("%s: unexpected error %v", test.name, err)
		}
		if got != test.want {
			t.Errorf("%s: want %q, got %q", test.name, test.want, got)
		}
	}
}

func TestNewControllerRejectsInvalidMode(t *testing.T) {
	if _, err := NewController(Mode("chaotic")); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}

func TestSetMode(t *testing.T) {
	ctrl, err := NewController(ModeUnsafe)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	if err := ctrl.SetMode(ModeProtected); err != nil {
		t.Fatalf("SetMode(protected) failed: %v", err)
	}
	if ctrl.Mode() != ModeProtected {
		t.Errorf("expected protected mode, got %q", ctrl.Mode())
	}

	if err := ctrl.SetMode(Mode("bogus")); err == nil {
		t.Error("expected error for invalid mode")
	} else if !bankerr.IsCode(err, bankerr.CodeInvalidMode) {
		t.Errorf("want INVALID_MODE, got %v", err)
	}
}

// TestProtectedMutualExclusion verifies that at most one goroutine is ever
// inside a guarded section when the controller is in protected mode.
func TestProtectedMutualExclusion(t *testing.T) {
	ctrl, err := NewController(ModeProtected)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	const workers = 50
	var (
		inside    atomic.Int32
		violation atomic.Bool
		wg        sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ctrl.Do(func() error {
				if inside.Add(1) > 1 {
					violation.Store(true)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}

	wg.Wait()

	if violation.Load() {
		t.Error("more than one goroutine entered the guarded section concurrently")
	}
}

// TestUnsafeAllowsConcurrentEntry verifies that the unsafe mode really does
// nothing: several goroutines can occupy the section at once.
func TestUnsafeAllowsConcurrentEntry(t *testing.T) {
	ctrl, err := NewController(ModeUnsafe)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	const workers = 20
	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ctrl.Do(func() error {
				n := inside.Add(1)
				for {
					seen := maxSeen.Load()
					if n <= seen || maxSeen.CompareAndSwap(seen, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}

	wg.Wait()

	if maxSeen.Load() < 2 {
		t.Errorf("expected concurrent occupancy in unsafe mode, max seen %d", maxSeen.Load())
	}
}

func TestDoPropagatesError(t *testing.T) {
	ctrl, err := NewController(ModeProtected)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	want := bankerr.New(bankerr.CategoryUser, "TEST", "boom")
	if got := ctrl.Do(func() error { return want }); got != want {
		t.Errorf("expected fn error to propagate, got %v", got)
	}

	// The mutex must be released on the error path too.
	done := make(chan struct{})
	go func() {
		_ = ctrl.Do(func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mutex not released after fn returned an error")
	}
}
