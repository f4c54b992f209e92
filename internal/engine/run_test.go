package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRun_ResultsInIndexOrder(t *testing.T) {
	ctx := context.Background()
	// later indices finish first
	out := Run(ctx, 5, 0, func(ctx context.Context, i int) int {
		time.Sleep(time.Duration(5-i) * time.Millisecond)
		return i * 10
	})
	for i, v := range out {
		if v != i*10 {
			t.Fatalf("index %d: got %d", i, v)
		}
	}
}

func TestRun_StartsEagerly(t *testing.T) {
	ctx := context.Background()
	var started atomic.Int32
	release := make(chan struct{})
	done := make(chan []int)
	go func() {
		done <- Run(ctx, 3, 0, func(ctx context.Context, i int) int {
			started.Add(1)
			<-release
			return i
		})
	}()
	deadline := time.Now().Add(2 * time.Second)
	for started.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected all calls to start before any completes, started=%d", started.Load())
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	if out := <-done; len(out) != 3 {
		t.Fatalf("unexpected results: %v", out)
	}
}

func TestRun_Empty(t *testing.T) {
	if out := Run(context.Background(), 0, 2, func(context.Context, int) string { return "x" }); len(out) != 0 {
		t.Fatalf("expected no results, got %v", out)
	}
}

func TestCall_RecoversPanic(t *testing.T) {
	_, err := Call(func() (int, error) { panic("boom") })
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if pe.Value != "boom" || len(pe.Stack) == 0 {
		t.Fatalf("unexpected panic error: %+v", pe)
	}

	sentinel := errors.New("sentinel")
	_, err = Call(func() (int, error) { panic(sentinel) })
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected panic error to unwrap to sentinel, got %v", err)
	}

	v, err := Call(func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("unexpected result %d, %v", v, err)
	}
}
