package main

import (
	"context"
	"errors"
	"testing"
)

func TestReadiness(t *testing.T) {
	down := errors.New("down")
	calls := 0
	ok := func(context.Context) error { calls++; return nil }
	fail := func(context.Context) error { calls++; return down }

	if err := readiness(nil)(context.Background()); err != nil {
		t.Errorf("no checks: error = %v", err)
	}
	if err := readiness([]func(context.Context) error{ok, fail, ok})(context.Background()); !errors.Is(err, down) {
		t.Errorf("error = %v, want %v", err, down)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
