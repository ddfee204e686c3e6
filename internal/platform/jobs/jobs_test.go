package jobs

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestRegister_RejectsBadSpec(t *testing.T) {
	r := NewRunner(zerolog.Nop())

	if err := r.Register("not a cron spec", "noop", func(context.Context) error { return nil }); err == nil {
		t.Error("expected error for malformed spec")
	}
	if err := r.Register("0 0 * * *", "nightly", func(context.Context) error { return nil }); err != nil {
		t.Errorf("valid spec rejected: %v", err)
	}
}

func TestStartStop(t *testing.T) {
	r := NewRunner(zerolog.Nop())
	if err := r.Register("* * * * *", "noop", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	r.Start()
	r.Stop()
}
