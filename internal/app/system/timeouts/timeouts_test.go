package timeouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/quicklist/internal/app/system/timeouts"
	"go.uber.org/zap"
)

func TestConfigure_IgnoresZeroValues(t *testing.T) {
	t.Cleanup(timeouts.Reset)

	timeouts.Configure(timeouts.Config{Write: 3 * time.Second})

	got := timeouts.Current()
	if got.Write != 3*time.Second {
		t.Errorf("Write = %v, want 3s", got.Write)
	}
	if got.Short != timeouts.DefaultShort {
		t.Errorf("Short = %v, want default %v", got.Short, timeouts.DefaultShort)
	}
}

func TestReset(t *testing.T) {
	timeouts.Configure(timeouts.Config{Ping: time.Minute})
	timeouts.Reset()
	if timeouts.Ping() != timeouts.DefaultPing {
		t.Errorf("Ping = %v after Reset, want %v", timeouts.Ping(), timeouts.DefaultPing)
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := timeouts.WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	defer cancel()
	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", ctx.Err())
	}
}
