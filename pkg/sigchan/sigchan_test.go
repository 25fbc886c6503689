package sigchan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChan_EmitDeliversSignal(t *testing.T) {
	c := New(1)
	c.Emit()

	select {
	case <-c.C():
	case <-time.After(time.Second):
		t.Fatal("expected signal within timeout")
	}
}

func TestChan_EmitDoesNotBlockWhenFull(t *testing.T) {
	c := New(1)
	done := make(chan struct{})
	go func() {
		c.Emit()
		c.Emit()
		c.Emit()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}

	select {
	case <-c.C():
	default:
		t.Fatal("expected a pending signal")
	}
	// second receive must not have a signal ready — repeated Emit while
	// full is a no-op, not a queued backlog
	select {
	case <-c.C():
		t.Fatal("unexpected second signal")
	default:
	}
}

func TestChan_NoSignalBeforeEmit(t *testing.T) {
	c := New(1)
	select {
	case <-c.C():
		t.Fatal("unexpected signal before Emit")
	default:
	}
	assert.NotNil(t, c.C())
}
