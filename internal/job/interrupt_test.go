package job

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dshills/codeward/internal/lock"
)

func TestInterruptReleasesMarker(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	l := lock.New(filepath.Join(t.TempDir(), "shared.lock"))
	_, err := l.Acquire("run")
	require.NoError(t, err)

	sigs := make(chan os.Signal, 1)
	codes := make(chan int, 1)
	stop := WatchInterrupts(l, sigs, func(code int) { codes <- code }, nil)
	defer stop()

	sigs <- syscall.SIGINT
	select {
	case code := <-codes:
		assert.Equal(t, ExitInterrupted, code)
	case <-time.After(5 * time.Second):
		t.Fatal("exit was not called")
	}

	_, held, err := l.Status()
	require.NoError(t, err)
	assert.False(t, held)
}

func TestInterruptStopWithoutSignal(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	l := lock.New(filepath.Join(t.TempDir(), "shared.lock"))
	h, err := l.Acquire("run")
	require.NoError(t, err)
	defer h.Release()

	called := false
	stop := WatchInterrupts(l, make(chan os.Signal), func(int) { called = true }, nil)
	stop()
	stop()

	assert.False(t, called)
	_, held, err := l.Status()
	require.NoError(t, err)
	assert.True(t, held)
}
