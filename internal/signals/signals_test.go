package signals

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestHandleFunc(t *testing.T) {
	defer goleak.VerifyNone(t)

	got := make(chan os.Signal, 1)
	cancel := HandleFunc(func(sig os.Signal) { got <- sig }, syscall.SIGUSR1)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	select {
	case sig := <-got:
		assert.Equal(t, syscall.SIGUSR1, sig)
	case <-time.After(5 * time.Second):
		t.Fatal("signal handler not called")
	}
	cancel()
}
