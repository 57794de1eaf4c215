// Package signals runs a handler when the process receives an OS signal.
package signals

import (
	"os"
	"os/signal"
)

// HandleFunc calls fn for each of sigs received until the returned cancel
// function is called.
func HandleFunc(fn func(os.Signal), sigs ...os.Signal) (cancel func()) {
	ch := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(ch, sigs...)

	go func() {
		for {
			select {
			case sig := <-ch:
				fn(sig)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
