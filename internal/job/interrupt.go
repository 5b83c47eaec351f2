package job

import (
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/codeward/internal/lock"
	"github.com/dshills/codeward/internal/logging"
)

// ExitInterrupted is the process exit code after an operator interrupt.
const ExitInterrupted = 130

// WatchInterrupts releases every marker held through l and calls exit with
// ExitInterrupted when a signal arrives on sigs. Backend calls in flight are
// not cancelled first. The returned stop function ends the watch; it is safe
// to call more than once.
func WatchInterrupts(l *lock.Lock, sigs <-chan os.Signal, exit func(int), logger *zap.Logger) (stop func()) {
	log := logging.OrNop(logger)
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		select {
		case sig := <-sigs:
			log.Warn("interrupted, releasing lock", zap.String("signal", sig.String()))
			if err := l.ReleaseAll(); err != nil {
				log.Error("releasing lock", zap.Error(err))
			}
			exit(ExitInterrupted)
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		<-finished
	}
}
