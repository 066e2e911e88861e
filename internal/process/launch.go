package process

import (
	"log/slog"
	"os"
	"os/signal"

	"github.com/randomizedcoder/go-runner-swarm/internal/runner"
)

// signalBuffer is the capacity of the channel shared by OS signal
// delivery and Process.Signal. os/signal drops on a full channel, so
// the buffer is sized generously.
const signalBuffer = 1024

// Launch starts r under a new Process and subscribes the given OS
// signals into its inbound stream. Manual Process.Signal calls and OS
// delivery share one channel, so the runner observes a single merged
// sequence.
//
// Call Launch early in main, before the program starts other work, so
// no signal can arrive ahead of the subscription. The subscription
// lives for the remainder of the program.
func Launch(r runner.Runner, logger *slog.Logger, sigs ...os.Signal) *Process {
	ch := make(chan os.Signal, signalBuffer)
	if len(sigs) > 0 {
		signal.Notify(ch, sigs...)
	}
	return New(r, ch, ch, logger)
}
