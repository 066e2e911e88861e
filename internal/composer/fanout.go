package composer

import "os"

// fanout starts the signaling goroutine. It waits on exactly one of
// three events per iteration: an inbound signal (copied to every feed
// in arrival order), a runner-failure notification (error-propagating
// mode only, broadcast as the configured error signal), or the stop
// rendezvous (immediate termination, any backlog abandoned). The
// returned channel is closed when the goroutine exits.
func (c *Composer) fanout(signals <-chan os.Signal, feeds []chan os.Signal, failed <-chan struct{}, stop <-chan struct{}) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		in := signals
		for {
			select {
			case sig, ok := <-in:
				if !ok {
					// Exhausted signal source is "no more signals",
					// not a shutdown: disable this case and keep
					// serving failure notifications and stop.
					in = nil
					continue
				}
				c.broadcast(sig, feeds)
			case <-failed:
				c.broadcast(c.errSignal, feeds)
			case <-stop:
				c.logger.Debug("fanout_stopped")
				return
			}
		}
	}()

	return done
}

// broadcast copies sig to every feed. Feeds are single-producer (this
// goroutine) single-consumer (the runner), so per-runner delivery order
// matches broadcast order. A full feed means its runner stopped
// draining; the signal is dropped for that runner and accounted for,
// never allowed to stall the other feeds.
func (c *Composer) broadcast(sig os.Signal, feeds []chan os.Signal) {
	if c.callbacks.OnSignalForward != nil {
		c.callbacks.OnSignalForward(sig)
	}

	for i, feed := range feeds {
		select {
		case feed <- sig:
		default:
			c.logger.Warn("signal_dropped", "index", i, "signal", sig.String())
			if c.callbacks.OnSignalDrop != nil {
				c.callbacks.OnSignalDrop(i, sig)
			}
		}
	}
}
