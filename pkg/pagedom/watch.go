package pagedom

import (
	"context"
	"sync"
	"time"
)

// minWatchInterval bounds callback frequency under bursty DOM churn to
// roughly 60 Hz.
const minWatchInterval = 16 * time.Millisecond

// RemovalEvent signals that a watched element left the document.
type RemovalEvent struct {
	Selector string
	At       time.Time
}

// Watch is a cancellable subscription over the page, emitting discrete
// "element removed" events. It never acts on the page itself.
type Watch struct {
	Events chan RemovalEvent

	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}
}

// WatchRemoval starts polling for the disappearance of selector. Polls are
// coalesced: disappearance is reported once, then the watch waits for the
// element to reappear before it can fire again. interval is clamped to the
// 60 Hz ceiling.
func (p *Page) WatchRemoval(selector string, interval time.Duration) *Watch {
	if interval < minWatchInterval {
		interval = minWatchInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watch{
		Events: make(chan RemovalEvent, 4),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	// Sample presence before the goroutine starts: a removal landing between
	// subscription and the first poll must still read as present→absent.
	present := p.Exists(selector)

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := p.Exists(selector)
				if present && !now {
					select {
					case w.Events <- RemovalEvent{Selector: selector, At: time.Now()}:
					default:
						// Subscriber is behind; drop rather than block the poll loop.
					}
				}
				present = now
			}
		}
	}()
	return w
}

// Stop cancels the subscription. Safe to call more than once; no events are
// delivered after it returns.
func (w *Watch) Stop() {
	w.stopOnce.Do(func() {
		w.cancel()
		<-w.done
		close(w.Events)
	})
}
