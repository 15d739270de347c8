package fanout

import (
	"sync"

	"github.com/lithammer/shortuuid/v4"
)

// subscriptionBuffer is how many serialized events a subscription can
// hold before the oldest one is dropped. Delivery is best-effort; a
// reader that falls this far behind loses events rather than stalling
// every other subscriber.
const subscriptionBuffer = 16

// Subscription is one live channel to a connected client. It carries
// serialized events in FIFO order and has no identity beyond itself.
type Subscription struct {
	id string
	ch chan []byte
}

// C returns the receive side of the subscription. The channel is
// closed on Unsubscribe.
func (s *Subscription) C() <-chan []byte {
	return s.ch
}

// Fanout owns the set of live subscriptions and delivers every
// broadcast payload to each of them.
type Fanout struct {
	lock sync.Mutex
	subs map[string]*Subscription
}

func New() *Fanout {
	return &Fanout{
		subs: make(map[string]*Subscription),
	}
}

// Subscribe registers a new live subscription. Only events broadcast
// after registration are delivered to it.
func (f *Fanout) Subscribe() *Subscription {
	sub := &Subscription{
		id: shortuuid.New(),
		ch: make(chan []byte, subscriptionBuffer),
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	f.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes the subscription and closes its channel. Safe to
// call more than once and safe to call while a broadcast is in flight.
func (f *Fanout) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	if _, found := f.subs[sub.id]; !found {
		return
	}
	delete(f.subs, sub.id)
	close(sub.ch)
}

// Count reports the number of live subscriptions.
func (f *Fanout) Count() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.subs)
}

// Broadcast delivers payload to every live subscription. A full
// subscription drops its oldest queued event to make room; a dead or
// slow subscriber never blocks delivery to the others and never
// surfaces an error to the caller.
func (f *Fanout) Broadcast(payload []byte) {
	f.lock.Lock()
	defer f.lock.Unlock()

	for _, sub := range f.subs {
		select {
		case sub.ch <- payload:
			continue
		default:
		}

		// Queue is full. Drop the oldest event, then retry once; the
		// reader may have drained the queue in between, so the retry
		// needs its own default case.
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- payload:
		default:
		}
	}
}
