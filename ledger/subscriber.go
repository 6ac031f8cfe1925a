package ledger

// Subscriber dispatches events to typed handlers.
type Subscriber struct {
	done     chan struct{}
	handlers []func(Event)
}

// SubscriberOption registers a handler on a Subscriber
type SubscriberOption func(*Subscriber)

// On registers fn for events of type E
func On[E any](fn func(E)) SubscriberOption {
	return func(s *Subscriber) {
		s.handlers = append(s.handlers, func(ev Event) {
			if e, ok := ev.(E); ok {
				fn(e)
			}
		})
	}
}

// OnAny registers fn for every event
func OnAny(fn func(Event)) SubscriberOption {
	return func(s *Subscriber) { s.handlers = append(s.handlers, fn) }
}

// OnServiceStarted sets the handler for ServiceStarted events
func OnServiceStarted(fn func(ServiceStarted)) SubscriberOption {
	return On(fn)
}

// OnSweepCompleted sets the handler for SweepCompleted events
func OnSweepCompleted(fn func(SweepCompleted)) SubscriberOption {
	return On(fn)
}

// OnSnapshotSaved sets the handler for SnapshotSaved events
func OnSnapshotSaved(fn func(SnapshotSaved)) SubscriberOption {
	return On(fn)
}

// OnSnapshotError sets the handler for SnapshotError events
func OnSnapshotError(fn func(SnapshotError)) SubscriberOption {
	return On(fn)
}

// OnServiceShutdown sets the handler for ServiceShutdown events
func OnServiceShutdown(fn func(ServiceShutdown)) SubscriberOption {
	return On(fn)
}

// NewSubscriber creates a Subscriber with the given options and starts the dispatch loop.
// Returns a closer function that waits for all events to be processed.
//
// Example:
//
//	closer := ledger.NewSubscriber(events,
//	  ledger.OnSweepCompleted(func(e ledger.SweepCompleted) { ... }),
//	  ledger.On(func(e ledger.Delegated) { ... }),
//	)
//	defer closer()  // Ensures all events processed before exit
//
// The subscriber processes events until the events channel closes,
// then the closer function confirms all processing is complete.
func NewSubscriber(events <-chan Event, opts ...SubscriberOption) func() {
	s := &Subscriber{done: make(chan struct{})}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			for _, h := range s.handlers {
				h(ev)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
