package frame

import (
	"errors"
	"time"
)

// ErrSinkTimeout is returned when a consumer did not accept a sample in time.
var ErrSinkTimeout = errors.New("sink timeout")

// A Sink receives validated samples. Deliver must return within a bounded
// time; the reader calls it inline.
type Sink interface {
	Deliver(Sample) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Sample) error

func (fn SinkFunc) Deliver(s Sample) error { return fn(s) }

// ChanSink delivers samples on a channel, giving up after Timeout.
type ChanSink struct {
	C       chan<- Sample
	Timeout time.Duration
}

func (c ChanSink) Deliver(s Sample) error {
	select {
	case c.C <- s:
		return nil
	default:
	}
	if c.Timeout <= 0 {
		return ErrSinkTimeout
	}

	t := time.NewTimer(c.Timeout)
	defer t.Stop()
	select {
	case c.C <- s:
		return nil
	case <-t.C:
		return ErrSinkTimeout
	}
}

// MultiSink delivers to every sink in order and returns the first error.
// A failing sink does not prevent delivery to the rest.
type MultiSink []Sink

func (m MultiSink) Deliver(s Sample) error {
	var first error
	for _, sink := range m {
		if err := sink.Deliver(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}
