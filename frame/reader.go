// Package frame turns the glove's serial byte stream into samples.
package frame

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/glovelink/device"
	"github.com/mastercactapus/glovelink/metrics"
)

// Handle is the reader's view of a connection.
type Handle interface {
	Acquire() (device.Port, device.State)
	Fail(err error) bool
}

type State int32

const (
	Running State = iota
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Reader is the background worker for one open connection.
type Reader struct {
	h     Handle
	cfg   Config
	split *Splitter
	log   *logrus.Entry

	state atomic.Int32
	done  chan struct{}
}

func NewReader(h Handle, cfg Config) *Reader {
	cfg = cfg.WithDefaults()
	return &Reader{
		h:     h,
		cfg:   cfg,
		split: NewSplitter(cfg.SplitFunc, cfg.MaxLineLen),
		log:   logrus.WithField("component", "reader"),
		done:  make(chan struct{}),
	}
}

func (r *Reader) State() State { return State(r.state.Load()) }

// Done is closed once Run has returned.
func (r *Reader) Done() <-chan struct{} { return r.done }

// Run reads until the connection is closed, a read fails, or ctx ends.
func (r *Reader) Run(ctx context.Context) {
	defer close(r.done)
	defer r.state.Store(int32(Stopped))

	buf := make([]byte, r.cfg.BufferSize)
	for {
		if ctx.Err() != nil {
			return
		}

		port, st := r.h.Acquire()
		switch st {
		case device.StateClosed:
			r.log.Debug("connection closed, stopping")
			return
		case device.StatePaused:
			r.state.Store(int32(Paused))
			if !sleep(ctx, r.cfg.PausePoll) {
				return
			}
			continue
		}
		r.state.Store(int32(Running))

		n, err := port.Read(buf)
		if err != nil {
			if r.h.Fail(err) {
				metrics.ReadErrors.Inc()
				r.cfg.OnError(err)
			}
			return
		}
		if n > 0 {
			r.handleData(buf[:n])
		}

		if !sleep(ctx, r.cfg.Yield) {
			return
		}
	}
}

func (r *Reader) handleData(data []byte) {
	now := r.cfg.Now()
	for _, line := range r.split.Write(data) {
		s, err := Parse(line, now)
		if err != nil {
			metrics.Frames.WithLabelValues("discarded").Inc()
			continue
		}
		metrics.Frames.WithLabelValues("accepted").Inc()

		if err := r.cfg.Sink.Deliver(s); err != nil {
			metrics.SinkFailures.Inc()
			r.log.WithError(err).Debug("deliver sample")
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
