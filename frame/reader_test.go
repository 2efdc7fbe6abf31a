package frame

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastercactapus/glovelink/device"
)

// scriptPort returns queued chunks, then err (or timeouts when err is nil).
type scriptPort struct {
	mu     sync.Mutex
	chunks [][]byte
	err    error
	reads  int
	onRead func()
}

func (p *scriptPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	p.reads++
	hook := p.onRead
	if len(p.chunks) > 0 {
		n := copy(b, p.chunks[0])
		p.chunks = p.chunks[1:]
		p.mu.Unlock()
		return n, nil
	}
	err := p.err
	p.mu.Unlock()

	if hook != nil {
		hook()
	}
	return 0, err
}

func (p *scriptPort) push(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chunks = append(p.chunks, []byte(s))
}

func (p *scriptPort) readCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

func (p *scriptPort) Write(b []byte) (int, error)        { return len(b), nil }
func (p *scriptPort) Close() error                       { return nil }
func (p *scriptPort) SetReadTimeout(time.Duration) error { return nil }

type fakeHandle struct {
	mu    sync.Mutex
	port  device.Port
	state device.State
	fails int
}

func (h *fakeHandle) Acquire() (device.Port, device.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != device.StateReading {
		return nil, h.state
	}
	return h.port, h.state
}

func (h *fakeHandle) Fail(error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == device.StateClosed {
		return false
	}
	h.state = device.StateClosed
	h.fails++
	return true
}

func (h *fakeHandle) set(st device.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = st
}

func recv(t *testing.T, ch <-chan Sample) Sample {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sample")
		return Sample{}
	}
}

func waitDone(t *testing.T, r *Reader) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop")
	}
}

func TestReader_Samples(t *testing.T) {
	port := &scriptPort{}
	port.push("440,612,")
	port.push("618,548,528\n")
	port.push("garbage,line\n1,2,3,4\n1,2,x,4,5\n")
	port.push("1000,9,8,7,6,5\n")
	h := &fakeHandle{port: port, state: device.StateReading}

	ch := make(chan Sample, 10)
	var errs []error
	r := NewReader(h, Config{
		Sink:    ChanSink{C: ch, Timeout: time.Second},
		OnError: func(err error) { errs = append(errs, err) },
		Now:     func() time.Time { return time.UnixMilli(5) },
	})
	go r.Run(context.Background())

	assert.Equal(t, Sample{Timestamp: 5, Channels: [Channels]int{440, 612, 618, 548, 528}}, recv(t, ch))
	assert.Equal(t, Sample{Timestamp: 1000, Channels: [Channels]int{9, 8, 7, 6, 5}}, recv(t, ch))

	// timeouts keep the reader alive
	n := port.readCount()
	assert.Eventually(t, func() bool { return port.readCount() > n+5 }, time.Second, time.Millisecond)
	assert.Equal(t, Running, r.State())

	h.set(device.StateClosed)
	waitDone(t, r)
	assert.Equal(t, Stopped, r.State())
	assert.Empty(t, errs)
	assert.Empty(t, ch)
}

func TestReader_ReadError(t *testing.T) {
	port := &scriptPort{err: io.ErrUnexpectedEOF}
	port.push("1,2,3,4,5\n")
	h := &fakeHandle{port: port, state: device.StateReading}

	ch := make(chan Sample, 10)
	var errs []error
	r := NewReader(h, Config{
		Sink:    ChanSink{C: ch, Timeout: time.Second},
		OnError: func(err error) { errs = append(errs, err) },
	})
	r.Run(context.Background())

	assert.Equal(t, [Channels]int{1, 2, 3, 4, 5}, recv(t, ch).Channels)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], io.ErrUnexpectedEOF)
	assert.Equal(t, 1, h.fails)
	assert.Equal(t, Stopped, r.State())
}

func TestReader_ErrorAfterClose(t *testing.T) {
	port := &scriptPort{err: errors.New("port closed")}
	h := &fakeHandle{port: port, state: device.StateReading}
	port.onRead = func() { h.set(device.StateClosed) }

	var errs []error
	r := NewReader(h, Config{
		Sink:    SinkFunc(func(Sample) error { return nil }),
		OnError: func(err error) { errs = append(errs, err) },
	})
	r.Run(context.Background())

	assert.Empty(t, errs)
	assert.Zero(t, h.fails)
}

func TestReader_Pause(t *testing.T) {
	port := &scriptPort{}
	port.push("1,2,3,4,5\n")
	h := &fakeHandle{port: port, state: device.StatePaused}

	ch := make(chan Sample, 10)
	r := NewReader(h, Config{
		Sink:      ChanSink{C: ch, Timeout: time.Second},
		PausePoll: time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	assert.Eventually(t, func() bool { return r.State() == Paused }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, port.readCount())
	assert.Empty(t, ch)

	h.set(device.StateReading)
	assert.Equal(t, [Channels]int{1, 2, 3, 4, 5}, recv(t, ch).Channels)

	cancel()
	waitDone(t, r)
}

func TestReader_SinkFailureDoesNotStop(t *testing.T) {
	port := &scriptPort{}
	port.push("1,2,3,4,5\n")
	port.push("6,7,8,9,10\n")
	h := &fakeHandle{port: port, state: device.StateReading}

	var mu sync.Mutex
	var calls int
	r := NewReader(h, Config{
		Sink: SinkFunc(func(Sample) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return ErrSinkTimeout
		}),
	})
	go r.Run(context.Background())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, Running, r.State())

	h.set(device.StateClosed)
	waitDone(t, r)
}

func TestChanSink_Timeout(t *testing.T) {
	ch := make(chan Sample)
	err := ChanSink{C: ch, Timeout: 5 * time.Millisecond}.Deliver(Sample{})
	assert.ErrorIs(t, err, ErrSinkTimeout)
}

func TestMultiSink(t *testing.T) {
	var got []int
	m := MultiSink{
		SinkFunc(func(Sample) error { got = append(got, 1); return ErrSinkTimeout }),
		SinkFunc(func(Sample) error { got = append(got, 2); return nil }),
	}
	assert.ErrorIs(t, m.Deliver(Sample{}), ErrSinkTimeout)
	assert.Equal(t, []int{1, 2}, got)
}
