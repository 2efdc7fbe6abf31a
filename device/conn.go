package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultReadTimeout bounds every read so the worker can notice state
// changes while the device is idle.
const DefaultReadTimeout = 100 * time.Millisecond

// State is the connection state as seen by a reader.
type State int

const (
	StateClosed State = iota
	StatePaused
	StateReading
)

func (s State) String() string {
	switch s {
	case StatePaused:
		return "paused"
	case StateReading:
		return "reading"
	default:
		return "closed"
	}
}

// Status is a point-in-time snapshot of the connection.
type Status struct {
	Connected bool
	Reading   bool
	Port      string
	Baud      int
}

// Conn owns the single serial device handle. All state lives behind mu and
// no method holds mu across device I/O.
type Conn struct {
	open        Opener
	readTimeout time.Duration
	log         *logrus.Entry

	mu        sync.Mutex
	port      Port
	name      string
	baud      int
	connected bool
	reading   bool
	gen       uint64
}

// Config configures a Conn. Zero values select defaults.
type Config struct {
	Opener      Opener
	ReadTimeout time.Duration
}

func NewConn(cfg Config) *Conn {
	if cfg.Opener == nil {
		cfg.Opener = OpenSerial
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	return &Conn{
		open:        cfg.Opener,
		readTimeout: cfg.ReadTimeout,
		log:         logrus.WithField("component", "conn"),
	}
}

// Open acquires the named port. Only one port may be held at a time; a second
// Open fails with ErrAlreadyConnected until Close is called.
//
// The returned Lease is the reader's view of this particular connection.
func (c *Conn) Open(name string, baud int) (*Lease, error) {
	if baud <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBaud, baud)
	}

	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil, ErrAlreadyConnected
	}
	c.mu.Unlock()

	p, err := c.open(name, baud)
	if err != nil {
		return nil, &DeviceOpenError{Port: name, Err: err}
	}
	if err := p.SetReadTimeout(c.readTimeout); err != nil {
		p.Close()
		return nil, &DeviceOpenError{Port: name, Err: fmt.Errorf("set read timeout: %w", err)}
	}

	c.mu.Lock()
	if c.connected {
		// lost a race with a concurrent Open
		c.mu.Unlock()
		p.Close()
		return nil, ErrAlreadyConnected
	}
	c.gen++
	c.port = p
	c.name = name
	c.baud = baud
	c.connected = true
	c.reading = true
	l := &Lease{conn: c, gen: c.gen}
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"port": name, "baud": baud}).Info("connected")
	return l, nil
}

// Close releases the device. It is safe to call when already closed.
func (c *Conn) Close() error {
	c.mu.Lock()
	p, name := c.detach()
	c.mu.Unlock()

	if p == nil {
		return nil
	}
	if err := p.Close(); err != nil {
		c.log.WithError(err).WithField("port", name).Warn("close port")
	}
	c.log.WithField("port", name).Info("disconnected")
	return nil
}

// detach clears the connection state and hands back the old port.
// c.mu must be held.
func (c *Conn) detach() (Port, string) {
	p, name := c.port, c.name
	c.reading = false
	c.port = nil
	c.name = ""
	c.baud = 0
	c.connected = false
	return p, name
}

// Pause stops sample delivery without releasing the device.
func (c *Conn) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		c.reading = false
	}
}

// Resume restarts sample delivery after Pause.
func (c *Conn) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		c.reading = true
	}
}

func (c *Conn) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Connected: c.connected,
		Reading:   c.reading,
		Port:      c.name,
		Baud:      c.baud,
	}
}

// A Lease ties a reader to one generation of a Conn. Once the connection is
// closed (or reopened) the lease reports StateClosed forever.
type Lease struct {
	conn *Conn
	gen  uint64
}

// Acquire returns the current state and, when reading, the port to read from.
func (l *Lease) Acquire() (Port, State) {
	c := l.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case !c.connected || c.gen != l.gen:
		return nil, StateClosed
	case !c.reading:
		return nil, StatePaused
	default:
		return c.port, StateReading
	}
}

// Fail tears the connection down after a fatal read error. It reports false
// if the lease was already stale, meaning the error was caused by a Close.
func (l *Lease) Fail(err error) bool {
	c := l.conn
	c.mu.Lock()
	if !c.connected || c.gen != l.gen {
		c.mu.Unlock()
		return false
	}
	p, name := c.detach()
	c.mu.Unlock()

	c.log.WithError(err).WithField("port", name).Error("read failed, disconnecting")
	if cerr := p.Close(); cerr != nil {
		c.log.WithError(cerr).WithField("port", name).Warn("close port")
	}
	return true
}

func (l *Lease) Generation() uint64 { return l.gen }
