package frame

import (
	"bufio"
	"time"
)

const (
	DefaultBufferSize = 1024
	DefaultYield      = time.Millisecond
	DefaultPausePoll  = 50 * time.Millisecond
)

type Config struct {
	// Sink receives every valid sample. Required.
	Sink Sink

	// OnError is called at most once, when a read error stops the reader.
	OnError func(error)

	// SplitFunc can be specified to override ScanFrames.
	SplitFunc bufio.SplitFunc

	// MaxLineLen bounds a partial line held between reads.
	MaxLineLen int

	// BufferSize is the largest single read from the device.
	BufferSize int

	// Yield is slept after each iteration while reading.
	Yield time.Duration

	// PausePoll is how often a paused reader re-checks its state.
	PausePoll time.Duration

	// Now stamps frames that carry no timestamp of their own.
	Now func() time.Time
}

func (cfg Config) WithDefaults() Config {
	if cfg.OnError == nil {
		cfg.OnError = func(error) {}
	}
	if cfg.SplitFunc == nil {
		cfg.SplitFunc = ScanFrames
	}
	if cfg.MaxLineLen <= 0 {
		cfg.MaxLineLen = DefaultMaxLineLen
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.Yield <= 0 {
		cfg.Yield = DefaultYield
	}
	if cfg.PausePoll <= 0 {
		cfg.PausePoll = DefaultPausePoll
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return cfg
}
