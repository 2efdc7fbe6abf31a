package frame

import (
	"bufio"
	"bytes"
)

// DefaultMaxLineLen caps a partial line that never sees its newline.
const DefaultMaxLineLen = 4096

// A Splitter reassembles frames from arbitrary read chunks. Unlike
// bufio.Scanner it never blocks on the source, so it can sit behind a read
// timeout that returns zero bytes.
type Splitter struct {
	split  bufio.SplitFunc
	maxLen int
	buf    []byte

	// discarding is set after an overlong line was dropped; input is
	// skipped through the next newline.
	discarding bool
}

func NewSplitter(split bufio.SplitFunc, maxLen int) *Splitter {
	if split == nil {
		split = ScanFrames
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLineLen
	}
	return &Splitter{split: split, maxLen: maxLen}
}

// Write appends p and returns every complete line now available. Empty
// lines are dropped. Any trailing partial line is kept for the next call.
func (s *Splitter) Write(p []byte) []string {
	s.buf = append(s.buf, p...)

	if s.discarding {
		i := bytes.IndexByte(s.buf, '\n')
		if i < 0 {
			s.buf = nil
			return nil
		}
		s.buf = s.buf[i+1:]
		s.discarding = false
	}

	var lines []string
	for len(s.buf) > 0 {
		adv, tok, err := s.split(s.buf, false)
		if err != nil || adv == 0 {
			break
		}
		s.buf = s.buf[adv:]
		if len(tok) == 0 {
			continue
		}
		lines = append(lines, string(tok))
	}

	if len(s.buf) > s.maxLen {
		// no newline in sight, this is noise
		s.buf = s.buf[:0]
		s.discarding = true
	}
	if len(s.buf) == 0 {
		s.buf = nil
	}

	return lines
}

// Pending returns the number of buffered bytes without a terminator.
func (s *Splitter) Pending() int { return len(s.buf) }
