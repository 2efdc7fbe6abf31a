package frame

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Channels is the number of flex sensors on the glove.
const Channels = 5

// Sample is one validated frame.
type Sample struct {
	// Timestamp in milliseconds. Device-assigned for timestamped frames,
	// host wall clock otherwise.
	Timestamp int64
	Channels  [Channels]int
}

var (
	errEmpty      = errors.New("empty frame")
	errFieldCount = errors.New("unexpected field count")
)

// Parse validates one line of the wire protocol. A line is either
// Channels comma-separated integers, or a timestamp followed by them.
// now is used for frames without a timestamp.
func Parse(line string, now time.Time) (Sample, error) {
	var s Sample

	line = strings.TrimSpace(line)
	if line == "" {
		return s, errEmpty
	}

	fields := strings.Split(line, ",")
	switch len(fields) {
	case Channels:
		s.Timestamp = now.UnixMilli()
	case Channels + 1:
		ts, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return s, err
		}
		s.Timestamp = ts
		fields = fields[1:]
	default:
		return s, errFieldCount
	}

	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return s, err
		}
		s.Channels[i] = v
	}

	return s, nil
}

// Format encodes s as a wire frame including the trailing newline.
func Format(s Sample, withTimestamp bool) string {
	var sb strings.Builder
	if withTimestamp {
		sb.WriteString(strconv.FormatInt(s.Timestamp, 10))
		sb.WriteByte(',')
	}
	for i, v := range s.Channels {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	sb.WriteByte('\n')
	return sb.String()
}
