// Package record commits captured glove sessions to calibrated CSV files.
package record

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/glovelink/frame"
	"github.com/mastercactapus/glovelink/metrics"
)

// SensorMap documents which finger each channel measures.
const SensorMap = "CH0=thumb|CH1=index|CH2=middle|CH3=ring|CH4=pinky"

const DefaultGloveFit = "standard"

// Session identifies a recording.
type Session struct {
	UserID    string
	SessionID string
	Gesture   string
}

// Annotations are the fixed descriptive columns written on every row.
type Annotations struct {
	GloveFit string
	Notes    string
}

// Location is where a committed recording was written.
type Location struct {
	Path string
	Name string
	Rows int
}

type Config struct {
	Dir         string
	Annotations Annotations

	// Index is optional.
	Index *Index

	Now func() time.Time
}

// Recorder writes session recordings. It holds no state shared with the
// live stream and is safe for concurrent use.
type Recorder struct {
	dir   string
	ann   Annotations
	index *Index
	now   func() time.Time
	log   *logrus.Entry
}

func NewRecorder(cfg Config) *Recorder {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.Annotations.GloveFit == "" {
		cfg.Annotations.GloveFit = DefaultGloveFit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Recorder{
		dir:   cfg.Dir,
		ann:   cfg.Annotations,
		index: cfg.Index,
		now:   cfg.Now,
		log:   logrus.WithField("component", "recorder"),
	}
}

// Header returns the CSV header row.
func Header() []string {
	h := []string{"timestamp_ms", "user_id", "session_id", "class_label"}
	for _, col := range []string{"ch%d_raw", "ch%d_norm", "baseline_ch%d", "maxbend_ch%d"} {
		for i := 0; i < frame.Channels; i++ {
			h = append(h, fmt.Sprintf(col, i))
		}
	}
	return append(h, "glove_fit", "sensor_map_ref", "notes")
}

// FileName returns the recording name for s committed at t.
func FileName(s Session, t time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%d.csv", s.UserID, s.SessionID, s.Gesture, t.Unix())
}

// Commit normalizes samples with cal and writes them as a new recording.
// Nothing is left on disk when it fails.
func (r *Recorder) Commit(samples []frame.Sample, s Session, cal Calibration) (loc Location, err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		switch {
		case errors.Is(err, ErrInvalidInput):
			result = "invalid"
		case err != nil:
			result = "storage"
		}
		metrics.Commits.WithLabelValues(result).Inc()
		metrics.CommitDuration.Observe(time.Since(start).Seconds())
	}()

	if len(samples) == 0 {
		return loc, fmt.Errorf("%w: no samples", ErrInvalidInput)
	}
	if err := cal.Validate(); err != nil {
		return loc, err
	}
	if err := s.validate(); err != nil {
		return loc, err
	}
	samples = append([]frame.Sample(nil), samples...)

	now := r.now()
	loc.Name = FileName(s, now)
	loc.Path = filepath.Join(r.dir, loc.Name)
	loc.Rows = len(samples)

	if err := r.write(loc.Path, r.rows(samples, s, cal)); err != nil {
		return Location{}, err
	}
	r.log.WithFields(logrus.Fields{"path": loc.Path, "rows": loc.Rows}).Info("recording committed")

	if r.index != nil {
		_, err := r.index.Add(context.Background(), Entry{
			Path:      loc.Path,
			UserID:    s.UserID,
			SessionID: s.SessionID,
			Gesture:   s.Gesture,
			Samples:   loc.Rows,
			CreatedAt: now,
		})
		if err != nil {
			r.log.WithError(err).WithField("path", loc.Path).Warn("index recording")
		}
	}

	return loc, nil
}

func (s Session) validate() error {
	fields := []struct{ name, v string }{
		{"user id", s.UserID},
		{"session id", s.SessionID},
		{"gesture", s.Gesture},
	}
	for _, f := range fields {
		if f.v == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidInput, f.name)
		}
		if strings.ContainsAny(f.v, `/\`) || f.v == "." || f.v == ".." {
			return fmt.Errorf("%w: %s %q is not a valid file name part", ErrInvalidInput, f.name, f.v)
		}
	}
	return nil
}

func (r *Recorder) rows(samples []frame.Sample, s Session, cal Calibration) [][]string {
	var calCols []string
	for _, v := range cal.Baseline[:frame.Channels] {
		calCols = append(calCols, strconv.FormatFloat(v, 'f', -1, 64))
	}
	for _, v := range cal.MaxBend[:frame.Channels] {
		calCols = append(calCols, strconv.FormatFloat(v, 'f', -1, 64))
	}

	rows := make([][]string, 0, len(samples))
	for _, smp := range samples {
		row := make([]string, 0, 4+4*frame.Channels+3)
		row = append(row, strconv.FormatInt(smp.Timestamp, 10), s.UserID, s.SessionID, s.Gesture)
		for _, v := range smp.Channels {
			row = append(row, strconv.Itoa(v))
		}
		for _, v := range cal.Apply(smp) {
			row = append(row, strconv.FormatFloat(v, 'f', 3, 64))
		}
		row = append(row, calCols...)
		row = append(row, r.ann.GloveFit, SensorMap, r.ann.Notes)
		rows = append(rows, row)
	}
	return rows
}

// write creates path with rows via a temp file so a failed commit never
// leaves a partial recording behind.
func (r *Recorder) write(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &StorageError{Path: path, Err: err}
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".recording-*.csv")
	if err != nil {
		return &StorageError{Path: path, Err: err}
	}
	tmp := f.Name()
	fail := func(err error) error {
		f.Close()
		os.Remove(tmp)
		return &StorageError{Path: path, Err: err}
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header()); err != nil {
		return fail(err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &StorageError{Path: path, Err: err}
	}
	// Link fails if path exists, so a concurrent commit of the same
	// name is never replaced.
	err = os.Link(tmp, path)
	os.Remove(tmp)
	if errors.Is(err, fs.ErrExist) {
		return &StorageError{Path: path, Err: os.ErrExist}
	}
	if err != nil {
		return &StorageError{Path: path, Err: err}
	}

	return nil
}
