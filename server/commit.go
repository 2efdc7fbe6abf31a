package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mastercactapus/glovelink/frame"
	"github.com/mastercactapus/glovelink/record"
)

type SamplePayload struct {
	T int64
	V [frame.Channels]int
}

type CommitRequest struct {
	Samples   []SamplePayload
	Gesture   string
	UserID    string
	SessionID string
	Baseline  []float64
	MaxBend   []float64
}

func (srv *Server) handleCommit(argStr string) {
	var req CommitRequest
	err := json.Unmarshal([]byte(argStr), &req)
	if err != nil {
		srv.respondErr(fmt.Errorf("%w: decode commit: %v", record.ErrInvalidInput, err))
		return
	}

	samples := make([]frame.Sample, len(req.Samples))
	for i, s := range req.Samples {
		samples[i] = frame.Sample{Timestamp: s.T, Channels: s.V}
	}

	loc, err := srv.Commit(samples, record.Session{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Gesture:   req.Gesture,
	}, record.Calibration{
		Baseline: req.Baseline,
		MaxBend:  req.MaxBend,
	})
	if err != nil {
		srv.respondErr(err)
		return
	}

	srv.respondJSON(Response{
		Cmd:  "Committed",
		Desc: loc.Name,
		Path: loc.Path,
		Rows: loc.Rows,
	})
}

// Commit writes a calibrated recording of samples. It does not touch the
// live stream and may run while one is active.
func (srv *Server) Commit(samples []frame.Sample, s record.Session, cal record.Calibration) (record.Location, error) {
	return srv.rec.Commit(samples, s, cal)
}

var errNoIndex = errors.New("recordings index disabled")

func (srv *Server) handleRecordings(userID string) {
	entries, err := srv.Recordings(userID)
	if err != nil {
		srv.respondErr(err)
		return
	}
	srv.respondJSON(Response{Cmd: "Recordings", Recordings: entries})
}

// Recordings lists indexed recordings for userID, or all when empty.
func (srv *Server) Recordings(userID string) ([]record.Entry, error) {
	if srv.index == nil {
		return nil, errNoIndex
	}
	return srv.index.List(srv.ctx, userID)
}
