package server

import (
	"encoding/json"
	"time"

	"github.com/mastercactapus/glovelink/frame"
)

type sampleEvent struct {
	Cmd string
	T   int64
	V   [frame.Channels]int
}

var _ frame.Sink = (*Server)(nil)

// Deliver broadcasts a sample to every client. It gives up after the
// configured send timeout rather than stall the reader.
func (srv *Server) Deliver(s frame.Sample) error {
	data, err := json.Marshal(sampleEvent{Cmd: "Sample", T: s.Timestamp, V: s.Channels})
	if err != nil {
		return err
	}

	select {
	case srv.send <- string(data):
		return nil
	default:
	}

	t := time.NewTimer(srv.sendTO)
	defer t.Stop()
	select {
	case srv.send <- string(data):
		return nil
	case <-t.C:
		return frame.ErrSinkTimeout
	}
}

// current returns the port record for the active connection, if any.
func (srv *Server) current() *Port {
	p := <-srv.port
	srv.port <- p
	return p
}
