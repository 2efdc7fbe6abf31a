package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/glovelink/device"
	"github.com/mastercactapus/glovelink/frame"
)

func (srv *Server) handleOpenPort(argStr string) {
	args := strings.Fields(argStr)
	var res Response
	switch len(args) {
	case 0:
		res.Cmd = "OpenFail"
		res.Desc = "missing port name"
	case 1:
		args = append(args, strconv.Itoa(srv.baud))
		fallthrough
	case 2:
		res.Cmd = "Open"
		res.Desc = "Got register/open on port."
		res.Port = args[0]
		baud, err := strconv.Atoi(args[1])
		if err != nil {
			res.Cmd = "OpenFail"
			res.Desc = fmt.Sprintf("invalid baud rate: %v", err)
			break
		}
		res.Baud = baud
		err = srv.OpenPort(res.Port, res.Baud)
		if err != nil {
			res.Cmd = "OpenFail"
			res.Desc = err.Error()
			res.ErrorCode = errorCode(err)
		}
	default:
		res.Cmd = "OpenFail"
		res.Desc = "too many arguments"
	}
	srv.respondJSON(res)
}

// OpenPort connects to the named port and starts streaming its samples.
func (srv *Server) OpenPort(name string, baud int) error {
	lease, err := srv.dev.Open(name, baud)
	if err != nil {
		return err
	}

	p := &Port{name: name, baud: baud}

	cfg := srv.readerCfg
	cfg.Sink = frame.MultiSink(append([]frame.Sink{srv}, srv.sinks...))
	cfg.OnError = func(err error) {
		srv.releasePort(p)
		srv.respondJSON(Response{
			Cmd:  "ReadError",
			Desc: err.Error(),
			Port: name,
		})
	}
	p.Reader = frame.NewReader(lease, cfg)
	srv.swapPort(p)

	go p.Run(srv.ctx)
	srv.log.WithFields(logrus.Fields{"port": name, "baud": baud}).Info("streaming")

	return nil
}

// ClosePort disconnects the device and returns the port record it held.
// The reader notices on its next iteration and exits; ClosePort does not
// wait for it.
func (srv *Server) ClosePort() *Port {
	srv.dev.Close()
	return srv.swapPort(nil)
}

// swapPort stores p as the active port and returns the previous one.
func (srv *Server) swapPort(p *Port) *Port {
	old := <-srv.port
	srv.port <- p
	return old
}

// releasePort clears the active port if it is still p.
func (srv *Server) releasePort(p *Port) {
	cur := <-srv.port
	if cur == p {
		cur = nil
	}
	srv.port <- cur
}

func (srv *Server) Pause()  { srv.dev.Pause() }
func (srv *Server) Resume() { srv.dev.Resume() }

func (srv *Server) Status() device.Status { return srv.dev.Status() }
