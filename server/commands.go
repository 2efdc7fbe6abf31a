package server

import (
	"fmt"
	"strings"
)

func (srv *Server) handleCommand(data string) {
	parts := strings.SplitN(strings.TrimSpace(data), " ", 2)
	cmd := parts[0]
	var argStr string
	if len(parts) > 1 {
		argStr = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "list":
		info, err := srv.ListPorts()
		if err != nil {
			srv.respondErr(err)
			return
		}
		var res Response
		res.Cmd = "List"
		res.SerialPorts = info
		srv.respondJSON(res)
	case "open", "connect":
		srv.handleOpenPort(argStr)
	case "close", "disconnect":
		srv.ClosePort()
		srv.respondJSON(Response{Cmd: "Close"})
	case "pause":
		srv.Pause()
		srv.respondJSON(Response{Cmd: "Paused"})
	case "resume":
		srv.Resume()
		srv.respondJSON(Response{Cmd: "Resumed"})
	case "status":
		st := srv.Status()
		srv.respondJSON(Response{Cmd: "Status", Status: &st})
	case "commit":
		srv.handleCommit(argStr)
	case "recordings":
		srv.handleRecordings(argStr)
	default:
		srv.respondErr(fmt.Errorf("unknown command '%s'", cmd))
	}
}
