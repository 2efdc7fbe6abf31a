package server

import (
	"github.com/mastercactapus/glovelink/device"
)

type SerialPortInfo struct {
	device.PortInfo

	IsOpen bool
	Baud   int `json:",omitempty"`
}

// ListPorts enumerates serial ports and marks the one currently open.
func (srv *Server) ListPorts() ([]SerialPortInfo, error) {
	ports, err := srv.listPorts()
	if err != nil {
		return nil, err
	}

	open := srv.current()
	info := make([]SerialPortInfo, len(ports))
	for i, p := range ports {
		info[i].PortInfo = p
		if open != nil && open.name == p.Name {
			info[i].IsOpen = true
			info[i].Baud = open.baud
		}
	}

	return info, nil
}
