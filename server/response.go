package server

import (
	"encoding/json"
	"errors"

	"github.com/mastercactapus/glovelink/device"
	"github.com/mastercactapus/glovelink/record"
)

type Response struct {
	SerialPorts []SerialPortInfo `json:",omitempty"`
	Cmd         string           `json:",omitempty"`
	Desc        string           `json:",omitempty"`
	Port        string           `json:",omitempty"`
	Baud        int              `json:",omitempty"`

	Status *device.Status `json:",omitempty"`

	Path string `json:",omitempty"`
	Rows int    `json:",omitempty"`

	Recordings []record.Entry `json:",omitempty"`

	ErrorCode string `json:",omitempty"`
}

// Error codes let clients tell failure classes apart without parsing Desc.
const (
	codeAlreadyConnected = "AlreadyConnected"
	codeDeviceOpen       = "DeviceOpenError"
	codeEnumeration      = "EnumerationError"
	codeInvalidInput     = "InvalidInput"
	codeStorage          = "StorageError"
)

func errorCode(err error) string {
	var openErr *device.DeviceOpenError
	var enumErr *device.EnumerationError
	var storageErr *record.StorageError
	switch {
	case errors.Is(err, device.ErrAlreadyConnected):
		return codeAlreadyConnected
	case errors.As(err, &openErr):
		return codeDeviceOpen
	case errors.As(err, &enumErr):
		return codeEnumeration
	case errors.Is(err, record.ErrInvalidInput), errors.Is(err, device.ErrInvalidBaud):
		return codeInvalidInput
	case errors.As(err, &storageErr):
		return codeStorage
	}
	return ""
}

func (srv *Server) respondJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	srv.send <- string(data)
}

func (srv *Server) respondErr(err error) {
	if err == nil {
		return
	}
	srv.log.WithError(err).Warn("command failed")
	var data struct {
		Error     string
		ErrorCode string `json:",omitempty"`
	}
	data.Error = err.Error()
	data.ErrorCode = errorCode(err)

	srv.respondJSON(data)
}
