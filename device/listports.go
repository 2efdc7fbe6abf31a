package device

import (
	"sort"

	"go.bug.st/serial/enumerator"
)

type Kind string

const (
	KindUSB   Kind = "USB"
	KindOther Kind = "Other"
)

// PortInfo describes one enumerated serial port.
type PortInfo struct {
	Name         string
	Kind         Kind
	Product      string `json:",omitempty"`
	VendorID     string `json:"UsbVid,omitempty"`
	ProductID    string `json:"UsbPid,omitempty"`
	SerialNumber string `json:",omitempty"`
}

var detailedPorts = enumerator.GetDetailedPortsList

// nativeProduct looks up the USB product string when the enumerator does not
// report one. Set per platform.
var nativeProduct func(portName string) string

// ListPorts enumerates serial ports, sorted by name.
func ListPorts() ([]PortInfo, error) {
	details, err := detailedPorts()
	if err != nil {
		return nil, &EnumerationError{Err: err}
	}

	info := make([]PortInfo, 0, len(details))
	for _, d := range details {
		p := PortInfo{Name: d.Name, Kind: KindOther}
		if d.IsUSB {
			p.Kind = KindUSB
			p.Product = d.Product
			p.VendorID = d.VID
			p.ProductID = d.PID
			p.SerialNumber = d.SerialNumber
			if p.Product == "" && nativeProduct != nil {
				p.Product = nativeProduct(d.Name)
			}
		}
		info = append(info, p)
	}
	sort.Slice(info, func(i, j int) bool { return info[i].Name < info[j].Name })

	return info, nil
}
