package server

import (
	"github.com/mastercactapus/glovelink/frame"
)

// Port is the device currently held by the server. It is cleared when the
// port is closed or its reader fails.
type Port struct {
	*frame.Reader

	name string
	baud int
}
