package device

import (
	"os"
	"path/filepath"
	"strings"
)

func init() {
	nativeProduct = linuxUSBProduct
}

const sysClassTTY = "/sys/class/tty"

// linuxUSBProduct walks up from the tty's sysfs device node until it finds
// the USB device that owns it and returns its product string.
func linuxUSBProduct(portName string) string {
	path, err := filepath.EvalSymlinks(filepath.Join(sysClassTTY, filepath.Base(portName), "device"))
	if err != nil {
		return ""
	}

	for path != "/" && path != "." {
		data, err := os.ReadFile(filepath.Join(path, "product"))
		if err == nil {
			return strings.TrimSpace(string(data))
		}
		if !os.IsNotExist(err) {
			return ""
		}
		path = filepath.Dir(path)
	}

	return ""
}
