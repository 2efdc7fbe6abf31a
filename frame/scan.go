package frame

import (
	"bufio"
	"bytes"
)

var replacementChar = []byte("\uFFFD")

// ScanFrames splits LF-terminated frames. Trailing CR and surrounding
// whitespace are stripped and invalid UTF-8 is replaced with U+FFFD.
func ScanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	adv, tok, err := bufio.ScanLines(data, atEOF)
	if len(tok) == 0 {
		return adv, tok, err
	}

	tok = bytes.TrimSpace(bytes.ToValidUTF8(tok, replacementChar))
	return adv, tok, err
}
