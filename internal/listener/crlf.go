package listener

import (
	"bytes"
	"io"
)

// lineConn normalises player input to \n line endings and writes \r\n.
// Telnet sends \r\n or \r\x00, SSH without a PTY sends a bare \r. The
// pending carriage return survives across reads so a pair split between
// two packets still yields one line.
type lineConn struct {
	rw     io.ReadWriter
	lastCR bool
}

func newCRLFReadWriter(rw io.ReadWriter) io.ReadWriter {
	return &lineConn{rw: rw}
}

func (c *lineConn) Read(p []byte) (int, error) {
	n, err := c.rw.Read(p)

	out := p[:0]
	for _, b := range p[:n] {
		switch {
		case c.lastCR && (b == '\n' || b == 0):
			c.lastCR = false
		case b == '\r':
			c.lastCR = true
			out = append(out, '\n')
		default:
			c.lastCR = false
			out = append(out, b)
		}
	}
	return len(out), err
}

func (c *lineConn) Write(p []byte) (int, error) {
	if bytes.IndexByte(p, '\n') < 0 {
		return c.rw.Write(p)
	}

	converted := make([]byte, 0, len(p)+8)
	for i, b := range p {
		if b == '\n' && (i == 0 || p[i-1] != '\r') {
			converted = append(converted, '\r')
		}
		converted = append(converted, b)
	}
	if _, err := c.rw.Write(converted); err != nil {
		return 0, err
	}
	return len(p), nil
}
