package yenc

import "bytes"

// Component D: line framing for the parts of a response that are still
// read line-by-line rather than through the yEnc body scanner — the
// NNTP status line, =ybegin/=ypart/=yend, and UU's begin/data/end lines.
// Dot-stuffing (RFC 3977 §3.1.1: a line beginning with '.' gets an extra
// '.' prepended by the sender) and the lone-"." terminator are transport
// concerns that apply here exactly as net/textproto.Conn.DotReader
// handles them; this package re-implements the same two rules directly
// over caller-owned buffers instead of a bufio.Reader, so callers can
// resume across partial reads.

// nextLine scans buf for the first CRLF-terminated line. ok is false if
// buf does not yet contain a full line (the caller should wait for more
// data); consumed is always 0 in that case. line is a copy, so it stays
// valid after the caller consumes the bytes from buf.
func nextLine(buf []byte) (line []byte, consumed int, ok bool) {
	idx := bytes.Index(buf, crlf)
	if idx < 0 {
		return nil, 0, false
	}
	return append([]byte(nil), buf[:idx]...), idx + 2, true
}

var crlf = []byte{'\r', '\n'}

// unstuffLine removes one leading '.' from a dot-stuffed line. Lines not
// starting with ".." are returned unchanged.
func unstuffLine(line []byte) []byte {
	if len(line) >= 2 && line[0] == '.' && line[1] == '.' {
		return line[1:]
	}
	return line
}

// isTerminatorLine reports whether line is the bare "." that ends a
// multi-line NNTP response.
func isTerminatorLine(line []byte) bool {
	return len(line) == 1 && line[0] == '.'
}
