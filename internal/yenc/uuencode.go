package yenc

import "strings"

// UUEncode decoding: one "begin MODE FILENAME" header line, then one or
// more data lines (a length character followed by groups of four
// characters each packing three bytes), terminated by a zero-length
// line and a trailing "end" line. Grounded on
// other_examples/1b019f6b_go-while-yenc's readBody/decode shape, adapted
// to decode per-line into caller-owned memory instead of a bufio.Reader.

// uuCharToSix converts one wire character to its packed 6-bit value. UU
// uses 0x20 ("space") as zero; some encoders substitute 0x60 ("`") for a
// literal space to dodge trailing-whitespace stripping by mail relays.
// Both are accepted; the full [32,96] range is kept rather than rejecting
// the alternate form.
func uuCharToSix(c byte) byte {
	if c == '`' {
		return 0
	}
	return (c - 0x20) & 0x3f
}

// uuLineLength decodes a UU data line's leading length byte: the number
// of real (pre-encode) bytes the line's groups represent.
func uuLineLength(c byte) int {
	return int(uuCharToSix(c))
}

// uuLineLengthWorkaround is Fredrik Lundh's alternate length formula for
// broken UU encoders whose length byte doesn't follow the standard
// "(c-0x20)&0x3f" packing. Grounded on original_source/src/yenc.cc's
// NNTPResponse_decode_uu_char_workaround.
func uuLineLengthWorkaround(c byte) int {
	return (((int(c)-0x20)&0x3f)*4 + 5) / 3
}

// uuDataLength picks the decoded length a UU data line's leading length
// byte encodes, trying the standard formula first and falling back to
// uuLineLengthWorkaround when the standard one claims more bytes than
// the line actually has room for. badData is true when neither formula
// fits, mirroring the reference's has_baddata flag.
func uuDataLength(line []byte) (length int, badData bool) {
	if len(line) == 0 {
		return 0, false
	}
	avail := len(line) - 1
	length = uuLineLength(line[0])
	if length > avail {
		length = uuLineLengthWorkaround(line[0])
		if length > avail {
			return 0, true
		}
	}
	return length, false
}

// decodeUULine decodes one UU data line's payload (the line with its
// leading length byte and trailing CRLF already stripped) into dst,
// which must be at least want bytes. want is normally the value
// uuDataLength chose for this line. It returns the number of bytes
// written.
func decodeUULine(dst []byte, line []byte, want int) int {
	if len(line) == 0 || want <= 0 {
		return 0
	}
	body := line[1:]
	produced := 0
	for i := 0; i+4 <= len(body) && produced < want; i += 4 {
		b0 := uuCharToSix(body[i])
		b1 := uuCharToSix(body[i+1])
		b2 := uuCharToSix(body[i+2])
		b3 := uuCharToSix(body[i+3])

		out := [3]byte{
			(b0 << 2) | (b1 >> 4),
			(b1 << 4) | (b2 >> 2),
			(b2 << 6) | b3,
		}
		n := want - produced
		if n > 3 {
			n = 3
		}
		copy(dst[produced:produced+n], out[:n])
		produced += n
	}
	return produced
}

// isUUBeginLine reports whether line (trimmed, sans CRLF) is a UU
// "begin MODE FILENAME" header and, if so, returns the filename.
func isUUBeginLine(line string) (filename string, ok bool) {
	if !strings.HasPrefix(line, "begin ") {
		return "", false
	}
	rest := strings.TrimPrefix(line, "begin ")
	fields := strings.SplitN(rest, " ", 2)
	if len(fields) != 2 {
		return "", false
	}
	return fields[1], true
}

// isUUEndLine reports whether line is the bare UU body terminator.
func isUUEndLine(line string) bool {
	return line == "end"
}

// isUUZeroLine reports whether line is a zero-length UU data line (the
// customary "`" or backtick-padded line preceding "end").
func isUUZeroLine(line []byte) bool {
	return len(line) > 0 && uuLineLength(line[0]) == 0
}

// isUUMLine reports whether line is a full 60- or 61-character UU data
// line starting with 'M' (the length byte for 45 packed bytes) — the
// shape a headerless UU body's continuation lines have.
func isUUMLine(line string) bool {
	return (len(line) == 60 || len(line) == 61) && line[0] == 'M'
}

// allInASCIIRange reports whether every byte of s falls in [lo, hi).
func allInASCIIRange(s string, lo, hi byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < lo || s[i] >= hi {
			return false
		}
	}
	return true
}

// onlySpaceOrBacktick reports whether s is made up entirely of spaces
// and/or backticks, the padding a UU data line's unused trailing group
// is customarily filled with.
func onlySpaceOrBacktick(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '`' {
			return false
		}
	}
	return true
}
