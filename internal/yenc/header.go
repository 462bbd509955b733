package yenc

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Component E: the =ybegin/=ypart/=yend control-line parser. Field order
// is fixed by convention (name= always comes last and may itself contain
// spaces) but we parse defensively field-by-field rather than assuming
// it, matching other_examples/1b019f6b_go-while-yenc's readHeader/
// readPartHeader/parseTrailer.

// decodeFilename returns name as-is if it is valid UTF-8; posters on
// legacy tools sometimes emit Latin-1 bytes verbatim, so invalid UTF-8
// is reinterpreted through ISO-8859-1 rather than rejected outright.
func decodeFilename(raw string) string {
	if utf8.ValidString(raw) {
		return raw
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(raw)
	if err != nil {
		return raw
	}
	return decoded
}

type yBeginFields struct {
	part     int64
	hasPart  bool
	line     int64
	size     int64
	total    int64
	fileName string
	ok       bool
}

// parseYBegin parses a "=ybegin ..." control line (the leading "=ybegin"
// token already identified by the caller).
func parseYBegin(line string) yBeginFields {
	rest := strings.TrimPrefix(line, "=ybegin")
	rest = strings.TrimLeft(rest, " ")

	var f yBeginFields
	for {
		key, val, tail, found := nextField(rest)
		if !found {
			break
		}
		switch key {
		case "part":
			if n, err := strconv.ParseInt(val, 10, 64); err == nil {
				f.part, f.hasPart = n, true
			}
		case "line":
			f.line, _ = strconv.ParseInt(val, 10, 64)
		case "size":
			f.size, _ = strconv.ParseInt(val, 10, 64)
		case "total":
			f.total, _ = strconv.ParseInt(val, 10, 64)
		case "name":
			// name= takes the remainder of the line verbatim, including
			// spaces.
			full := strings.TrimLeft(rest, " ")[len(key)+1:]
			f.fileName = decodeFilename(strings.TrimRight(full, "\r\n"))
			f.ok = true
			return f
		}
		rest = tail
	}
	return f
}

// parseYPart parses a "=ypart begin=B end=E" control line.
func parseYPart(line string) (begin, end int64, ok bool) {
	rest := strings.TrimPrefix(line, "=ypart")
	rest = strings.TrimLeft(rest, " ")
	var haveBegin, haveEnd bool
	for {
		key, val, tail, found := nextField(rest)
		if !found {
			break
		}
		switch key {
		case "begin":
			if n, err := strconv.ParseInt(val, 10, 64); err == nil {
				begin, haveBegin = n, true
			}
		case "end":
			if n, err := strconv.ParseInt(val, 10, 64); err == nil {
				end, haveEnd = n, true
			}
		}
		rest = tail
	}
	return begin, end, haveBegin && haveEnd
}

type yEndFields struct {
	size       int64
	part       int64
	hasPart    bool
	pcrc32     uint32
	hasPcrc32  bool
	crc32      uint32
	hasCRC32   bool
	ok         bool
}

// parseYEnd parses a "=yend ..." control line. crc32= is the whole-file
// checksum (present only on the last or sole part); pcrc32= is this
// part's own checksum and is what multi-part transfers should verify
// against; pcrc32 is preferred when both exist.
func parseYEnd(line string) yEndFields {
	rest := strings.TrimPrefix(line, "=yend")
	rest = strings.TrimLeft(rest, " ")

	var f yEndFields
	for {
		key, val, tail, found := nextField(rest)
		if !found {
			break
		}
		switch key {
		case "size":
			f.size, _ = strconv.ParseInt(val, 10, 64)
			f.ok = true
		case "part":
			if n, err := strconv.ParseInt(val, 10, 64); err == nil {
				f.part, f.hasPart = n, true
			}
		case "pcrc32":
			if n, err := strconv.ParseUint(val, 16, 64); err == nil {
				f.pcrc32, f.hasPcrc32 = uint32(n), true
			}
		case "crc32":
			if n, err := strconv.ParseUint(val, 16, 64); err == nil {
				f.crc32, f.hasCRC32 = uint32(n), true
			}
		}
		rest = tail
	}
	return f
}

// nextField splits "key=value rest..." off the front of s. value runs
// until the next unescaped space; tail is everything after that space
// (or "" if s was the last field). found is false once s is exhausted.
func nextField(s string) (key, value, tail string, found bool) {
	s = strings.TrimLeft(s, " ")
	if s == "" {
		return "", "", "", false
	}
	eq := strings.IndexByte(s, '=')
	if eq < 0 {
		return "", "", "", false
	}
	key = s[:eq]
	rest := s[eq+1:]
	if sp := strings.IndexByte(rest, ' '); sp >= 0 {
		return key, rest[:sp], rest[sp+1:], true
	}
	return key, rest, "", true
}
