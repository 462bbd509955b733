package yenc

import (
	"strings"

	"github.com/google/uuid"
)

// Component G: the streaming Decoder. It exposes a pull-oriented buffer
// protocol — Writable returns the scratch region the caller should fill
// with raw bytes off the wire, Commit tells the Decoder how much of it
// is real, and Next drains whatever Responses that made complete — so a
// caller never has to hold a whole NNTP response in memory to start
// decoding it, matching the reference's Decoder_getbuffer/
// Decoder_releasebuffer/Decoder_process split (original_source/src/
// yenc.h, yenc.cc).
type decoderPhase uint8

const (
	phaseStatusLine decoderPhase = iota
	phaseHeaderLines
	phaseYencBody
	phaseYencTrailer
	phaseUUBody
	phaseTerminator
	phaseDone
)

// Decoder turns one NNTP multi-line response (one BODY/ARTICLE command's
// reply) at a time into a Response. A single Decoder instance is meant
// to be reused across many requests on the same connection — each
// completed Response queues on Next rather than ending the Decoder's
// life.
type Decoder struct {
	id uuid.UUID

	buf     []byte
	n       int // buf[:n] holds committed-but-unconsumed bytes
	scratch []byte

	phase decoderPhase
	resp  *Response
	scan  scanState
	raw   bool

	ready []*Response
}

// NewDecoder allocates a Decoder with a MinBufferSize scratch buffer.
func NewDecoder() *Decoder {
	id := uuid.New()
	d := &Decoder{
		id:      id,
		buf:     make([]byte, MinBufferSize),
		scratch: make([]byte, MinBufferSize),
	}
	d.resp = newResponse(id)
	return d
}

// Writable returns the region of the Decoder's scratch buffer the caller
// should read network bytes into. It grows the buffer first if fewer
// than a quarter of MinBufferSize bytes are free, doubling capacity up
// to MaxPartSize.
func (d *Decoder) Writable() []byte {
	d.ensureHeadroom()
	return d.buf[d.n:]
}

// Commit tells the Decoder that n bytes written into the slice most
// recently returned by Writable are real, and drives the response state
// machine forward over them. It returns ErrInvalidArgument for a
// non-positive n or one that would overrun the scratch buffer, and
// ErrBufferOverflow if the part being decoded has grown past
// MaxPartSize.
func (d *Decoder) Commit(n int) error {
	if n <= 0 || d.n+n > len(d.buf) {
		return ErrInvalidArgument
	}
	d.n += n
	return d.process()
}

// Next pops the oldest completed Response, if any.
func (d *Decoder) Next() (*Response, bool) {
	if len(d.ready) == 0 {
		return nil, false
	}
	r := d.ready[0]
	d.ready = d.ready[1:]
	return r, true
}

// Pending reports how many completed Responses are queued for Next.
func (d *Decoder) Pending() int {
	return len(d.ready)
}

func (d *Decoder) ensureHeadroom() {
	if len(d.buf)-d.n >= MinBufferSize/4 {
		return
	}
	d.grow()
}

func (d *Decoder) grow() {
	if len(d.buf) >= MaxPartSize {
		return
	}
	newCap := len(d.buf) * 2
	if newCap > MaxPartSize {
		newCap = MaxPartSize
	}
	grown := make([]byte, newCap)
	copy(grown, d.buf[:d.n])
	d.buf = grown
	if len(d.scratch) < newCap {
		d.scratch = make([]byte, newCap)
	}
}

// shrink releases memory once the unconsumed tail is small relative to
// capacity (at least a 50% reduction), down to MinBufferSize.
func (d *Decoder) shrink() {
	if len(d.buf) <= MinBufferSize {
		return
	}
	if d.n > len(d.buf)/4 {
		return
	}
	newCap := len(d.buf) / 2
	if newCap < MinBufferSize {
		newCap = MinBufferSize
	}
	if newCap < d.n {
		newCap = d.n
	}
	shrunk := make([]byte, newCap)
	copy(shrunk, d.buf[:d.n])
	d.buf = shrunk
}

func (d *Decoder) consume(n int) {
	if n <= 0 {
		return
	}
	copy(d.buf, d.buf[n:d.n])
	d.n -= n
	d.shrink()
}

// consumeWire is consume plus bookkeeping: n is real wire bytes (framing,
// CRLFs, dot-stuffing and all) read off the connection for the Response
// currently being assembled, distinct from BytesDecoded which only
// counts the body codec's output.
func (d *Decoder) consumeWire(n int) {
	d.consume(n)
	d.resp.BytesRead += int64(n)
}

// process advances the response state machine as far as the currently
// buffered bytes allow, returning once a full line or body chunk is no
// longer available.
func (d *Decoder) process() error {
	for {
		switch d.phase {
		case phaseStatusLine:
			line, consumed, ok := nextLine(d.buf[:d.n])
			if !ok {
				return nil
			}
			d.consumeWire(consumed)
			d.handleStatusLine(line)

		case phaseHeaderLines:
			line, consumed, ok := nextLine(d.buf[:d.n])
			if !ok {
				return nil
			}
			d.consumeWire(consumed)
			d.handleHeaderLine(line)

		case phaseYencBody:
			more, err := d.processYencBody()
			if err != nil {
				return err
			}
			if !more {
				return nil
			}

		case phaseYencTrailer:
			line, consumed, ok := nextLine(d.buf[:d.n])
			if !ok {
				return nil
			}
			d.consumeWire(consumed)
			d.handleYencTrailer(line)

		case phaseUUBody:
			line, consumed, ok := nextLine(d.buf[:d.n])
			if !ok {
				return nil
			}
			d.consumeWire(consumed)
			d.handleUULine(line)

		case phaseTerminator:
			line, consumed, ok := nextLine(d.buf[:d.n])
			if !ok {
				return nil
			}
			d.consumeWire(consumed)
			if isTerminatorLine(unstuffLine(line)) {
				d.finish()
			}

		case phaseDone:
			return nil
		}
	}
}

func (d *Decoder) handleStatusLine(line []byte) {
	code, rest, ok := parseStatusLine(line)
	d.resp.StatusCode = code
	d.resp.Message = rest
	if !ok || !isMultiLineStatus(code) {
		d.resp.Body = false
		d.finish()
		return
	}
	d.resp.Body = true
	d.phase = phaseHeaderLines
}

func (d *Decoder) handleHeaderLine(rawLine []byte) {
	line := unstuffLine(rawLine)
	if isTerminatorLine(line) {
		d.finish()
		return
	}
	s := string(line)
	switch {
	case strings.HasPrefix(s, "=ybegin"):
		f := parseYBegin(s)
		d.resp.Format = FormatYEnc
		d.resp.FileName = f.fileName
		d.resp.FileSize = f.size
		d.resp.Part = f.part
		d.resp.HasPart = f.hasPart
		d.resp.PartSize = f.size
		d.resp.Total = f.total
		d.beginYencBody()

	case strings.HasPrefix(s, "=ypart"):
		begin, end, ok := parseYPart(s)
		if ok {
			size := end - begin + 1
			if size > 0 && size <= MaxPartSize && end <= d.resp.FileSize {
				d.resp.PartBegin = begin - 1
				d.resp.PartEnd = end
				d.resp.PartSize = size
			}
		}
		d.beginYencBody()

	default:
		d.detectBodyFormat(s)
		if d.resp.Format == FormatUnknown && s != "" {
			d.resp.Lines = append(d.resp.Lines, s)
		}
	}
}

// detectBodyFormat applies the UU sniff rules once neither "=ybegin" nor
// "=ypart" matched on this header line: a bare "begin MODE FILENAME"
// header, a 60/61-char line starting with 'M' (a headerless body's
// continuation line), or — once past any header block — a data line
// whose length byte and content fall within the expected UU ranges.
// Mirrors original_source/src/yenc.cc's NNTPResponse_detect_format.
func (d *Decoder) detectBodyFormat(s string) {
	if s == "" {
		d.resp.HasEmptyLine = true
		return
	}

	if name, ok := isUUBeginLine(s); ok {
		d.resp.Format = FormatUU
		d.resp.FileName = decodeFilename(name)
		d.phase = phaseUUBody
		return
	}

	if isUUMLine(s) {
		d.resp.Format = FormatUU
		d.phase = phaseUUBody
		return
	}

	body := s
	if strings.HasPrefix(body, "..") {
		body = body[1:]
	}
	if len(body) <= 1 {
		return
	}
	if !(d.resp.StatusCode == statusBody ||
		(d.resp.StatusCode == statusArticle && d.resp.HasEmptyLine)) {
		return
	}

	length, badData := uuDataLength([]byte(body))
	if badData {
		return
	}
	content := body[1 : 1+length]
	padding := body[1+length:]
	if !allInASCIIRange(content, 32, 97) || !onlySpaceOrBacktick(padding) {
		return
	}
	d.resp.Format = FormatUU
	d.phase = phaseUUBody
}

func (d *Decoder) beginYencBody() {
	d.phase = phaseYencBody
	d.raw = true
	d.scan = scanState{frame: stateCRLF}
}

func (d *Decoder) processYencBody() (bool, error) {
	src := d.buf[:d.n]
	if len(src) == 0 {
		return false, nil
	}
	if len(d.scratch) < len(src) {
		d.scratch = make([]byte, len(src))
	}
	consumed, produced, reason := decodeDispatch(&d.scan, d.scratch, src, d.raw)
	d.resp.state = d.scan.publicState()

	if produced > 0 {
		d.resp.Data = append(d.resp.Data, d.scratch[:produced]...)
		d.resp.BytesDecoded += int64(produced)
		d.resp.CRC32 = CRC32(d.scratch[:produced], d.resp.CRC32)
		if int64(len(d.resp.Data)) > MaxPartSize {
			d.consumeWire(consumed)
			return false, ErrBufferOverflow
		}
	}
	if consumed < 0 {
		// The start of the "\r\n=y" or "\r\n.\r\n" marker arrived with an
		// earlier, already-consumed chunk.
		if reason == endArticle {
			d.consumeWire(consumed + 3)
			d.finish()
			return true, nil
		}
		restored := make([]byte, len(d.buf)+1)
		restored[0] = '='
		copy(restored[1:], d.buf[:d.n])
		d.buf, d.n = restored, d.n+1
		d.resp.BytesRead--
	} else {
		d.consumeWire(consumed)
	}

	switch reason {
	case endControl:
		d.phase = phaseYencTrailer
		return true, nil
	case endArticle:
		d.phase = phaseTerminator
		return true, nil
	default:
		if consumed == 0 {
			return false, nil
		}
		return true, nil
	}
}

func (d *Decoder) handleYencTrailer(rawLine []byte) {
	line := unstuffLine(rawLine)
	s := string(line)
	if strings.HasPrefix(s, "=ypart") {
		d.handleHeaderLine(rawLine)
		return
	}
	if strings.HasPrefix(s, "=yend") {
		f := parseYEnd(s)
		d.resp.EndSize = f.size
		if f.hasCRC32 {
			d.resp.CRCExpected, d.resp.HasCRC = f.crc32, true
		}
		if f.hasPcrc32 {
			d.resp.PCRCExpected, d.resp.HasPCRC = f.pcrc32, true
		}
	}
	d.phase = phaseTerminator
	if isTerminatorLine(line) {
		d.finish()
	}
}

func (d *Decoder) handleUULine(rawLine []byte) {
	line := unstuffLine(rawLine)
	s := string(line)
	switch {
	case isTerminatorLine(line):
		d.finish()
	case isUUEndLine(s):
		d.phase = phaseTerminator
	case isUUZeroLine(line):
		// zero-length padding line before "end"; nothing to decode.
	default:
		want, badData := uuDataLength(line)
		if badData {
			d.resp.HasBadData = true
			return
		}
		if want <= 0 {
			return
		}
		dst := make([]byte, want)
		n := decodeUULine(dst, line, want)
		if n > 0 {
			d.resp.Data = append(d.resp.Data, dst[:n]...)
			d.resp.BytesDecoded += int64(n)
			d.resp.CRC32 = CRC32(dst[:n], d.resp.CRC32)
		}
	}
}

func (d *Decoder) finish() {
	d.resp.Done = true
	d.ready = append(d.ready, d.resp)
	id := d.id
	d.resp = newResponse(id)
	d.phase = phaseStatusLine
	d.raw = false
	d.scan = scanState{}
}

// parseStatusLine parses "NNN rest of line" the way the reference's
// NNTPResponse_iternext does before deciding whether a body follows.
func parseStatusLine(line []byte) (code int16, rest string, ok bool) {
	s := string(line)
	sp := strings.IndexByte(s, ' ')
	head := s
	if sp >= 0 {
		head, rest = s[:sp], s[sp+1:]
	}
	if len(head) != 3 {
		return 0, "", false
	}
	n := 0
	for i := 0; i < 3; i++ {
		c := head[i]
		if c < '0' || c > '9' {
			return 0, "", false
		}
		n = n*10 + int(c-'0')
	}
	return int16(n), rest, true
}
