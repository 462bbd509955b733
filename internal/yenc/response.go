package yenc

import (
	"fmt"

	"github.com/google/uuid"
)

// EncodingFormat is the wire format a Response was detected as carrying.
type EncodingFormat uint8

const (
	FormatUnknown EncodingFormat = iota
	FormatYEnc
	FormatUU
)

func (f EncodingFormat) String() string {
	switch f {
	case FormatYEnc:
		return "yenc"
	case FormatUU:
		return "uu"
	default:
		return "unknown"
	}
}

// Response is one decoded NNTP article body, filled in incrementally by
// a Decoder as chunks arrive. Every Response carries the UUID of the
// Decoder that produced it so related log lines (one Decoder instance
// can emit several Responses, one per multi-part segment) can be
// correlated.
type Response struct {
	DecoderID uuid.UUID

	Format EncodingFormat
	state  decoderState

	StatusCode int16
	Message    string
	Body       bool

	FileName  string
	FileSize  int64
	Part      int64
	HasPart   bool
	PartBegin int64
	PartEnd   int64
	PartSize  int64
	Total     int64
	EndSize   int64

	Data         []byte
	BytesRead    int64 // raw wire bytes consumed off the connection
	BytesDecoded int64 // bytes produced by the body codec
	CRC32        uint32
	CRCExpected  uint32
	HasCRC       bool
	PCRCExpected uint32
	HasPCRC      bool

	Lines        []string
	HasBadData   bool
	HasEmptyLine bool

	Done bool
}

// newResponse starts a fresh Response bound to decoderID.
func newResponse(decoderID uuid.UUID) *Response {
	return &Response{DecoderID: decoderID}
}

// State reports the yEnc body scanner's current resumable state, one of
// the seven values NONE/CR/CRLF/EQ/CRLFEQ/CRLFDT/CRLFDTCR.
func (r *Response) State() string {
	switch r.state {
	case stateNone:
		return "NONE"
	case stateCR:
		return "CR"
	case stateCRLF:
		return "CRLF"
	case stateEQ:
		return "EQ"
	case stateCRLFEQ:
		return "CRLFEQ"
	case stateCRLFDT:
		return "CRLFDT"
	case stateCRLFDTCR:
		return "CRLFDTCR"
	default:
		return "NONE"
	}
}

// expectedCRC returns the checksum Status should verify against, and
// whether one was present at all. A part-level pcrc32= is preferred over
// the whole-file crc32= whenever both are present (pcrc32 is the only one
// guaranteed to match this Response's own Data).
func (r *Response) expectedCRC() (uint32, bool) {
	if r.HasPCRC {
		return r.PCRCExpected, true
	}
	if r.HasCRC {
		return r.CRCExpected, true
	}
	return 0, false
}

// Status classifies a finished Response into the decode-outcome taxonomy.
// It never panics and never requires the caller to have checked Done
// first — a Response that isn't finished yet simply reports
// StatusNotFinished.
func (r *Response) Status() Status {
	if !r.Done {
		return StatusNotFinished
	}
	switch {
	case r.StatusCode == statusAuthPass || r.StatusCode == statusAuthPassword ||
		r.StatusCode == statusAuthRejected || r.StatusCode == statusAuthRequired ||
		r.StatusCode == statusAuthOther:
		return StatusAuth
	case r.StatusCode >= statusNotFoundLow && r.StatusCode <= statusNotFoundHigh:
		return StatusNotFound
	case r.StatusCode == statusCommandFatal,
		r.StatusCode >= statusCommandFailLo && r.StatusCode <= statusCommandFailHi,
		r.StatusCode >= statusServerFailLo && r.StatusCode <= statusServerFailHi:
		return StatusFailed
	case !r.Body:
		return StatusNoData
	case r.Format == FormatUnknown:
		return StatusUnknown
	case r.FileName == "":
		return StatusInvalidFilename
	case r.FileSize > 0 && r.PartSize > 0 &&
		(r.BytesDecoded != r.PartSize || (r.EndSize > 0 && r.EndSize != r.PartSize)):
		return StatusInvalidSize
	}
	if expected, ok := r.expectedCRC(); ok {
		if expected != r.CRC32 {
			return StatusInvalidCRC
		}
	}
	return StatusSuccess
}

func (r *Response) String() string {
	return fmt.Sprintf(
		"Response{decoder=%s format=%s state=%s status=%s file=%q size=%d part=%d decoded=%d crc=%08x}",
		r.DecoderID, r.Format, r.State(), r.Status(), r.FileName, r.FileSize, r.Part, r.BytesDecoded, r.CRC32,
	)
}
