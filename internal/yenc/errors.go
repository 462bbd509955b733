package yenc

import "errors"

// Resource and caller-contract errors propagated by Decoder.Commit.
// Malformed wire data never produces one of these; it is reported through
// a Response's Status instead (see response.go).
var (
	// ErrInvalidArgument is returned by Commit for a non-positive n, or an
	// n that would write past the end of the scratch buffer.
	ErrInvalidArgument = errors.New("yenc: invalid argument")

	// ErrBufferOverflow is returned when a yEnc body would decode to more
	// than MaxPartSize bytes. The in-progress Response is poisoned; the
	// Decoder itself remains usable once the caller drains it.
	ErrBufferOverflow = errors.New("yenc: decoded part exceeds MaxPartSize")

	// ErrAlreadyFinished names the "previous response not drained" case.
	// Commit does not return it: a completed Response is queued for Next
	// and the Decoder goes on with the next response.
	ErrAlreadyFinished = errors.New("yenc: previous response not drained")
)

// Status is the derived, non-error outcome of a completed Response.
type Status int

const (
	StatusNotFinished Status = iota
	StatusSuccess
	StatusNoData
	StatusInvalidSize
	StatusInvalidCRC
	StatusInvalidFilename
	StatusNotFound
	StatusFailed
	StatusAuth
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusNotFinished:
		return "NOT_FINISHED"
	case StatusSuccess:
		return "SUCCESS"
	case StatusNoData:
		return "NO_DATA"
	case StatusInvalidSize:
		return "INVALID_SIZE"
	case StatusInvalidCRC:
		return "INVALID_CRC"
	case StatusInvalidFilename:
		return "INVALID_FILENAME"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusFailed:
		return "FAILED"
	case StatusAuth:
		return "AUTH"
	default:
		return "UNKNOWN"
	}
}
