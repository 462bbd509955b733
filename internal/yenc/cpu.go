package yenc

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// The reference selects between scalar and SIMD (SSE2/AVX2/NEON) kernels
// for the body codec and CRC32 at runtime. This port has one Go
// implementation of each, but keeps the capability probe and the
// scalar/vector naming split so the dispatch point is exactly where the
// reference's would be if a vectorized path were added later.
type capabilities struct {
	AVX2  bool
	SSE2  bool
	ASIMD bool
}

var (
	capsOnce sync.Once
	caps     capabilities
)

func cpuCapabilities() capabilities {
	capsOnce.Do(func() {
		caps = capabilities{
			AVX2:  cpu.X86.HasAVX2,
			SSE2:  cpu.X86.HasSSE2,
			ASIMD: cpu.ARM64.HasASIMD,
		}
	})
	return caps
}

// decodeScalar and decodeVector alias the same implementation today;
// they exist as the seam a SIMD body-codec kernel would hang off, gated
// on cpuCapabilities().
func decodeScalar(st *scanState, dst, src []byte, raw bool) (int, int, endReason) {
	return decodeInto(st, dst, src, raw)
}

func decodeVector(st *scanState, dst, src []byte, raw bool) (int, int, endReason) {
	return decodeInto(st, dst, src, raw)
}

// decodeDispatch picks the fastest available kernel for the host CPU.
// Both arms call the same function today (see decodeScalar/decodeVector);
// the branch is kept so a real vector kernel slots in without touching
// any caller.
func decodeDispatch(st *scanState, dst, src []byte, raw bool) (int, int, endReason) {
	c := cpuCapabilities()
	if c.AVX2 || c.ASIMD {
		return decodeVector(st, dst, src, raw)
	}
	return decodeScalar(st, dst, src, raw)
}
