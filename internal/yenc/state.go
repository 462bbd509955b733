package yenc

// decoderState is the yEnc incremental decoder's CR/LF framing state,
// carried across Decoder.Commit calls inside scanState together with the
// escape flags (see codec.go). It is a plain byte enum rather
// than a closure or continuation object, matching
// RapidYenc::YencDecoderState in original_source/src/yencode/decoder.h.
type decoderState uint8

const (
	stateNone decoderState = iota
	stateCR
	stateCRLF
	stateEQ
	stateCRLFEQ
	stateCRLFDT
	stateCRLFDTCR
)

// endReason is the outcome of a single decodeInto call.
type endReason uint8

const (
	endNone endReason = iota
	// endControl: saw "\r\n=y" — caller should rewind 2 bytes so the line
	// parser observes "=y...".
	endControl
	// endArticle: saw "\r\n.\r\n" — caller should rewind 3 bytes so the
	// framer observes the "." terminator line.
	endArticle
)
