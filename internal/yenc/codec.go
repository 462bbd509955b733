package yenc

// This file implements the yEnc body codec: forward (Encode, one-shot)
// and reverse (decodeInto, incremental and resumable across chunk
// boundaries).
//
// Wire mechanics: every byte is shifted by +42 (mod 256) on encode, -42 on
// decode. A handful of shifted values collide with bytes the NNTP/yEnc
// framing needs for itself (NUL, CR, LF, '=', and — only at a line's first
// or last column — TAB/SPACE, and — only at column 0 — '.'); those are
// escaped as '=' followed by the byte +64 (mod 256), so the escape
// companion is always one of '@','J','M','}','I','`','n' and therefore
// never itself a raw CR, LF or '.'. That invariant is what lets the boundary case below
// be reasoned about precisely instead of guessed at.

// Encode yEnc-encodes data in a single pass and returns the wire bytes
// alongside crc32(data) (IEEE, the standard "zip" CRC — see crc32x.go).
// Matches original_source/src/yenc.cc's yenc_encode and
// other_examples/48477228_ahallais-yPost's capacity pre-sizing.
func Encode(data []byte) ([]byte, uint32) {
	// Worst case: every byte escapes (2x) plus a CRLF every LineSize
	// output bytes, plus slack.
	cap := 2*len(data) + 2*((2*len(data)+LineSize-1)/LineSize) + 66
	out := make([]byte, 0, cap)

	col := 0
	emit := func(b byte) {
		out = append(out, b)
		col++
		if col == LineSize {
			out = append(out, '\r', '\n')
			col = 0
		}
	}

	for _, b := range data {
		e := byte(b + 42)
		switch {
		case e == 0x00 || e == 0x0A || e == 0x0D || e == 0x3D:
			emit('=')
			emit(byte(e + 64))
		case (e == 0x09 || e == 0x20) && (col == 0 || col == LineSize-1):
			emit('=')
			emit(byte(e + 64))
		case e == 0x2E && col == 0:
			emit('=')
			emit(byte(e + 64))
		default:
			emit(e)
		}
	}

	return out, CRC32(data, 0)
}

// scanState is the yEnc incremental decoder's resumable state: the escape
// memory (pendingEscape, plus whether a resolved escape should instead be
// checked against a trailing 'y' to detect a "=yend"/"=ypart" control
// line) and the CR/LF framing sub-state (NONE/CR/CRLF/CRLFDT/CRLFDTCR).
// The two are tracked separately internally, because a pending escape
// must survive a CRLF line wrap: an escape's companion byte can legally
// land as the first character of the next line, since column advances
// once per emitted byte and LineSize can fall between them, while framing
// itself keeps advancing through that same CRLF so dot-unstuffing and the
// article terminator are still detected correctly. Response.State()
// projects the pair back onto a single seven-value decoder_state enum
// for introspection.
type scanState struct {
	pendingEscape     bool
	checkControlAfter bool
	frame             decoderState
}

// publicState maps the internal (pendingEscape, frame) pair onto the
// documented seven-value enum.
func (s scanState) publicState() decoderState {
	if s.pendingEscape {
		if s.checkControlAfter {
			return stateCRLFEQ
		}
		return stateEQ
	}
	return s.frame
}

// decodeInto decodes as much of src as it can into dst (which must be at
// least len(src) bytes — decode only ever shrinks or preserves length)
// continuing from st, which is mutated in place so the next call (on the
// next chunk) resumes correctly. raw selects dot-unstuffing and
// "\r\n.\r\n" article-terminator detection; false ("cooked") mode skips
// both, for callers that have already de-framed the line.
func decodeInto(st *scanState, dst, src []byte, raw bool) (consumed, produced int, reason endReason) {
	i := 0
	for i < len(src) {
		c := src[i]
		i++

		if st.pendingEscape {
			switch c {
			case '\r':
				st.frame = stateCR
				continue
			case '\n':
				st.frame = stateCRLF
				continue
			}
			if st.checkControlAfter && c == 'y' {
				reason = endControl
				st.pendingEscape = false
				st.checkControlAfter = false
				st.frame = stateCRLF
				goto done
			}
			dst[produced] = byte(c - 106)
			produced++
			st.pendingEscape = false
			st.checkControlAfter = false
			st.frame = stateNone
			continue
		}

		switch st.frame {
		case stateNone:
			switch c {
			case '\r':
				st.frame = stateCR
			case '=':
				st.pendingEscape = true
				st.checkControlAfter = false
			default:
				// '\n' with no preceding CR is malformed; decode it like
				// any other byte rather than raising.
				dst[produced] = byte(c - 42)
				produced++
			}

		case stateCR:
			switch c {
			case '\r':
				// repeated CR: keep waiting for the LF.
			case '\n':
				st.frame = stateCRLF
			default:
				// the earlier CR was not part of a CRLF pair; CR is never
				// legitimate payload data (the encoder always escapes
				// it), so drop it and reprocess this byte fresh.
				st.frame = stateNone
				i--
			}

		case stateCRLF:
			switch c {
			case '\r':
				st.frame = stateCR
			case '\n':
				// repeated blank line; stay put.
			case '=':
				st.frame = stateCRLFEQ
			case '.':
				if raw {
					st.frame = stateCRLFDT
				} else {
					dst[produced] = byte(c - 42)
					produced++
					st.frame = stateNone
				}
			default:
				dst[produced] = byte(c - 42)
				produced++
				st.frame = stateNone
			}

		case stateCRLFEQ:
			// Saw "\r\n=": one more byte decides control-line vs. data.
			switch c {
			case '\r':
				st.pendingEscape = true
				st.checkControlAfter = true
				st.frame = stateCR
			case '\n':
				st.pendingEscape = true
				st.checkControlAfter = true
				st.frame = stateCRLF
			case 'y':
				reason = endControl
				st.frame = stateCRLF
				goto done
			default:
				dst[produced] = byte(c - 106)
				produced++
				st.frame = stateNone
			}

		case stateCRLFDT:
			switch c {
			case '\r':
				st.frame = stateCRLFDTCR
			case '\n':
				dst[produced] = byte(c - 42)
				produced++
				st.frame = stateNone
			case '=':
				st.pendingEscape = true
				st.checkControlAfter = false
			case '.':
				// second dot: the real line started with literal '.'.
				dst[produced] = byte(c - 42)
				produced++
				st.frame = stateNone
			default:
				dst[produced] = byte(c - 42)
				produced++
				st.frame = stateNone
			}

		case stateCRLFDTCR:
			if c == '\n' {
				reason = endArticle
				st.frame = stateCRLF
				goto done
			}
			// not actually "\r\n.\r\n": the dot we withheld was real data.
			dst[produced] = byte('.' - 42)
			produced++
			st.frame = stateNone
			i--
		}
	}

done:
	consumed = i
	switch reason {
	case endControl:
		consumed -= 2
	case endArticle:
		consumed -= 3
	}
	return consumed, produced, reason
}
