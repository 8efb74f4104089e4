package lzss

import (
	"encoding/binary"
	"fmt"
)

// Decompress expands an LZSS compressed buffer.
//
// With isOverlay false the first input byte selects the format (0x10 or
// 0x11) and bytes 1..3 hold the 24-bit decompressed size. With isOverlay
// true src is a whole overlay image whose trailer describes a backwards
// compressed region; see decompressOverlay.
func Decompress(src []byte, isOverlay bool) ([]byte, error) {
	if isOverlay {
		return decompressOverlay(src)
	}

	if len(src) < 4 {
		return nil, ErrInputTooShort
	}

	size := uint32(src[1]) | uint32(src[2])<<8 | uint32(src[3])<<16

	switch src[0] {
	case 0x10:
		return decompressLZ10(src, 4, size, false)
	case 0x11:
		return decompressLZ11(src, 4, size, false)
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrBadTag, src[0])
	}
}

// decompressLZ10 decodes a type 0x10 stream starting at pos. In overlay
// mode displacements are stored minus 3 instead of minus 1.
func decompressLZ10(src []byte, pos int, size uint32, overlay bool) ([]byte, error) {
	out := make([]byte, 0, size)

	dispExtra := 1
	if overlay {
		dispExtra = 3
	}

decode:
	for uint32(len(out)) < size {
		if pos >= len(src) {
			return nil, ErrTruncated
		}
		flags := src[pos]
		pos++

		for bit := 7; bit >= 0; bit-- {
			if flags>>uint(bit)&1 == 0 {
				if pos >= len(src) {
					return nil, ErrTruncated
				}
				out = append(out, src[pos])
				pos++
			} else {
				if pos+1 >= len(src) {
					return nil, ErrTruncated
				}
				token := uint16(src[pos])<<8 | uint16(src[pos+1])
				pos += 2

				count := int(token>>12) + 3
				disp := int(token&0xFFF) + dispExtra
				if disp > len(out) {
					return nil, fmt.Errorf("%w: displacement %d with %d bytes decoded", ErrBadBackref, disp, len(out))
				}

				// The ranges may overlap (count > disp encodes a run),
				// so every written byte must be visible to the next read.
				for i := 0; i < count; i++ {
					out = append(out, out[len(out)-disp])
				}
			}

			if uint32(len(out)) >= size {
				break decode
			}
		}
	}

	if uint32(len(out)) != size {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(out), size)
	}

	return out, nil
}

// decompressLZ11 decodes a type 0x11 stream starting at pos. The count
// encoding is selected by the top nibble of the first token byte:
// 0 -> 8 extra count bits (count-0x11), 1 -> 16 extra count bits
// (count-0x111), anything else is the count itself minus 1.
// LZ11 never appears in overlay images; requesting overlay mode fails.
func decompressLZ11(src []byte, pos int, size uint32, overlay bool) ([]byte, error) {
	if overlay {
		return nil, ErrOverlayUnsupported
	}

	out := make([]byte, 0, size)

	next := func() (byte, bool) {
		if pos >= len(src) {
			return 0, false
		}
		b := src[pos]
		pos++
		return b, true
	}

decode:
	for uint32(len(out)) < size {
		flags, ok := next()
		if !ok {
			return nil, ErrTruncated
		}

		for bit := 7; bit >= 0; bit-- {
			if flags>>uint(bit)&1 == 0 {
				b, ok := next()
				if !ok {
					return nil, ErrTruncated
				}
				out = append(out, b)
			} else {
				b, ok := next()
				if !ok {
					return nil, ErrTruncated
				}

				var count int
				switch b >> 4 {
				case 0:
					// 8 bit count spread over two bytes.
					count = int(b&0xF) << 4
					if b, ok = next(); !ok {
						return nil, ErrTruncated
					}
					count += int(b>>4) + 0x11
				case 1:
					// 16 bit count spread over three bytes.
					count = int(b&0xF) << 12
					b2, ok := next()
					if !ok {
						return nil, ErrTruncated
					}
					count += int(b2) << 4
					if b, ok = next(); !ok {
						return nil, ErrTruncated
					}
					count += int(b>>4) + 0x111
				default:
					count = int(b>>4) + 1
				}

				// The low nibble of the last count byte and one more
				// byte form the 12-bit displacement.
				lo, ok := next()
				if !ok {
					return nil, ErrTruncated
				}
				disp := int(b&0xF)<<8 + int(lo) + 1
				if disp > len(out) {
					return nil, fmt.Errorf("%w: displacement %d with %d bytes decoded", ErrBadBackref, disp, len(out))
				}

				for i := 0; i < count; i++ {
					out = append(out, out[len(out)-disp])
				}
			}

			if uint32(len(out)) >= size {
				break decode
			}
		}
	}

	if uint32(len(out)) != size {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(out), size)
	}

	return out, nil
}

// decompressOverlay expands an overlay image compressed in place,
// backwards. The 8-byte trailer holds {end delta, start delta}; the top
// byte of the end delta counts trailing padding bytes (the trailer
// included). The compressed region is the last endDelta bytes of the
// input minus that padding, reversed so the forward LZ10 decoder can
// process it, and the result is reversed back. Everything before the
// compressed region is copied through untouched.
func decompressOverlay(src []byte) ([]byte, error) {
	if len(src) < 8 {
		return nil, ErrInputTooShort
	}

	endDelta := binary.LittleEndian.Uint32(src[len(src)-8:])
	startDelta := binary.LittleEndian.Uint32(src[len(src)-4:])

	padding := int(endDelta >> 24)
	endDelta &= 0xFFFFFF
	size := startDelta + endDelta

	if int(endDelta) > len(src) {
		return nil, fmt.Errorf("%w: end delta %d exceeds input size %d", ErrBadFooter, endDelta, len(src))
	}
	if int(endDelta) < padding {
		return nil, fmt.Errorf("%w: end delta %d smaller than padding %d", ErrBadFooter, endDelta, padding)
	}

	keep := len(src) - int(endDelta)

	flipped := make([]byte, int(endDelta)-padding)
	for i := range flipped {
		flipped[i] = src[keep+len(flipped)-1-i]
	}

	tail, err := decompressLZ10(flipped, 0, size, true)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(tail)-1; i < j; i, j = i+1, j-1 {
		tail[i], tail[j] = tail[j], tail[i]
	}

	out := make([]byte, 0, keep+len(tail))
	out = append(out, src[:keep]...)
	out = append(out, tail...)

	return out, nil
}
