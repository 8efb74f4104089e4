/*
Package lzss decompresses the LZSS variants found on NDS cartridges.

Three decoders share one control structure: a flag byte is read before
every group of up to eight steps, consumed MSB first; a 0 bit emits one
literal byte, a 1 bit emits a back-reference copy from the already
produced output. Back-references may overlap their own output, which is
how runs are encoded, so copies always proceed byte by byte.

Type 0x10 (LZ10) and type 0x11 (LZ11) inputs start with a 4-byte header:
the tag byte followed by the 24-bit little-endian decompressed size.
LZ10 tokens are 16 bits: a 4-bit count (stored minus 3) and a 12-bit
displacement (stored minus 1). LZ11 extends the count encoding to up to
16 bits via the top nibble of the first token byte.

Overlay images are compressed backwards: the last 8 bytes of the buffer
are an {end delta, start delta} trailer, the compressed stream sits at
the end of the buffer and decompression runs toward the start. Decoding
reverses that region, runs the LZ10 decoder with a displacement bias of
3 and reverses the result again, so the forward algorithm is reused
unmodified.

Use Decompress(src, isOverlay). The decoded output always has exactly
the declared size; any out-of-range read or back-reference is an error,
never a truncated result.
*/
package lzss
