package lzss

import "errors"

// Package errors. Use errors.New for static messages, fmt.Errorf with %w
// when values are needed.
var (
	ErrInputTooShort      = errors.New("input too short for compression header")
	ErrBadTag             = errors.New("unknown compression tag")
	ErrTruncated          = errors.New("unexpected end of compressed input")
	ErrBadBackref         = errors.New("back-reference before start of output")
	ErrSizeMismatch       = errors.New("output does not match declared size")
	ErrOverlayUnsupported = errors.New("lz11 cannot decode overlay images")
	ErrBadFooter          = errors.New("invalid overlay footer")
)
