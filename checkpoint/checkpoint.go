// Package checkpoint decorates errors with the file and line of the call
// site, building up something similar to a stacktrace while keeping
// errors.Is and errors.As working for every error on the chain.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
)

type checkpoint struct {
	err  error
	prev error
	at   string
}

// From wraps err with the position of the caller.
// It returns nil if err is nil.
// io.EOF and io.ErrUnexpectedEOF pass through untouched because some
// callers still compare them with ==.
// https://github.com/golang/go/issues/39155
func From(err error) error {
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}

	return &checkpoint{err: err, at: caller()}
}

// Wrap records the position of the caller and attaches err as an additional
// marker error to prev. It returns nil if prev is nil, so call sites can
// wrap unconditionally:
//  var ErrDecode = errors.New("decode failed")
//  func decode() error {
//  	return checkpoint.Wrap(readSomething(), ErrDecode)
//  }
// Both prev and err stay visible to errors.Is and errors.As.
func Wrap(prev, err error) error {
	if prev == nil || prev == io.EOF || prev == io.ErrUnexpectedEOF {
		return prev
	}

	return &checkpoint{err: err, prev: prev, at: caller()}
}

func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}

	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

func (c *checkpoint) Error() string {
	switch {
	case c.err == nil:
		return fmt.Sprintf("%s: %v", c.at, c.prev)
	case c.prev == nil:
		return fmt.Sprintf("%s: %v", c.at, c.err)
	default:
		return fmt.Sprintf("%s: %v: %v", c.at, c.err, c.prev)
	}
}

func (c *checkpoint) Unwrap() error {
	if c.prev != nil {
		return c.prev
	}

	return c.err
}

func (c *checkpoint) Is(target error) bool {
	return errors.Is(c.err, target)
}

func (c *checkpoint) As(target interface{}) bool {
	return errors.As(c.err, target)
}
