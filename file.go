package ndsfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/gonitro/ndsfs/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file.
var (
	ErrReadFile = errors.New("could not read file completely")
	ErrSeekFile = errors.New("could not seek inside of the file")
	ErrReadDir  = errors.New("could not read the directory")
)

// cartSource provides all methods File needs from a mounted cartridge.
// It mainly exists to be able to mock the Fs in tests.
// Generated mock using mockgen:
//  mockgen -source=file.go -destination=file_mock.go -package ndsfs
type cartSource interface {
	readFileAt(e *entry, offset int64, readSize int64) ([]byte, error)
	readDirInfo(e *entry) ([]os.FileInfo, error)
}

// File is a read-only afero.File over one member of the mounted image.
type File struct {
	fs    cartSource
	entry *entry

	offset    int64
	dirOffset int
}

func (f *File) Close() error {
	f.fs = nil
	f.entry = nil
	f.offset = 0
	f.dirOffset = 0

	return nil
}

func (f *File) Read(p []byte) (n int, err error) {
	if f.fs == nil {
		return 0, afero.ErrFileClosed
	}
	if p == nil {
		return 0, nil
	}

	// Reading a file if the size has been already reached makes no sense.
	if int64(f.entry.size) <= f.offset {
		return 0, io.EOF
	}

	data, err := f.fs.readFileAt(f.entry, f.offset, int64(len(p)))
	if data != nil {
		copy(p, data)
	}

	// Seek even if an error occurred, errors from reading win over
	// errors from seeking.
	_, seekErr := f.Seek(int64(len(data)), io.SeekCurrent)

	if err != nil {
		return len(data), checkpoint.Wrap(err, ErrReadFile)
	}

	if seekErr != nil {
		return len(data), checkpoint.Wrap(seekErr, ErrReadFile)
	}

	return len(data), nil
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if f.fs == nil {
		return 0, afero.ErrFileClosed
	}
	if p == nil {
		return 0, nil
	}

	// Reading over the end makes no sense.
	if int64(f.entry.size) <= off {
		return 0, io.EOF
	}

	data, err := f.fs.readFileAt(f.entry, off, int64(len(p)))
	if data != nil {
		copy(p, data)
	}

	if err != nil {
		return len(data), checkpoint.Wrap(err, ErrReadFile)
	}

	return len(data), nil
}

// Seek jumps to a specific offset in the file. This affects all Read
// operations except ReadAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.fs == nil {
		return 0, afero.ErrFileClosed
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = int64(f.entry.size) + offset
	default:
		return 0, checkpoint.Wrap(ErrSeekFile, fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence))
	}

	if offset < 0 || offset > int64(f.entry.size) {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence))
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Write(p []byte) (n int, err error) {
	return 0, syscall.EPERM
}

func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	return 0, syscall.EPERM
}

func (f *File) Name() string {
	if f.entry == nil {
		return ""
	}
	return f.entry.name
}

// Readdir reads the contents of the directory in os.File.Readdir
// semantics: a positive count returns at most that many entries and
// io.EOF once the directory is exhausted, any other count returns
// everything that is left.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if f.fs == nil {
		return nil, afero.ErrFileClosed
	}
	if !f.entry.isDir {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}

	all, err := f.fs.readDirInfo(f.entry)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	if f.dirOffset > len(all) {
		f.dirOffset = len(all)
	}
	rest := all[f.dirOffset:]

	if count <= 0 {
		f.dirOffset = len(all)
		return rest, nil
	}

	if len(rest) == 0 {
		return nil, io.EOF
	}
	if len(rest) > count {
		rest = rest[:count]
	}
	f.dirOffset += len(rest)

	return rest, nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	names := make([]string, len(content))
	for i, info := range content {
		names[i] = info.Name()
	}

	return names, nil
}

func (f *File) Stat() (os.FileInfo, error) {
	if f.entry == nil {
		return nil, afero.ErrFileClosed
	}

	return entryFileInfo{f.entry}, nil
}

func (f *File) Sync() error {
	return nil
}

func (f *File) Truncate(size int64) error {
	return syscall.EPERM
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}

var _ afero.File = (*File)(nil)
