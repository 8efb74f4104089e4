package ndsfs

import (
	"errors"
	"io"
	"io/fs"
)

type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

type GoFile struct {
	*File
}

func (g GoFile) Stat() (fs.FileInfo, error) {
	return g.File.Stat()
}

func (g GoFile) Read(bytes []byte) (int, error) {
	return g.File.Read(bytes)
}

func (g GoFile) Close() error {
	return g.File.Close()
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	entries, err := g.File.Readdir(n)

	goEntries := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		goEntries[i] = GoDirEntry{e}
	}

	return goEntries, err
}

// GoFs just wraps the afero implementation to be compatible with fs.FS.
type GoFs struct {
	Fs
}

// NewGoFS opens a cartridge image as an fs.FS compatible filesystem.
func NewGoFS(reader io.ReadSeeker) (*GoFs, error) {
	ndsFs, err := New(reader)
	if err != nil {
		return nil, err
	}

	return &GoFs{*ndsFs}, nil
}

// NewGoFSSkipChecks opens a cartridge image as an fs.FS compatible
// filesystem just like NewGoFS but it skips the header plausibility
// checks. Use with caution!
func NewGoFSSkipChecks(reader io.ReadSeeker) (*GoFs, error) {
	ndsFs, err := NewSkipChecks(reader)
	if err != nil {
		return nil, err
	}

	return &GoFs{*ndsFs}, nil
}

func (g GoFs) Open(name string) (fs.File, error) {
	// fs.FS is stricter about names than afero: "." is the root and
	// rooted or dotted paths are invalid.
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	file, err := g.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	f, ok := file.(*File)
	if !ok {
		return nil, errors.New("invalid File implementation")
	}

	return GoFile{f}, nil
}
