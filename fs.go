// Package ndsfs mounts Nintendo DS cartridge images as a read-only
// filesystem.
//
// New decodes the 512-byte cartridge header, loads the file allocation
// table (FAT) and file name table (FNT) and exposes the image as an
// afero.Fs with this structure:
//
//  mountpoint
//  + header                        the raw cartridge header
//  + bin
//    + arm7.bin, arm9.bin          processor binaries
//    + fat.bin, fnt.bin            the raw tables
//    + banner.bin                  icon/title block (if present)
//    + arm9_ovt.bin                overlay table (if present)
//    + arm9_overlays/overlay_N     one file per overlay (if present)
//    + arm7_ovt.bin, arm7_overlays likewise for the ARM7
//  + nitrofs
//    + ...                         the embedded NitroFS directory tree
//
// The filesystem never writes and never takes ownership of the supplied
// reader. All decoding happens up front in New; reading file contents is
// the only operation that touches the reader afterwards.
package ndsfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/gonitro/ndsfs/checkpoint"
	"github.com/gonitro/ndsfs/lzss"
	"github.com/spf13/afero"
)

// These errors may occur while opening an image.
var (
	ErrReadImage    = errors.New("could not read from the cartridge image")
	ErrNotCartridge = errors.New("header does not look like an NDS cartridge")
)

// entry is one node of the mounted tree.
type entry struct {
	name     string
	path     string
	isDir    bool
	offset   uint32
	size     uint32
	children []*entry
}

func (e *entry) virtual() VirtualEntry {
	kind := EntryFile
	if e.isDir {
		kind = EntryDirectory
	}
	return VirtualEntry{Path: e.path, Kind: kind, Offset: e.offset, Length: e.size}
}

// Fs is a read-only afero.Fs over an NDS cartridge image.
type Fs struct {
	reader  io.ReadSeeker
	header  CartridgeHeader
	fat     []FatEntry
	entries map[string]*entry
}

// New opens a cartridge image. The header must pass the structural
// plausibility checks (without CRC validation, matching what the
// original cartridge loaders accept).
func New(reader io.ReadSeeker) (*Fs, error) {
	return newFs(reader, true)
}

// NewSkipChecks opens a cartridge image just like New but does not
// require a plausible header. This may let you open damaged or unusual
// images. Use with caution!
func NewSkipChecks(reader io.ReadSeeker) (*Fs, error) {
	return newFs(reader, false)
}

func newFs(reader io.ReadSeeker, check bool) (*Fs, error) {
	fs := &Fs{
		reader:  reader,
		entries: map[string]*entry{},
	}
	fs.entries[""] = &entry{isDir: true}

	raw, err := fs.readAt(0, HeaderSize)
	if err != nil {
		return nil, err
	}

	fs.header, err = DecodeHeader(raw)
	if err != nil {
		return nil, err
	}

	if check && !fs.header.Plausible(false) {
		return nil, checkpoint.From(ErrNotCartridge)
	}

	if err := fs.loadFAT(); err != nil {
		return nil, err
	}

	if err := fs.buildEntries(); err != nil {
		return nil, err
	}

	fs.sortChildren()

	return fs, nil
}

// Header returns the decoded cartridge header.
func (fs *Fs) Header() CartridgeHeader {
	return fs.header
}

// Entries returns the flat listing of all members, sorted by path. The
// root directory itself is not included.
func (fs *Fs) Entries() []VirtualEntry {
	paths := make([]string, 0, len(fs.entries))
	for p := range fs.entries {
		if p != "" {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	out := make([]VirtualEntry, len(paths))
	for i, p := range paths {
		out[i] = fs.entries[p].virtual()
	}

	return out
}

// readAt issues one ordered seek + read-exact against the image. A short
// read is a hard failure.
func (fs *Fs) readAt(offset uint32, length uint32) ([]byte, error) {
	if _, err := fs.reader.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, checkpoint.Wrap(err, ErrReadImage)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(fs.reader, buf); err != nil {
		return nil, checkpoint.Wrap(err, ErrReadImage)
	}

	return buf, nil
}

// readFileAt reads up to readSize content bytes of e starting at offset.
// Used by File; reads never cross the entry's byte range.
func (fs *Fs) readFileAt(e *entry, offset int64, readSize int64) ([]byte, error) {
	if offset >= int64(e.size) {
		return nil, io.EOF
	}
	if offset+readSize > int64(e.size) {
		readSize = int64(e.size) - offset
	}

	return fs.readAt(e.offset+uint32(offset), uint32(readSize))
}

// readDirInfo returns the direct children of e.
func (fs *Fs) readDirInfo(e *entry) ([]os.FileInfo, error) {
	if !e.isDir {
		return nil, syscall.ENOTDIR
	}

	infos := make([]os.FileInfo, len(e.children))
	for i, child := range e.children {
		infos[i] = entryFileInfo{child}
	}

	return infos, nil
}

// addDir registers a directory, creating missing parents.
func (fs *Fs) addDir(p string) *entry {
	if e, ok := fs.entries[p]; ok {
		return e
	}

	e := &entry{name: path.Base(p), path: p, isDir: true}
	fs.entries[p] = e

	parent := fs.addDirParent(p)
	parent.children = append(parent.children, e)

	return e
}

// addFile registers a file, creating missing parent directories.
func (fs *Fs) addFile(p string, offset, size uint32) {
	e := &entry{name: path.Base(p), path: p, offset: offset, size: size}
	fs.entries[p] = e

	parent := fs.addDirParent(p)
	parent.children = append(parent.children, e)
}

func (fs *Fs) addDirParent(p string) *entry {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		dir = ""
	}
	return fs.addDir(dir)
}

func (fs *Fs) sortChildren() {
	for _, e := range fs.entries {
		children := e.children
		sort.Slice(children, func(i, j int) bool {
			return children[i].name < children[j].name
		})
	}
}

// normalize maps a caller-supplied name to an entry key. The root may be
// addressed as "", "." or "/".
func normalize(name string) (string, bool) {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "", true
	}

	cleaned := path.Clean(name)
	if cleaned == "." {
		return "", true
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}

	return cleaned, true
}

func (fs *Fs) lookup(op, name string) (*entry, error) {
	if p, ok := normalize(name); ok {
		if e, found := fs.entries[p]; found {
			return e, nil
		}
	}

	return nil, &os.PathError{Op: op, Path: name, Err: os.ErrNotExist}
}

func (fs *Fs) Open(name string) (afero.File, error) {
	e, err := fs.lookup("open", name)
	if err != nil {
		return nil, err
	}

	return &File{fs: fs, entry: e}, nil
}

// OpenFile opens a file for reading. Any writing flag fails with
// syscall.EPERM as the filesystem is read-only.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, syscall.EPERM
	}

	return fs.Open(name)
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	e, err := fs.lookup("stat", name)
	if err != nil {
		return nil, err
	}

	return entryFileInfo{e}, nil
}

func (fs *Fs) Name() string {
	return "ndsfs"
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return nil, syscall.EPERM
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	return syscall.EPERM
}

func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	return syscall.EPERM
}

func (fs *Fs) Remove(name string) error {
	return syscall.EPERM
}

func (fs *Fs) RemoveAll(path string) error {
	return syscall.EPERM
}

func (fs *Fs) Rename(oldname, newname string) error {
	return syscall.EPERM
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return syscall.EPERM
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return syscall.EPERM
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return syscall.EPERM
}

var _ afero.Fs = (*Fs)(nil)

// OverlayData reads one overlay by processor ("arm7" or "arm9") and
// overlay id. With decompress the raw bytes are run through the
// backwards overlay decompressor.
func (fs *Fs) OverlayData(proc string, id uint32, decompress bool) ([]byte, error) {
	e, err := fs.lookup("read", fmt.Sprintf("bin/%s_overlays/overlay_%d", proc, id))
	if err != nil {
		return nil, err
	}

	data, err := fs.readAt(e.offset, e.size)
	if err != nil {
		return nil, err
	}

	if !decompress {
		return data, nil
	}

	return lzss.Decompress(data, true)
}
