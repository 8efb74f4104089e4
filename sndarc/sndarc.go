// Package sndarc extracts files from "SNDFILE" sound archive containers.
//
// The container is a fixed-layout format with big-endian integer fields:
// a 32-byte header carrying the magic tag, the file count and the total
// archive size, followed by one 64-byte entry per file. Extraction is
// all-or-nothing; any failed check aborts without a partial result.
package sndarc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/gonitro/ndsfs/checkpoint"
)

const (
	headerLen = 32
	entryLen  = 64
)

// magic is the tag every archive starts with, NUL terminator included.
var magic = [8]byte{'S', 'N', 'D', 'F', 'I', 'L', 'E', 0}

// These errors may occur while extracting an archive.
var (
	ErrTooShort = errors.New("input too short for archive layout")
	ErrBadMagic = errors.New("missing SNDFILE magic")
	ErrBadSize  = errors.New("archive size field does not match input size")
	ErrBadEntry = errors.New("file entry outside archive bounds")
)

type archiveHeader struct {
	Magic       [8]byte
	FileCount   uint32
	ArchiveSize uint32
	Reserved    [4]uint32
}

type fileEntry struct {
	Name       [32]byte
	Offset     uint32
	SizePadded uint32
	SizeTarget uint32
	Reserved   [5]uint32
}

// Entry is one extracted file.
type Entry struct {
	// Name holds the raw 32-byte name field verbatim. The format does
	// not guarantee NUL termination.
	Name string
	Data []byte
}

// TrimmedName returns the name cut at the first NUL byte.
func (e Entry) TrimmedName() string {
	if i := strings.IndexByte(e.Name, 0); i >= 0 {
		return e.Name[:i]
	}
	return e.Name
}

// Extract decodes an archive and returns all contained files.
func Extract(data []byte) ([]Entry, error) {
	if len(data) < headerLen {
		return nil, checkpoint.Wrap(fmt.Errorf("%d bytes", len(data)), ErrTooShort)
	}

	r := bytes.NewReader(data)

	var header archiveHeader
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, checkpoint.From(err)
	}

	if header.Magic != magic {
		return nil, checkpoint.From(ErrBadMagic)
	}

	if uint64(len(data)) <= headerLen+entryLen*uint64(header.FileCount) {
		return nil, checkpoint.Wrap(fmt.Errorf("%d bytes for %d entries", len(data), header.FileCount), ErrTooShort)
	}

	if uint64(header.ArchiveSize) != uint64(len(data)) {
		return nil, checkpoint.Wrap(fmt.Errorf("header says %d, input is %d", header.ArchiveSize, len(data)), ErrBadSize)
	}

	entries := make([]Entry, 0, header.FileCount)

	for i := uint32(0); i < header.FileCount; i++ {
		var entry fileEntry
		if err := binary.Read(r, binary.BigEndian, &entry); err != nil {
			return nil, checkpoint.From(err)
		}

		// SizePadded just rounds SizeTarget up to a 32-byte boundary
		// and plays no role in extraction.
		end := uint64(entry.Offset) + uint64(entry.SizeTarget)
		if uint64(entry.Offset) > uint64(len(data)) || end > uint64(len(data)) {
			return nil, checkpoint.Wrap(fmt.Errorf("entry %d spans [%d, %d) in %d bytes", i, entry.Offset, end, len(data)), ErrBadEntry)
		}

		blob := make([]byte, entry.SizeTarget)
		copy(blob, data[entry.Offset:end])

		entries = append(entries, Entry{
			Name: string(entry.Name[:]),
			Data: blob,
		})
	}

	return entries, nil
}
