package ndsfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gonitro/ndsfs/checkpoint"
)

// These errors may occur while decoding the cartridge tables.
var (
	ErrCorruptFAT     = errors.New("corrupt file allocation table")
	ErrCorruptFNT     = errors.New("corrupt file name table")
	ErrCorruptOverlay = errors.New("corrupt overlay table")
)

// loadFAT reads and decodes the file allocation table.
func (fs *Fs) loadFAT() error {
	h := fs.header

	raw, err := fs.readAt(h.FileAllocationTableOffset, h.FileAllocationTableSize)
	if err != nil {
		return err
	}

	fs.fat = make([]FatEntry, h.FileAllocationTableSize/fatEntrySize)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &fs.fat); err != nil {
		return checkpoint.Wrap(err, ErrCorruptFAT)
	}

	return nil
}

// fatRange resolves a FAT id to its byte range. The format does not
// guarantee End >= Start, so that is rejected here.
func (fs *Fs) fatRange(id uint32) (FatEntry, error) {
	if id >= uint32(len(fs.fat)) {
		return FatEntry{}, checkpoint.Wrap(fmt.Errorf("file id %d with %d entries", id, len(fs.fat)), ErrCorruptFAT)
	}

	fe := fs.fat[id]
	if fe.End < fe.Start {
		return FatEntry{}, checkpoint.Wrap(fmt.Errorf("entry %d range [%d, %d)", id, fe.Start, fe.End), ErrCorruptFAT)
	}

	return fe, nil
}

// buildEntries populates the whole tree: the fixed top-level members,
// the overlay tables and the NitroFS directory structure.
func (fs *Fs) buildEntries() error {
	h := fs.header

	fs.addFile("header", 0, h.RomSizeHeader)

	fs.addFile("bin/arm7.bin", h.ARM7RomOffset, h.ARM7Size)
	fs.addFile("bin/arm9.bin", h.ARM9RomOffset, h.ARM9Size)

	fs.addFile("bin/fat.bin", h.FileAllocationTableOffset, h.FileAllocationTableSize)
	fs.addFile("bin/fnt.bin", h.FileNameTableOffset, h.FileNameTableSize)

	if err := fs.addOverlays("arm7", h.ARM7OverlayOffset, h.ARM7OverlaySize); err != nil {
		return err
	}
	if err := fs.addOverlays("arm9", h.ARM9OverlayOffset, h.ARM9OverlaySize); err != nil {
		return err
	}

	if h.IconTitleOffset != 0 {
		fs.addFile("bin/banner.bin", h.IconTitleOffset, BannerSize)
	}

	fnt, err := fs.readAt(h.FileNameTableOffset, h.FileNameTableSize)
	if err != nil {
		return err
	}

	walk := fntWalk{
		fs:      fs,
		fnt:     fnt,
		visited: map[uint16]bool{},
	}

	root, err := fntDir(fnt, 0)
	if err != nil {
		return err
	}
	// Directory ids index the table at the start of the FNT; the root
	// entry reuses its parent field for the directory count.
	walk.dirCount = root.ParentOrCount

	return walk.dir(0, "nitrofs")
}

// fntDir decodes the directory entry with the given id.
func fntDir(fnt []byte, id uint16) (FntDirEntry, error) {
	off := int(id) * fntDirEntrySize
	if off+fntDirEntrySize > len(fnt) {
		return FntDirEntry{}, checkpoint.Wrap(fmt.Errorf("directory %d outside table", id), ErrCorruptFNT)
	}

	return FntDirEntry{
		SubEntryOffset: binary.LittleEndian.Uint32(fnt[off:]),
		FirstFatID:     binary.LittleEndian.Uint16(fnt[off+4:]),
		ParentOrCount:  binary.LittleEndian.Uint16(fnt[off+6:]),
	}, nil
}

// parseFntName decodes one variable-length name record at off.
// n == 0 with a nil error marks the end-of-table sentinel. For
// directories childID holds the raw sub-directory id, still biased by
// 0xF000.
func parseFntName(fnt []byte, off int) (name string, isDir bool, childID uint16, n int, err error) {
	if off < 0 || off >= len(fnt) {
		return "", false, 0, 0, checkpoint.Wrap(fmt.Errorf("name record at %d outside table", off), ErrCorruptFNT)
	}

	kind := fnt[off]
	length := int(kind & 0x7F)
	if length == 0 {
		return "", false, 0, 0, nil
	}
	isDir = kind&0x80 != 0

	end := off + 1 + length
	if isDir {
		end += 2
	}
	if end > len(fnt) {
		return "", false, 0, 0, checkpoint.Wrap(fmt.Errorf("name record at %d runs past table", off), ErrCorruptFNT)
	}

	name = string(fnt[off+1 : off+1+length])
	if isDir {
		childID = binary.LittleEndian.Uint16(fnt[off+1+length:])
	}

	return name, isDir, childID, end - off, nil
}

// fntWalk carries the state of one recursive FNT traversal. Directories
// are addressed by validated index only and each id may be entered once,
// so a crafted cycle terminates with an error instead of looping.
type fntWalk struct {
	fs       *Fs
	fnt      []byte
	dirCount uint16
	visited  map[uint16]bool
}

func (w *fntWalk) dir(id uint16, dirPath string) error {
	if w.visited[id] {
		return checkpoint.Wrap(fmt.Errorf("directory %d enters itself", id), ErrCorruptFNT)
	}
	w.visited[id] = true

	current, err := fntDir(w.fnt, id)
	if err != nil {
		return err
	}

	w.fs.addDir(dirPath)

	cursor := int(current.SubEntryOffset)
	fileID := uint32(current.FirstFatID)

	for {
		name, isDir, childID, n, err := parseFntName(w.fnt, cursor)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		cursor += n

		if isDir {
			if childID < 0xF000 {
				return checkpoint.Wrap(fmt.Errorf("sub-directory id 0x%04X below bias", childID), ErrCorruptFNT)
			}
			child := childID - 0xF000
			if w.dirCount != 0 && child >= w.dirCount {
				return checkpoint.Wrap(fmt.Errorf("sub-directory %d with %d directories", child, w.dirCount), ErrCorruptFNT)
			}

			if err := w.dir(child, dirPath+"/"+name); err != nil {
				return err
			}
		} else {
			fe, err := w.fs.fatRange(fileID)
			if err != nil {
				return err
			}
			w.fs.addFile(dirPath+"/"+name, fe.Start, fe.End-fe.Start)
			fileID++
		}
	}
}

// addOverlays emits the raw overlay table and, when the size is a whole
// number of 32-byte records, one file per overlay resolved through the
// FAT. A size that is not a multiple of 32 keeps the raw table but skips
// the per-overlay expansion.
func (fs *Fs) addOverlays(proc string, offset, size uint32) error {
	if offset == 0 || size == 0 {
		return nil
	}

	fs.addFile("bin/"+proc+"_ovt.bin", offset, size)

	if size%overlayEntrySize != 0 {
		return nil
	}

	raw, err := fs.readAt(offset, size)
	if err != nil {
		return err
	}

	table := make([]OverlayTableEntry, size/overlayEntrySize)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &table); err != nil {
		return checkpoint.Wrap(err, ErrCorruptOverlay)
	}

	for _, ovt := range table {
		fe, err := fs.fatRange(ovt.FatFileID)
		if err != nil {
			return checkpoint.Wrap(err, ErrCorruptOverlay)
		}
		fs.addFile(fmt.Sprintf("bin/%s_overlays/overlay_%d", proc, ovt.OverlayID), fe.Start, fe.End-fe.Start)
	}

	return nil
}
