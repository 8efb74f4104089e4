package ndsfs

import (
	"os"
	"time"
)

// entryFileInfo adapts an entry to os.FileInfo. Cartridge images carry no
// timestamps or permissions, so ModTime is always the zero time.
type entryFileInfo struct {
	entry *entry
}

func (e entryFileInfo) Name() string {
	return e.entry.name
}

func (e entryFileInfo) Size() int64 {
	return int64(e.entry.size)
}

func (e entryFileInfo) Mode() os.FileMode {
	if e.entry.isDir {
		return os.ModeDir | 0555
	}
	return 0444
}

func (e entryFileInfo) ModTime() time.Time {
	return time.Time{}
}

func (e entryFileInfo) IsDir() bool {
	return e.entry.isDir
}

func (e entryFileInfo) Sys() interface{} {
	return e.entry.virtual()
}
