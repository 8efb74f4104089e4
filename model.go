// File model contains the structs which match the on-cartridge structures
// of an NDS ROM image. All integer fields are little-endian on disk.

package ndsfs

// HeaderSize is the fixed size of the cartridge header in bytes.
const HeaderSize = 512

// headerCRCOffset is the offset of the HeaderCRC16 field inside the raw
// header. The stored checksum covers every byte before it.
const headerCRCOffset = 0x15E

// CartridgeHeader is the 512-byte cartridge header. The field layout
// follows the GBATEK "DS Cartridge Header" description; binary.Size of
// this struct is exactly HeaderSize.
type CartridgeHeader struct {
	GameTitle            [12]byte
	GameCode             [4]byte
	MakerCode            [2]byte
	UnitCode             byte
	EncryptionSeedSelect byte
	DeviceCapacity       DeviceCapacity
	Reserved0            [7]byte
	Reserved1            byte
	Region               byte
	RomVersion           byte
	AutoStart            byte

	ARM9RomOffset    uint32
	ARM9EntryAddress uint32
	ARM9RAMAddress   uint32
	ARM9Size         uint32

	ARM7RomOffset    uint32
	ARM7EntryAddress uint32
	ARM7RAMAddress   uint32
	ARM7Size         uint32

	FileNameTableOffset       uint32
	FileNameTableSize         uint32
	FileAllocationTableOffset uint32
	FileAllocationTableSize   uint32

	ARM9OverlayOffset uint32
	ARM9OverlaySize   uint32
	ARM7OverlayOffset uint32
	ARM7OverlaySize   uint32

	PortSettingNormal uint32
	PortSettingKey1   uint32

	IconTitleOffset uint32

	SecureAreaCRC16 uint16
	SecureAreaDelay uint16

	ARM9AutoLoadListHook uint32
	ARM7AutoLoadListHook uint32

	SecureAreaDisable uint64

	RomSizeUsed   uint32
	RomSizeHeader uint32

	Unknown   uint32
	Reserved2 [8]byte

	NANDEndOfRomArea  uint16
	NANDStartOfRWArea uint16

	Reserved3 [0x18]byte
	Reserved4 [0x10]byte

	Logo        [0x9C]byte
	LogoCRC16   uint16
	HeaderCRC16 uint16

	DebugRomOffset  uint32
	DebugSize       uint32
	DebugRAMAddress uint32

	Reserved5 [4]byte
	Reserved6 [0x90]byte
}

// DeviceCapacity is the cartridge chip size field. The chip holds
// 128 KiB shifted left by the field value.
type DeviceCapacity byte

// Bytes returns the chip capacity in bytes.
func (c DeviceCapacity) Bytes() int64 {
	return 128 * 1024 << c
}

// FatEntry is one file allocation table record: the byte range of a file
// inside the ROM image. End >= Start is not guaranteed by the format and
// is checked wherever an entry is resolved.
type FatEntry struct {
	Start uint32
	End   uint32
}

const fatEntrySize = 8

// FntDirEntry is one directory record of the file name table. For the
// root directory (id 0) ParentOrCount holds the total number of
// directories instead of a parent id.
type FntDirEntry struct {
	SubEntryOffset uint32
	FirstFatID     uint16
	ParentOrCount  uint16
}

const fntDirEntrySize = 8

// OverlayTableEntry is one fixed 32-byte record of an ARM7/ARM9 overlay
// table.
type OverlayTableEntry struct {
	OverlayID       uint32
	RAMAddress      uint32
	RAMSize         uint32
	BSSSize         uint32
	StaticInitStart uint32
	StaticInitEnd   uint32
	FatFileID       uint32
	Reserved        uint32
}

const overlayEntrySize = 32

// EntryKind discriminates VirtualEntry records.
type EntryKind uint8

const (
	EntryFile EntryKind = iota
	EntryDirectory
)

func (k EntryKind) String() string {
	if k == EntryDirectory {
		return "directory"
	}
	return "file"
}

// VirtualEntry is one member of the mounted cartridge listing. Paths are
// slash-joined and rooted at the mount point, e.g. "bin/arm9.bin" or
// "nitrofs/data/stage.bin". Offset and Length describe the byte range
// inside the ROM image and are zero for directories.
type VirtualEntry struct {
	Path   string
	Kind   EntryKind
	Offset uint32
	Length uint32
}
