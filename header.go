package ndsfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/gonitro/ndsfs/checkpoint"
	"github.com/sigurn/crc16"
)

// ErrHeaderSize is returned by DecodeHeader for input that is not exactly
// HeaderSize bytes long.
var ErrHeaderSize = errors.New("cartridge header must be exactly 512 bytes")

// The header and banner checksums both use the reflected CRC-16 variant
// GBATEK documents for the BIOS (poly 0x8005 reflected, seed 0xFFFF, no
// final xor), which is the predefined MODBUS table.
var crcTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// DecodeHeader decodes a raw 512-byte cartridge header. Beyond the length
// check nothing can fail here; whether the result makes any sense is
// answered by Plausible.
func DecodeHeader(raw []byte) (CartridgeHeader, error) {
	var h CartridgeHeader

	if len(raw) != HeaderSize {
		return h, checkpoint.Wrap(fmt.Errorf("got %d bytes", len(raw)), ErrHeaderSize)
	}

	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &h); err != nil {
		return h, checkpoint.From(err)
	}

	return h, nil
}

// encode serializes the header back to its on-cartridge little-endian
// layout. Decoding is lossless, so this reproduces the original bytes.
func (h CartridgeHeader) encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize))
	// Writing a fixed-size struct to a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, &h)
	return buf.Bytes()
}

// ComputeCRC recomputes the header checksum over all bytes preceding the
// stored HeaderCRC16 field.
func (h CartridgeHeader) ComputeCRC() uint16 {
	return crc16.Checksum(h.encode()[:headerCRCOffset], crcTable)
}

// Plausible reports whether the header looks like it belongs to a real
// cartridge image. It checks the ARM9/ARM7 load info, the FNT/FAT and
// overlay table offset/size pairs and the icon offset. With checkCRC the
// stored header checksum must match as well.
//
// GBATEK suggests RomSizeHeader should be 0x4000, but homebrew images are
// seen with 0x200, so only require it to cover the checksummed region.
func (h CartridgeHeader) Plausible(checkCRC bool) bool {
	if h.RomSizeHeader <= headerCRCOffset {
		return false
	}

	if h.ARM9EntryAddress < 0x02000000 || h.ARM9RAMAddress < 0x02000000 ||
		h.ARM9Size == 0 || h.ARM9RomOffset < h.RomSizeHeader {
		return false
	}

	if h.ARM7EntryAddress < 0x02000000 || h.ARM7RAMAddress < 0x02000000 ||
		h.ARM7Size == 0 || h.ARM7RomOffset < h.RomSizeHeader {
		return false
	}

	// A table with an offset but no size is nonsense.
	tables := [][2]uint32{
		{h.FileAllocationTableOffset, h.FileAllocationTableSize},
		{h.FileNameTableOffset, h.FileNameTableSize},
		{h.ARM9OverlayOffset, h.ARM9OverlaySize},
		{h.ARM7OverlayOffset, h.ARM7OverlaySize},
	}
	for _, t := range tables {
		if t[0] != 0 && t[1] == 0 {
			return false
		}
	}

	if h.IconTitleOffset != 0 && h.IconTitleOffset < 0x8000 {
		return false
	}

	if checkCRC && h.ComputeCRC() != h.HeaderCRC16 {
		return false
	}

	return true
}

// Title returns the game title with trailing NUL padding removed.
func (h CartridgeHeader) Title() string {
	return trimAtNul(string(h.GameTitle[:]))
}

// Code returns the 4-byte game code as a string.
func (h CartridgeHeader) Code() string {
	return string(h.GameCode[:])
}

// Maker returns the 2-byte maker code as a string.
func (h CartridgeHeader) Maker() string {
	return string(h.MakerCode[:])
}

// regionName resolves the region from the fourth game code byte.
func (h CartridgeHeader) regionName() string {
	switch h.GameCode[3] {
	case 'E':
		return "USA"
	case 'P':
		return "EUR"
	case 'J':
		return "JPN"
	case 'K':
		return "KOR"
	default:
		return "Unknown Region"
	}
}

// FriendlyName returns a user friendly name decoded from the title,
// game code and version, e.g. "METROIDHNTRS USA (rev 1)".
func (h CartridgeHeader) FriendlyName() string {
	kiosk := ""
	if h.Classify() == RomKiosk {
		kiosk = " (Kiosk)"
	}

	return fmt.Sprintf("%s%s %s (rev %d)", h.Title(), kiosk, h.regionName(), h.RomVersion)
}

// FriendlyCode returns the game code together with the revision,
// e.g. "AMHE (rev 1)".
func (h CartridgeHeader) FriendlyCode() string {
	return fmt.Sprintf("%s (rev %d)", h.Code(), h.RomVersion)
}

// SuitableFilename derives a filesystem friendly file name for the image.
// Every byte of the title that is not alphanumeric is replaced by '_'.
func (h CartridgeHeader) SuitableFilename() string {
	title := []byte(h.Title())
	for i, c := range title {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			title[i] = '_'
		}
	}

	kiosk := ""
	if h.Classify() == RomKiosk {
		kiosk = "-Kiosk"
	}

	return fmt.Sprintf("%s%s-%s-%s-rev%d.nds", title, kiosk, h.Code(), h.Maker(), h.RomVersion)
}

// RomClass is the result of matching a header against the known ROM
// identities.
type RomClass int

const (
	RomUnknown RomClass = iota
	RomRelease
	RomFirstHunt
	RomKiosk
)

func (c RomClass) String() string {
	switch c {
	case RomRelease:
		return "Release"
	case RomFirstHunt:
		return "First Hunt"
	case RomKiosk:
		return "Kiosk"
	default:
		return "Unknown"
	}
}

type romIdentity struct {
	code    string
	version byte
}

// Known (game code, version) identities, pulled from MphRead.
var (
	releaseRoms = [...]romIdentity{
		{"AMHE", 0},
		{"AMHE", 1},
		{"AMHP", 0},
		{"AMHP", 1},
		{"AMHJ", 0},
		{"AMHJ", 1},
		{"AMHK", 0},
	}
	firstHuntRoms = [...]romIdentity{{"AMFE", 0}, {"AMFP", 0}}
	kioskRoms     = [...]romIdentity{{"A76E", 0}}
)

// Classify matches the game code and version against the known ROM
// identity tables. Matching is an exact, case-sensitive compare.
func (h CartridgeHeader) Classify() RomClass {
	code := string(h.GameCode[:])

	match := func(roms []romIdentity) bool {
		for _, r := range roms {
			if r.code == code && r.version == h.RomVersion {
				return true
			}
		}
		return false
	}

	switch {
	case match(releaseRoms[:]):
		return RomRelease
	case match(firstHuntRoms[:]):
		return RomFirstHunt
	case match(kioskRoms[:]):
		return RomKiosk
	default:
		return RomUnknown
	}
}

// trimAtNul cuts s at the first NUL byte.
func trimAtNul(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return s[:i]
	}
	return s
}
