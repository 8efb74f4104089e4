package ndsfs

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gonitro/ndsfs/checkpoint"
	"github.com/sigurn/crc16"
	"golang.org/x/text/encoding/unicode"
)

// BannerSize is the size of the icon/title block ("bin/banner.bin").
const BannerSize = 0x840

// ErrBannerSize is returned by DecodeBanner for input shorter than
// BannerSize bytes.
var ErrBannerSize = errors.New("banner must be at least 0x840 bytes")

// BannerLanguages names the title slots of a banner in storage order.
var BannerLanguages = [6]string{"JPN", "ENG", "FRA", "GER", "ITA", "SPA"}

// Banner is the decoded icon/title block referenced by the header's
// IconTitleOffset field.
type Banner struct {
	Version uint16
	// CRC16 is the stored checksum covering everything after the
	// reserved area, i.e. bytes [0x20, 0x840).
	CRC16 uint16

	// Icon is the 32x32 4bpp tiled icon bitmap; Palette holds its 16
	// BGR555 colors.
	Icon    [0x200]byte
	Palette [0x20]byte

	// Titles holds one decoded title per language in BannerLanguages
	// order. Missing translations are usually a copy of the English one.
	Titles [6]string

	computedCRC uint16
}

// DecodeBanner decodes an icon/title block. The titles are stored as
// NUL-terminated UTF-16LE and are returned as plain strings.
func DecodeBanner(raw []byte) (Banner, error) {
	var b Banner

	if len(raw) < BannerSize {
		return b, checkpoint.Wrap(fmt.Errorf("got %d bytes", len(raw)), ErrBannerSize)
	}

	b.Version = binary.LittleEndian.Uint16(raw[0:])
	b.CRC16 = binary.LittleEndian.Uint16(raw[2:])
	copy(b.Icon[:], raw[0x20:0x220])
	copy(b.Palette[:], raw[0x220:0x240])

	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	for i := range b.Titles {
		start := 0x240 + i*0x100
		decoded, err := decoder.Bytes(raw[start : start+0x100])
		if err != nil {
			return b, checkpoint.From(err)
		}
		b.Titles[i] = trimAtNul(string(decoded))
	}

	b.computedCRC = crc16.Checksum(raw[0x20:BannerSize], crcTable)

	return b, nil
}

// CRCValid reports whether the stored banner checksum matches the block
// contents. The check is advisory, like the header checksum.
func (b Banner) CRCValid() bool {
	return b.computedCRC == b.CRC16
}
