// Package testutil builds small media files for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
)

// TIFFWithDescription builds a little-endian TIFF block holding a single
// IFD0 entry: ImageDescription (0x010E, ASCII).
func TIFFWithDescription(desc string) []byte {
	value := append([]byte(desc), 0)
	var buf bytes.Buffer
	le := binary.LittleEndian

	buf.WriteString("II")
	binary.Write(&buf, le, uint16(42))
	binary.Write(&buf, le, uint32(8)) // IFD0 offset

	binary.Write(&buf, le, uint16(1)) // entry count
	binary.Write(&buf, le, uint16(0x010E))
	binary.Write(&buf, le, uint16(2)) // ASCII
	binary.Write(&buf, le, uint32(len(value)))
	if len(value) <= 4 {
		padded := make([]byte, 4)
		copy(padded, value)
		buf.Write(padded)
		binary.Write(&buf, le, uint32(0))
		return buf.Bytes()
	}
	binary.Write(&buf, le, uint32(8+2+12+4)) // value offset
	binary.Write(&buf, le, uint32(0))        // no next IFD
	buf.Write(value)
	return buf.Bytes()
}

// JPEGWithDescription returns a minimal JPEG whose APP1 segment carries
// an EXIF ImageDescription
func JPEGWithDescription(desc string) []byte {
	payload := append([]byte("Exif\x00\x00"), TIFFWithDescription(desc)...)

	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	binary.Write(&buf, binary.BigEndian, uint16(len(payload)+2))
	buf.Write(payload)
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

// PlainJPEG returns a minimal JFIF JPEG without EXIF
func PlainJPEG() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xD9}
}

// MP4 returns the leading ftyp box of an MP4 file
func MP4() []byte {
	return []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0, 0, 2, 0, 'i', 's', 'o', 'm', 'i', 's', 'o', '2'}
}

// MOV returns the leading ftyp box of a QuickTime movie
func MOV() []byte {
	return []byte{0, 0, 0, 0x14, 'f', 't', 'y', 'p', 'q', 't', ' ', ' ', 0, 0, 2, 0, 'q', 't', ' ', ' '}
}
