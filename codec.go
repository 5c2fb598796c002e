package idm

import (
	"encoding/binary"
	"hash/crc32"
)

// CRC32 is computed over the logical payload bytes only, never over
// chunk headers (§3 "LogicalPayload", §4.6 step 2). The wire format
// pins this to the standard IEEE polynomial, so the stdlib hash is
// used deliberately here rather than a third-party one.
func CRC32(payload []byte) uint32 {
	return crc32.ChecksumIEEE(payload)
}

const maxShortPayload = 0xFFFF - 4

// EncodeShortFrame builds a short control frame (§4.4 "Short control
// frame"): [len:u16le][cmd_id][cmd_ns][payload], where len counts the
// whole frame including itself.
func EncodeShortFrame(cmdID, cmdNS byte, payload []byte) ([]byte, error) {
	if len(payload) > maxShortPayload {
		return nil, &CodecError{Kind: "PayloadTooLarge", Family: FamilyShort, Actual: len(payload), Max: maxShortPayload}
	}
	total := 4 + len(payload)
	frame := make([]byte, 0, total)
	frame = append(frame, byte(total), byte(total>>8), cmdID, cmdNS)
	frame = append(frame, payload...)
	return frame, nil
}

// DecodeShortFrame is the inverse of EncodeShortFrame, used by tests
// and diagnostics to validate what was about to be written.
func DecodeShortFrame(frame []byte) (cmdID, cmdNS byte, payload []byte, err error) {
	if len(frame) < 4 {
		err = &CodecError{Kind: "InvalidField", Field: "frame too short"}
		return
	}
	declared := int(binary.LittleEndian.Uint16(frame[0:2]))
	if declared != len(frame) {
		err = &CodecError{Kind: "InvalidField", Field: "declared length mismatch"}
		return
	}
	cmdID, cmdNS = frame[2], frame[3]
	payload = frame[4:]
	return
}

// ChunkFlag marks whether a logical chunk is the first of its upload
// or a continuation (§4.4 media/DIY headers).
type ChunkFlag byte

const (
	ChunkFirst        ChunkFlag = 0x00
	ChunkContinuation ChunkFlag = 0x02
)

const maxChunkBody = 4096

const (
	mediaHeaderLen  = 16
	diyHeaderLen    = 9
	timerHeaderLen  = 24
	scheduleHeaderLen = 23
	otaHeaderLen    = 13
)

// mediaFamilyByte is the single byte identifying which of the three
// 16-byte-header families (text/gif/image) a chunk belongs to.
func mediaFamilyByte(f Family) byte {
	switch f {
	case FamilyText:
		return 0x03
	case FamilyGif:
		return 0x01
	case FamilyImage:
		return 0x02
	default:
		return 0x00
	}
}

// EncodeMediaHeader builds the shared 16-byte header used by text,
// GIF and image uploads (§4.4 "16-byte media header"). tail carries
// the 3 family-specific trailing bytes (for GIF, the display-duration
// bytes; for text/image, zeroed).
func EncodeMediaHeader(family Family, flag ChunkFlag, chunkLen int, totalLen uint32, crc uint32, tail [3]byte) []byte {
	h := make([]byte, mediaHeaderLen)
	blockLen := uint16(mediaHeaderLen + chunkLen)
	binary.LittleEndian.PutUint16(h[0:2], blockLen)
	h[2] = mediaFamilyByte(family)
	h[3] = 0x00
	h[4] = byte(flag)
	binary.LittleEndian.PutUint32(h[5:9], totalLen)
	binary.LittleEndian.PutUint32(h[9:13], crc)
	copy(h[13:16], tail[:])
	return h
}

// MediaTailOptions configures the 3 family-specific trailing bytes of
// a GIF chunk's media header (§4.6 "GIF upload specifics"). DisplayIndex
// 12 means immediate display; any other value selects a material or
// schedule slot and pulls its on-screen duration from TimeSign.
type MediaTailOptions struct {
	DisplayIndex byte
	TimeSign     byte
}

const gifImmediateDisplayIndex = 12

// ConvertTime maps the device's coarse duration selector to seconds
// (§4.6 "GIF upload specifics").
func ConvertTime(timeSign byte) (uint16, error) {
	switch timeSign {
	case 0:
		return 5, nil
	case 1:
		return 10, nil
	case 2:
		return 30, nil
	case 3:
		return 60, nil
	case 4:
		return 300, nil
	default:
		return 0, &CodecError{Kind: "InvalidField", Family: FamilyGif, Field: "time_sign out of range 0..4"}
	}
}

// gifTail builds the 3 trailing bytes of a GIF media header: the
// shared "immediate vs material/schedule slot" pattern every GIF chunk
// carries regardless of its position in the upload.
func gifTail(opts MediaTailOptions) ([3]byte, error) {
	if opts.DisplayIndex == gifImmediateDisplayIndex {
		return [3]byte{0x00, 0x00, 0x0C}, nil
	}
	duration, err := ConvertTime(opts.TimeSign)
	if err != nil {
		return [3]byte{}, err
	}
	return [3]byte{byte(duration), byte(duration >> 8), opts.DisplayIndex}, nil
}

// EncodeDIYHeader builds the 9-byte DIY chunk prefix (§4.4 "DIY 9-byte
// chunk prefix").
func EncodeDIYHeader(flag ChunkFlag, chunkLen int, totalLen uint32) []byte {
	h := make([]byte, diyHeaderLen)
	blockLen := uint16(diyHeaderLen + chunkLen)
	binary.LittleEndian.PutUint16(h[0:2], blockLen)
	h[2] = 0x00
	h[3] = 0x00
	h[4] = byte(flag)
	binary.LittleEndian.PutUint32(h[5:9], totalLen)
	return h
}

// EncodeTimerHeader builds the 24-byte timer header: the same
// block-length/flag/total-length/crc preamble as the media header,
// padded with caller-supplied timer fields (slot, repeat-day bitmap,
// enabled flag, …) to fill the remaining bytes (§4.4 "Timer 24-byte
// header").
func EncodeTimerHeader(flag ChunkFlag, chunkLen int, totalLen uint32, crc uint32, extra []byte) ([]byte, error) {
	return encodeLongHeader(timerHeaderLen, 0x80, flag, chunkLen, totalLen, crc, extra)
}

// EncodeScheduleHeader builds the 23-byte schedule header (§4.4
// "Schedule 23-byte header").
func EncodeScheduleHeader(flag ChunkFlag, chunkLen int, totalLen uint32, crc uint32, extra []byte) ([]byte, error) {
	return encodeLongHeader(scheduleHeaderLen, 0x05, flag, chunkLen, totalLen, crc, extra)
}

func encodeLongHeader(headerLen int, familyTag byte, flag ChunkFlag, chunkLen int, totalLen uint32, crc uint32, extra []byte) ([]byte, error) {
	const preambleLen = 13 // block_len(2) + tag(1) + 0x00(1) + flag(1) + total_len(4) + crc32(4)
	want := headerLen - preambleLen
	if len(extra) != want {
		return nil, &CodecError{Kind: "InvalidField", Field: "extra header field wrong length"}
	}
	h := make([]byte, 0, headerLen)
	blockLen := uint16(headerLen + chunkLen)
	lenBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBytes, blockLen)
	h = append(h, lenBytes...)
	h = append(h, familyTag, 0x00, byte(flag))
	totalBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(totalBytes, totalLen)
	h = append(h, totalBytes...)
	crcBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(crcBytes, crc)
	h = append(h, crcBytes...)
	h = append(h, extra...)
	return h, nil
}

// EncodeOTAHeader builds the 13-byte OTA chunk header (§4.4 "OTA
// 13-byte header"). block_len includes the chunk body's length, same
// as every other long header (encodeLongHeader, EncodeMediaHeader,
// EncodeDIYHeader).
func EncodeOTAHeader(pkgIdx byte, chunkCRC uint32, chunkLen uint32) []byte {
	h := make([]byte, otaHeaderLen)
	binary.LittleEndian.PutUint16(h[0:2], uint16(otaHeaderLen)+uint16(chunkLen))
	h[2] = 0x01
	h[3] = 0xC0
	h[4] = pkgIdx
	binary.LittleEndian.PutUint32(h[5:9], chunkCRC)
	binary.LittleEndian.PutUint32(h[9:13], chunkLen)
	return h
}

// EncodeOTAStep1 builds the step-1 OTA setup frame (§4.6 "OTA
// specifics"): 0D 00 {ota_type} C0 {pkg_count} {crc32_le} {bin_size_le}.
func EncodeOTAStep1(otaType byte, pkgCount byte, crc uint32, binSize uint32) []byte {
	frame := make([]byte, 13)
	binary.LittleEndian.PutUint16(frame[0:2], 13)
	frame[2] = otaType
	frame[3] = 0xC0
	frame[4] = pkgCount
	binary.LittleEndian.PutUint32(frame[5:9], crc)
	binary.LittleEndian.PutUint32(frame[9:13], binSize)
	return frame
}
