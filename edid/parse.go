package edid

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// BlockSize 是 EDID 基本區塊與每個擴充區塊的長度。
const BlockSize = 128

const (
	descriptorSize = 18
	ceaTag         = 0x02
)

var (
	ErrTooShort  = errors.New("edid: data too short")
	ErrBadHeader = errors.New("edid: invalid header")
	ErrChecksum  = errors.New("edid: checksum mismatch")
	ErrExtension = errors.New("edid: malformed extension block")
)

var headerMagic = []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// descriptorOffsets 為基本區塊內四個描述符的起始位置。
var descriptorOffsets = [4]int{0x36, 0x48, 0x5A, 0x6C}

// Parse 解析整份 EDID 並回傳 Record。raw 可以比實際資料長（例如固定大小的讀取緩衝區）。
func Parse(raw []byte) (*Record, error) {
	if len(raw) < BlockSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(raw))
	}
	if !bytes.Equal(raw[0:8], headerMagic) {
		return nil, ErrBadHeader
	}
	if sum := Checksum(raw[:BlockSize]); sum != 0 {
		return nil, fmt.Errorf("%w: base block sums to 0x%02x", ErrChecksum, sum)
	}

	rec := &Record{
		Header: Header{
			Manufacturer: parseManufacturerID(raw[0x08:0x0A]),
			Product:      binary.LittleEndian.Uint16(raw[0x0A:0x0C]),
			Serial:       binary.LittleEndian.Uint32(raw[0x0C:0x10]),
			Week:         raw[0x10],
			Year:         raw[0x11],
			Version:      raw[0x12],
			Revision:     raw[0x13],
		},
		Display: DisplayParameters{
			VideoInput: raw[0x14],
			Width:      raw[0x15],
			Height:     raw[0x16],
			Features:   raw[0x18],
		},
	}

	for i, off := range descriptorOffsets {
		rec.Descriptors[i] = parseDescriptor(raw[off : off+descriptorSize])
	}

	// 依序尋找第一個 CEA-861 擴充區塊，其他種類的擴充區塊略過。
	count := int(raw[0x7E])
	for i := 1; i <= count; i++ {
		start := i * BlockSize
		if len(raw) < start+BlockSize {
			return nil, fmt.Errorf("%w: extension %d of %d missing", ErrTooShort, i, count)
		}
		block := raw[start : start+BlockSize]
		if block[0] != ceaTag {
			continue
		}
		ext, err := parseCEA(block)
		if err != nil {
			return nil, fmt.Errorf("extension %d: %w", i, err)
		}
		rec.Extension = ext
		break
	}

	return rec, nil
}

// Checksum 回傳區塊所有位元組的總和，合法區塊應為 0。
func Checksum(block []byte) uint8 {
	var sum uint8
	for _, b := range block {
		sum += b
	}
	return sum
}

// parseManufacturerID 解析製造商ID（三個 5 位元字母）。
func parseManufacturerID(data []byte) string {
	val := binary.BigEndian.Uint16(data)
	letters := [3]uint16{(val >> 10) & 0x1F, (val >> 5) & 0x1F, val & 0x1F}
	var sb strings.Builder
	for _, l := range letters {
		if l < 1 || l > 26 {
			sb.WriteByte('?')
			continue
		}
		sb.WriteByte(byte('A' + l - 1))
	}
	return sb.String()
}

// parseDescriptor 解析詳細時脈或監視器描述符。
func parseDescriptor(desc []byte) Descriptor {
	if binary.LittleEndian.Uint16(desc[0:2]) != 0 {
		dt := parseDetailedTiming(desc)
		return &dt
	}

	tag := desc[3]
	switch tag {
	case 0xFF:
		return SerialNumber(descriptorText(desc[5:]))
	case 0xFE:
		return UnspecifiedText(descriptorText(desc[5:]))
	case 0xFD:
		return RangeLimits{}
	case 0xFC:
		return ProductName(descriptorText(desc[5:]))
	case 0xFB:
		return WhitePoint{}
	case 0xFA:
		return StandardTiming{}
	case 0xF9:
		return ColorManagement{}
	case 0xF8:
		return TimingCodes{}
	case 0xF7:
		return EstablishedTimings{}
	case 0x10:
		return Dummy{}
	default:
		return Unknown{Tag: tag, Data: append([]byte(nil), desc[5:]...)}
	}
}

func parseDetailedTiming(desc []byte) DetailedTiming {
	return DetailedTiming{
		PixelClock:       binary.LittleEndian.Uint16(desc[0:2]),
		HorizontalActive: uint16(desc[2]) | uint16(desc[4]&0xF0)<<4,
		HorizontalBlank:  uint16(desc[3]) | uint16(desc[4]&0x0F)<<8,
		VerticalActive:   uint16(desc[5]) | uint16(desc[7]&0xF0)<<4,
		VerticalBlank:    uint16(desc[6]) | uint16(desc[7]&0x0F)<<8,
		HorizontalSize:   uint16(desc[12]) | uint16(desc[14]&0xF0)<<4,
		VerticalSize:     uint16(desc[13]) | uint16(desc[14]&0x0F)<<8,
	}
}

// descriptorText 以 code page 437 解碼描述符字串，於換行處截斷並去除補白。
func descriptorText(data []byte) string {
	if i := bytes.IndexByte(data, 0x0A); i >= 0 {
		data = data[:i]
	}
	text, err := charmap.CodePage437.NewDecoder().Bytes(data)
	if err != nil {
		text = data
	}
	return strings.TrimRight(string(text), " \x00")
}

func parseCEA(block []byte) (*Extension, error) {
	if sum := Checksum(block); sum != 0 {
		return nil, fmt.Errorf("%w: CEA block sums to 0x%02x", ErrChecksum, sum)
	}

	ext := &Extension{
		Revision:  block[1],
		NativeDTD: block[3],
	}
	dtdStart := int(block[2])
	if dtdStart == 0 {
		// 沒有資料區塊也沒有詳細時脈描述符。
		return ext, nil
	}
	if dtdStart < 4 || dtdStart > BlockSize-1 {
		return nil, fmt.Errorf("%w: dtd offset %d", ErrExtension, dtdStart)
	}

	blocks, err := parseDataBlocks(block[4:dtdStart])
	if err != nil {
		return nil, err
	}
	ext.Blocks = blocks

	for off := dtdStart; off+descriptorSize <= BlockSize-1; off += descriptorSize {
		desc := block[off : off+descriptorSize]
		if binary.LittleEndian.Uint16(desc[0:2]) == 0 {
			// 像素時脈為 0 代表後面都是補白。
			break
		}
		ext.Descriptors = append(ext.Descriptors, parseDetailedTiming(desc))
	}
	return ext, nil
}

func parseDataBlocks(data []byte) ([]DataBlock, error) {
	var blocks []DataBlock
	for i := 0; i < len(data); {
		tag := data[i] >> 5
		length := int(data[i] & 0x1F)
		if i+1+length > len(data) {
			return nil, fmt.Errorf("%w: data block at %d overruns (len %d)", ErrExtension, i+4, length)
		}
		payload := data[i+1 : i+1+length]
		blocks = append(blocks, parseDataBlock(tag, payload))
		i += 1 + length
	}
	return blocks, nil
}

func parseDataBlock(tag uint8, payload []byte) DataBlock {
	switch tag {
	case 1:
		var ab AudioBlock
		for j := 0; j+3 <= len(payload); j += 3 {
			ab.Descriptors = append(ab.Descriptors, ShortAudioDescriptor{
				Format:      (payload[j] >> 3) & 0x0F,
				Channels:    (payload[j] & 0x07) + 1,
				SampleRates: payload[j+1] & 0x7F,
				Extra:       payload[j+2],
			})
		}
		return ab
	case 2:
		var vb VideoBlock
		for _, b := range payload {
			vb.Descriptors = append(vb.Descriptors, ShortVideoDescriptor(b))
		}
		return vb
	case 3:
		if len(payload) >= 3 {
			return VendorSpecific{
				Identifier: [3]byte{payload[0], payload[1], payload[2]},
				Payload:    append([]byte(nil), payload[3:]...),
			}
		}
	case 4:
		if len(payload) >= 1 {
			return SpeakerAllocation{Speakers: payload[0]}
		}
	}
	return UnknownBlock{Tag: tag, Payload: append([]byte(nil), payload...)}
}
