// Package edidtest 提供測試用的合成 EDID 資料。
package edidtest

import "EDIDInspect/edid"

// Sample 回傳一份 256 位元組、校驗和正確的 EDID：
// 製造商 ACM、數位 8 bpp DisplayPort、1920x1080 詳細時脈、產品名稱 "ACME LCD"，
// 並附帶含音訊、視訊、HDMI VSDB 與喇叭配置區塊的 CEA-861 擴充區塊。
func Sample() []byte {
	raw := make([]byte, 2*edid.BlockSize)
	base := raw[:edid.BlockSize]
	copy(base, []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00})
	base[0x08], base[0x09] = 0x04, 0x6D // "ACM"
	base[0x0A], base[0x0B] = 0x34, 0x12
	base[0x0C], base[0x0D], base[0x0E], base[0x0F] = 0x04, 0x03, 0x02, 0x01
	base[0x10] = 12
	base[0x11] = 25
	base[0x12], base[0x13] = 1, 4
	base[0x14] = 0xA5
	base[0x15], base[0x16] = 60, 34
	base[0x17] = 120
	base[0x18] = 0xE8

	copy(base[0x36:], []byte{
		0x02, 0x3A, 0x80, 0x18, 0x71, 0x38, 0x2D, 0x40,
		0x58, 0x2C, 0x45, 0x00, 0x58, 0x54, 0x21, 0x00, 0x00, 0x1E,
	})
	copy(base[0x48:], []byte{0x00, 0x00, 0x00, 0xFD, 0x00, 0x38, 0x4C, 0x1E, 0x53, 0x11})
	copy(base[0x5A:], textDescriptor(0xFC, "ACME LCD"))
	copy(base[0x6C:], textDescriptor(0xFF, "A1B2C3"))
	base[0x7E] = 1
	Fix(base)

	cea := raw[edid.BlockSize:]
	blocks := []byte{
		0x23, 0x09, 0x07, 0x07, // audio: LPCM 2ch, 32/44.1/48 kHz, 16/20/24 bit
		0x42, 0x90, 0x04, // video: VIC 16 native, VIC 4
		0x65, 0x03, 0x0C, 0x00, 0x10, 0x00, // vendor specific: HDMI
		0x83, 0x01, 0x00, 0x00, // speaker allocation: FL FR
	}
	cea[0], cea[1], cea[2], cea[3] = 0x02, 0x03, byte(4+len(blocks)), 0xC1
	copy(cea[4:], blocks)
	copy(cea[4+len(blocks):], []byte{
		0x01, 0x1D, 0x00, 0x72, 0x51, 0xD0, 0x1E, 0x20,
		0x6E, 0x28, 0x55, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1E,
	})
	Fix(cea)
	return raw
}

// Fix 重新計算區塊最後一個位元組，使整個區塊總和為 0。
func Fix(block []byte) {
	last := len(block) - 1
	block[last] = 0
	block[last] = -edid.Checksum(block)
}

func textDescriptor(tag byte, text string) []byte {
	desc := make([]byte, 18)
	desc[3] = tag
	payload := desc[5:]
	for i := range payload {
		payload[i] = ' '
	}
	n := copy(payload, text)
	if n < len(payload) {
		payload[n] = 0x0A
	}
	return desc
}
