// Package decode 將 EDID 欄位的位元值對應到 VESA EDID 與 CEA-861 定義的語意。
// 所有函式皆為純函式，對任何輸入都有定義；表格外的值以 Unrecognized 回報而非套用預設標籤。
package decode

import (
	"fmt"

	"EDIDInspect/edid"
)

// Field 是查表結果。Known 為 false 時 Raw 保存未辨識的子欄位值。
type Field struct {
	Name  string
	Raw   uint8
	Known bool
}

func (f Field) String() string {
	if f.Known {
		return f.Name
	}
	return fmt.Sprintf("Unrecognized (%d)", f.Raw)
}

func known(name string, raw uint8) Field { return Field{Name: name, Raw: raw, Known: true} }

func unrecognized(raw uint8) Field { return Field{Raw: raw} }

// IsDigital 依 video_input 位元 7 判斷數位或類比介面。
func IsDigital(videoInput uint8) bool {
	return videoInput&0x80 != 0
}

var bitDepths = map[uint8]string{
	0: "Undefined",
	1: "6 bpp",
	2: "8 bpp",
	3: "10 bpp",
	4: "12 bpp",
	5: "14 bpp",
	6: "16 bpp",
}

// BitDepth 解碼數位介面的色彩位元深度（位元 6-4）。
func BitDepth(videoInput uint8) Field {
	v := (videoInput & 0x70) >> 4
	if name, ok := bitDepths[v]; ok {
		return known(name, v)
	}
	return unrecognized(v)
}

var videoInterfaces = map[uint8]string{
	0: "Undefined",
	2: "HDMIa",
	3: "HDMIb",
	4: "MDDI",
	5: "DisplayPort",
}

// VideoInterface 解碼數位介面種類（位元 3-0）。
func VideoInterface(videoInput uint8) Field {
	v := videoInput & 0x0F
	if name, ok := videoInterfaces[v]; ok {
		return known(name, v)
	}
	return unrecognized(v)
}

// WhiteSyncLevels 解碼類比介面的白電平與同步電平（位元 6-5），四種值皆有定義。
func WhiteSyncLevels(videoInput uint8) string {
	switch videoInput & 0x60 {
	case 0x00:
		return "+0.7/−0.3 V"
	case 0x20:
		return "+0.714/−0.286 V"
	case 0x40:
		return "+1.0/−0.4 V"
	default:
		return "+0.7/0 V"
	}
}

// AnalogDisplayType 解碼類比顯示器的色彩類型（features 位元 4-3）。
func AnalogDisplayType(features uint8) string {
	switch features & 0x18 {
	case 0x00:
		return "Monochrome or grayscale"
	case 0x08:
		return "RGB color"
	case 0x10:
		return "Non-RGB color"
	default:
		return "Undefined"
	}
}

// Digital 是數位介面下 video_input 與 features 的解碼結果。
type Digital struct {
	BitDepth  Field
	Interface Field
	YCrCb444  bool
	YCrCb422  bool
}

// DecodeDigital 只套用數位介面的表格。features 位元 3 為 YCrCb 4:4:4，位元 4 為 YCrCb 4:2:2。
func DecodeDigital(videoInput, features uint8) Digital {
	return Digital{
		BitDepth:  BitDepth(videoInput),
		Interface: VideoInterface(videoInput),
		YCrCb444:  features&0x08 != 0,
		YCrCb422:  features&0x10 != 0,
	}
}

// Analog 是類比介面下 video_input 與 features 的解碼結果。
type Analog struct {
	Levels            string
	Pedestal          bool
	SeparateSync      bool
	CompositeSync     bool
	SyncOnGreen       bool
	SerrationRequired bool
	DisplayType       string
}

// DecodeAnalog 只套用類比介面的表格。
func DecodeAnalog(videoInput, features uint8) Analog {
	return Analog{
		Levels:            WhiteSyncLevels(videoInput),
		Pedestal:          videoInput&0x10 != 0,
		SeparateSync:      videoInput&0x08 != 0,
		CompositeSync:     videoInput&0x04 != 0,
		SyncOnGreen:       videoInput&0x02 != 0,
		SerrationRequired: videoInput&0x01 != 0,
		DisplayType:       AnalogDisplayType(features),
	}
}

// Power 為兩種介面共用的 DPMS 旗標（features 位元 7-5）。
type Power struct {
	Standby   bool
	Suspend   bool
	ActiveOff bool
}

func DecodePower(features uint8) Power {
	return Power{
		Standby:   features&0x80 != 0,
		Suspend:   features&0x40 != 0,
		ActiveOff: features&0x20 != 0,
	}
}

// NativeFlags 是 CEA-861 擴充區塊第 3 位元組的四個能力旗標。
type NativeFlags struct {
	Underscan  bool
	BasicAudio bool
	YCbCr444   bool
	YCbCr422   bool
}

func DecodeNativeDTD(nativeDTD uint8) NativeFlags {
	return NativeFlags{
		Underscan:  nativeDTD&edid.DTDUnderscan != 0,
		BasicAudio: nativeDTD&edid.DTDBasicAudio != 0,
		YCbCr444:   nativeDTD&edid.DTDYUV444 != 0,
		YCbCr422:   nativeDTD&edid.DTDYUV422 != 0,
	}
}

func Supported(v bool) string {
	if v {
		return "Supported"
	}
	return "Unsupported"
}

func YesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// Pedestal 回報 blank-to-black setup 是否預期存在。
func Pedestal(v bool) string {
	if v {
		return "Expected"
	}
	return "Not set"
}
