package decode

import (
	"fmt"
	"strings"

	"EDIDInspect/edid"
)

var audioFormats = map[uint8]string{
	edid.AudioLPCM:   "LPCM",
	edid.AudioAC3:    "AC-3",
	edid.AudioMPEG1:  "MPEG-1",
	edid.AudioMP3:    "MP3",
	edid.AudioMPEG2:  "MPEG-2",
	edid.AudioAAC:    "AAC",
	edid.AudioDTS:    "DTS",
	edid.AudioATRAC:  "ATRAC",
	edid.AudioDSD:    "DSD",
	edid.AudioDDPlus: "DD+",
	edid.AudioDTSHD:  "DTS-HD",
	edid.AudioTrueHD: "Dolby TrueHD",
	edid.AudioDST:    "DST Audio",
	edid.AudioWMAPro: "WMA Pro",
}

// AudioFormatName 回傳音訊格式碼的正式名稱，未定義的值回傳 "Unknown (N)"。
func AudioFormatName(code uint8) string {
	if name, ok := audioFormats[code]; ok {
		return name
	}
	if code == edid.AudioReserved {
		return "Reserved"
	}
	return fmt.Sprintf("Unknown (%d)", code)
}

// AudioSuppressed 表示格式碼 0 與保留碼只是補白，不應輸出。
func AudioSuppressed(code uint8) bool {
	return code == 0 || code == edid.AudioReserved
}

var sampleRates = []string{"32", "44.1", "48", "88.2", "96", "176.4", "192"}

// Audio 是一個 short audio descriptor 的解碼結果。
type Audio struct {
	Format      string
	Channels    int
	BitDepths   []int // 只有 LPCM 有值
	MaxBitrate  int   // kbps，0 表示此格式不帶位元率
	SampleRates []string
}

// DecodeAudio 解碼 short audio descriptor；被抑制的格式回傳 false。
func DecodeAudio(d edid.ShortAudioDescriptor) (Audio, bool) {
	if AudioSuppressed(d.Format) {
		return Audio{}, false
	}

	a := Audio{
		Format:   AudioFormatName(d.Format),
		Channels: int(d.Channels),
	}
	switch {
	case d.Format == edid.AudioLPCM:
		for _, bd := range []struct {
			mask uint8
			bits int
		}{{edid.LPCM16Bit, 16}, {edid.LPCM20Bit, 20}, {edid.LPCM24Bit, 24}} {
			if d.Extra&bd.mask != 0 {
				a.BitDepths = append(a.BitDepths, bd.bits)
			}
		}
	case d.Format >= edid.AudioAC3 && d.Format <= edid.AudioATRAC:
		// 第三個位元組以 8 kbps 為單位記錄最大位元率。
		a.MaxBitrate = int(d.Extra) * 8
	}
	for i, rate := range sampleRates {
		if d.SampleRates&(1<<i) != 0 {
			a.SampleRates = append(a.SampleRates, rate)
		}
	}
	return a, true
}

// String 產生報表中的單行描述，例如 "LPCM 2 channels 16 bit 24 bit"。
func (a Audio) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d channels", a.Format, a.Channels)
	if a.MaxBitrate > 0 {
		fmt.Fprintf(&sb, " max bitrate %d kbps", a.MaxBitrate)
	}
	for _, bits := range a.BitDepths {
		fmt.Fprintf(&sb, " %d bit", bits)
	}
	return sb.String()
}

// VideoFormat 產生 short video descriptor 的描述，原生格式加上 " (native)"。
func VideoFormat(d edid.ShortVideoDescriptor) string {
	if d.Native() {
		return fmt.Sprintf("%d (native)", d.Index())
	}
	return fmt.Sprintf("%d", d.Index())
}

// speakerOrder 固定喇叭位置的輸出順序。
var speakerOrder = []struct {
	mask uint8
	name string
}{
	{edid.SpeakerFrontLeftRight, "FL FR"},
	{edid.SpeakerLFE, "LFE"},
	{edid.SpeakerFrontCenter, "FC"},
	{edid.SpeakerRearLeftRight, "RL RR"},
	{edid.SpeakerRearCenter, "RC"},
	{edid.SpeakerFrontLeftRightCenter, "FLRC"},
	{edid.SpeakerRearLeftRightCenter, "RLRC"},
}

// Speakers 依固定順序列出已設定的喇叭位置。
func Speakers(mask uint8) []string {
	var out []string
	for _, s := range speakerOrder {
		if mask&s.mask != 0 {
			out = append(out, s.name)
		}
	}
	return out
}

// VendorID 以十六進位輸出三個位元組的識別碼（依區塊內順序）。
func VendorID(id [3]byte) string {
	return fmt.Sprintf("%02x %02x %02x", id[0], id[1], id[2])
}

var vendorNames = map[uint32]string{
	0x000C03: "HDMI Licensing",
	0xC45DD8: "HDMI Forum",
	0x00D046: "Dolby",
	0x90848B: "HDR10+",
	0x5C12CA: "Microsoft",
}

// VendorName 依 IEEE OUI 回傳已知的廠商名稱。
func VendorName(id [3]byte) (string, bool) {
	oui := uint32(id[2])<<16 | uint32(id[1])<<8 | uint32(id[0])
	name, ok := vendorNames[oui]
	return name, ok
}

var blockTags = map[uint8]string{
	1: "Audio",
	2: "Video",
	3: "Vendor-Specific",
	4: "Speaker Allocation",
	5: "VESA Display Transfer Characteristic",
	7: "Extended",
}

var extendedTags = map[uint8]string{
	0:  "Video Capability",
	1:  "Vendor-Specific Video",
	2:  "VESA Display Device",
	3:  "VESA Video Timing Block Extension",
	5:  "Colorimetry",
	6:  "HDR Static Metadata",
	7:  "HDR Dynamic Metadata",
	13: "Video Format Preference",
	14: "YCbCr 4:2:0 Video",
	15: "YCbCr 4:2:0 Capability Map",
	17: "Vendor-Specific Audio",
	19: "Room Configuration",
	20: "Speaker Location",
	32: "InfoFrame",
}

// BlockName 回傳資料區塊種類名稱；tag 7 會再依第一個酬載位元組查延伸種類。
func BlockName(tag uint8, payload []byte) string {
	name, ok := blockTags[tag]
	if !ok {
		return "Reserved"
	}
	if tag != 7 {
		return name
	}
	if len(payload) == 0 {
		return name
	}
	if ext, ok := extendedTags[payload[0]]; ok {
		return name + ": " + ext
	}
	return fmt.Sprintf("%s: Reserved (%d)", name, payload[0])
}
