package edid

// Record 是解析後的完整 EDID，包含基本區塊與可選的 CEA-861 擴充區塊。
type Record struct {
	Header      Header
	Display     DisplayParameters
	Descriptors [4]Descriptor
	Extension   *Extension // 沒有 CEA-861 擴充區塊時為 nil
}

// Header 存放製造商與產品識別資訊。
type Header struct {
	Manufacturer string
	Product      uint16
	Serial       uint32
	Week         uint8
	Year         uint8 // 實際年份為 1990 + Year
	Version      uint8
	Revision     uint8
}

// DisplayParameters 對應基本顯示參數區段（0x14-0x18）。
type DisplayParameters struct {
	VideoInput uint8
	Width      uint8 // cm
	Height     uint8 // cm
	Features   uint8
}

// Descriptor 是四個 18 位元組描述符欄位的聯合型別。
// 未知的標籤以 Unknown 表示，呼叫端應在 type switch 加上 default 分支。
type Descriptor interface {
	isDescriptor()
}

type (
	Dummy              struct{}
	SerialNumber       string
	UnspecifiedText    string
	ProductName        string
	RangeLimits        struct{}
	WhitePoint         struct{}
	StandardTiming     struct{}
	ColorManagement    struct{}
	TimingCodes        struct{}
	EstablishedTimings struct{}
)

// Unknown 保留無法辨識的描述符標籤與其原始內容。
type Unknown struct {
	Tag  uint8
	Data []byte
}

// DetailedTiming 為詳細時脈描述符的主要欄位。
type DetailedTiming struct {
	PixelClock       uint16 // 10 kHz 為單位
	HorizontalActive uint16
	HorizontalBlank  uint16
	VerticalActive   uint16
	VerticalBlank    uint16
	HorizontalSize   uint16 // mm
	VerticalSize     uint16 // mm
}

// RefreshRate 依像素時脈與總掃描線數計算更新率，總數為零時回傳 false。
func (dt DetailedTiming) RefreshRate() (float64, bool) {
	hTotal := float64(dt.HorizontalActive) + float64(dt.HorizontalBlank)
	vTotal := float64(dt.VerticalActive) + float64(dt.VerticalBlank)
	if hTotal == 0 || vTotal == 0 {
		return 0, false
	}
	return float64(dt.PixelClock) * 10000 / (hTotal * vTotal), true
}

func (Dummy) isDescriptor()              {}
func (SerialNumber) isDescriptor()       {}
func (UnspecifiedText) isDescriptor()    {}
func (ProductName) isDescriptor()        {}
func (RangeLimits) isDescriptor()        {}
func (WhitePoint) isDescriptor()         {}
func (StandardTiming) isDescriptor()     {}
func (ColorManagement) isDescriptor()    {}
func (TimingCodes) isDescriptor()        {}
func (EstablishedTimings) isDescriptor() {}
func (Unknown) isDescriptor()            {}
func (*DetailedTiming) isDescriptor()    {}

// CEA-861 native_dtd 位元。
const (
	DTDUnderscan  uint8 = 0x80
	DTDBasicAudio uint8 = 0x40
	DTDYUV444     uint8 = 0x20
	DTDYUV422     uint8 = 0x10
)

// Extension 為 CEA-861 擴充區塊。
type Extension struct {
	Revision    uint8
	NativeDTD   uint8
	Blocks      []DataBlock
	Descriptors []DetailedTiming
}

// DataBlock 是 CEA-861 資料區塊的聯合型別，未知種類以 UnknownBlock 表示。
type DataBlock interface {
	isDataBlock()
}

// Short audio descriptor 格式碼。
const (
	AudioLPCM     uint8 = 1
	AudioAC3      uint8 = 2
	AudioMPEG1    uint8 = 3
	AudioMP3      uint8 = 4
	AudioMPEG2    uint8 = 5
	AudioAAC      uint8 = 6
	AudioDTS      uint8 = 7
	AudioATRAC    uint8 = 8
	AudioDSD      uint8 = 9
	AudioDDPlus   uint8 = 10
	AudioDTSHD    uint8 = 11
	AudioTrueHD   uint8 = 12
	AudioDST      uint8 = 13
	AudioWMAPro   uint8 = 14
	AudioReserved uint8 = 15
)

// LPCM 位元深度旗標（位於第三個位元組）。
const (
	LPCM16Bit uint8 = 0x01
	LPCM20Bit uint8 = 0x02
	LPCM24Bit uint8 = 0x04
)

// ShortAudioDescriptor 描述一種支援的音訊格式。
type ShortAudioDescriptor struct {
	Format      uint8
	Channels    uint8
	SampleRates uint8 // 位元 0..6 對應 32/44.1/48/88.2/96/176.4/192 kHz
	Extra       uint8 // LPCM 為位元深度，AC-3..ATRAC 為最大位元率 / 8 kbps
}

// ShortVideoDescriptor 是一個 CEA-861 視訊格式索引。
type ShortVideoDescriptor uint8

// Index 回傳 CEA-861 視訊格式代碼。
func (d ShortVideoDescriptor) Index() uint8 { return uint8(d) & 0x7F }

// Native 表示此格式為顯示器的原生格式。
func (d ShortVideoDescriptor) Native() bool { return uint8(d)&0x80 != 0 }

// Speaker allocation 位元。
const (
	SpeakerFrontLeftRight       uint8 = 0x01
	SpeakerLFE                  uint8 = 0x02
	SpeakerFrontCenter          uint8 = 0x04
	SpeakerRearLeftRight        uint8 = 0x08
	SpeakerRearCenter           uint8 = 0x10
	SpeakerFrontLeftRightCenter uint8 = 0x20
	SpeakerRearLeftRightCenter  uint8 = 0x40
)

type AudioBlock struct {
	Descriptors []ShortAudioDescriptor
}

type VideoBlock struct {
	Descriptors []ShortVideoDescriptor
}

// VendorSpecific 的 Identifier 依區塊內的位元組順序保存（LSB 在前）。
type VendorSpecific struct {
	Identifier [3]byte
	Payload    []byte
}

type SpeakerAllocation struct {
	Speakers uint8
}

// UnknownBlock 保留未解讀的資料區塊。
type UnknownBlock struct {
	Tag     uint8
	Payload []byte
}

func (AudioBlock) isDataBlock()        {}
func (VideoBlock) isDataBlock()        {}
func (VendorSpecific) isDataBlock()    {}
func (SpeakerAllocation) isDataBlock() {}
func (UnknownBlock) isDataBlock()      {}
