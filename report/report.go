// Package report 將解析後的 EDID 轉成巢狀縮排的文字報表。
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"EDIDInspect/decode"
	"EDIDInspect/edid"
)

// shift 為每一層縮排的空白數。
const shift = 2

var ErrNilRecord = errors.New("report: nil record")

// printer 依序寫出每一行，遇到第一個寫入錯誤後停止。
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(depth int, format string, args ...any) {
	if p.err != nil {
		return
	}
	text := strings.Repeat(" ", depth*shift) + fmt.Sprintf(format, args...) + "\n"
	_, p.err = io.WriteString(p.w, text)
}

func (p *printer) blank() {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, "\n")
}

// Render 將 rec 完整輸出到 w。raw 為 true 時額外輸出來源位元組的十六進位與二進位內容。
// 唯一可能的錯誤來自 w。
func Render(w io.Writer, rec *edid.Record, raw bool) error {
	if rec == nil {
		return ErrNilRecord
	}
	p := &printer{w: w}
	renderHeader(p, rec.Header)
	p.blank()
	renderDisplay(p, rec.Display, raw)
	p.blank()
	renderDescriptors(p, rec.Descriptors)
	if rec.Extension != nil {
		renderExtension(p, rec.Extension, raw)
	}
	return p.err
}

// String 以字串形式回傳報表。
func String(rec *edid.Record, raw bool) (string, error) {
	var sb strings.Builder
	if err := Render(&sb, rec, raw); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderHeader(p *printer, h edid.Header) {
	p.line(0, "Header:")
	p.line(1, "Manufacturer: %s", h.Manufacturer)
	p.line(1, "Year: %d", 1990+int(h.Year))
	p.line(1, "Week: %d", h.Week)
	p.line(1, "Product: %04x", h.Product)
	p.line(1, "Serial: %08x", h.Serial)
	p.line(1, "Version: %d.%d", h.Version, h.Revision)
}

func renderDisplay(p *printer, d edid.DisplayParameters, raw bool) {
	p.line(0, "Display:")
	p.line(1, "Size: %dx%d cm", d.Width, d.Height)

	if decode.IsDigital(d.VideoInput) {
		dig := decode.DecodeDigital(d.VideoInput, d.Features)
		p.line(1, "Type: Digital")
		p.line(1, "Bits depth: %s", dig.BitDepth)
		p.line(1, "Video interface: %s", dig.Interface)
		p.line(1, "YCrCb 4:4:4: %s", decode.Supported(dig.YCrCb444))
		p.line(1, "YCrCb 4:2:2: %s", decode.Supported(dig.YCrCb422))
	} else {
		an := decode.DecodeAnalog(d.VideoInput, d.Features)
		p.line(1, "Type: Analog")
		p.line(1, "Video white and sync levels: %s", an.Levels)
		p.line(1, "Blank-to-black setup (pedestal): %s", decode.Pedestal(an.Pedestal))
		p.line(1, "Separate sync: %s", decode.Supported(an.SeparateSync))
		p.line(1, "Composite sync: %s", decode.Supported(an.CompositeSync))
		p.line(1, "Sync on green: %s", decode.Supported(an.SyncOnGreen))
		p.line(1, "VSync pulse must be serrated: %s", decode.YesNo(an.SerrationRequired))
		p.line(1, "Display type: %s", an.DisplayType)
	}

	pw := decode.DecodePower(d.Features)
	p.line(1, "Standby: %s", decode.Supported(pw.Standby))
	p.line(1, "Suspend: %s", decode.Supported(pw.Suspend))
	p.line(1, "Active-off: %s", decode.Supported(pw.ActiveOff))

	if raw {
		p.blank()
		p.line(1, "Video input: %s", hexBin(d.VideoInput))
		p.line(1, "Features: %s", hexBin(d.Features))
	}
}

func hexBin(v uint8) string {
	return fmt.Sprintf("%02x (%08b)", v, v)
}

func renderDescriptors(p *printer, descs [4]edid.Descriptor) {
	p.line(0, "Descriptors:")
	for _, d := range descs {
		switch v := d.(type) {
		case nil, edid.Dummy:
			p.line(1, "Dummy")
		case *edid.DetailedTiming:
			if v == nil {
				p.line(1, "Dummy")
				continue
			}
			renderDetailedTiming(p, 1, *v)
		case edid.SerialNumber:
			p.line(1, "Serial Number: %s", string(v))
		case edid.UnspecifiedText:
			p.line(1, "Text: %s", string(v))
		case edid.ProductName:
			p.line(1, "ProductName: %s", string(v))
		case edid.RangeLimits:
			p.line(1, "RangeLimits")
		case edid.WhitePoint:
			p.line(1, "WhitePoint")
		case edid.StandardTiming:
			p.line(1, "StandardTiming")
		case edid.ColorManagement:
			p.line(1, "ColorManagement")
		case edid.TimingCodes:
			p.line(1, "TimingCodes")
		case edid.EstablishedTimings:
			p.line(1, "EstablishedTimings")
		case edid.Unknown:
			p.line(1, "Unknown: %02x", v.Tag)
		default:
			p.line(1, "Unknown: %T", v)
		}
	}
}

func renderDetailedTiming(p *printer, depth int, dt edid.DetailedTiming) {
	p.line(depth, "Detailed timing:")
	p.line(depth+1, "Resolution: %dx%d", dt.HorizontalActive, dt.VerticalActive)
	p.line(depth+1, "Size: %dx%d mm", dt.HorizontalSize, dt.VerticalSize)
	p.line(depth+1, "Pixel clock: %.2f MHz", float64(dt.PixelClock)/100)
	if hz, ok := dt.RefreshRate(); ok {
		p.line(depth+1, "Refresh: %.2f Hz", hz)
	}
}

func renderExtension(p *printer, x *edid.Extension, raw bool) {
	flags := decode.DecodeNativeDTD(x.NativeDTD)
	p.blank()
	p.line(0, "Extension:")
	p.line(1, "Underscan: %s", decode.Supported(flags.Underscan))
	p.line(1, "Basic audio: %s", decode.Supported(flags.BasicAudio))
	p.line(1, "YCbCr 4:4:4: %s", decode.Supported(flags.YCbCr444))
	p.line(1, "YCbCr 4:2:2: %s", decode.Supported(flags.YCbCr422))
	if raw {
		p.line(1, "native_dtd: %08b", x.NativeDTD)
	}

	if len(x.Blocks) > 0 {
		p.blank()
		p.line(0, "Blocks:")
		for _, b := range x.Blocks {
			renderBlock(p, b, raw)
		}
	}

	if len(x.Descriptors) > 0 {
		p.blank()
		p.line(0, "Detailed timing descriptors:")
		for _, dt := range x.Descriptors {
			p.line(1, "Resolution: %dx%d", dt.HorizontalActive, dt.VerticalActive)
		}
	}
}

func renderBlock(p *printer, b edid.DataBlock, raw bool) {
	switch v := b.(type) {
	case edid.AudioBlock:
		p.line(1, "Supported audio formats:")
		for _, sad := range v.Descriptors {
			a, ok := decode.DecodeAudio(sad)
			if !ok {
				continue
			}
			p.line(2, "%s", a)
			if raw && len(a.SampleRates) > 0 {
				p.line(3, "Sample rates: %s kHz", strings.Join(a.SampleRates, " "))
			}
		}
	case edid.VideoBlock:
		p.line(1, "Supported video formats:")
		for _, svd := range v.Descriptors {
			p.line(2, "%s", decode.VideoFormat(svd))
		}
	case edid.VendorSpecific:
		if name, ok := decode.VendorName(v.Identifier); ok {
			p.line(1, "Vendor specific: %s (%s)", decode.VendorID(v.Identifier), name)
		} else {
			p.line(1, "Vendor specific: %s", decode.VendorID(v.Identifier))
		}
		if raw {
			p.line(2, "Payload: %d bytes", len(v.Payload))
		}
	case edid.SpeakerAllocation:
		var sb strings.Builder
		for _, s := range decode.Speakers(v.Speakers) {
			sb.WriteString(" " + s)
		}
		p.line(1, "Speaker allocation:%s", sb.String())
	case edid.UnknownBlock:
		if len(v.Payload) == 0 {
			p.line(1, "Data block (tag %d, %s)", v.Tag, decode.BlockName(v.Tag, v.Payload))
			return
		}
		p.line(1, "Data block (tag %d, %s): % x", v.Tag, decode.BlockName(v.Tag, v.Payload), v.Payload)
	default:
		p.line(1, "Data block: %#v", v)
	}
}
