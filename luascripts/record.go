package luascripts

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"EDIDInspect/decode"
	"EDIDInspect/edid"
)

// RecordTable 將 EDID 轉成腳本可讀的巢狀 map，鍵名一律使用 snake_case。
func RecordTable(rec *edid.Record) map[string]interface{} {
	if rec == nil {
		return nil
	}
	h := rec.Header
	d := rec.Display
	out := map[string]interface{}{
		"header": map[string]interface{}{
			"manufacturer": h.Manufacturer,
			"product":      h.Product,
			"serial":       h.Serial,
			"week":         h.Week,
			"year":         1990 + int(h.Year),
			"version":      h.Version,
			"revision":     h.Revision,
		},
		"display": map[string]interface{}{
			"width_cm":    d.Width,
			"height_cm":   d.Height,
			"video_input": d.VideoInput,
			"features":    d.Features,
			"digital":     decode.IsDigital(d.VideoInput),
		},
	}

	descs := make([]interface{}, 0, len(rec.Descriptors))
	for _, desc := range rec.Descriptors {
		descs = append(descs, descriptorTable(desc))
	}
	out["descriptors"] = descs

	if x := rec.Extension; x != nil {
		flags := decode.DecodeNativeDTD(x.NativeDTD)
		blocks := make([]interface{}, 0, len(x.Blocks))
		for _, b := range x.Blocks {
			blocks = append(blocks, blockTable(b))
		}
		timings := make([]interface{}, 0, len(x.Descriptors))
		for _, dt := range x.Descriptors {
			timings = append(timings, timingTable(dt))
		}
		out["extension"] = map[string]interface{}{
			"revision":    x.Revision,
			"native_dtd":  x.NativeDTD,
			"underscan":   flags.Underscan,
			"basic_audio": flags.BasicAudio,
			"ycbcr444":    flags.YCbCr444,
			"ycbcr422":    flags.YCbCr422,
			"blocks":      blocks,
			"timings":     timings,
		}
	}
	return out
}

func descriptorTable(desc edid.Descriptor) map[string]interface{} {
	switch v := desc.(type) {
	case *edid.DetailedTiming:
		if v != nil {
			return timingTable(*v)
		}
	case edid.SerialNumber:
		return map[string]interface{}{"kind": "serial_number", "text": string(v)}
	case edid.UnspecifiedText:
		return map[string]interface{}{"kind": "text", "text": string(v)}
	case edid.ProductName:
		return map[string]interface{}{"kind": "product_name", "text": string(v)}
	case edid.RangeLimits:
		return map[string]interface{}{"kind": "range_limits"}
	case edid.WhitePoint:
		return map[string]interface{}{"kind": "white_point"}
	case edid.StandardTiming:
		return map[string]interface{}{"kind": "standard_timing"}
	case edid.ColorManagement:
		return map[string]interface{}{"kind": "color_management"}
	case edid.TimingCodes:
		return map[string]interface{}{"kind": "timing_codes"}
	case edid.EstablishedTimings:
		return map[string]interface{}{"kind": "established_timings"}
	case edid.Unknown:
		return map[string]interface{}{"kind": "unknown", "tag": v.Tag, "data": v.Data}
	}
	return map[string]interface{}{"kind": "dummy"}
}

func timingTable(dt edid.DetailedTiming) map[string]interface{} {
	t := map[string]interface{}{
		"kind":        "detailed_timing",
		"width":       dt.HorizontalActive,
		"height":      dt.VerticalActive,
		"width_mm":    dt.HorizontalSize,
		"height_mm":   dt.VerticalSize,
		"pixel_clock": float64(dt.PixelClock) / 100,
	}
	if hz, ok := dt.RefreshRate(); ok {
		t["refresh"] = hz
	}
	return t
}

func blockTable(b edid.DataBlock) map[string]interface{} {
	switch v := b.(type) {
	case edid.AudioBlock:
		formats := []interface{}{}
		for _, sad := range v.Descriptors {
			a, ok := decode.DecodeAudio(sad)
			if !ok {
				continue
			}
			formats = append(formats, map[string]interface{}{
				"format":       a.Format,
				"channels":     a.Channels,
				"bit_depths":   a.BitDepths,
				"max_bitrate":  a.MaxBitrate,
				"sample_rates": a.SampleRates,
			})
		}
		return map[string]interface{}{"kind": "audio", "formats": formats}
	case edid.VideoBlock:
		formats := []interface{}{}
		for _, svd := range v.Descriptors {
			formats = append(formats, map[string]interface{}{
				"vic":    svd.Index(),
				"native": svd.Native(),
			})
		}
		return map[string]interface{}{"kind": "video", "formats": formats}
	case edid.VendorSpecific:
		t := map[string]interface{}{
			"kind":       "vendor_specific",
			"identifier": decode.VendorID(v.Identifier),
			"payload":    v.Payload,
		}
		if name, ok := decode.VendorName(v.Identifier); ok {
			t["vendor"] = name
		}
		return t
	case edid.SpeakerAllocation:
		return map[string]interface{}{
			"kind":     "speaker_allocation",
			"speakers": strings.Join(decode.Speakers(v.Speakers), " "),
		}
	case edid.UnknownBlock:
		return map[string]interface{}{
			"kind":    "unknown",
			"tag":     v.Tag,
			"name":    decode.BlockName(v.Tag, v.Payload),
			"payload": v.Payload,
		}
	}
	return map[string]interface{}{"kind": "unknown"}
}

// DecoderFunctions 提供腳本直接呼叫的欄位解碼函式。
func DecoderFunctions() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"audio_format_name": func(L *lua.LState) int {
			L.Push(lua.LString(decode.AudioFormatName(checkByte(L, 1))))
			return 1
		},
		"video_interface": func(L *lua.LState) int {
			L.Push(lua.LString(decode.VideoInterface(checkByte(L, 1)).String()))
			return 1
		},
		"bit_depth": func(L *lua.LState) int {
			L.Push(lua.LString(decode.BitDepth(checkByte(L, 1)).String()))
			return 1
		},
		"speakers": func(L *lua.LState) int {
			L.Push(lua.LString(strings.Join(decode.Speakers(checkByte(L, 1)), " ")))
			return 1
		},
	}
}

func checkByte(L *lua.LState, n int) uint8 {
	v := L.CheckInt(n)
	if v < 0 || v > 255 {
		L.ArgError(n, fmt.Sprintf("value %d out of byte range", v))
		return 0
	}
	return uint8(v)
}

// RunWithRecord 執行腳本，並注入全域變數 edid（解碼後的資料）與 report（報表文字）。
// opts 中的函式與變數會覆蓋預設值。
func RunWithRecord(path string, rec *edid.Record, reportText string, opts RuntimeOptions) ([]lua.LValue, error) {
	functions := DecoderFunctions()
	for name, fn := range opts.Functions {
		functions[name] = fn
	}
	globals := map[string]interface{}{
		"edid":   RecordTable(rec),
		"report": reportText,
	}
	for name, v := range opts.Globals {
		globals[name] = v
	}
	return ExecuteScript(path, RuntimeOptions{Functions: functions, Globals: globals})
}
