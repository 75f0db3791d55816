package luascripts

import (
	"fmt"
	"slices"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// 巢狀 table 只展開兩層。
const maxFormatDepth = 2

// FormatResults 將腳本回傳值轉成可顯示的文字，每個值一行。
// 全為 0..255 整數的陣列以十六進位位元組呈現，例如 [00 ff 10]。
func FormatResults(values []lua.LValue) string {
	lines := make([]string, len(values))
	for i, v := range values {
		lines[i] = formatValue(v, 0)
	}
	return strings.Join(lines, "\n")
}

func formatValue(v lua.LValue, depth int) string {
	switch v.Type() {
	case lua.LTNil:
		return "nil"
	case lua.LTBool:
		return fmt.Sprint(lua.LVAsBool(v))
	case lua.LTNumber:
		return fmt.Sprintf("%g", float64(v.(lua.LNumber)))
	case lua.LTTable:
		if depth >= maxFormatDepth {
			return "{...}"
		}
		return formatTable(v.(*lua.LTable), depth+1)
	}
	return v.String()
}

func formatTable(tbl *lua.LTable, depth int) string {
	if n := tbl.Len(); n > 0 && tbl.MaxN() == n {
		items := make([]lua.LValue, n)
		for i := range items {
			items[i] = tbl.RawGetInt(i + 1)
		}
		if bytes, ok := asBytes(items); ok {
			return fmt.Sprintf("[% x]", bytes)
		}
		parts := make([]string, n)
		for i, item := range items {
			parts[i] = formatValue(item, depth)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}

	var fields []string
	tbl.ForEach(func(k, v lua.LValue) {
		fields = append(fields, formatValue(k, depth)+"="+formatValue(v, depth))
	})
	slices.Sort(fields)
	return "{" + strings.Join(fields, ", ") + "}"
}

func asBytes(items []lua.LValue) ([]byte, bool) {
	out := make([]byte, len(items))
	for i, item := range items {
		num, ok := item.(lua.LNumber)
		if !ok {
			return nil, false
		}
		f := float64(num)
		if f < 0 || f > 255 || f != float64(int(f)) {
			return nil, false
		}
		out[i] = byte(f)
	}
	return out, true
}
