package luascripts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"EDIDInspect/edid"
	"EDIDInspect/edid/edidtest"
	"EDIDInspect/report"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestListScripts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "zeta.lua", "return 1")
	writeScript(t, dir, "alpha.lua", "return 2")
	writeScript(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.lua"), 0o755))

	scripts, err := ListScripts(dir)
	require.NoError(t, err)
	require.Equal(t, []Script{
		{Name: "alpha", Path: filepath.Join(dir, "alpha.lua")},
		{Name: "zeta", Path: filepath.Join(dir, "zeta.lua")},
	}, scripts)

	scripts, err = ListScripts(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.Empty(t, scripts)
}

func TestRunWithRecord(t *testing.T) {
	rec, err := edid.Parse(edidtest.Sample())
	require.NoError(t, err)
	text, err := report.String(rec, false)
	require.NoError(t, err)

	path := writeScript(t, t.TempDir(), "check.lua", `
local parts = {}
parts[#parts+1] = edid.header.manufacturer
parts[#parts+1] = tostring(edid.header.year)
parts[#parts+1] = edid.descriptors[3].text
parts[#parts+1] = edid.extension.blocks[1].formats[1].format
return table.concat(parts, ","),
	edid.extension.blocks[4].speakers,
	video_interface(edid.display.video_input),
	string.find(report, "ProductName: ACME LCD", 1, true) ~= nil,
	audio_format_name(14)
`)

	results, err := RunWithRecord(path, rec, text, RuntimeOptions{})
	require.NoError(t, err)
	require.Equal(t, "ACM,2015,ACME LCD,LPCM\nFL FR\nDisplayPort\ntrue\nWMA Pro", FormatResults(results))
}

func TestRunWithRecord_OverridesAndErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "custom.lua", `return greet(name)`)

	results, err := RunWithRecord(path, nil, "", RuntimeOptions{
		Functions: map[string]lua.LGFunction{
			"greet": func(L *lua.LState) int {
				L.Push(lua.LString("hello " + L.CheckString(1)))
				return 1
			},
		},
		Globals: map[string]interface{}{"name": "edid"},
	})
	require.NoError(t, err)
	require.Equal(t, "hello edid", FormatResults(results))

	bad := writeScript(t, dir, "bad.lua", `return bit_depth(300)`)
	_, err = RunWithRecord(bad, nil, "", RuntimeOptions{})
	require.Error(t, err)

	_, err = ExecuteScript(dir, RuntimeOptions{})
	require.Error(t, err)
}

func TestFormatResults(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	require.Equal(t, "", FormatResults(nil))
	values := []lua.LValue{
		toLValue(L, []byte{0x00, 0xFF, 0x10}),
		toLValue(L, map[string]interface{}{"b": 2, "a": "x"}),
		toLValue(L, []string{"one", "two"}),
		lua.LNil,
		lua.LBool(false),
		lua.LNumber(1.5),
	}
	require.Equal(t, "[00 ff 10]\n{a=x, b=2}\n[one, two]\nnil\nfalse\n1.5", FormatResults(values))
}

func TestRecordTable_Extension(t *testing.T) {
	rec, err := edid.Parse(edidtest.Sample())
	require.NoError(t, err)

	tbl := RecordTable(rec)
	ext, ok := tbl["extension"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, true, ext["underscan"])
	require.Equal(t, false, ext["ycbcr444"])

	blocks := ext["blocks"].([]interface{})
	vsdb := blocks[2].(map[string]interface{})
	require.Equal(t, "03 0c 00", vsdb["identifier"])
	require.Equal(t, "HDMI Licensing", vsdb["vendor"])

	rec.Extension = nil
	_, ok = RecordTable(rec)["extension"]
	require.False(t, ok)
}

func TestExecuteScript_Timeout(t *testing.T) {
	path := writeScript(t, t.TempDir(), "spin.lua", `while true do end`)
	_, err := ExecuteScript(path, RuntimeOptions{Timeout: 50 * time.Millisecond})
	require.Error(t, err)
}
