// Package luascripts 以 gopher-lua 執行使用者腳本，腳本可讀取解碼後的 EDID 與報表內容。
package luascripts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout 限制單一腳本的執行時間，避免無窮迴圈卡住介面。
const DefaultTimeout = 10 * time.Second

// Script 是 scripts 目錄中的一個 .lua 檔。
type Script struct {
	Name string // 不含副檔名
	Path string
}

// RuntimeOptions 指定要注入腳本環境的函式與全域變數。
type RuntimeOptions struct {
	Functions map[string]lua.LGFunction
	Globals   map[string]interface{}
	Timeout   time.Duration // 0 表示 DefaultTimeout
}

// ListScripts 回傳 dir 內依名稱排序的 .lua 檔；目錄不存在時回傳空清單。
func ListScripts(dir string) ([]Script, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var scripts []Script
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".lua")
		if !ok || name == "" || !entry.Type().IsRegular() {
			continue
		}
		scripts = append(scripts, Script{Name: name, Path: filepath.Join(dir, entry.Name())})
	}
	slices.SortFunc(scripts, func(a, b Script) int { return strings.Compare(a.Name, b.Name) })
	return scripts, nil
}

// ExecuteScript 在全新的 VM 中執行 path，回傳腳本 return 的所有值。
func ExecuteScript(path string, opts RuntimeOptions) ([]lua.LValue, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	for name, fn := range opts.Functions {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	for name, value := range opts.Globals {
		L.SetGlobal(name, toLValue(L, value))
	}

	slog.Debug("running lua script", "path", path, "timeout", timeout)
	start := time.Now()
	if err := L.DoFile(path); err != nil {
		return nil, err
	}
	slog.Debug("lua script finished", "path", path, "elapsed", time.Since(start), "results", L.GetTop())

	results := make([]lua.LValue, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		results = append(results, L.Get(i))
	}
	return results, nil
}

// toLValue 將 Go 值轉成 Lua 值；map 只保留字串鍵，無法對應的型態以 %v 呈現。
func toLValue(L *lua.LState, v interface{}) lua.LValue {
	switch value := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return value
	case string:
		return lua.LString(value)
	case bool:
		return lua.LBool(value)
	case []byte:
		tbl := L.CreateTable(len(value), 0)
		for _, b := range value {
			tbl.Append(lua.LNumber(b))
		}
		return tbl
	case fmt.Stringer:
		return lua.LString(value.String())
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return lua.LNumber(rv.Int())
	case rv.CanUint():
		return lua.LNumber(rv.Uint())
	case rv.CanFloat():
		return lua.LNumber(rv.Float())
	}

	switch rv.Kind() {
	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Slice, reflect.Array:
		tbl := L.CreateTable(rv.Len(), 0)
		for i := 0; i < rv.Len(); i++ {
			tbl.Append(toLValue(L, rv.Index(i).Interface()))
		}
		return tbl
	case reflect.Map:
		tbl := L.CreateTable(0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if iter.Key().Kind() == reflect.String {
				tbl.RawSetString(iter.Key().String(), toLValue(L, iter.Value().Interface()))
			}
		}
		return tbl
	}
	return lua.LString(fmt.Sprintf("%v", v))
}
