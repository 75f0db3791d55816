package ui

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"EDIDInspect/ddc"
	"EDIDInspect/edid"
	"EDIDInspect/edidhelper"
	"EDIDInspect/luascripts"
	"EDIDInspect/report"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	lua "github.com/yuin/gopher-lua"
)

// 以變數保存來源，測試時可替換。
var (
	discoverScreens = edidhelper.GetScreens
	openDDC         = ddc.Open
)

// Options 設定 TUI 的 EDID 來源與顯示方式。
type Options struct {
	Files      []string // 額外載入的 EDID 檔案
	DDCBus     string   // 非空時一併從此 I2C 匯流排讀取
	ScriptsDir string
	Raw        bool
	MaxSize    int
}

// App 結構封裝了整個終端介面應用程式的狀態與元件。
type App struct {
	app        *tview.Application // tview 的核心應用程式實例
	opts       Options
	sources    []*edidhelper.Screen // 目前載入的 EDID 來源
	mainMenu   *tview.List          // 左側主要功能選單
	sourceList *tview.List          // 所有 EDID 來源
	scriptList *tview.List          // 可執行的 Lua 腳本清單
	reportView *tview.TextView      // 右側報表
	statusBar  *tview.TextView      // 底部狀態列
	layout     tview.Primitive      // 頁面佈局的根節點
	scripts    []luascripts.Script
	focusRing  []tview.Primitive
	raw        bool

	ddcMu     sync.Mutex
	ddcDriver ddc.Driver
	ddcErr    error
}

// NewApp 建立一個新的 App 實例，並完成所有介面的初始化設定。
func NewApp(opts Options) *App {
	if opts.ScriptsDir == "" {
		opts.ScriptsDir = "scripts"
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = edidhelper.MaxEDIDSize
	}

	app := &App{
		app:  tview.NewApplication().EnableMouse(true),
		opts: opts,
		raw:  opts.Raw,
	}
	app.mainMenu = tview.NewList().
		AddItem("重新載入來源", "重新偵測螢幕並讀取檔案", 'r', app.reloadSources).
		AddItem("切換原始資料", "顯示或隱藏十六進位與二進位內容", 'x', app.toggleRaw).
		AddItem("重新載入 Lua 腳本", "重新掃描 scripts 目錄", 'l', app.reloadScripts).
		AddItem("切換至來源列表", "將焦點移到來源選單", 'd', app.FocusSourceList).
		AddItem("切換至腳本列表", "將焦點移到 Lua 腳本選單", 's', app.FocusScriptList).
		AddItem("離開", "結束應用程式", 'q', app.app.Stop).
		SetHighlightFullLine(true)
	frame(app.mainMenu.Box, "Main Menu")

	app.sourceList = tview.NewList().SetHighlightFullLine(true)
	app.sourceList.SetChangedFunc(app.onSourceChanged)
	frame(app.sourceList.Box, "Sources")

	app.scriptList = tview.NewList().ShowSecondaryText(false).SetHighlightFullLine(true)
	app.scriptList.SetChangedFunc(app.onScriptChanged)
	app.scriptList.SetSelectedFunc(app.onScriptSelected)
	frame(app.scriptList.Box, "Lua Scripts")

	// 報表內容可能很長，允許捲動。
	app.reportView = tview.NewTextView().SetScrollable(true).SetWrap(false)
	frame(app.reportView.Box, "EDID Report")

	app.statusBar = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	app.statusBar.SetBorder(true).SetTitle(" Status ")

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(app.mainMenu, 0, 1, true).
		AddItem(app.sourceList, 0, 2, false).
		AddItem(app.scriptList, 0, 1, false)
	content := tview.NewFlex().
		AddItem(left, 0, 1, true).
		AddItem(app.reportView, 0, 2, false)
	app.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(content, 0, 1, true).
		AddItem(app.statusBar, 1, 0, false)

	// Tab 依序切換的焦點順序。
	app.focusRing = []tview.Primitive{app.mainMenu, app.sourceList, app.scriptList, app.reportView}

	app.app.SetInputCapture(app.handleGlobalShortcuts)
	app.app.SetMouseCapture(app.handleMouseCapture)
	return app
}

func frame(box *tview.Box, title string) {
	box.SetBorder(true).
		SetTitle(" " + title + " ").
		SetTitleAlign(tview.AlignCenter).
		SetBorderColor(tcell.ColorWhite).
		SetTitleColor(tcell.ColorYellow)
}

// Run 載入來源與腳本後啟動事件迴圈。
func (app *App) Run() error {
	defer app.closeDDC()

	if err := app.refreshSources(); err != nil {
		if len(app.sources) == 0 {
			app.setStatus(fmt.Sprintf("[red]EDID 來源載入失敗: %v[-]", err))
		} else {
			app.setStatus(fmt.Sprintf("[yellow]部分來源載入失敗: %v[-]", err))
		}
	} else if len(app.sources) == 0 {
		app.setStatus("[yellow]未找到任何 EDID 來源[-]")
	} else {
		app.setStatus(fmt.Sprintf("[green]載入 %d 個來源[-]", len(app.sources)))
	}

	if err := app.refreshScripts(); err != nil {
		app.setStatus(fmt.Sprintf("[red]Lua 腳本載入失敗: %v[-]", err))
	}

	return app.app.SetRoot(app.layout, true).SetFocus(app.mainMenu).Run()
}

// collectSources 依序讀取檔案、系統偵測到的螢幕與 DDC 匯流排，錯誤會合併回傳。
func (app *App) collectSources() ([]*edidhelper.Screen, error) {
	var (
		sources []*edidhelper.Screen
		errs    error
	)

	for _, path := range app.opts.Files {
		raw, err := edidhelper.LoadFileLimit(path, app.opts.MaxSize)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		sources = append(sources, &edidhelper.Screen{Name: path, Description: "file", DeviceID: path, Raw: raw})
	}

	screens, err := discoverScreens()
	if err != nil && !errors.Is(err, edidhelper.ErrUnsupported) {
		errs = errors.Join(errs, err)
	}
	sources = append(sources, screens...)

	if app.opts.DDCBus != "" {
		driver, err := app.ensureDDC()
		if err == nil {
			var raw []byte
			raw, err = ddc.ReadEDID(driver)
			if err == nil {
				sources = append(sources, &edidhelper.Screen{
					Name:        "ddc:" + app.opts.DDCBus,
					Description: driver.Name(),
					DeviceID:    app.opts.DDCBus,
					Raw:         raw,
				})
			}
		}
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("ddc %s: %w", app.opts.DDCBus, err))
		}
	}

	return sources, errs
}

// refreshSources 重新取得來源清單並更新顯示內容。
func (app *App) refreshSources() error {
	sources, err := app.collectSources()
	app.sources = sources
	app.populateSourceList()

	if len(sources) == 0 {
		app.reportView.Clear()
		return err
	}

	app.sourceList.SetCurrentItem(0)
	app.showReport(sources[0])
	return err
}

// populateSourceList 將來源填入左側清單，次要文字顯示描述與大小。
func (app *App) populateSourceList() {
	app.sourceList.Clear()
	for i, s := range app.sources {
		shortcut := rune('0' + (i % 10))
		app.sourceList.AddItem(s.Name, sourceDetail(s), shortcut, nil)
	}
	if len(app.sources) == 0 {
		app.sourceList.AddItem("<無來源>", "", 0, nil)
	}
}

func sourceDetail(s *edidhelper.Screen) string {
	size := humanize.Bytes(uint64(len(s.Raw)))
	if s.Description == "" {
		return size
	}
	return fmt.Sprintf("%s, %s", s.Description, size)
}

// populateScriptList 將腳本名稱填入 Lua 腳本清單。
func (app *App) populateScriptList() {
	app.scriptList.Clear()
	if len(app.scripts) == 0 {
		app.scriptList.AddItem("<無腳本>", "請將 .lua 檔案放入 scripts 目錄", 0, nil)
		return
	}

	for _, script := range app.scripts {
		app.scriptList.AddItem(script.Name, "", 0, nil)
	}
}

// renderSource 解析來源並產生報表文字。
func renderSource(s *edidhelper.Screen, raw bool) (*edid.Record, string, error) {
	rec, err := edid.Parse(s.Raw)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", s.Name, err)
	}
	text, err := report.String(rec, raw)
	if err != nil {
		return nil, "", err
	}
	return rec, fmt.Sprintf("%s:\n%s", s.Name, text), nil
}

func (app *App) showReport(s *edidhelper.Screen) {
	_, text, err := renderSource(s, app.raw)
	if err != nil {
		app.reportView.SetText(err.Error())
		return
	}
	app.reportView.SetText(text).ScrollToBeginning()
}

func (app *App) reloadSources() {
	err := app.refreshSources()
	switch {
	case err != nil && len(app.sources) > 0:
		app.showModal(fmt.Sprintf("部份來源載入失敗: %v", err))
	case err != nil:
		app.showModal(fmt.Sprintf("來源重新載入時發生錯誤: %v", err))
	case len(app.sources) == 0:
		app.showModal("未找到任何 EDID 來源")
	default:
		app.setStatus(fmt.Sprintf("[green]載入 %d 個來源[-]", len(app.sources)))
	}
}

func (app *App) reloadScripts() {
	if err := app.refreshScripts(); err != nil {
		app.showModal(fmt.Sprintf("Lua 腳本載入失敗: %v", err))
		return
	}
	app.setStatus(fmt.Sprintf("[green]找到 %d 個 Lua 腳本[-]", len(app.scripts)))
}

func (app *App) toggleRaw() {
	app.raw = !app.raw
	if s := app.currentSource(); s != nil {
		app.showReport(s)
	}
	if app.raw {
		app.setStatus("[green]顯示原始資料[-]")
	} else {
		app.setStatus("[green]隱藏原始資料[-]")
	}
}

// onSourceChanged 在使用者切換不同來源時更新報表與狀態。
func (app *App) onSourceChanged(index int, mainText, _ string, _ rune) {
	if index < 0 || index >= len(app.sources) {
		return
	}
	app.showReport(app.sources[index])
	app.setStatus(fmt.Sprintf("[green]目前來源: %s[-]", mainText))
}

// cycleFocus 沿著 focusRing 前進 step 格，目前焦點不在環上時從主選單開始。
func (app *App) cycleFocus(step int) {
	current := 0
	focused := app.app.GetFocus()
	for i, p := range app.focusRing {
		if p == focused {
			current = i
			break
		}
	}
	n := len(app.focusRing)
	app.app.SetFocus(app.focusRing[((current+step)%n+n)%n])
}

// handleGlobalShortcuts Esc 回主選單，Tab/Shift+Tab 切換焦點。
func (app *App) handleGlobalShortcuts(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEsc:
		app.app.SetFocus(app.mainMenu)
	case tcell.KeyTAB:
		app.cycleFocus(1)
	case tcell.KeyBacktab:
		app.cycleFocus(-1)
	default:
		return event
	}
	return nil
}

// handleMouseCapture 攔截滑鼠操作，支援中鍵快速回到主選單。
func (app *App) handleMouseCapture(event *tcell.EventMouse, action tview.MouseAction) (*tcell.EventMouse, tview.MouseAction) {
	if event.Buttons()&tcell.Button2 != 0 {
		app.app.SetFocus(app.mainMenu)
		return nil, action
	}
	return event, action
}

// showModal 顯示提示訊息的彈出視窗，並在關閉後恢復主要佈局。
func (app *App) showModal(message string) {
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(_ int, _ string) {
			app.app.SetRoot(app.layout, true).SetFocus(app.mainMenu)
		})

	app.app.SetRoot(modal, true).SetFocus(modal)
}

func (app *App) setStatus(message string) {
	app.statusBar.SetText(message)
}

// FocusSourceList 將焦點移至來源清單。
func (app *App) FocusSourceList() {
	app.app.SetFocus(app.sourceList)
}

// FocusScriptList 將焦點移至 Lua 腳本清單。
func (app *App) FocusScriptList() {
	app.app.SetFocus(app.scriptList)
}

// refreshScripts 讀取 scripts 資料夾並更新 Lua 腳本清單。
func (app *App) refreshScripts() error {
	scripts, err := luascripts.ListScripts(app.opts.ScriptsDir)
	if err != nil {
		app.scripts = nil
		app.populateScriptList()
		return err
	}

	app.scripts = scripts
	app.populateScriptList()
	return nil
}

func (app *App) onScriptChanged(index int, mainText, _ string, _ rune) {
	if index < 0 || index >= len(app.scripts) {
		return
	}
	app.setStatus(fmt.Sprintf("[yellow]選擇 Lua 腳本: %s[-]", mainText))
}

// onScriptSelected 以目前選取的來源執行 Lua 腳本。
func (app *App) onScriptSelected(index int, mainText, _ string, _ rune) {
	if index < 0 || index >= len(app.scripts) {
		if len(app.scripts) == 0 {
			app.showModal("請將 .lua 腳本放入 scripts 目錄後再試一次。")
		}
		return
	}

	script := app.scripts[index]
	app.setStatus(fmt.Sprintf("[yellow]執行 Lua 腳本: %s[-]", script.Name))
	// 來源、raw 與 context 必須在事件迴圈上取得，腳本 goroutine 只使用這份快照。
	go app.executeLuaScript(script, app.currentSource(), app.raw, app.luaContext())
}

// executeLuaScript 在獨立 goroutine 中執行 Lua 腳本，避免阻塞 UI。
func (app *App) executeLuaScript(script luascripts.Script, source *edidhelper.Screen, raw bool, luaCtx map[string]interface{}) {
	var (
		rec  *edid.Record
		text string
	)
	if source != nil {
		var err error
		rec, text, err = renderSource(source, raw)
		if err != nil {
			app.queueSetStatus(fmt.Sprintf("[yellow]%v[-]", err))
		}
	}

	results, err := app.runScript(script, rec, text, luaCtx)
	if err != nil {
		app.queueSetStatus(fmt.Sprintf("[red]Lua 腳本失敗: %v[-]", err))
		app.queueShowModal(fmt.Sprintf("Lua 腳本「%s」執行失敗:\n%v", script.Name, err))
		return
	}

	if output := luascripts.FormatResults(results); strings.TrimSpace(output) != "" {
		app.queueShowModal(fmt.Sprintf("Lua 腳本「%s」執行結果:\n%s", script.Name, output))
	}
	app.queueSetStatus(fmt.Sprintf("[green]Lua 腳本「%s」執行完成[-]", script.Name))
}

// runScript 不碰任何 tview 元件狀態，只有腳本呼叫 set_status/show_modal 時才排入事件迴圈。
func (app *App) runScript(script luascripts.Script, rec *edid.Record, text string, luaCtx map[string]interface{}) ([]lua.LValue, error) {
	functions := map[string]lua.LGFunction{
		"set_status": func(L *lua.LState) int {
			app.queueSetStatus(L.CheckString(1))
			return 0
		},
		"show_modal": func(L *lua.LState) int {
			app.queueShowModal(L.CheckString(1))
			return 0
		},
	}
	driver, ddcErr := app.ensureDDC()
	for name, fn := range luaI2CFunctions(driver, ddcErr) {
		functions[name] = fn
	}

	opts := luascripts.RuntimeOptions{
		Functions: functions,
		Globals: map[string]interface{}{
			"context": luaCtx,
		},
	}
	return luascripts.RunWithRecord(script.Path, rec, text, opts)
}

// ensureDDC 只在第一次需要時開啟匯流排，之後沿用結果。
func (app *App) ensureDDC() (ddc.Driver, error) {
	if app.opts.DDCBus == "" {
		return nil, ddc.ErrNoDriver
	}

	app.ddcMu.Lock()
	defer app.ddcMu.Unlock()

	if app.ddcDriver != nil || app.ddcErr != nil {
		return app.ddcDriver, app.ddcErr
	}
	app.ddcDriver, app.ddcErr = openDDC(app.opts.DDCBus)
	return app.ddcDriver, app.ddcErr
}

func (app *App) closeDDC() {
	app.ddcMu.Lock()
	defer app.ddcMu.Unlock()
	if app.ddcDriver != nil {
		_ = app.ddcDriver.Close()
		app.ddcDriver = nil
	}
}

// luaI2CFunctions 將 DDC 匯流排的讀寫開放給腳本。
// 失敗時 read_i2c 回傳 nil, 訊息；write_i2c 回傳 false, 訊息。
func luaI2CFunctions(driver ddc.Driver, openErr error) map[string]lua.LGFunction {
	unavailable := "no ddc bus configured"
	if openErr != nil && !errors.Is(openErr, ddc.ErrNoDriver) {
		unavailable = openErr.Error()
	}
	fail := func(L *lua.LState, zero lua.LValue, msg string) int {
		L.Push(zero)
		L.Push(lua.LString(msg))
		return 2
	}

	return map[string]lua.LGFunction{
		"read_i2c": func(L *lua.LState) int {
			addr, n := uint32(L.CheckInt(1)), L.CheckInt(2)
			if n <= 0 {
				L.ArgError(2, "length must be greater than zero")
				return 0
			}
			if driver == nil {
				return fail(L, lua.LNil, unavailable)
			}
			data, err := driver.ReadI2C(addr, uint32(n))
			if err != nil {
				return fail(L, lua.LNil, err.Error())
			}
			tbl := L.CreateTable(len(data), 0)
			for _, b := range data {
				tbl.Append(lua.LNumber(b))
			}
			L.Push(tbl)
			return 1
		},
		"write_i2c": func(L *lua.LState) int {
			addr, tbl := uint32(L.CheckInt(1)), L.CheckTable(2)
			if driver == nil {
				return fail(L, lua.LFalse, unavailable)
			}
			data, err := tableToByteSlice(tbl)
			if err == nil {
				err = driver.WriteI2C(addr, data)
			}
			if err != nil {
				return fail(L, lua.LFalse, err.Error())
			}
			L.Push(lua.LTrue)
			return 1
		},
	}
}

// tableToByteSlice 要求 table 為 1..n 的 0..255 整數。
func tableToByteSlice(tbl *lua.LTable) ([]byte, error) {
	data := make([]byte, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		num, ok := tbl.RawGetInt(i).(lua.LNumber)
		if !ok {
			return nil, fmt.Errorf("table index %d is not a number", i)
		}
		v := float64(num)
		if v != float64(int(v)) || v < 0 || v > 255 {
			return nil, fmt.Errorf("table index %d: %v is not a byte (out of range 0..255)", i, v)
		}
		data = append(data, byte(v))
	}
	return data, nil
}

// luaContext 建立提供給 Lua 腳本使用的來源摘要，必須在事件迴圈上呼叫。
func (app *App) luaContext() map[string]interface{} {
	current := app.sourceList.GetCurrentItem()
	sources := make([]interface{}, len(app.sources))
	for i, s := range app.sources {
		sources[i] = map[string]interface{}{
			"name":        s.Name,
			"description": s.Description,
			"device_id":   s.DeviceID,
			"size":        len(s.Raw),
		}
	}

	selected := current + 1
	if len(app.sources) == 0 {
		selected = 0
	}
	return map[string]interface{}{
		"source_count":          len(app.sources),
		"sources":               sources,
		"selected_source_index": selected,
		"raw":                   app.raw,
		"ddc_bus":               app.opts.DDCBus,
	}
}

func (app *App) currentSource() *edidhelper.Screen {
	index := app.sourceList.GetCurrentItem()
	if index < 0 || index >= len(app.sources) {
		return nil
	}
	return app.sources[index]
}

func (app *App) queueSetStatus(message string) {
	// 將更新動作排入事件迴圈，避免與 UI 執行緒競爭。
	app.app.QueueUpdateDraw(func() {
		app.setStatus(message)
	})
}

func (app *App) queueShowModal(message string) {
	app.app.QueueUpdateDraw(func() {
		app.showModal(message)
	})
}
