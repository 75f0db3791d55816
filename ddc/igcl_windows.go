//go:build windows && amd64

package ddc

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// igclDriver 透過 Intel Control Library 的 ctlI2CAccess 存取顯示輸出的 DDC 匯流排。
// IGCL 的 I2C 存取是「位址 + 索引」一次完成，因此單一位元組的寫入只記錄索引，
// 下一次讀取時再帶入。
type igclDriver struct {
	ctx    *igclContext
	mu     sync.Mutex
	offset map[uint32]uint32
}

var (
	errIGCLUnavailable = errors.New("intel igcl: interface not available")
	errIGCLNoDisplay   = errors.New("intel igcl: no display outputs on the adapter")
	errIGCLSegment     = errors.New("intel igcl: e-ddc segment pointer is not supported")
)

func init() {
	registerProviderNamed("intel-igcl", openIGCL)
}

// openIGCL 的 bus 為第一張 Intel 顯示卡上的輸出索引，空字串視為 0。
func openIGCL(bus string) (Driver, error) {
	index := 0
	if bus != "" {
		n, err := strconv.Atoi(bus)
		if err != nil || n < 0 {
			// 非數字的匯流排名稱交給其他驅動處理。
			return nil, ErrNoDriver
		}
		index = n
	}

	ctx, err := newIGCLContext(index)
	if err != nil {
		if errors.Is(err, errIGCLUnavailable) || errors.Is(err, errIGCLNoDisplay) {
			return nil, ErrNoDriver
		}
		return nil, err
	}

	d := &igclDriver{ctx: ctx, offset: make(map[uint32]uint32)}
	runtime.SetFinalizer(d, func(driver *igclDriver) {
		driver.ctx.Close()
	})
	slog.Debug("opened igcl display output", "output", index)
	return d, nil
}

func (d *igclDriver) Name() string {
	return "Intel Graphics Control Library"
}

func (d *igclDriver) ReadI2C(addr uint32, length uint32) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	offset := d.offset[addr]
	result := make([]byte, 0, length)
	for remaining := length; remaining > 0; {
		chunk := min(remaining, uint32(i2cDataCap))
		data, err := d.ctx.ReadI2C(byte(addr), offset, int(chunk))
		if err != nil {
			return nil, err
		}
		result = append(result, data...)
		offset += chunk
		remaining -= chunk
	}
	d.offset[addr] = offset
	return result, nil
}

func (d *igclDriver) WriteI2C(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if addr == SegmentAddress {
		if data[0] == 0 {
			return nil
		}
		return errIGCLSegment
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// 第一個位元組是暫存器索引。
	offset := uint32(data[0])
	remaining := data[1:]
	for len(remaining) > 0 {
		chunk := remaining[:min(len(remaining), i2cDataCap)]
		if err := d.ctx.WriteI2C(byte(addr), offset, chunk); err != nil {
			return err
		}
		offset += uint32(len(chunk))
		remaining = remaining[len(chunk):]
	}
	d.offset[addr] = offset
	return nil
}

func (d *igclDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx.Close()
	runtime.SetFinalizer(d, nil)
	return nil
}

const (
	ctlResultSuccess = 0

	ctlOperationTypeRead  = 0
	ctlOperationTypeWrite = 1

	ctlI2CFlag1ByteIndex = 1 << 0

	ctlInitAppVersion uint32 = 0x00010001
)

// 新版 ControlLib 單次可傳 512 位元組。
const i2cDataCap = 512

type (
	ctlAPIHandle           = unsafe.Pointer
	ctlDeviceAdapterHandle = unsafe.Pointer
	ctlDisplayOutputHandle = unsafe.Pointer
)

type ctlInitArgs struct {
	Size             uint32
	Version          uint8
	_                [3]byte
	AppVersion       uint32
	Flags            uint32
	SupportedVersion uint32
	ApplicationUID   [16]byte
}

type ctlI2CAccessArgs struct {
	Size     uint32
	Version  uint32
	OpType   uint32
	Flags    uint32
	Address  uint32
	Offset   uint32
	DataSize uint32
	_        uint32
	Data     [i2cDataCap]byte
}

var (
	controlLibOnce sync.Once
	controlLibErr  error

	procCtlInit                    *windows.Proc
	procCtlClose                   *windows.Proc
	procCtlEnumerateDevices        *windows.Proc
	procCtlEnumerateDisplayOutputs *windows.Proc
	procCtlI2CAccess               *windows.Proc
)

func ensureControlLibLoaded() error {
	controlLibOnce.Do(func() {
		controlLibErr = loadControlLib()
	})
	return controlLibErr
}

func loadControlLib() error {
	const dllPath = `C:\Windows\System32\ControlLib.dll`

	dll, err := windows.LoadDLL(dllPath)
	if err != nil {
		if errors.Is(err, syscall.ERROR_MOD_NOT_FOUND) || errors.Is(err, syscall.ERROR_FILE_NOT_FOUND) {
			return errIGCLUnavailable
		}
		return fmt.Errorf("loaddll %s: %w", dllPath, err)
	}

	procs := []struct {
		name string
		dst  **windows.Proc
	}{
		{"ctlInit", &procCtlInit},
		{"ctlClose", &procCtlClose},
		{"ctlEnumerateDevices", &procCtlEnumerateDevices},
		{"ctlEnumerateDisplayOutputs", &procCtlEnumerateDisplayOutputs},
		{"ctlI2CAccess", &procCtlI2CAccess},
	}
	for _, entry := range procs {
		proc, err := dll.FindProc(entry.name)
		if err != nil {
			dll.Release()
			return err
		}
		*entry.dst = proc
	}
	return nil
}

func callCtl(proc *windows.Proc, args ...uintptr) uint32 {
	r1, _, _ := proc.Call(args...)
	return uint32(r1)
}

type igclContext struct {
	api    ctlAPIHandle
	output ctlDisplayOutputHandle
}

func newIGCLContext(outputIndex int) (*igclContext, error) {
	if err := ensureControlLibLoaded(); err != nil {
		return nil, err
	}

	var api ctlAPIHandle
	initArgs := ctlInitArgs{
		Size:       uint32(unsafe.Sizeof(ctlInitArgs{})),
		AppVersion: ctlInitAppVersion,
	}
	if r := callCtl(procCtlInit, uintptr(unsafe.Pointer(&initArgs)), uintptr(unsafe.Pointer(&api))); r != ctlResultSuccess {
		return nil, fmt.Errorf("ctlInit failed: 0x%08x", r)
	}
	ctx := &igclContext{api: api}

	var devCount uint32
	if r := callCtl(procCtlEnumerateDevices, uintptr(ctx.api), uintptr(unsafe.Pointer(&devCount)), 0); r != ctlResultSuccess {
		ctx.Close()
		return nil, fmt.Errorf("ctlEnumerateDevices(count) failed: 0x%08x", r)
	}
	if devCount == 0 {
		ctx.Close()
		return nil, errIGCLUnavailable
	}
	devs := make([]ctlDeviceAdapterHandle, devCount)
	if r := callCtl(procCtlEnumerateDevices, uintptr(ctx.api), uintptr(unsafe.Pointer(&devCount)), uintptr(unsafe.Pointer(&devs[0]))); r != ctlResultSuccess {
		ctx.Close()
		return nil, fmt.Errorf("ctlEnumerateDevices(get) failed: 0x%08x", r)
	}

	var outCount uint32
	if r := callCtl(procCtlEnumerateDisplayOutputs, uintptr(devs[0]), uintptr(unsafe.Pointer(&outCount)), 0); r != ctlResultSuccess {
		ctx.Close()
		return nil, fmt.Errorf("ctlEnumerateDisplayOutputs(count) failed: 0x%08x", r)
	}
	if int(outCount) <= outputIndex {
		ctx.Close()
		return nil, errIGCLNoDisplay
	}
	outs := make([]ctlDisplayOutputHandle, outCount)
	if r := callCtl(procCtlEnumerateDisplayOutputs, uintptr(devs[0]), uintptr(unsafe.Pointer(&outCount)), uintptr(unsafe.Pointer(&outs[0]))); r != ctlResultSuccess {
		ctx.Close()
		return nil, fmt.Errorf("ctlEnumerateDisplayOutputs(get) failed: 0x%08x", r)
	}
	ctx.output = outs[outputIndex]
	return ctx, nil
}

func (c *igclContext) Close() {
	if c == nil || c.api == nil {
		return
	}
	_ = callCtl(procCtlClose, uintptr(c.api))
	c.api = nil
}

func (c *igclContext) access(op uint32, slave7bit byte, offset uint32, args *ctlI2CAccessArgs) error {
	args.Size = uint32(unsafe.Sizeof(*args))
	args.Version = 1
	args.OpType = op
	args.Flags = ctlI2CFlag1ByteIndex
	args.Address = uint32(slave7bit)
	args.Offset = offset
	if r := callCtl(procCtlI2CAccess, uintptr(c.output), uintptr(unsafe.Pointer(args))); r != ctlResultSuccess {
		return fmt.Errorf("ctlI2CAccess(0x%02x) failed: 0x%08x", slave7bit, r)
	}
	return nil
}

func (c *igclContext) ReadI2C(slave7bit byte, offset uint32, n int) ([]byte, error) {
	var args ctlI2CAccessArgs
	args.DataSize = uint32(n)
	if err := c.access(ctlOperationTypeRead, slave7bit, offset, &args); err != nil {
		return nil, err
	}
	return append([]byte(nil), args.Data[:n]...), nil
}

func (c *igclContext) WriteI2C(slave7bit byte, offset uint32, data []byte) error {
	var args ctlI2CAccessArgs
	args.DataSize = uint32(len(data))
	copy(args.Data[:], data)
	return c.access(ctlOperationTypeWrite, slave7bit, offset, &args)
}
