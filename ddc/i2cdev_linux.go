//go:build linux

package ddc

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// linux/i2c-dev.h 與 linux/i2c.h
const (
	i2cSlave = 0x0703
	i2cRdwr  = 0x0707
	i2cMRd   = 0x0001
)

// i2cMsg 對應 struct i2c_msg。
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   *byte
}

// i2cRdwrData 對應 struct i2c_rdwr_ioctl_data。
type i2cRdwrData struct {
	msgs  *i2cMsg
	nmsgs uint32
}

func init() {
	registerProviderNamed("i2c-dev", openI2CDev)
}

type i2cDevDriver struct {
	path string
	file *os.File
}

// openI2CDev 接受匯流排編號（"3"）或完整路徑（"/dev/i2c-3"）。
func openI2CDev(bus string) (Driver, error) {
	path := bus
	if !strings.HasPrefix(path, "/") {
		path = "/dev/i2c-" + bus
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoDriver
		}
		return nil, err
	}
	return &i2cDevDriver{path: path, file: f}, nil
}

func (d *i2cDevDriver) Name() string { return "i2c-dev:" + d.path }

func (d *i2cDevDriver) setAddress(addr uint32) error {
	if err := unix.IoctlSetInt(int(d.file.Fd()), i2cSlave, int(addr)); err != nil {
		return fmt.Errorf("%s: select 0x%02x: %w", d.path, addr, err)
	}
	return nil
}

func (d *i2cDevDriver) ReadI2C(addr uint32, length uint32) ([]byte, error) {
	if err := d.setAddress(addr); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	n, err := unix.Read(int(d.file.Fd()), buf)
	if err != nil {
		return nil, fmt.Errorf("%s: read: %w", d.path, err)
	}
	return buf[:n], nil
}

func (d *i2cDevDriver) WriteI2C(addr uint32, data []byte) error {
	if err := d.setAddress(addr); err != nil {
		return err
	}
	if _, err := unix.Write(int(d.file.Fd()), data); err != nil {
		return fmt.Errorf("%s: write: %w", d.path, err)
	}
	return nil
}

// ReadSegment 以 I2C_RDWR 送出「寫段落、寫位移、讀取」三則訊息，中間只有 repeated start。
func (d *i2cDevDriver) ReadSegment(segment, offset byte, length uint32) ([]byte, error) {
	if length == 0 || length > 0xFFFF {
		return nil, fmt.Errorf("%s: invalid read length %d", d.path, length)
	}
	seg := []byte{segment}
	off := []byte{offset}
	buf := make([]byte, length)
	msgs := []i2cMsg{
		{addr: SegmentAddress, len: 1, buf: &seg[0]},
		{addr: EDIDAddress, len: 1, buf: &off[0]},
		{addr: EDIDAddress, flags: i2cMRd, len: uint16(length), buf: &buf[0]},
	}
	data := i2cRdwrData{msgs: &msgs[0], nmsgs: uint32(len(msgs))}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.file.Fd(), i2cRdwr, uintptr(unsafe.Pointer(&data)))
	runtime.KeepAlive(msgs)
	runtime.KeepAlive(seg)
	runtime.KeepAlive(off)
	if errno != 0 {
		return nil, fmt.Errorf("%s: segment %d offset 0x%02x: %w", d.path, segment, offset, errno)
	}
	return buf, nil
}

func (d *i2cDevDriver) Close() error {
	return d.file.Close()
}
