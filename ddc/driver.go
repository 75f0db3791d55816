// Package ddc 透過 DDC（I2C 位址 0x50）直接從顯示器讀取 EDID。
package ddc

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

const (
	// EDIDAddress 為 DDC 上 EDID EEPROM 的 I2C 位址。
	EDIDAddress = 0x50
	// SegmentAddress 為 E-DDC 的段落指標位址，每段 256 位元組。
	SegmentAddress = 0x30

	blockSize = 128
	maxBlocks = 8
)

var (
	ErrNoDriver = errors.New("ddc: no compatible driver found")
	// ErrTooManyBlocks 表示基本區塊宣告的擴充區塊數超過可讀取的上限。
	ErrTooManyBlocks = errors.New("ddc: edid declares more blocks than supported")
	// ErrNoSegment 表示驅動無法在同一筆交易內設定 E-DDC 段落指標。
	ErrNoSegment = errors.New("ddc: driver cannot address e-ddc segments")
)

// Driver 是可讀寫 I2C 的匯流排。
type Driver interface {
	Name() string
	ReadI2C(addr uint32, length uint32) ([]byte, error)
	WriteI2C(addr uint32, data []byte) error
	Close() error
}

// segmentReader 以單一 combined transaction 依序送出段落指標、位移並讀取。
// 接收端在 STOP 時會把段落指標歸零，分開送出時段落 1 以上讀到的會是段落 0。
type segmentReader interface {
	ReadSegment(segment, offset byte, length uint32) ([]byte, error)
}

type providerFunc func(bus string) (Driver, error)

type providerEntry struct {
	name string
	fn   providerFunc
}

var (
	providersMu sync.RWMutex
	providers   []providerEntry
)

func registerProviderNamed(name string, fn providerFunc) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers = append(providers, providerEntry{name: strings.ToLower(name), fn: fn})
}

// Providers 回傳已註冊的驅動名稱。
func Providers() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.name)
	}
	return names
}

// Open 依序嘗試所有驅動開啟指定匯流排，回傳第一個成功者。
func Open(bus string) (Driver, error) {
	return OpenByName("", bus)
}

// OpenByName 只嘗試指定名稱的驅動；name 為空時等同 Open。
func OpenByName(name, bus string) (Driver, error) {
	providersMu.RLock()
	list := append([]providerEntry(nil), providers...)
	providersMu.RUnlock()

	target := strings.ToLower(name)
	var joined error
	for _, entry := range list {
		if target != "" && entry.name != target {
			continue
		}
		driver, err := entry.fn(bus)
		if err == nil {
			return driver, nil
		}
		if errors.Is(err, ErrNoDriver) {
			continue
		}
		joined = errors.Join(joined, err)
	}

	if joined != nil {
		return nil, joined
	}
	return nil, ErrNoDriver
}

// ReadEDID 讀出基本區塊與其宣告的所有擴充區塊。
func ReadEDID(d Driver) ([]byte, error) {
	base, err := readBlock(d, 0)
	if err != nil {
		return nil, err
	}

	count := int(base[126])
	if count+1 > maxBlocks {
		// 截斷後的資料與 base[126] 不符，解析時一樣會失敗。
		slog.Warn("edid declares too many extensions", "bus", d.Name(), "count", count)
		return nil, fmt.Errorf("%w: %d extensions, at most %d", ErrTooManyBlocks, count, maxBlocks-1)
	}

	out := append([]byte(nil), base...)
	for i := 1; i <= count; i++ {
		block, err := readBlock(d, i)
		if err != nil {
			return nil, fmt.Errorf("extension %d: %w", i, err)
		}
		out = append(out, block...)
	}
	return out, nil
}

func readBlock(d Driver, index int) ([]byte, error) {
	segment := byte(index / 2)
	offset := byte((index % 2) * blockSize)

	var (
		data []byte
		err  error
	)
	if segment > 0 {
		// 超過 256 位元組時段落指標、位移與讀取必須在同一筆交易內完成。
		sr, ok := d.(segmentReader)
		if !ok {
			return nil, fmt.Errorf("segment %d on %s: %w", segment, d.Name(), ErrNoSegment)
		}
		data, err = sr.ReadSegment(segment, offset, blockSize)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", segment, err)
		}
	} else {
		if err := d.WriteI2C(EDIDAddress, []byte{offset}); err != nil {
			return nil, fmt.Errorf("set offset 0x%02x: %w", offset, err)
		}
		data, err = d.ReadI2C(EDIDAddress, blockSize)
		if err != nil {
			return nil, err
		}
	}
	if len(data) != blockSize {
		return nil, fmt.Errorf("short read: %d of %d bytes", len(data), blockSize)
	}
	return data, nil
}
