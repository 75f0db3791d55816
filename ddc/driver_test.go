package ddc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"EDIDInspect/edid/edidtest"
)

// fakeBus 模擬 EDID EEPROM；每筆 ReadI2C/WriteI2C 都以 STOP 結束，段落指標隨之歸零。
type fakeBus struct {
	mem     []byte
	segment int
	offset  int
	writes  int
	readErr error
}

// segmentBus 另外支援 combined transaction 的段落讀取。
type segmentBus struct {
	fakeBus
	segments []byte
}

func (f *segmentBus) ReadSegment(segment, offset byte, length uint32) ([]byte, error) {
	f.segments = append(f.segments, segment)
	f.segment = int(segment)
	f.offset = int(offset)
	return f.read(length)
}

func (f *fakeBus) Name() string { return "fake" }

func (f *fakeBus) ReadI2C(addr uint32, length uint32) ([]byte, error) {
	if addr != EDIDAddress {
		return nil, errors.New("nak")
	}
	return f.read(length)
}

func (f *fakeBus) read(length uint32) ([]byte, error) {
	defer func() { f.segment = 0 }()
	if f.readErr != nil {
		return nil, f.readErr
	}
	start := f.segment*256 + f.offset
	out := make([]byte, length)
	copy(out, f.mem[start:])
	return out, nil
}

func (f *fakeBus) WriteI2C(addr uint32, data []byte) error {
	f.writes++
	defer func() { f.segment = 0 }()
	switch addr {
	case SegmentAddress:
		f.segment = int(data[0])
	case EDIDAddress:
		f.offset = int(data[0])
	default:
		return errors.New("nak")
	}
	return nil
}

func (f *fakeBus) Close() error { return nil }

func TestReadEDID(t *testing.T) {
	sample := edidtest.Sample()
	bus := &fakeBus{mem: append(append([]byte(nil), sample...), make([]byte, 512)...)}

	raw, err := ReadEDID(bus)
	require.NoError(t, err)
	require.Equal(t, sample, raw)
	require.Equal(t, 2, bus.writes)
}

func segmentedMem(extensions byte) []byte {
	mem := make([]byte, 1024)
	copy(mem, edidtest.Sample())
	mem[126] = extensions
	mem[256] = 0xAB // 段落 1 的第一個區塊
	mem[384] = 0xCD
	return mem
}

func TestReadEDID_UsesSegmentPointer(t *testing.T) {
	bus := &segmentBus{fakeBus: fakeBus{mem: segmentedMem(3)}}

	raw, err := ReadEDID(bus)
	require.NoError(t, err)
	require.Len(t, raw, 512)
	require.Equal(t, byte(0xAB), raw[256])
	require.Equal(t, byte(0xCD), raw[384])
	require.Equal(t, []byte{1, 1}, bus.segments)
	// 段落 0 之後不再單獨寫入段落指標
	require.Equal(t, 2, bus.writes)
}

func TestReadEDID_SegmentWithoutCombinedRead(t *testing.T) {
	bus := &fakeBus{mem: segmentedMem(2)}

	_, err := ReadEDID(bus)
	require.ErrorIs(t, err, ErrNoSegment)
	require.Contains(t, err.Error(), "extension 2")
}

func TestReadEDID_TooManyBlocks(t *testing.T) {
	mem := segmentedMem(maxBlocks)
	_, err := ReadEDID(&segmentBus{fakeBus: fakeBus{mem: mem}})
	require.ErrorIs(t, err, ErrTooManyBlocks)

	// 上限以內的宣告照常讀取
	mem = append(segmentedMem(maxBlocks-1), make([]byte, 1024)...)
	raw, err := ReadEDID(&segmentBus{fakeBus: fakeBus{mem: mem}})
	require.NoError(t, err)
	require.Len(t, raw, maxBlocks*blockSize)
}

func TestReadEDID_Error(t *testing.T) {
	boom := errors.New("bus error")
	_, err := ReadEDID(&fakeBus{mem: make([]byte, 256), readErr: boom})
	require.ErrorIs(t, err, boom)
}

func withProviders(t *testing.T, entries ...providerEntry) {
	t.Helper()
	providersMu.Lock()
	saved := providers
	providers = nil
	providersMu.Unlock()
	for _, e := range entries {
		registerProviderNamed(e.name, e.fn)
	}
	t.Cleanup(func() {
		providersMu.Lock()
		providers = saved
		providersMu.Unlock()
	})
}

func TestOpen(t *testing.T) {
	bus := &fakeBus{}
	withProviders(t,
		providerEntry{name: "none", fn: func(string) (Driver, error) { return nil, ErrNoDriver }},
		providerEntry{name: "Fake", fn: func(b string) (Driver, error) {
			if b != "3" {
				return nil, ErrNoDriver
			}
			return bus, nil
		}},
	)

	d, err := Open("3")
	require.NoError(t, err)
	require.Same(t, bus, d)

	_, err = Open("4")
	require.ErrorIs(t, err, ErrNoDriver)

	d, err = OpenByName("fake", "3")
	require.NoError(t, err)
	require.Same(t, bus, d)

	_, err = OpenByName("none", "3")
	require.ErrorIs(t, err, ErrNoDriver)

	require.Equal(t, []string{"none", "fake"}, Providers())
}

func TestOpen_JoinsErrors(t *testing.T) {
	e1 := errors.New("permission denied")
	e2 := errors.New("busy")
	withProviders(t,
		providerEntry{name: "a", fn: func(string) (Driver, error) { return nil, e1 }},
		providerEntry{name: "b", fn: func(string) (Driver, error) { return nil, e2 }},
	)

	_, err := Open("1")
	require.ErrorIs(t, err, e1)
	require.ErrorIs(t, err, e2)
}
