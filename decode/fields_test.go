package decode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitDepth_AllInputs(t *testing.T) {
	want := map[uint8]string{
		0x00: "Undefined",
		0x10: "6 bpp",
		0x20: "8 bpp",
		0x30: "10 bpp",
		0x40: "12 bpp",
		0x50: "14 bpp",
		0x60: "16 bpp",
	}
	for i := 0; i < 256; i++ {
		v := uint8(i)
		got := BitDepth(v)
		if name, ok := want[v&0x70]; ok {
			require.True(t, got.Known, "input 0x%02x", v)
			require.Equal(t, name, got.String())
		} else {
			require.False(t, got.Known, "input 0x%02x", v)
			require.Equal(t, "Unrecognized (7)", got.String())
		}
	}
}

func TestVideoInterface_AllInputs(t *testing.T) {
	want := map[uint8]string{0: "Undefined", 2: "HDMIa", 3: "HDMIb", 4: "MDDI", 5: "DisplayPort"}
	for i := 0; i < 256; i++ {
		v := uint8(i)
		got := VideoInterface(v)
		if name, ok := want[v&0x0F]; ok {
			require.Equal(t, name, got.String())
			continue
		}
		require.False(t, got.Known)
		require.Equal(t, v&0x0F, got.Raw)
		require.Contains(t, got.String(), "Unrecognized")
	}
}

func TestWhiteSyncLevels(t *testing.T) {
	require.Equal(t, "+0.7/−0.3 V", WhiteSyncLevels(0x00))
	require.Equal(t, "+0.714/−0.286 V", WhiteSyncLevels(0x20))
	require.Equal(t, "+1.0/−0.4 V", WhiteSyncLevels(0x40))
	require.Equal(t, "+0.7/0 V", WhiteSyncLevels(0x60))
	// 其他位元不影響結果
	require.Equal(t, "+1.0/−0.4 V", WhiteSyncLevels(0x5F))
}

func TestDecodeAnalog_Bits(t *testing.T) {
	a := DecodeAnalog(0x1F, 0x08)
	require.True(t, a.Pedestal)
	require.True(t, a.SeparateSync)
	require.True(t, a.CompositeSync)
	require.True(t, a.SyncOnGreen)
	require.True(t, a.SerrationRequired)
	require.Equal(t, "RGB color", a.DisplayType)

	a = DecodeAnalog(0x00, 0x18)
	require.Equal(t, Analog{Levels: "+0.7/−0.3 V", DisplayType: "Undefined"}, a)
}

func TestFeatures_BranchTablesDoNotMix(t *testing.T) {
	for i := 0; i < 256; i++ {
		f := uint8(i)

		d := DecodeDigital(0x80, f)
		require.Equal(t, f&0x08 != 0, d.YCrCb444)
		require.Equal(t, f&0x10 != 0, d.YCrCb422)

		a := DecodeAnalog(0x00, f)
		switch f & 0x18 {
		case 0x00:
			require.Equal(t, "Monochrome or grayscale", a.DisplayType)
		case 0x08:
			require.Equal(t, "RGB color", a.DisplayType)
		case 0x10:
			require.Equal(t, "Non-RGB color", a.DisplayType)
		case 0x18:
			require.Equal(t, "Undefined", a.DisplayType)
		}

		p := DecodePower(f)
		require.Equal(t, Power{Standby: f&0x80 != 0, Suspend: f&0x40 != 0, ActiveOff: f&0x20 != 0}, p)
	}
}

func TestIsDigital(t *testing.T) {
	for i := 0; i < 256; i++ {
		require.Equal(t, i >= 0x80, IsDigital(uint8(i)))
	}
}

func TestDecodeNativeDTD_Independent(t *testing.T) {
	require.Equal(t, NativeFlags{Underscan: true, BasicAudio: true}, DecodeNativeDTD(0xC0))
	require.Equal(t, NativeFlags{YCbCr444: true}, DecodeNativeDTD(0x20))
	require.Equal(t, NativeFlags{YCbCr422: true}, DecodeNativeDTD(0x1F))
	require.Equal(t, NativeFlags{Underscan: true, BasicAudio: true, YCbCr444: true, YCbCr422: true}, DecodeNativeDTD(0xF0))
}

func TestWording(t *testing.T) {
	require.Equal(t, "Supported", Supported(true))
	require.Equal(t, "Unsupported", Supported(false))
	require.Equal(t, "Yes", YesNo(true))
	require.Equal(t, "No", YesNo(false))
	require.Equal(t, "Expected", Pedestal(true))
	require.Equal(t, "Not set", Pedestal(false))
}
