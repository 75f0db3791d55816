package decode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"EDIDInspect/edid"
)

func TestAudioFormatName(t *testing.T) {
	names := []string{
		"LPCM", "AC-3", "MPEG-1", "MP3", "MPEG-2", "AAC", "DTS",
		"ATRAC", "DSD", "DD+", "DTS-HD", "Dolby TrueHD", "DST Audio", "WMA Pro",
	}
	for i, name := range names {
		require.Equal(t, name, AudioFormatName(uint8(i+1)))
	}

	defined := map[string]bool{}
	for _, n := range names {
		defined[n] = true
	}
	for i := 16; i < 256; i++ {
		got := AudioFormatName(uint8(i))
		require.True(t, strings.HasPrefix(got, "Unknown"), "code %d", i)
		require.False(t, defined[got])
	}
}

func TestDecodeAudio_Suppressed(t *testing.T) {
	for _, code := range []uint8{0, edid.AudioReserved} {
		_, ok := DecodeAudio(edid.ShortAudioDescriptor{Format: code, Channels: 2})
		require.False(t, ok)
	}
}

func TestDecodeAudio_LPCM(t *testing.T) {
	a, ok := DecodeAudio(edid.ShortAudioDescriptor{Format: edid.AudioLPCM, Channels: 2, SampleRates: 0x05, Extra: 0x05})
	require.True(t, ok)
	require.Equal(t, []int{16, 24}, a.BitDepths)
	require.Zero(t, a.MaxBitrate)
	require.Equal(t, []string{"32", "48"}, a.SampleRates)
	require.Equal(t, "LPCM 2 channels 16 bit 24 bit", a.String())
}

func TestDecodeAudio_Bitrate(t *testing.T) {
	a, ok := DecodeAudio(edid.ShortAudioDescriptor{Format: edid.AudioAC3, Channels: 6, Extra: 80})
	require.True(t, ok)
	require.Equal(t, "AC-3 6 channels max bitrate 640 kbps", a.String())

	// DD+ 的第三個位元組不是位元率
	a, ok = DecodeAudio(edid.ShortAudioDescriptor{Format: edid.AudioDDPlus, Channels: 8, Extra: 0x01})
	require.True(t, ok)
	require.Equal(t, "DD+ 8 channels", a.String())
	require.Empty(t, a.BitDepths)
}

func TestVideoFormat(t *testing.T) {
	require.Equal(t, "16 (native)", VideoFormat(0x90))
	require.Equal(t, "4", VideoFormat(0x04))
}

func TestSpeakers_CanonicalOrder(t *testing.T) {
	require.Equal(t, []string{"FL FR", "LFE"}, Speakers(0b0000011))
	require.Equal(t, "FL FR LFE FC RL RR RC FLRC RLRC", strings.Join(Speakers(0x7F), " "))
	require.Equal(t, []string{"FC", "RLRC"}, Speakers(0x44))
	require.Empty(t, Speakers(0x80))
}

func TestVendor(t *testing.T) {
	id := [3]byte{0x03, 0x0C, 0x00}
	require.Equal(t, "03 0c 00", VendorID(id))
	name, ok := VendorName(id)
	require.True(t, ok)
	require.Equal(t, "HDMI Licensing", name)

	_, ok = VendorName([3]byte{0x01, 0x02, 0x03})
	require.False(t, ok)
}

func TestBlockName(t *testing.T) {
	require.Equal(t, "VESA Display Transfer Characteristic", BlockName(5, nil))
	require.Equal(t, "Extended: Colorimetry", BlockName(7, []byte{5, 0xC1}))
	require.Equal(t, "Extended: Reserved (9)", BlockName(7, []byte{9}))
	require.Equal(t, "Extended", BlockName(7, nil))
	require.Equal(t, "Reserved", BlockName(0, nil))
}
