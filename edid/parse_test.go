package edid_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"EDIDInspect/edid"
	"EDIDInspect/edid/edidtest"
)

func TestParse_Sample(t *testing.T) {
	rec, err := edid.Parse(edidtest.Sample())
	require.NoError(t, err)

	require.Equal(t, edid.Header{
		Manufacturer: "ACM",
		Product:      0x1234,
		Serial:       0x01020304,
		Week:         12,
		Year:         25,
		Version:      1,
		Revision:     4,
	}, rec.Header)
	require.Equal(t, edid.DisplayParameters{VideoInput: 0xA5, Width: 60, Height: 34, Features: 0xE8}, rec.Display)

	dt, ok := rec.Descriptors[0].(*edid.DetailedTiming)
	require.True(t, ok)
	require.Equal(t, uint16(1920), dt.HorizontalActive)
	require.Equal(t, uint16(1080), dt.VerticalActive)
	require.Equal(t, uint16(600), dt.HorizontalSize)
	require.Equal(t, uint16(340), dt.VerticalSize)
	hz, ok := dt.RefreshRate()
	require.True(t, ok)
	require.InDelta(t, 60.0, hz, 0.01)

	require.Equal(t, edid.RangeLimits{}, rec.Descriptors[1])
	require.Equal(t, edid.ProductName("ACME LCD"), rec.Descriptors[2])
	require.Equal(t, edid.SerialNumber("A1B2C3"), rec.Descriptors[3])

	ext := rec.Extension
	require.NotNil(t, ext)
	require.Equal(t, uint8(0xC1), ext.NativeDTD)
	require.Len(t, ext.Blocks, 4)
	require.Equal(t, edid.AudioBlock{Descriptors: []edid.ShortAudioDescriptor{
		{Format: edid.AudioLPCM, Channels: 2, SampleRates: 0x07, Extra: 0x07},
	}}, ext.Blocks[0])
	require.Equal(t, edid.VideoBlock{Descriptors: []edid.ShortVideoDescriptor{0x90, 0x04}}, ext.Blocks[1])
	require.Equal(t, edid.VendorSpecific{Identifier: [3]byte{0x03, 0x0C, 0x00}, Payload: []byte{0x10, 0x00}}, ext.Blocks[2])
	require.Equal(t, edid.SpeakerAllocation{Speakers: edid.SpeakerFrontLeftRight}, ext.Blocks[3])
	require.Len(t, ext.Descriptors, 1)
	require.Equal(t, uint16(1280), ext.Descriptors[0].HorizontalActive)
	require.Equal(t, uint16(720), ext.Descriptors[0].VerticalActive)
}

func TestParse_TrailingBufferIgnored(t *testing.T) {
	buf := make([]byte, 4096)
	copy(buf, edidtest.Sample())

	rec, err := edid.Parse(buf)
	require.NoError(t, err)
	require.NotNil(t, rec.Extension)
}

func TestParse_Errors(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		_, err := edid.Parse(make([]byte, 64))
		require.ErrorIs(t, err, edid.ErrTooShort)
	})

	t.Run("bad header", func(t *testing.T) {
		raw := edidtest.Sample()
		raw[1] = 0x00
		_, err := edid.Parse(raw)
		require.ErrorIs(t, err, edid.ErrBadHeader)
	})

	t.Run("base checksum", func(t *testing.T) {
		raw := edidtest.Sample()
		raw[0x20]++
		_, err := edid.Parse(raw)
		require.ErrorIs(t, err, edid.ErrChecksum)
	})

	t.Run("missing extension", func(t *testing.T) {
		raw := edidtest.Sample()
		_, err := edid.Parse(raw[:edid.BlockSize])
		require.ErrorIs(t, err, edid.ErrTooShort)
	})

	t.Run("extension checksum", func(t *testing.T) {
		raw := edidtest.Sample()
		raw[edid.BlockSize+5]++
		_, err := edid.Parse(raw)
		require.ErrorIs(t, err, edid.ErrChecksum)
	})

	t.Run("data block overrun", func(t *testing.T) {
		raw := edidtest.Sample()
		cea := raw[edid.BlockSize:]
		cea[4] = 0x3F // audio block claiming 31 bytes
		edidtest.Fix(cea)
		_, err := edid.Parse(raw)
		require.ErrorIs(t, err, edid.ErrExtension)
	})
}

func TestParse_NoExtension(t *testing.T) {
	raw := edidtest.Sample()[:edid.BlockSize]
	raw[0x7E] = 0
	edidtest.Fix(raw)

	rec, err := edid.Parse(raw)
	require.NoError(t, err)
	require.Nil(t, rec.Extension)
}

func TestParse_NonCEAExtensionSkipped(t *testing.T) {
	raw := edidtest.Sample()
	cea := raw[edid.BlockSize:]
	cea[0] = 0x70 // DisplayID
	edidtest.Fix(cea)

	rec, err := edid.Parse(raw)
	require.NoError(t, err)
	require.Nil(t, rec.Extension)
}

func TestParse_UnknownDescriptorKeepsTag(t *testing.T) {
	raw := edidtest.Sample()
	copy(raw[0x6C:], []byte{0x00, 0x00, 0x00, 0x42, 0x00, 0xAA})
	edidtest.Fix(raw[:edid.BlockSize])

	rec, err := edid.Parse(raw)
	require.NoError(t, err)
	unk, ok := rec.Descriptors[3].(edid.Unknown)
	require.True(t, ok)
	require.Equal(t, uint8(0x42), unk.Tag)
	require.Equal(t, byte(0xAA), unk.Data[0])
}
