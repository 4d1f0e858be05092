package ndf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUtf16Transcode_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		bytes int
	}{
		{name: "empty", input: "", bytes: 0},
		{name: "ascii", input: "hello", bytes: 10},
		{name: "accented", input: "héllo", bytes: 10},
		{name: "bmp", input: "łódź 東京", bytes: 14},
		{name: "astral", input: "a𝄞b", bytes: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Utf8ToUtf16(tt.input)
			require.NoError(t, err)
			require.Len(t, raw, tt.bytes)
			require.Zero(t, len(raw)%2, "UTF-16 payloads are always even-length")

			back, err := Utf16ToUtf8(raw)
			require.NoError(t, err)
			require.Equal(t, tt.input, back)
		})
	}
}

func TestUtf16_LittleEndianUnits(t *testing.T) {
	raw, err := Utf8ToUtf16("A")
	require.NoError(t, err)
	require.Equal(t, []byte{0x41, 0x00}, raw)
}
