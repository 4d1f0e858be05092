package checksum

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

// Reference digests from the RFC 1321 test suite.
func TestSum_ReferenceVectors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: "d41d8cd98f00b204e9800998ecf8427e"},
		{name: "a", input: "a", want: "0cc175b9c0f1b6a831c399e269772661"},
		{name: "abc", input: "abc", want: "900150983cd24fb0d6963f7d28e17f72"},
		{name: "message digest", input: "message digest", want: "f96b697d7cb7938d525a2f31aaf161d0"},
		{name: "alphabet", input: "abcdefghijklmnopqrstuvwxyz", want: "c3fcd3d76192e4007dfb496cca67e13b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sum(bytes.NewReader([]byte(tt.input)), int64(len(tt.input)))
			require.NoError(t, err)
			require.Equal(t, tt.want, hex.EncodeToString(got[:]))
		})
	}
}

func TestSum_ShortInput(t *testing.T) {
	_, err := Sum(bytes.NewReader([]byte("hi")), 10)
	require.Error(t, err)
}

func TestSectorSum_PadsTail(t *testing.T) {
	const sectorSize = 64

	tests := []struct {
		name    string
		content []byte
	}{
		{name: "short tail", content: []byte("hi")},
		{name: "exact sector", content: bytes.Repeat([]byte{0xAB}, sectorSize)},
		{name: "sector and a half", content: bytes.Repeat([]byte{0xCD}, sectorSize+sectorSize/2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The digest must cover the content extended with zeros to a
			// whole number of sectors, never the raw tail.
			padded := make([]byte, ((len(tt.content)+sectorSize-1)/sectorSize)*sectorSize)
			copy(padded, tt.content)
			want := md5.Sum(padded)

			got, err := SectorSum(bytes.NewReader(tt.content), int64(len(tt.content)), sectorSize)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestSectorSum_Empty(t *testing.T) {
	got, err := SectorSum(bytes.NewReader(nil), 0, 8192)
	require.NoError(t, err)
	require.Equal(t, md5.Sum(nil), got)
}
