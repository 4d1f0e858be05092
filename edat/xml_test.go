package edat

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListingXML_PathsOnly(t *testing.T) {
	a := New()
	a.SectorSize = 512
	require.NoError(t, a.SetEntry("maps/alpha.bin", FileEntry{Size: 3}))
	require.NoError(t, a.SetEntry("other.dat", FileEntry{Size: 7}))

	var buf bytes.Buffer
	require.NoError(t, a.WriteXML(&buf))
	require.Contains(t, buf.String(), `sectorSize="512"`)
	require.Contains(t, buf.String(), `path="maps/alpha.bin"`)
	require.NotContains(t, buf.String(), "offset=", "entry fields stay out of content-backed listings")

	back := New()
	require.NoError(t, back.ReadXML(&buf))
	require.Equal(t, uint32(512), back.SectorSize)
	require.Equal(t, []string{"maps/alpha.bin", "other.dat"}, back.Paths())
}

func TestListingXML_EntryFieldsRoundTrip(t *testing.T) {
	a := New()
	a.ReadFiles = false
	a.SectorSize = 8192
	entry := FileEntry{Offset: 8192, Size: 42, Pad0: 1, Pad1: 2}
	for i := range entry.Checksum {
		entry.Checksum[i] = byte(i)
	}
	require.NoError(t, a.SetEntry("x.bin", entry))

	var buf bytes.Buffer
	require.NoError(t, a.WriteXML(&buf))
	require.Contains(t, buf.String(), `checksum="000102030405060708090a0b0c0d0e0f"`)

	back := New()
	back.ReadFiles = false
	require.NoError(t, back.ReadXML(&buf))
	got, ok := back.Entry("x.bin")
	require.True(t, ok)
	require.Equal(t, entry, got)
}

func TestListingXML_BackslashPathsNormalized(t *testing.T) {
	listing := `<EDat sectorSize="512"><File path="out\maps\a.bin"/></EDat>`
	a := New()
	require.NoError(t, a.ReadXML(bytes.NewReader([]byte(listing))))
	_, ok := a.Entry("out/maps/a.bin")
	require.True(t, ok)
}

func TestListingXML_RejectsBadChecksum(t *testing.T) {
	listing := `<EDat sectorSize="512"><File path="a.bin" checksum="zz"/></EDat>`
	a := New()
	a.ReadFiles = false
	require.Error(t, a.ReadXML(bytes.NewReader([]byte(listing))))
}
