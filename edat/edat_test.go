package edat

import (
	"bytes"
	"crypto/md5"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/orcaman/writerseeker"
	"github.com/stretchr/testify/require"
)

// buildArchive writes the given content files beneath a temp root and
// builds an archive over them, returning the raw bytes.
func buildArchive(t *testing.T, sectorSize uint32, files map[string]string) (*Archive, []byte) {
	t.Helper()

	a := New()
	a.SectorSize = sectorSize
	a.OutPath = t.TempDir()
	for path, content := range files {
		full := filepath.Join(a.OutPath, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
		require.NoError(t, a.SetEntry(path, FileEntry{}))
	}

	stage := &writerseeker.WriterSeeker{}
	require.NoError(t, a.Build(stage))
	raw, err := io.ReadAll(stage.Reader())
	require.NoError(t, err)
	return a, raw
}

func TestEmptyArchive_RoundTrip(t *testing.T) {
	a, raw := buildArchive(t, DefaultSectorSize, nil)

	// Header plus the 10-byte empty preamble, nothing else.
	require.Len(t, raw, HeaderSize+preambleSize)
	require.Equal(t, []byte("edat"), raw[0:4])
	require.Equal(t, uint32(2), le32(raw[0x04:]))
	require.Equal(t, uint32(HeaderSize), le32(raw[0x19:]))
	require.Equal(t, uint32(0), le32(raw[0x1D:]), "size_dictionary")
	require.Equal(t, uint32(sentinelEmpty), le32(raw[HeaderSize:]))
	require.Equal(t, md5.Sum(nil), a.DictChecksum)

	parsed := New()
	parsed.OutPath = t.TempDir()
	require.NoError(t, parsed.Parse(bytes.NewReader(raw)))
	require.Zero(t, parsed.Len())

	stage := &writerseeker.WriterSeeker{}
	require.NoError(t, parsed.Build(stage))
	again, err := io.ReadAll(stage.Reader())
	require.NoError(t, err)
	require.Equal(t, raw, again, "empty archive must rebuild byte-for-byte")
}

func TestSingleFile_SectorPaddedChecksum(t *testing.T) {
	a, raw := buildArchive(t, DefaultSectorSize, map[string]string{"a.txt": "hi"})

	entry, ok := a.Entry("a.txt")
	require.True(t, ok)
	require.Equal(t, uint32(0), entry.Offset)
	require.Equal(t, uint32(2), entry.Size)

	// MD5 over "hi" followed by 8190 zero bytes, not over the raw tail.
	padded := make([]byte, DefaultSectorSize)
	copy(padded, "hi")
	require.Equal(t, md5.Sum(padded), entry.Checksum)

	// Payload region: one sector at the aligned offset, content then zeros.
	offsetFiles := le32(raw[0x21:])
	require.Equal(t, uint32(DefaultSectorSize), offsetFiles)
	require.Equal(t, uint32(DefaultSectorSize), le32(raw[0x25:]), "size_files")
	require.Len(t, raw, int(offsetFiles)+int(DefaultSectorSize))
	require.Equal(t, []byte("hi"), raw[offsetFiles:offsetFiles+2])
	require.Equal(t, make([]byte, DefaultSectorSize-2), raw[offsetFiles+2:])

	// The dictionary digest in the header matches a fresh digest of the
	// dictionary region.
	sizeDict := le32(raw[0x1D:])
	var want [16]byte
	copy(want[:], raw[0x31:0x41])
	require.Equal(t, want, md5.Sum(raw[HeaderSize:HeaderSize+sizeDict]))
}

func TestTwoFiles_CanonicalOrdering(t *testing.T) {
	a, raw := buildArchive(t, DefaultSectorSize, map[string]string{
		"A.dat": "upper",
		"a.dat": "lower",
	})

	// Lowercase precedes uppercase in the alphabet, so a.dat gets the
	// first payload slot.
	require.Equal(t, []string{"a.dat", "A.dat"}, a.Paths())
	lower, _ := a.Entry("a.dat")
	upper, _ := a.Entry("A.dat")
	require.Equal(t, uint32(0), lower.Offset)
	require.Equal(t, uint32(DefaultSectorSize), upper.Offset)

	offsetFiles := le32(raw[0x21:])
	require.Equal(t, []byte("lower"), raw[int(offsetFiles):int(offsetFiles)+5])
	require.Equal(t, []byte("upper"), raw[int(offsetFiles+upper.Offset):int(offsetFiles+upper.Offset)+5])
}

func TestParse_ExtractsContent(t *testing.T) {
	_, raw := buildArchive(t, 512, map[string]string{
		"maps/alpha.bin": "alpha-content",
		"maps/beta.bin":  "",
	})

	parsed := New()
	parsed.OutPath = t.TempDir()
	require.NoError(t, parsed.Parse(bytes.NewReader(raw)))
	require.Equal(t, 2, parsed.Len())
	require.Equal(t, uint32(512), parsed.SectorSize)

	content, err := os.ReadFile(filepath.Join(parsed.OutPath, "maps", "alpha.bin"))
	require.NoError(t, err)
	require.Equal(t, "alpha-content", string(content))

	empty, err := os.ReadFile(filepath.Join(parsed.OutPath, "maps", "beta.bin"))
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestParse_HeaderOnlyWithoutReadFiles(t *testing.T) {
	_, raw := buildArchive(t, 512, map[string]string{"x.bin": "payload"})

	parsed := New()
	parsed.ReadFiles = false
	parsed.OutPath = t.TempDir()
	require.NoError(t, parsed.Parse(bytes.NewReader(raw)))
	require.Equal(t, 1, parsed.Len())

	_, err := os.Stat(filepath.Join(parsed.OutPath, "x.bin"))
	require.True(t, os.IsNotExist(err), "payload must not be extracted")
}

func TestRebuild_ByteExact(t *testing.T) {
	_, raw := buildArchive(t, 512, map[string]string{
		"data/one.bin":  "first",
		"data/two.bin":  "second payload",
		"other/sub.bin": "third",
	})

	parsed := New()
	parsed.OutPath = t.TempDir()
	require.NoError(t, parsed.Parse(bytes.NewReader(raw)))

	stage := &writerseeker.WriterSeeker{}
	require.NoError(t, parsed.Build(stage))
	again, err := io.ReadAll(stage.Reader())
	require.NoError(t, err)
	require.Equal(t, raw, again, "extract + rebuild with identical content must reproduce the archive")
}

func TestParse_FormatViolations(t *testing.T) {
	_, raw := buildArchive(t, 512, map[string]string{"x.bin": "payload"})

	tests := []struct {
		name   string
		mutate func([]byte)
	}{
		{name: "bad magic", mutate: func(b []byte) { b[0] = 'E' }},
		{name: "bad version", mutate: func(b []byte) { b[0x04] = 3 }},
		{name: "nonzero reserved", mutate: func(b []byte) { b[0x0A] = 1 }},
		{name: "nonzero tail pad", mutate: func(b []byte) { b[0x100] = 0xFF }},
		{name: "bad sentinel", mutate: func(b []byte) { b[HeaderSize] = 0x07 }},
		{name: "nonzero preamble pad", mutate: func(b []byte) { b[HeaderSize+5] = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutated := bytes.Clone(raw)
			tt.mutate(mutated)
			a := New()
			a.ReadFiles = false
			require.Error(t, a.Parse(bytes.NewReader(mutated)))
		})
	}
}

func TestEmptySentinel_AuthoritativeOverSize(t *testing.T) {
	// A 0x01 sentinel with a nonzero size_dictionary still means "no
	// entries"; trailing bytes in the region are ignored.
	_, raw := buildArchive(t, 512, nil)
	mutated := bytes.Clone(raw)
	putLE32(mutated[0x1D:], 10)

	a := New()
	a.ReadFiles = false
	require.NoError(t, a.Parse(bytes.NewReader(mutated)))
	require.Zero(t, a.Len())
}

func TestBuild_RejectsPrefixPaths(t *testing.T) {
	a, _ := buildArchive(t, 512, map[string]string{"map": "m"})
	full := filepath.Join(a.OutPath, "maps")
	require.NoError(t, os.WriteFile(full, []byte("s"), 0o644))
	require.NoError(t, a.SetEntry("maps", FileEntry{}))

	stage := &writerseeker.WriterSeeker{}
	require.Error(t, a.Build(stage), "a path that is a strict prefix of another cannot be represented")
}

func TestDiff_ReportsChangedChecksums(t *testing.T) {
	orig, _ := buildArchive(t, 512, map[string]string{"a.bin": "same", "b.bin": "old"})
	mod, _ := buildArchive(t, 512, map[string]string{"a.bin": "same", "b.bin": "new", "c.bin": "added"})

	require.Equal(t, []string{"b.bin", "c.bin"}, mod.Diff(orig))
	require.Empty(t, orig.Diff(orig))
}
