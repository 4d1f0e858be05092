package edat

import (
	"bytes"
	"io"
	"testing"

	"github.com/orcaman/writerseeker"
	"github.com/stretchr/testify/require"
)

func TestTrie_ChainCompression(t *testing.T) {
	// A lone path collapses into a single leaf fragment: no interior
	// nodes, one 8-byte node header, the 32-byte entry, the aligned
	// fragment.
	_, raw := buildArchive(t, 512, map[string]string{"a/b/c.txt": "x"})

	frag := alignedCStringSize(`a\b\c.txt`)
	wantDict := uint32(preambleSize + 8 + fileEntrySize + frag)
	require.Equal(t, wantDict, le32(raw[0x1D:]), "size_dictionary")

	// The stored fragment uses backslashes.
	dict := raw[HeaderSize : HeaderSize+wantDict]
	require.Contains(t, string(dict), `a\b\c.txt`)
	require.NotContains(t, string(dict), "a/b/c.txt")
}

func TestTrie_SharedPrefixSplits(t *testing.T) {
	a, raw := buildArchive(t, 512, map[string]string{
		"data/alpha.bin": "1",
		"data/beta.bin":  "2",
	})
	require.Equal(t, []string{"data/alpha.bin", "data/beta.bin"}, a.Paths())

	// The shared run "data/" becomes one interior fragment; the two
	// leaves diverge after it.
	sizeDict := le32(raw[0x1D:])
	dict := string(raw[HeaderSize : HeaderSize+sizeDict])
	require.Contains(t, dict, `data\`)
	require.Contains(t, dict, "alpha.bin")
	require.Contains(t, dict, "beta.bin")
}

// Dictionary bytes must survive a parse/rebuild cycle untouched when
// the entries do.
func TestTrie_EncodingStability(t *testing.T) {
	files := map[string]string{
		"maps/a.bin":       "aa",
		"maps/abc.bin":     "abc",
		"maps/b/deep.bin":  "deep",
		"other.dat":        "other",
		"maps/B_upper.bin": "upper",
	}
	_, raw := buildArchive(t, 512, files)
	sizeDict := le32(raw[0x1D:])

	parsed := New()
	parsed.OutPath = t.TempDir()
	require.NoError(t, parsed.Parse(bytes.NewReader(raw)))

	// Rebuild from the freshly extracted, identical content.
	stage := &writerseeker.WriterSeeker{}
	require.NoError(t, parsed.Build(stage))
	again, err := io.ReadAll(stage.Reader())
	require.NoError(t, err)

	require.Equal(t,
		raw[HeaderSize:HeaderSize+int(sizeDict)],
		again[HeaderSize:HeaderSize+int(sizeDict)],
		"dictionary must re-encode byte-for-byte")
}
