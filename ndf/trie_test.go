package ndf

import (
	"bytes"
	"io"
	"testing"

	"github.com/orcaman/writerseeker"
	"github.com/stretchr/testify/require"

	"github.com/wgmod/eugen/internal/utils"
)

func writeTrieBytes(t *testing.T, root *pathTrie) []byte {
	t.Helper()
	stage := &writerseeker.WriterSeeker{}
	w, err := utils.NewWriter(stage)
	require.NoError(t, err)
	require.NoError(t, root.write(w))
	raw, err := io.ReadAll(stage.Reader())
	require.NoError(t, err)
	return raw
}

func TestPathTrie_EncodeDecodeStability(t *testing.T) {
	trans := []string{"$", "units", "Infantry", "Vehicles", "fx"}

	root := newPathTrie()
	require.NoError(t, root.insert([]uint32{0, 1, 2}, 0)) // $/units/Infantry
	require.NoError(t, root.insert([]uint32{0, 1, 3}, 1)) // $/units/Vehicles
	require.NoError(t, root.insert([]uint32{0, 4}, 2))    // $/fx
	raw := writeTrieBytes(t, root)

	// Decode, rebuild from the visited leaves, re-encode: byte-for-byte.
	r, err := utils.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)

	type leafEntry struct {
		leaf uint32
		path string
	}
	var leaves []leafEntry
	require.NoError(t, readPathTrie(r, trans, nil, func(leaf uint32, path string) error {
		leaves = append(leaves, leafEntry{leaf: leaf, path: path})
		return nil
	}))
	require.Equal(t, []leafEntry{
		{leaf: 0, path: "$/units/Infantry"},
		{leaf: 1, path: "$/units/Vehicles"},
		{leaf: 2, path: "$/fx"},
	}, leaves)

	tranIdx := map[string]uint32{}
	for i, f := range trans {
		tranIdx[f] = uint32(i)
	}
	rebuilt := newPathTrie()
	for _, l := range leaves {
		var frags []uint32
		for _, f := range bytes.Split([]byte(l.path), []byte("/")) {
			frags = append(frags, tranIdx[string(f)])
		}
		require.NoError(t, rebuilt.insert(frags, l.leaf))
	}
	require.Equal(t, raw, writeTrieBytes(t, rebuilt))
}

func TestPathTrie_InteriorAndLeafAtOnce(t *testing.T) {
	// A path can be both an export and a prefix of a deeper one.
	trans := []string{"$", "a", "b"}
	root := newPathTrie()
	require.NoError(t, root.insert([]uint32{0, 1}, 7))    // $/a
	require.NoError(t, root.insert([]uint32{0, 1, 2}, 8)) // $/a/b
	raw := writeTrieBytes(t, root)

	r, err := utils.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	got := map[string]uint32{}
	require.NoError(t, readPathTrie(r, trans, nil, func(leaf uint32, path string) error {
		got[path] = leaf
		return nil
	}))
	require.Equal(t, map[string]uint32{"$/a": 7, "$/a/b": 8}, got)
}

func TestPathTrie_DuplicateLeafRejected(t *testing.T) {
	root := newPathTrie()
	require.NoError(t, root.insert([]uint32{0, 1}, 0))
	require.Error(t, root.insert([]uint32{0, 1}, 1))
}

func TestPathTrie_EmptyRoot(t *testing.T) {
	raw := writeTrieBytes(t, newPathTrie())
	// Sentinel tran index, sentinel leaf index, zero children.
	require.Equal(t, []byte{
		0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF,
		0, 0, 0, 0,
	}, raw)
}
