package ndf

import (
	"sort"
	"strings"

	"github.com/wgmod/eugen/internal/utils"
)

// The import and export sections share one trie layout. Each node is
// {tran_index u32, leaf_index u32, child_count u32} followed by one
// u32 offset per child and then the children laid out contiguously; a
// child offset is the byte distance from the end of the offset array
// to that child. Interior nodes carry the sentinel leaf index, and the
// synthetic root carries the sentinel tran index and contributes no
// path fragment.
type pathTrie struct {
	tran     uint32
	leaf     uint32
	children []*pathTrie
	byTran   map[uint32]*pathTrie
}

func newPathTrie() *pathTrie {
	return &pathTrie{tran: sentinel, leaf: sentinel, byTran: make(map[uint32]*pathTrie)}
}

// insert registers a leaf value under a fragment-index sequence.
func (t *pathTrie) insert(frags []uint32, leaf uint32) error {
	cur := t
	for _, f := range frags {
		next, ok := cur.byTran[f]
		if !ok {
			next = newPathTrie()
			next.tran = f
			cur.byTran[f] = next
			cur.children = append(cur.children, next)
		}
		cur = next
	}
	if cur.leaf != sentinel {
		return utils.WrapError("duplicate path in trie", utils.ErrFormat)
	}
	cur.leaf = leaf
	return nil
}

// write emits the trie depth-first, back-patching child offsets once
// each subtree's footprint is known. Children are ordered by fragment
// index so emission is deterministic.
func (t *pathTrie) write(w *utils.Writer) error {
	sort.Slice(t.children, func(i, j int) bool { return t.children[i].tran < t.children[j].tran })

	if err := w.U32(t.tran); err != nil {
		return err
	}
	if err := w.U32(t.leaf); err != nil {
		return err
	}
	count, err := utils.U32Len(len(t.children), "trie children")
	if err != nil {
		return err
	}
	if err := w.U32(count); err != nil {
		return err
	}

	offsetsPos := w.Tell()
	if err := w.Zeros(4 * len(t.children)); err != nil {
		return err
	}
	base := w.Tell()

	for i, child := range t.children {
		off := uint32(w.Tell() - base)
		if err := child.write(w); err != nil {
			return err
		}
		if err := w.PatchU32(offsetsPos+int64(4*i), off); err != nil {
			return err
		}
	}
	return nil
}

// readPathTrie walks one node and its subtree, invoking visit for
// every leaf with the fragment path joined by `/`.
func readPathTrie(r *utils.Reader, trans []string, prefix []string, visit func(leaf uint32, path string) error) error {
	tran, err := r.U32()
	if err != nil {
		return err
	}
	leaf, err := r.U32()
	if err != nil {
		return err
	}
	count, err := r.U32()
	if err != nil {
		return err
	}

	path := prefix
	if tran != sentinel {
		if err := utils.CheckIndex(tran, len(trans), "transliteration"); err != nil {
			return err
		}
		path = append(prefix[:len(prefix):len(prefix)], trans[tran])
	}

	offsets := make([]uint32, count)
	for i := range offsets {
		if offsets[i], err = r.U32(); err != nil {
			return err
		}
	}
	base := r.Tell()

	for _, off := range offsets {
		if got := r.Tell() - base; got != int64(off) {
			return utils.Violation(r.Tell(), "trie child at +0x%X, offset table says +0x%X", got, off)
		}
		if err := readPathTrie(r, trans, path, visit); err != nil {
			return err
		}
	}

	if leaf != sentinel {
		return visit(leaf, strings.Join(path, "/"))
	}
	return nil
}
