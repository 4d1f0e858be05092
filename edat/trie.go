package edat

import (
	"strings"

	"github.com/wgmod/eugen/internal/utils"
)

// trieNode is one character of the dictionary prefix trie. Terminal
// nodes with no children become file leaves; chains of single-child
// nodes collapse into multi-byte fragments on emission.
type trieNode struct {
	children map[byte]*trieNode
	terminal bool
}

func newTrie() *trieNode {
	return &trieNode{children: make(map[byte]*trieNode)}
}

func (t *trieNode) insert(path string) {
	cur := t
	for i := 0; i < len(path); i++ {
		c := path[i]
		next, ok := cur.children[c]
		if !ok {
			next = newTrie()
			cur.children[c] = next
		}
		cur = next
	}
	cur.terminal = true
}

type triePart struct {
	frag string
	node *trieNode
}

// parts lists the children of t in alphabet order, each compressed to
// the longest single-child chain. A terminal node that still has
// children means one path is a strict prefix of another, which the
// dictionary cannot represent.
func (t *trieNode) parts() ([]triePart, error) {
	var ret []triePart
	for _, c := range Alphabet {
		cur, ok := t.children[c]
		if !ok {
			continue
		}
		frag := []byte{c}
		for len(cur.children) == 1 {
			if cur.terminal {
				return nil, utils.Violation(0, "path ending in %q is a prefix of another entry", frag)
			}
			for cc, child := range cur.children {
				frag = append(frag, cc)
				cur = child
			}
		}
		if cur.terminal && len(cur.children) > 0 {
			return nil, utils.Violation(0, "path ending in %q is a prefix of another entry", frag)
		}
		ret = append(ret, triePart{frag: string(frag), node: cur})
	}
	return ret, nil
}

// writeTrie emits the dictionary depth-first. Interior nodes write a
// provisional entry_size of zero and back-patch it once the subtree is
// written; the last child of every parent keeps the zero ("extends to
// the parent's end").
func (a *Archive) writeTrie(w *utils.Writer, t *trieNode, prefix string) error {
	parts, err := t.parts()
	if err != nil {
		return err
	}

	for i, part := range parts {
		last := i == len(parts)-1
		frag := strings.ReplaceAll(part.frag, "/", `\`)

		if len(part.node.children) == 0 {
			entry, ok := a.entries[prefix+part.frag]
			if !ok {
				return utils.Violation(w.Tell(), "no entry for dictionary path %q", prefix+part.frag)
			}
			var entrySize uint32
			if !last {
				entrySize = uint32(8 + fileEntrySize + alignedCStringSize(frag))
			}
			if err := w.U32(0); err != nil {
				return err
			}
			if err := w.U32(entrySize); err != nil {
				return err
			}
			if err := writeFileEntry(w, entry); err != nil {
				return err
			}
			if err := writeAlignedCString(w, frag); err != nil {
				return err
			}
			continue
		}

		start := w.Tell()
		pathSize := uint32(8 + alignedCStringSize(frag))
		if err := w.U32(pathSize); err != nil {
			return err
		}
		if err := w.U32(0); err != nil {
			return err
		}
		if err := writeAlignedCString(w, frag); err != nil {
			return err
		}
		if err := a.writeTrie(w, part.node, prefix+part.frag); err != nil {
			return err
		}
		if !last {
			if err := w.PatchU32(start+4, uint32(w.Tell()-start)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFileEntry(w *utils.Writer, e FileEntry) error {
	if err := w.U32(e.Offset); err != nil {
		return err
	}
	if err := w.U32(e.Pad0); err != nil {
		return err
	}
	if err := w.U32(e.Size); err != nil {
		return err
	}
	if err := w.U32(e.Pad1); err != nil {
		return err
	}
	return w.Bytes(e.Checksum[:])
}

func writeAlignedCString(w *utils.Writer, s string) error {
	if err := w.Bytes([]byte(s)); err != nil {
		return err
	}
	if err := w.U8(0); err != nil {
		return err
	}
	if (len(s)+1)%2 != 0 {
		return w.U8(0)
	}
	return nil
}
