package ndf

import (
	"fmt"
	"io"

	"github.com/wgmod/eugen/internal/utils"
)

// Binary layout constants shared by the reader and writer.
var ndfMagic = [4]byte{'E', 'U', 'G', '0'}

const ndfVersion = 2

// Section tags in declared order. The directory must list exactly
// these, in this order.
var sectionTags = [...]string{
	"OBJE", "TOPO", "CHNK", "CLAS", "PROP", "STRG", "TRAN", "IMPR", "EXPR",
}

// Directory slots by position.
const (
	secOBJE = iota
	secTOPO
	secCHNK
	secCLAS
	secPROP
	secSTRG
	secTRAN
	secIMPR
	secEXPR
	sectionCount
)

const ndfHeaderSize = 12 + sectionCount*12

type section struct {
	offset uint32
	size   uint32
}

type decoder struct {
	r           *utils.Reader
	strings     []string
	classes     []string
	trans       []string
	props       []propEntry
	importNames map[uint32]string
}

func (d *decoder) stringAt(idx uint32) (string, error) {
	if err := utils.CheckIndex(idx, len(d.strings), "string"); err != nil {
		return "", err
	}
	return d.strings[idx], nil
}

// Decode reads an NDFBin stream and materializes the object graph.
// Objects are named Object_<index> in parse order; the decoded table
// snapshots are retained on the graph for inspection.
func Decode(src io.ReadSeeker) (*Graph, error) {
	r, err := utils.NewReader(src)
	if err != nil {
		return nil, err
	}
	if err := r.Seek(0); err != nil {
		return nil, err
	}

	dir, err := readDirectory(r)
	if err != nil {
		return nil, err
	}

	d := &decoder{r: r, importNames: make(map[uint32]string)}
	g := NewGraph()

	// Tables first: the object section resolves names through them.
	if d.classes, err = readStringSection(r, dir[secCLAS], "CLAS"); err != nil {
		return nil, err
	}
	if d.strings, err = readStringSection(r, dir[secSTRG], "STRG"); err != nil {
		return nil, err
	}
	if d.trans, err = readStringSection(r, dir[secTRAN], "TRAN"); err != nil {
		return nil, err
	}
	if d.props, err = readPropSection(r, dir[secPROP]); err != nil {
		return nil, err
	}

	// Imports next: import references resolve while properties decode.
	importCount, err := beginSection(r, dir[secIMPR], "IMPR")
	if err != nil {
		return nil, err
	}
	err = readPathTrie(r, d.trans, nil, func(leaf uint32, path string) error {
		if _, dup := d.importNames[leaf]; dup {
			return utils.Violation(r.Tell(), "import index %d assigned twice", leaf)
		}
		d.importNames[leaf] = path
		g.Imports = append(g.Imports, ImportEntry{Index: leaf, Path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := endSection(r, dir[secIMPR], "IMPR"); err != nil {
		return nil, err
	}
	if int(importCount) != len(d.importNames) {
		return nil, utils.Violation(r.Tell(), "IMPR count %d, trie has %d leaves", importCount, len(d.importNames))
	}

	if err := readObjects(d, g, dir[secOBJE]); err != nil {
		return nil, err
	}
	if err := readTopObjects(d, g, dir[secTOPO]); err != nil {
		return nil, err
	}
	if err := readChunks(d, g, dir[secCHNK]); err != nil {
		return nil, err
	}

	// Exports attach paths to objects by index.
	if _, err := beginSection(r, dir[secEXPR], "EXPR"); err != nil {
		return nil, err
	}
	err = readPathTrie(r, d.trans, nil, func(leaf uint32, path string) error {
		if err := utils.CheckIndex(leaf, len(g.names), "export object"); err != nil {
			return err
		}
		g.objects[g.names[leaf]].ExportPath = path
		g.Exports = append(g.Exports, ExportEntry{ObjectIndex: leaf, Path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := endSection(r, dir[secEXPR], "EXPR"); err != nil {
		return nil, err
	}

	g.Strings = d.strings
	g.ClassNames = d.classes
	g.TranFragments = d.trans
	g.PropertyNames = make([]string, len(d.props))
	for i, p := range d.props {
		g.PropertyNames[i] = p.name
	}
	return g, nil
}

func readDirectory(r *utils.Reader) ([sectionCount]section, error) {
	var dir [sectionCount]section

	raw, err := r.Bytes(4)
	if err != nil {
		return dir, err
	}
	if [4]byte(raw) != ndfMagic {
		return dir, utils.Violation(0, "magic %q, want %q", raw, ndfMagic[:])
	}
	version, err := r.U32()
	if err != nil {
		return dir, err
	}
	if version != ndfVersion {
		return dir, utils.Violation(4, "version %d, want %d", version, ndfVersion)
	}
	count, err := r.U32()
	if err != nil {
		return dir, err
	}
	if count != sectionCount {
		return dir, utils.Violation(8, "section count %d, want %d", count, sectionCount)
	}

	for i := range dir {
		tag, err := r.Bytes(4)
		if err != nil {
			return dir, err
		}
		if string(tag) != sectionTags[i] {
			return dir, utils.Violation(r.Tell()-4, "section %d tag %q, want %q", i, tag, sectionTags[i])
		}
		if dir[i].offset, err = r.U32(); err != nil {
			return dir, err
		}
		if dir[i].size, err = r.U32(); err != nil {
			return dir, err
		}
	}
	return dir, nil
}

// beginSection seeks to a section and reads its body prologue,
// returning the entry count.
func beginSection(r *utils.Reader, s section, tag string) (uint32, error) {
	if err := r.Seek(int64(s.offset)); err != nil {
		return 0, err
	}
	length, err := r.U32()
	if err != nil {
		return 0, err
	}
	if length+8 != s.size {
		return 0, utils.Violation(int64(s.offset), "%s body length %d, directory size %d", tag, length, s.size)
	}
	return r.U32()
}

// endSection checks the cursor landed exactly on the section boundary.
func endSection(r *utils.Reader, s section, tag string) error {
	end := int64(s.offset) + int64(s.size)
	if r.Tell() != end {
		return utils.Violation(r.Tell(), "%s section ends at 0x%X, want 0x%X", tag, r.Tell(), end)
	}
	return nil
}

func readStringSection(r *utils.Reader, s section, tag string) ([]string, error) {
	count, err := beginSection(r, s, tag)
	if err != nil {
		return nil, err
	}
	items := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		n, err := r.U32()
		if err != nil {
			return nil, err
		}
		raw, err := r.Bytes(int(n))
		if err != nil {
			return nil, err
		}
		items = append(items, string(raw))
	}
	if err := endSection(r, s, tag); err != nil {
		return nil, err
	}
	return items, nil
}

func readPropSection(r *utils.Reader, s section) ([]propEntry, error) {
	count, err := beginSection(r, s, "PROP")
	if err != nil {
		return nil, err
	}
	items := make([]propEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		n, err := r.U32()
		if err != nil {
			return nil, err
		}
		raw, err := r.Bytes(int(n))
		if err != nil {
			return nil, err
		}
		classIdx, err := r.U32()
		if err != nil {
			return nil, err
		}
		items = append(items, propEntry{name: string(raw), classIdx: classIdx})
	}
	if err := endSection(r, s, "PROP"); err != nil {
		return nil, err
	}
	return items, nil
}

func readObjects(d *decoder, g *Graph, s section) error {
	r := d.r
	count, err := beginSection(r, s, "OBJE")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		classIdx, err := r.U32()
		if err != nil {
			return err
		}
		if err := utils.CheckIndex(classIdx, len(d.classes), "class"); err != nil {
			return err
		}
		obj := &Object{
			Name:      objectName(i),
			ClassName: d.classes[classIdx],
		}

		for {
			propIdx, err := r.U32()
			if err != nil {
				return err
			}
			if propIdx == sentinel {
				break
			}
			if err := utils.CheckIndex(propIdx, len(d.props), "property"); err != nil {
				return err
			}
			tag, err := r.U32()
			if err != nil {
				return err
			}
			p, err := readTaggedProperty(d, Type(tag))
			if err != nil {
				return utils.WrapError(fmt.Sprintf("object %s property %q", obj.Name, d.props[propIdx].name), err)
			}
			p.setName(d.props[propIdx].name)
			obj.Properties = append(obj.Properties, p)
		}

		if err := g.AddObject(obj); err != nil {
			return err
		}
	}
	return endSection(r, s, "OBJE")
}

func readTopObjects(d *decoder, g *Graph, s section) error {
	r := d.r
	count, err := beginSection(r, s, "TOPO")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		objIdx, err := r.U32()
		if err != nil {
			return err
		}
		if err := utils.CheckIndex(objIdx, len(g.names), "top object"); err != nil {
			return err
		}
		g.objects[g.names[objIdx]].IsTopObject = true
	}
	return endSection(r, s, "TOPO")
}

// readChunks validates the chunk table covers the object range; the
// chunk boundaries themselves carry no model state.
func readChunks(d *decoder, g *Graph, s section) error {
	r := d.r
	count, err := beginSection(r, s, "CHNK")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		first, err := r.U32()
		if err != nil {
			return err
		}
		n, err := r.U32()
		if err != nil {
			return err
		}
		if int64(first)+int64(n) > int64(len(g.names)) {
			return utils.Violation(r.Tell(), "chunk [%d, %d) exceeds %d objects", first, first+n, len(g.names))
		}
	}
	return endSection(r, s, "CHNK")
}
