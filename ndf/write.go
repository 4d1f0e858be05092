package ndf

import (
	"io"
	"strings"

	"github.com/wgmod/eugen/internal/utils"
)

type encoder struct {
	w     *utils.Writer
	graph *Graph

	strings *Table
	classes *Table
	trans   *Table
	props   *propTable

	objectIndex map[string]uint32

	importPaths []importRecord
	importIndex map[string]uint32

	exports []exportRecord
}

type importRecord struct {
	frags []uint32
}

type exportRecord struct {
	frags  []uint32
	objIdx uint32
}

// internImport returns the import-table index for a slash-separated
// path, interning its fragments on first sight.
func (e *encoder) internImport(path string) (uint32, error) {
	if idx, ok := e.importIndex[path]; ok {
		return idx, nil
	}
	frags, err := e.internFragments(path)
	if err != nil {
		return 0, err
	}
	idx, err := utils.U32Len(len(e.importPaths), "import table")
	if err != nil {
		return 0, err
	}
	e.importPaths = append(e.importPaths, importRecord{frags: frags})
	e.importIndex[path] = idx
	return idx, nil
}

func (e *encoder) internFragments(path string) ([]uint32, error) {
	parts := strings.Split(path, "/")
	frags := make([]uint32, len(parts))
	for i, part := range parts {
		idx, err := e.trans.Intern(part)
		if err != nil {
			return nil, err
		}
		frags[i] = idx
	}
	return frags, nil
}

// Encode writes the graph as an NDFBin stream. Interning tables are
// created empty for this pass and populated as objects are visited;
// the section directory is back-patched once every section has been
// emitted. Encoding never mutates the graph.
func (g *Graph) Encode(dst io.WriteSeeker) error {
	w, err := utils.NewWriter(dst)
	if err != nil {
		return err
	}
	if err := w.Seek(0); err != nil {
		return err
	}

	e := &encoder{
		w:           w,
		graph:       g,
		strings:     NewTable(),
		classes:     NewTable(),
		trans:       NewTable(),
		props:       newPropTable(),
		objectIndex: make(map[string]uint32),
		importIndex: make(map[string]uint32),
	}

	// Collect pass: object indices, class names, and property-name
	// bindings must exist before any object body is emitted, because
	// references and property streams index into them.
	for i, name := range g.names {
		e.objectIndex[name] = uint32(i)
		if _, err := e.classes.Intern(g.objects[name].ClassName); err != nil {
			return err
		}
	}
	for _, name := range g.names {
		obj := g.objects[name]
		classIdx, _ := e.classes.Lookup(obj.ClassName)
		for _, p := range obj.Properties {
			if _, err := e.props.intern(p.Name(), classIdx); err != nil {
				return err
			}
		}
	}

	// Emit pass.
	if err := writeDirectoryShell(w); err != nil {
		return err
	}

	var dir [sectionCount]section
	if dir[secOBJE], err = e.writeSection(e.writeObjects); err != nil {
		return err
	}
	if dir[secTOPO], err = e.writeSection(e.writeTopObjects); err != nil {
		return err
	}
	if dir[secCHNK], err = e.writeSection(e.writeChunks); err != nil {
		return err
	}
	if dir[secCLAS], err = e.writeSection(e.stringSection(e.classes)); err != nil {
		return err
	}
	if dir[secPROP], err = e.writeSection(e.writeProps); err != nil {
		return err
	}
	if dir[secSTRG], err = e.writeSection(e.stringSection(e.strings)); err != nil {
		return err
	}
	if dir[secTRAN], err = e.writeSection(e.stringSection(e.trans)); err != nil {
		return err
	}
	if dir[secIMPR], err = e.writeSection(e.writeImports); err != nil {
		return err
	}
	if dir[secEXPR], err = e.writeSection(e.writeExports); err != nil {
		return err
	}

	return patchDirectory(w, dir)
}

// writeDirectoryShell writes the header and a provisional directory of
// zero offsets and sizes.
func writeDirectoryShell(w *utils.Writer) error {
	if err := w.Bytes(ndfMagic[:]); err != nil {
		return err
	}
	if err := w.U32(ndfVersion); err != nil {
		return err
	}
	if err := w.U32(sectionCount); err != nil {
		return err
	}
	for _, tag := range sectionTags {
		if err := w.Bytes([]byte(tag)); err != nil {
			return err
		}
		if err := w.U32(0); err != nil {
			return err
		}
		if err := w.U32(0); err != nil {
			return err
		}
	}
	return nil
}

func patchDirectory(w *utils.Writer, dir [sectionCount]section) error {
	for i, s := range dir {
		base := int64(12 + i*12 + 4)
		if err := w.PatchU32(base, s.offset); err != nil {
			return err
		}
		if err := w.PatchU32(base+4, s.size); err != nil {
			return err
		}
	}
	return nil
}

// writeSection emits one section body through fn, which returns the
// entry count; the body length is back-patched afterwards.
func (e *encoder) writeSection(fn func() (uint32, error)) (section, error) {
	start := e.w.Tell()
	if err := e.w.U32(0); err != nil {
		return section{}, err
	}
	countPos := e.w.Tell()
	if err := e.w.U32(0); err != nil {
		return section{}, err
	}

	count, err := fn()
	if err != nil {
		return section{}, err
	}

	end := e.w.Tell()
	length, err := utils.U32Len(int(end-start-8), "section body")
	if err != nil {
		return section{}, err
	}
	if err := e.w.PatchU32(start, length); err != nil {
		return section{}, err
	}
	if err := e.w.PatchU32(countPos, count); err != nil {
		return section{}, err
	}
	return section{offset: uint32(start), size: length + 8}, nil
}

func (e *encoder) writeObjects() (uint32, error) {
	g := e.graph
	for i, name := range g.names {
		obj := g.objects[name]

		if obj.ExportPath != "" {
			frags, err := e.internFragments(obj.ExportPath)
			if err != nil {
				return 0, err
			}
			e.exports = append(e.exports, exportRecord{frags: frags, objIdx: uint32(i)})
		}

		classIdx, ok := e.classes.Lookup(obj.ClassName)
		if !ok {
			return 0, utils.WrapError("class table missing "+obj.ClassName, utils.ErrFormat)
		}
		if err := e.w.U32(classIdx); err != nil {
			return 0, err
		}

		for _, p := range obj.Properties {
			propIdx, err := e.props.intern(p.Name(), classIdx)
			if err != nil {
				return 0, err
			}
			if err := e.w.U32(propIdx); err != nil {
				return 0, err
			}
			if err := writeProperty(e, p); err != nil {
				return 0, err
			}
		}
		if err := e.w.U32(sentinel); err != nil {
			return 0, err
		}
	}
	return utils.U32Len(len(g.names), "objects")
}

func (e *encoder) writeTopObjects() (uint32, error) {
	var count uint32
	for i, name := range e.graph.names {
		if e.graph.objects[name].IsTopObject {
			if err := e.w.U32(uint32(i)); err != nil {
				return 0, err
			}
			count++
		}
	}
	return count, nil
}

// writeChunks emits a single chunk spanning all objects; an empty
// graph has no chunks.
func (e *encoder) writeChunks() (uint32, error) {
	if len(e.graph.names) == 0 {
		return 0, nil
	}
	if err := e.w.U32(0); err != nil {
		return 0, err
	}
	n, err := utils.U32Len(len(e.graph.names), "chunk")
	if err != nil {
		return 0, err
	}
	if err := e.w.U32(n); err != nil {
		return 0, err
	}
	return 1, nil
}

func (e *encoder) stringSection(t *Table) func() (uint32, error) {
	return func() (uint32, error) {
		for _, item := range t.Items() {
			n, err := utils.U32Len(len(item), "table entry")
			if err != nil {
				return 0, err
			}
			if err := e.w.U32(n); err != nil {
				return 0, err
			}
			if err := e.w.Bytes([]byte(item)); err != nil {
				return 0, err
			}
		}
		return utils.U32Len(t.Len(), "table")
	}
}

func (e *encoder) writeProps() (uint32, error) {
	for _, entry := range e.props.items {
		n, err := utils.U32Len(len(entry.name), "property name")
		if err != nil {
			return 0, err
		}
		if err := e.w.U32(n); err != nil {
			return 0, err
		}
		if err := e.w.Bytes([]byte(entry.name)); err != nil {
			return 0, err
		}
		if err := e.w.U32(entry.classIdx); err != nil {
			return 0, err
		}
	}
	return utils.U32Len(len(e.props.items), "property table")
}

func (e *encoder) writeImports() (uint32, error) {
	root := newPathTrie()
	for i, rec := range e.importPaths {
		if err := root.insert(rec.frags, uint32(i)); err != nil {
			return 0, err
		}
	}
	if err := root.write(e.w); err != nil {
		return 0, err
	}
	return utils.U32Len(len(e.importPaths), "import table")
}

func (e *encoder) writeExports() (uint32, error) {
	root := newPathTrie()
	for _, rec := range e.exports {
		if err := root.insert(rec.frags, rec.objIdx); err != nil {
			return 0, err
		}
	}
	if err := root.write(e.w); err != nil {
		return 0, err
	}
	return utils.U32Len(len(e.exports), "export table")
}
