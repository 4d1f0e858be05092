package ndf

import (
	"fmt"
	"strings"

	"github.com/wgmod/eugen/internal/utils"
)

// Object is one node of the graph: a named, classed bag of properties
// in a fixed order, optionally exported under a slash-separated path
// and optionally flagged as an externally visible root.
type Object struct {
	Name        string
	ClassName   string
	ExportPath  string
	IsTopObject bool
	Properties  []Property
}

// Property returns the first property with the given name.
func (o *Object) Property(name string) (Property, bool) {
	for _, p := range o.Properties {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Copy returns a deep copy of the object.
func (o *Object) Copy() *Object {
	c := &Object{
		Name:        o.Name,
		ClassName:   o.ClassName,
		ExportPath:  o.ExportPath,
		IsTopObject: o.IsTopObject,
		Properties:  make([]Property, len(o.Properties)),
	}
	for i, p := range o.Properties {
		c.Properties[i] = p.Copy()
	}
	return c
}

// ImportEntry is one decoded import-table row.
type ImportEntry struct {
	Index uint32
	Path  string
}

// ExportEntry is one decoded export-table row.
type ExportEntry struct {
	ObjectIndex uint32
	Path        string
}

// Graph is an insertion-ordered collection of objects plus the tables
// the codec materialized on decode. The table fields are informational:
// a re-encode regenerates every table from the objects, renumbering
// freely while keeping references consistent.
type Graph struct {
	names   []string
	objects map[string]*Object

	// Decoded table snapshots (empty on a freshly built graph).
	Strings       []string
	ClassNames    []string
	TranFragments []string
	PropertyNames []string
	Imports       []ImportEntry
	Exports       []ExportEntry
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{objects: make(map[string]*Object)}
}

// Len reports the number of objects.
func (g *Graph) Len() int {
	return len(g.objects)
}

// ObjectNames returns object names in insertion order.
func (g *Graph) ObjectNames() []string {
	return g.names
}

// Object looks up an object by name.
func (g *Graph) Object(name string) (*Object, bool) {
	o, ok := g.objects[name]
	return o, ok
}

// AddObject appends an object; the name must be unused.
func (g *Graph) AddObject(obj *Object) error {
	if obj.Name == "" {
		return utils.WrapError("object name is empty", utils.ErrFormat)
	}
	if _, ok := g.objects[obj.Name]; ok {
		return utils.WrapError(fmt.Sprintf("object %q already exists", obj.Name), utils.ErrFormat)
	}
	g.names = append(g.names, obj.Name)
	g.objects[obj.Name] = obj
	return nil
}

// Rename changes an object's name in place (the insertion position is
// kept) and rewrites every ObjectReference that pointed at the old
// name. If the final component of the object's export path equals the
// old name it is renamed too, and ImportReferences to the old export
// path follow.
func (g *Graph) Rename(old, newName string) error {
	if _, ok := g.objects[newName]; ok {
		return utils.WrapError(fmt.Sprintf("object %q already exists", newName), utils.ErrFormat)
	}
	obj, ok := g.objects[old]
	if !ok {
		return utils.WrapError(fmt.Sprintf("object %q does not exist", old), utils.ErrFormat)
	}

	imports := map[string]string{}
	if obj.ExportPath != "" {
		if frags := strings.Split(obj.ExportPath, "/"); frags[len(frags)-1] == old {
			frags[len(frags)-1] = newName
			newPath := strings.Join(frags, "/")
			imports[obj.ExportPath] = newPath
			obj.ExportPath = newPath
		}
	}

	obj.Name = newName
	delete(g.objects, old)
	g.objects[newName] = obj
	for i, n := range g.names {
		if n == old {
			g.names[i] = newName
			break
		}
	}

	g.rewriteRefs(map[string]string{old: newName}, imports)
	return nil
}

// BulkRename applies many renames in one graph walk. Every old name
// must exist, no new name may collide, and export paths follow the
// same final-component rule as Rename.
func (g *Graph) BulkRename(renames map[string]string) error {
	imports := map[string]string{}
	for old, newName := range renames {
		obj, ok := g.objects[old]
		if !ok {
			return utils.WrapError(fmt.Sprintf("object %q does not exist", old), utils.ErrFormat)
		}
		if _, ok := g.objects[newName]; ok {
			return utils.WrapError(fmt.Sprintf("object %q already exists", newName), utils.ErrFormat)
		}
		if obj.ExportPath != "" {
			if frags := strings.Split(obj.ExportPath, "/"); frags[len(frags)-1] == old {
				frags[len(frags)-1] = newName
				newPath := strings.Join(frags, "/")
				imports[obj.ExportPath] = newPath
				obj.ExportPath = newPath
			}
		}
		obj.Name = newName
		delete(g.objects, old)
		g.objects[newName] = obj
	}
	for i, n := range g.names {
		if newName, ok := renames[n]; ok {
			g.names[i] = newName
		}
	}
	g.rewriteRefs(renames, imports)
	return nil
}

// CopyObject deep-copies an object under a new name. The copy does not
// inherit the export path or the top-object flag; incoming references
// keep pointing at the original.
func (g *Graph) CopyObject(name, newName string) error {
	obj, ok := g.objects[name]
	if !ok {
		return utils.WrapError(fmt.Sprintf("object %q does not exist", name), utils.ErrFormat)
	}
	c := obj.Copy()
	c.Name = newName
	c.ExportPath = ""
	c.IsTopObject = false
	return g.AddObject(c)
}

// RemoveObject unlinks an object. References to it go dangling;
// callers that need integrity should consult DanglingReferences first.
func (g *Graph) RemoveObject(name string) error {
	if _, ok := g.objects[name]; !ok {
		return utils.WrapError(fmt.Sprintf("object %q does not exist", name), utils.ErrFormat)
	}
	delete(g.objects, name)
	for i, n := range g.names {
		if n == name {
			g.names = append(g.names[:i], g.names[i+1:]...)
			break
		}
	}
	return nil
}

// FixReferences rewrites every ObjectReference targeting old (by
// object name) and every ImportReference targeting old (by import
// path) to the new value, recursing through List, Map, and Pair.
func (g *Graph) FixReferences(old, newName string) {
	g.rewriteRefs(map[string]string{old: newName}, map[string]string{old: newName})
}

func (g *Graph) rewriteRefs(objects, imports map[string]string) {
	for _, name := range g.names {
		for _, p := range g.objects[name].Properties {
			p.rewriteRefs(objects, imports)
		}
	}
}

// DanglingRef locates one unresolved object reference.
type DanglingRef struct {
	Object   string // object holding the reference
	Property string // property name
	Target   string // referenced name; empty for the wire sentinel
}

// DanglingReferences scans the graph for object references that do not
// resolve, including explicit sentinel references.
func (g *Graph) DanglingReferences() []DanglingRef {
	var out []DanglingRef
	for _, name := range g.names {
		for _, p := range g.objects[name].Properties {
			targets := map[string]struct{}{}
			p.appendRefs(targets, map[string]struct{}{})
			for target := range targets {
				if _, ok := g.objects[target]; !ok {
					out = append(out, DanglingRef{Object: name, Property: p.Name(), Target: target})
				}
			}
		}
	}
	return out
}

// objectName is the synthetic name assigned to the object at a given
// parse index.
func objectName(idx uint32) string {
	return fmt.Sprintf("Object_%d", idx)
}
