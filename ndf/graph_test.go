package ndf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func refGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()

	target := &Object{Name: "Target", ClassName: "TUnit", ExportPath: "$/units/Target"}
	require.NoError(t, g.AddObject(target))

	holder := &Object{Name: "Holder", ClassName: "THolder"}
	holder.Properties = append(holder.Properties,
		NewObjectReference("direct", "Target"),
		NewList("nested",
			NewPair("ListItem",
				NewObjectReference("First", "Target"),
				NewImportReference("Second", "$/units/Target"))),
		NewMap("table",
			MapItem{Key: NewString("Key", "k"), Value: NewObjectReference("Value", "Target")}),
	)
	require.NoError(t, g.AddObject(holder))
	return g
}

func TestAddObject_RejectsDuplicates(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddObject(&Object{Name: "X", ClassName: "T"}))
	require.Error(t, g.AddObject(&Object{Name: "X", ClassName: "T"}))
	require.Error(t, g.AddObject(&Object{ClassName: "T"}))
}

func TestRename_RewritesAllReferences(t *testing.T) {
	g := refGraph(t)
	require.NoError(t, g.Rename("Target", "Renamed"))

	// Insertion order is preserved, the old name is gone.
	require.Equal(t, []string{"Renamed", "Holder"}, g.ObjectNames())
	_, ok := g.Object("Target")
	require.False(t, ok)

	obj, _ := g.Object("Renamed")
	require.Equal(t, "$/units/Renamed", obj.ExportPath,
		"export path final component follows the rename")

	holder, _ := g.Object("Holder")
	direct, _ := holder.Property("direct")
	require.Equal(t, "Renamed", direct.(*ObjectReference).Object)

	nested, _ := holder.Property("nested")
	pair := nested.(*List).Items[0].(*Pair)
	require.Equal(t, "Renamed", pair.First.(*ObjectReference).Object)
	require.Equal(t, "$/units/Renamed", pair.Second.(*ImportReference).Import,
		"import references to the old export path follow")

	table, _ := holder.Property("table")
	require.Equal(t, "Renamed", table.(*Map).Items[0].Value.(*ObjectReference).Object)

	// Nothing in the graph still holds the old name as a target.
	for _, d := range g.DanglingReferences() {
		require.NotEqual(t, "Target", d.Target)
	}
}

func TestRename_Failures(t *testing.T) {
	g := refGraph(t)
	require.Error(t, g.Rename("Missing", "X"), "old must exist")
	require.Error(t, g.Rename("Target", "Holder"), "new must be unused")
}

func TestBulkRename_MatchesSequentialRenames(t *testing.T) {
	seq := refGraph(t)
	require.NoError(t, seq.Rename("Target", "T2"))
	require.NoError(t, seq.Rename("Holder", "H2"))

	bulk := refGraph(t)
	require.NoError(t, bulk.BulkRename(map[string]string{"Target": "T2", "Holder": "H2"}))

	require.Equal(t, seq.ObjectNames(), bulk.ObjectNames())
	sObj, _ := seq.Object("H2")
	bObj, _ := bulk.Object("H2")
	sRef, _ := sObj.Property("direct")
	bRef, _ := bObj.Property("direct")
	require.Equal(t, sRef.(*ObjectReference).Object, bRef.(*ObjectReference).Object)
}

func TestCopyObject_DeepAndDetached(t *testing.T) {
	g := refGraph(t)
	require.NoError(t, g.CopyObject("Target", "Clone"))

	clone, ok := g.Object("Clone")
	require.True(t, ok)
	require.Empty(t, clone.ExportPath, "exports are not inherited")
	require.False(t, clone.IsTopObject)

	// The copy is deep: mutating the clone leaves the original alone.
	orig, _ := g.Object("Target")
	clone.Properties = append(clone.Properties, NewBool("added", true))
	require.NotEqual(t, len(orig.Properties), len(clone.Properties))

	require.Error(t, g.CopyObject("Target", "Clone"), "name collision")
	require.Error(t, g.CopyObject("Missing", "X"))
}

func TestRemoveObject_LeavesDanglingReferences(t *testing.T) {
	g := refGraph(t)
	require.NoError(t, g.RemoveObject("Target"))
	require.Equal(t, []string{"Holder"}, g.ObjectNames())
	require.Error(t, g.RemoveObject("Target"))

	dangling := g.DanglingReferences()
	require.NotEmpty(t, dangling)
	for _, d := range dangling {
		require.Equal(t, "Holder", d.Object)
		require.Equal(t, "Target", d.Target)
	}
}

func TestFixReferences_RecursesContainers(t *testing.T) {
	g := refGraph(t)
	g.FixReferences("Target", "Elsewhere")

	holder, _ := g.Object("Holder")
	direct, _ := holder.Property("direct")
	require.Equal(t, "Elsewhere", direct.(*ObjectReference).Object)
	nested, _ := holder.Property("nested")
	pair := nested.(*List).Items[0].(*Pair)
	require.Equal(t, "Elsewhere", pair.First.(*ObjectReference).Object)
}

func TestPropertyCopy_IsDeep(t *testing.T) {
	list := NewList("xs", NewUInt32("ListItem", 1))
	clone := list.Copy().(*List)
	clone.Items[0].(*UInt32).Value = 99
	require.Equal(t, uint32(1), list.Items[0].(*UInt32).Value)

	m := NewMap("m", MapItem{Key: NewString("Key", "k"), Value: NewUInt32("Value", 1)})
	mClone := m.Copy().(*Map)
	mClone.Items[0].Value.(*UInt32).Value = 5
	require.Equal(t, uint32(1), m.Items[0].Value.(*UInt32).Value)
}
