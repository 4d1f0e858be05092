package ndfdb

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/wgmod/eugen/ndf"
)

func testGraph(t *testing.T) *ndf.Graph {
	t.Helper()
	g := ndf.NewGraph()

	unit := &ndf.Object{Name: "Unit", ClassName: "TUnit", ExportPath: "$/units/Unit", IsTopObject: true}
	unit.Properties = append(unit.Properties,
		ndf.NewBool("armed", true),
		ndf.NewUInt32("hp", 150),
		ndf.NewFloat32("speed", 2.5),
		ndf.NewString("label", "infantry"),
		ndf.NewWideString("caption", "Péchota"),
		ndf.NewColor("tint", 1, 2, 3, 4),
		ndf.NewF32Vec3("pos", 1, 2, 3),
		ndf.NewS32Vec2("cell", -4, 9),
		ndf.NewGUID("id", "000102030405060708090A0B0C0D0E0F"),
		ndf.NewObjectReference("weapon", "Weapon"),
		ndf.NewImportReference("ammo", "$/ammo/Default"),
		ndf.NewList("tags", ndf.NewString("ListItem", "a"), ndf.NewString("ListItem", "b")),
		ndf.NewMap("stats",
			ndf.MapItem{Key: ndf.NewString("Key", "atk"), Value: ndf.NewUInt32("Value", 7)}),
		ndf.NewPair("bounds", ndf.NewF32Vec2("First", 0, 0), ndf.NewF32Vec2("Second", 1, 1)),
	)
	require.NoError(t, g.AddObject(unit))
	require.NoError(t, g.AddObject(&ndf.Object{Name: "Weapon", ClassName: "TWeapon"}))
	return g
}

func TestStoreLoad_RoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "edit.sqlite"))
	require.NoError(t, err)
	defer db.Close()

	g := testGraph(t)
	ndfID, err := db.StoreGraph(FileRow{VFSPath: "test.ndfbin", DatPath: "NDF_Win.dat"}, g)
	require.NoError(t, err)

	back, err := db.LoadGraph(ndfID)
	require.NoError(t, err)

	require.Equal(t, g.ObjectNames(), back.ObjectNames())
	for _, name := range g.ObjectNames() {
		want, _ := g.Object(name)
		got, _ := back.Object(name)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("object %s changed through the database (-want +got):\n%s", name, diff)
		}
	}
}

func TestStoreGraph_SeparateFiles(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "edit.sqlite"))
	require.NoError(t, err)
	defer db.Close()

	first, err := db.StoreGraph(FileRow{VFSPath: "a.ndfbin"}, testGraph(t))
	require.NoError(t, err)
	second, err := db.StoreGraph(FileRow{VFSPath: "b.ndfbin"}, testGraph(t))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	a, err := db.LoadGraph(first)
	require.NoError(t, err)
	b, err := db.LoadGraph(second)
	require.NoError(t, err)
	require.Equal(t, a.ObjectNames(), b.ObjectNames())
}
