package ndf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/wgmod/eugen/internal/utils"
)

func TestXML_RoundTrip(t *testing.T) {
	g := fullGraph(t)

	var buf bytes.Buffer
	require.NoError(t, g.WriteXML(&buf))

	back, err := ReadXML(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	if diff := cmp.Diff(objectsOf(g), objectsOf(back)); diff != "" {
		t.Fatalf("graph changed through the XML surface (-want +got):\n%s", diff)
	}
}

func TestXML_AttributeVocabulary(t *testing.T) {
	g := NewGraph()
	obj := &Object{Name: "Sample", ClassName: "TSample", ExportPath: "$/x", IsTopObject: true}
	obj.Properties = append(obj.Properties,
		NewBool("flag", true),
		NewColor("tint", 1, 2, 3, 4),
		NewF32Vec3("pos", 1, 2, 3),
		NewWideString("caption", "wide"),
		NewGUID("id", "000102030405060708090A0B0C0D0E0F"),
		NewObjectReference("ref", "Sample"),
		NewImportReference("imp", "$/y"),
		NewMap("m", MapItem{Key: NewString("Key", "k"), Value: NewUInt32("Value", 1)}),
		NewPair("p", NewUInt32("First", 1), NewUInt32("Second", 2)),
	)
	require.NoError(t, g.AddObject(obj))

	var buf bytes.Buffer
	require.NoError(t, g.WriteXML(&buf))
	doc := buf.String()

	require.Contains(t, doc, `<Sample class="TSample" export_path="$/x" is_top_object="true">`)
	require.Contains(t, doc, `<flag value="true" typeId="0">`)
	require.Contains(t, doc, `r="1"`)
	require.Contains(t, doc, `a="4"`)
	require.Contains(t, doc, `x="1"`)
	require.Contains(t, doc, `str="wide"`)
	require.Contains(t, doc, `guid="000102030405060708090A0B0C0D0E0F"`)
	require.Contains(t, doc, `referenceType="object"`)
	require.Contains(t, doc, `referenceType="import"`)
	require.Contains(t, doc, "<MapItem>")
	require.Contains(t, doc, `typeId="34"`, "pair carries its decimal type id")
}

func TestXML_NotImplementedTags(t *testing.T) {
	for _, typeID := range []string{"15", "19", "20"} { // Matrix, Long, Blob
		doc := `<NDF><O class="T"><p typeId="` + typeID + `"/></O></NDF>`
		_, err := ReadXML(strings.NewReader(doc))
		require.ErrorIs(t, err, utils.ErrNotImplemented, "typeId %s", typeID)
	}
}

func TestXML_BadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "wrong root", doc: `<Other/>`},
		{name: "missing typeId", doc: `<NDF><O class="T"><p value="1"/></O></NDF>`},
		{name: "bad reference type", doc: `<NDF><O class="T"><p typeId="9" referenceType="weird"/></O></NDF>`},
		{name: "map child not MapItem", doc: `<NDF><O class="T"><m typeId="18"><Wrong/></m></O></NDF>`},
		{name: "pair missing second", doc: `<NDF><O class="T"><p typeId="34"><First typeId="0" value="true"/></p></O></NDF>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadXML(strings.NewReader(tt.doc))
			require.Error(t, err)
		})
	}
}
