package edat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlphabet_Size(t *testing.T) {
	require.Len(t, Alphabet, 68)
	seen := map[byte]bool{}
	for _, c := range Alphabet {
		require.False(t, seen[c], "duplicate alphabet byte %q", c)
		seen[c] = true
	}
}

func TestPathLess(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "lowercase before uppercase", a: "a.dat", b: "A.dat", want: true},
		{name: "uppercase after lowercase", a: "A.dat", b: "a.dat", want: false},
		{name: "separator first", a: "x/y", b: "x-y", want: true},
		{name: "digit before underscore", a: "f0", b: "f_", want: true},
		{name: "prefix before extension", a: "map", b: "maps", want: true},
		{name: "equal is not less", a: "same", b: "same", want: false},
		{name: "space before letters", a: "a b", b: "ab", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, pathLess(tt.a, tt.b))
		})
	}
}

// The comparator must order every distinct pair of valid paths exactly
// one way.
func TestPathLess_StrictTotalOrder(t *testing.T) {
	paths := []string{
		"a.dat", "A.dat", "a.dat2", "b/a.dat", "b\\a.dat",
		"0.bin", "_x", " space", "z", "Z",
	}
	for _, p := range paths {
		require.NoError(t, ValidatePath(p))
	}
	for i, a := range paths {
		for j, b := range paths {
			if i == j {
				require.False(t, pathLess(a, b))
				continue
			}
			require.NotEqual(t, pathLess(a, b), pathLess(b, a),
				"pair (%q, %q) must order strictly", a, b)
		}
	}
}

func TestValidatePath_RejectsOutsideAlphabet(t *testing.T) {
	require.NoError(t, ValidatePath("data/maps/Map_01.dat"))
	require.Error(t, ValidatePath("data/über.dat"))
	require.Error(t, ValidatePath("semi;colon"))
	require.Error(t, ValidatePath("new\nline"))
}
