package edat

import "github.com/wgmod/eugen/internal/utils"

// Alphabet is the canonical 68-character ordering key for dictionary
// paths. Entries are emitted on disk in this order; any path byte
// outside the set is a format violation. Paths use `/` internally and
// `\` on disk, so both separators are members.
var Alphabet = []byte{
	'/', '\\', '-', '.',
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
	'_', ' ',
	'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
	'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
	'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M',
	'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z',
}

var alphabetRank = func() [256]int16 {
	var ranks [256]int16
	for i := range ranks {
		ranks[i] = -1
	}
	for i, c := range Alphabet {
		ranks[c] = int16(i)
	}
	return ranks
}()

// ValidatePath checks that every byte of path is in the canonical
// alphabet.
func ValidatePath(path string) error {
	for i := 0; i < len(path); i++ {
		if alphabetRank[path[i]] < 0 {
			return utils.Violation(0, "path %q byte %q at %d outside dictionary alphabet", path, path[i], i)
		}
	}
	return nil
}

// pathLess is the canonical dictionary comparator: bytes compare by
// alphabet rank, and a strict prefix sorts before its extension. It is
// a strict total order on valid paths.
func pathLess(a, b string) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return alphabetRank[a[i]] < alphabetRank[b[i]]
		}
	}
	return len(a) < len(b)
}
