// Package edat reads and writes EDat archives, the sector-aligned
// container format whose file index is a prefix-compressed trie with
// MD5 integrity over the index and per-entry content.
package edat

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wgmod/eugen/internal/utils"
)

const (
	// HeaderSize is the fixed archive header footprint.
	HeaderSize = 1024

	// DefaultSectorSize aligns file payloads in freshly built archives.
	DefaultSectorSize = 8192

	fileEntrySize = 32
	preambleSize  = 10

	sentinelEmpty = 0x01
	sentinelTrie  = 0x0A

	version = 2
)

var magic = [4]byte{'e', 'd', 'a', 't'}

// FileEntry describes one archived file. Offset is relative to the
// start of the file-payload region; Size is the exact content length.
// Checksum is the MD5 of the content digested in sector-sized chunks
// with the tail chunk zero-padded to a full sector. The two reserved
// words round-trip verbatim.
type FileEntry struct {
	Offset   uint32
	Size     uint32
	Checksum [16]byte
	Pad0     uint32
	Pad1     uint32
}

// Archive is the in-memory model of an EDat container.
//
// OutPath is the filesystem root payloads are extracted to during Parse
// and read back from during Build. ReadFiles controls whether Parse
// extracts content and whether Build recomputes entry offsets, sizes,
// and checksums from the content on disk; with ReadFiles off, Parse
// only materializes the dictionary and Build trusts the entries as-is.
type Archive struct {
	SectorSize uint32
	OutPath    string
	ReadFiles  bool

	// DictChecksum mirrors the header's dictionary MD5: the stored
	// value after Parse, the recomputed value after Build.
	DictChecksum [16]byte

	entries map[string]FileEntry
}

// New returns an empty archive with the standard sector size.
func New() *Archive {
	return &Archive{
		SectorSize: DefaultSectorSize,
		OutPath:    "out",
		ReadFiles:  true,
		entries:    make(map[string]FileEntry),
	}
}

// Len reports the number of entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entry looks up an entry by its slash-separated path.
func (a *Archive) Entry(path string) (FileEntry, bool) {
	e, ok := a.entries[path]
	return e, ok
}

// SetEntry inserts or replaces an entry. The path must use `/`
// separators and stay within the canonical alphabet.
func (a *Archive) SetEntry(path string, e FileEntry) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if a.entries == nil {
		a.entries = make(map[string]FileEntry)
	}
	a.entries[path] = e
	return nil
}

// RemoveEntry drops an entry. Removing an absent path is a no-op.
func (a *Archive) RemoveEntry(path string) {
	delete(a.entries, path)
}

// Paths returns all entry paths in canonical dictionary order.
func (a *Archive) Paths() []string {
	paths := make([]string, 0, len(a.entries))
	for p := range a.entries {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return pathLess(paths[i], paths[j]) })
	return paths
}

// Diff reports the paths whose entry in a differs from (or is absent
// in) other, in canonical order. Entries are compared by checksum.
func (a *Archive) Diff(other *Archive) []string {
	var changed []string
	for _, p := range a.Paths() {
		e := a.entries[p]
		oe, ok := other.entries[p]
		if !ok || e.Checksum != oe.Checksum {
			changed = append(changed, p)
		}
	}
	return changed
}

// Parse reads an archive from src. Entries replace any existing state;
// with ReadFiles set, payloads are extracted beneath OutPath.
func (a *Archive) Parse(src io.ReadSeeker) error {
	a.entries = make(map[string]FileEntry)

	r, err := utils.NewReader(src)
	if err != nil {
		return err
	}
	if err := r.Seek(0); err != nil {
		return err
	}

	hdr, err := a.parseHeader(r)
	if err != nil {
		return err
	}
	a.SectorSize = hdr.sectorSize
	a.DictChecksum = hdr.dictChecksum

	if hdr.sizeDict == 0 {
		return nil
	}

	sentinel, err := r.U32()
	if err != nil {
		return err
	}
	// 0x01 authoritatively means "no entries"; any trailing dictionary
	// bytes are ignored.
	if sentinel == sentinelEmpty {
		return nil
	}
	if sentinel != sentinelTrie {
		return utils.Violation(r.Tell()-4, "dictionary sentinel 0x%02X, want 0x01 or 0x0A", sentinel)
	}
	pad, err := r.Bytes(6)
	if err != nil {
		return err
	}
	if err := allZero(pad, r.Tell()-6, "dictionary preamble"); err != nil {
		return err
	}

	if a.ReadFiles {
		if err := os.MkdirAll(a.OutPath, 0o755); err != nil {
			return utils.WrapError("create output root", err)
		}
	}

	ending := int64(hdr.offsetDict) + int64(hdr.sizeDict)
	return a.parseDict(r, "", ending, int64(hdr.offsetFiles))
}

// parseDict walks the dictionary trie depth-first, accumulating path
// fragments until a leaf's file entry is reached.
func (a *Archive) parseDict(r *utils.Reader, prefix string, ending, offsetFiles int64) error {
	for r.Tell() < ending {
		start := r.Tell()

		pathSize, err := r.U32()
		if err != nil {
			return err
		}
		entrySize, err := r.U32()
		if err != nil {
			return err
		}

		// entry_size == 0 marks the last child: it extends to the
		// parent's end.
		endpos := ending
		if entrySize != 0 {
			endpos = start + int64(entrySize)
		}

		if pathSize != 0 && r.Tell() != ending {
			frag, err := readAlignedCString(r)
			if err != nil {
				return err
			}
			if r.Tell() != start+int64(pathSize) {
				return utils.Violation(r.Tell(), "trie node path size %d does not cover fragment %q", pathSize, frag)
			}
			if err := a.parseDict(r, prefix+frag, endpos, offsetFiles); err != nil {
				return err
			}
		} else {
			entry, err := readFileEntry(r)
			if err != nil {
				return err
			}
			frag, err := readAlignedCString(r)
			if err != nil {
				return err
			}
			full := strings.ReplaceAll(prefix+frag, `\`, "/")
			if err := ValidatePath(full); err != nil {
				return err
			}
			if _, dup := a.entries[full]; dup {
				return utils.Violation(start, "duplicate dictionary path %q", full)
			}
			a.entries[full] = entry

			if a.ReadFiles {
				after := r.Tell()
				if err := a.extractEntry(r, full, entry, offsetFiles); err != nil {
					return err
				}
				if err := r.Seek(after); err != nil {
					return err
				}
			}
		}

		if r.Tell() != endpos {
			return utils.Violation(r.Tell(), "trie node ends at 0x%X, want 0x%X", r.Tell(), endpos)
		}
	}
	return nil
}

type header struct {
	offsetDict   uint32
	sizeDict     uint32
	offsetFiles  uint32
	sizeFiles    uint32
	sectorSize   uint32
	dictChecksum [16]byte
}

func (a *Archive) parseHeader(r *utils.Reader) (*header, error) {
	raw, err := r.Bytes(HeaderSize)
	if err != nil {
		return nil, err
	}
	if [4]byte(raw[0:4]) != magic {
		return nil, utils.Violation(0, "magic %q, want %q", raw[0:4], magic[:])
	}
	if v := le32(raw[0x04:]); v != version {
		return nil, utils.Violation(0x04, "version %d, want %d", v, version)
	}
	if err := allZero(raw[0x08:0x19], 0x08, "header reserved"); err != nil {
		return nil, err
	}
	if err := allZero(raw[0x29:0x2D], 0x29, "header reserved"); err != nil {
		return nil, err
	}
	if err := allZero(raw[0x41:], 0x41, "header reserved"); err != nil {
		return nil, err
	}

	hdr := &header{
		offsetDict:  le32(raw[0x19:]),
		sizeDict:    le32(raw[0x1D:]),
		offsetFiles: le32(raw[0x21:]),
		sizeFiles:   le32(raw[0x25:]),
		sectorSize:  le32(raw[0x2D:]),
	}
	copy(hdr.dictChecksum[:], raw[0x31:0x41])

	if hdr.offsetDict != HeaderSize {
		return nil, utils.Violation(0x19, "dictionary offset 0x%X, want 0x%X", hdr.offsetDict, HeaderSize)
	}
	return hdr, nil
}

func (h *header) encode() []byte {
	raw := make([]byte, HeaderSize)
	copy(raw[0:4], magic[:])
	putLE32(raw[0x04:], version)
	putLE32(raw[0x19:], h.offsetDict)
	putLE32(raw[0x1D:], h.sizeDict)
	putLE32(raw[0x21:], h.offsetFiles)
	putLE32(raw[0x25:], h.sizeFiles)
	putLE32(raw[0x2D:], h.sectorSize)
	copy(raw[0x31:0x41], h.dictChecksum[:])
	return raw
}

// extractEntry copies one payload beneath OutPath.
func (a *Archive) extractEntry(r *utils.Reader, path string, entry FileEntry, offsetFiles int64) error {
	dest, err := a.contentPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return utils.WrapError("create output directory", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return utils.WrapError("create extracted file", err)
	}
	defer f.Close()

	if entry.Size == 0 {
		return nil
	}
	if err := r.Seek(offsetFiles + int64(entry.Offset)); err != nil {
		return err
	}

	buf := utils.GetBuffer(int(a.SectorSize))
	defer utils.ReleaseBuffer(buf)
	remaining := int64(entry.Size)
	for remaining > 0 {
		step := min(remaining, int64(len(buf)))
		if err := r.ReadFull(buf[:step]); err != nil {
			return err
		}
		if _, err := f.Write(buf[:step]); err != nil {
			return utils.WrapError("write extracted file", err)
		}
		remaining -= step
	}
	return f.Close()
}

// ExtractFile extracts a single named entry from src beneath OutPath.
func (a *Archive) ExtractFile(src io.ReadSeeker, path string) error {
	entry, ok := a.entries[path]
	if !ok {
		return utils.WrapError(fmt.Sprintf("no entry %q", path), utils.ErrFormat)
	}
	r, err := utils.NewReader(src)
	if err != nil {
		return err
	}
	if err := r.Seek(0x21); err != nil {
		return err
	}
	offsetFiles, err := r.U32()
	if err != nil {
		return err
	}
	return a.extractEntry(r, path, entry, int64(offsetFiles))
}

// contentPath resolves an archive path beneath OutPath, refusing
// escapes from the output root.
func (a *Archive) contentPath(path string) (string, error) {
	root := filepath.Clean(a.OutPath)
	dest := filepath.Join(root, filepath.FromSlash(path))
	if dest != root && !strings.HasPrefix(dest, root+string(filepath.Separator)) {
		return "", utils.Violation(0, "path %q escapes output root", path)
	}
	return dest, nil
}

func readFileEntry(r *utils.Reader) (FileEntry, error) {
	var e FileEntry
	raw, err := r.Bytes(fileEntrySize)
	if err != nil {
		return e, err
	}
	e.Offset = le32(raw[0:])
	e.Pad0 = le32(raw[4:])
	e.Size = le32(raw[8:])
	e.Pad1 = le32(raw[12:])
	copy(e.Checksum[:], raw[16:32])
	return e, nil
}

// readAlignedCString reads a NUL-terminated fragment whose total
// footprint is padded to 2-byte alignment relative to its own start.
func readAlignedCString(r *utils.Reader) (string, error) {
	var b []byte
	for {
		c, err := r.U8()
		if err != nil {
			return "", err
		}
		if c == 0 {
			break
		}
		b = append(b, c)
	}
	if (len(b)+1)%2 != 0 {
		if _, err := r.U8(); err != nil {
			return "", err
		}
	}
	return string(b), nil
}

func alignedCStringSize(s string) int {
	n := len(s) + 1
	return n + n%2
}

func allZero(b []byte, offset int64, what string) error {
	for i, v := range b {
		if v != 0 {
			return utils.Violation(offset+int64(i), "%s byte 0x%02X, want 0", what, v)
		}
	}
	return nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
