package edat

import (
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/wgmod/eugen/internal/utils"
)

// The XML listing mirrors the archive model: a root element carrying
// the sector size and one File element per entry. When entries are not
// being re-read from content on disk, the raw entry fields round-trip
// as attributes so a listing alone can reproduce the dictionary.

type xmlArchive struct {
	XMLName    xml.Name  `xml:"EDat"`
	SectorSize uint32    `xml:"sectorSize,attr"`
	Files      []xmlFile `xml:"File"`
}

type xmlFile struct {
	Path     string  `xml:"path,attr"`
	Offset   *uint32 `xml:"offset,attr"`
	Pad0     *uint32 `xml:"pad0,attr"`
	Size     *uint32 `xml:"size,attr"`
	Pad1     *uint32 `xml:"pad,attr"`
	Checksum string  `xml:"checksum,attr,omitempty"`
}

// WriteXML writes the archive listing. With ReadFiles set only paths
// are listed (entries will be recomputed from content on rebuild);
// otherwise every entry field is included.
func (a *Archive) WriteXML(dst io.Writer) error {
	doc := xmlArchive{SectorSize: a.SectorSize}
	for _, p := range a.Paths() {
		entry := a.entries[p]
		f := xmlFile{Path: p}
		if !a.ReadFiles {
			offset, pad0, size, pad1 := entry.Offset, entry.Pad0, entry.Size, entry.Pad1
			f.Offset = &offset
			f.Pad0 = &pad0
			f.Size = &size
			f.Pad1 = &pad1
			f.Checksum = hex.EncodeToString(entry.Checksum[:])
		}
		doc.Files = append(doc.Files, f)
	}

	if _, err := io.WriteString(dst, xml.Header); err != nil {
		return utils.WrapError("write listing", err)
	}
	enc := xml.NewEncoder(dst)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return utils.WrapError("encode listing", err)
	}
	return enc.Close()
}

// ReadXML replaces the archive state with the listing read from src.
func (a *Archive) ReadXML(src io.Reader) error {
	var doc xmlArchive
	if err := xml.NewDecoder(src).Decode(&doc); err != nil {
		return utils.WrapError("decode listing", err)
	}
	if doc.SectorSize != 0 {
		a.SectorSize = doc.SectorSize
	}

	a.entries = make(map[string]FileEntry, len(doc.Files))
	for _, f := range doc.Files {
		path := strings.ReplaceAll(f.Path, `\`, "/")
		var entry FileEntry
		if !a.ReadFiles {
			if f.Offset != nil {
				entry.Offset = *f.Offset
			}
			if f.Pad0 != nil {
				entry.Pad0 = *f.Pad0
			}
			if f.Size != nil {
				entry.Size = *f.Size
			}
			if f.Pad1 != nil {
				entry.Pad1 = *f.Pad1
			}
			if f.Checksum != "" {
				sum, err := hex.DecodeString(f.Checksum)
				if err != nil || len(sum) != len(entry.Checksum) {
					return utils.Violation(0, "checksum attribute %q is not %d hex bytes", f.Checksum, len(entry.Checksum))
				}
				copy(entry.Checksum[:], sum)
			}
		}
		if err := a.SetEntry(path, entry); err != nil {
			return utils.WrapError(fmt.Sprintf("listing entry %q", f.Path), err)
		}
	}
	return nil
}
