package edat

import (
	"bytes"
	"io"
	"os"

	"github.com/orcaman/writerseeker"

	"github.com/wgmod/eugen/internal/checksum"
	"github.com/wgmod/eugen/internal/utils"
)

// Build writes the archive to dst. With ReadFiles set, every entry's
// size, sector-aligned offset, and padded-tail MD5 are recomputed from
// the content beneath OutPath first; otherwise the stored entries are
// trusted. Payloads are always streamed from OutPath, each zero-padded
// to a whole number of sectors.
//
// The dictionary is staged in memory so its MD5 can be computed after
// the interior entry sizes have been back-patched, then written out in
// one piece.
func (a *Archive) Build(dst io.WriteSeeker) error {
	if a.SectorSize == 0 || a.SectorSize&(a.SectorSize-1) != 0 {
		return utils.Violation(0x2D, "sector size %d is not a power of two", a.SectorSize)
	}

	paths := a.Paths()
	for _, p := range paths {
		if err := ValidatePath(p); err != nil {
			return err
		}
	}

	if a.ReadFiles {
		if err := a.refreshEntries(paths); err != nil {
			return err
		}
	}

	w, err := utils.NewWriter(dst)
	if err != nil {
		return err
	}
	if err := w.Seek(HeaderSize); err != nil {
		return err
	}

	hdr := &header{
		offsetDict: HeaderSize,
		sectorSize: a.SectorSize,
	}

	var dict []byte
	if len(paths) == 0 {
		if err := w.U32(sentinelEmpty); err != nil {
			return err
		}
		if err := w.Zeros(6); err != nil {
			return err
		}
		// size_dictionary stays zero: an empty archive is header plus
		// the 0x01 sentinel, and its digest covers zero bytes.
	} else {
		trie := newTrie()
		for _, p := range paths {
			trie.insert(p)
		}

		stage := &writerseeker.WriterSeeker{}
		sw, err := utils.NewWriter(stage)
		if err != nil {
			return err
		}
		if err := a.writeTrie(sw, trie, ""); err != nil {
			return err
		}
		trieBytes, err := io.ReadAll(stage.Reader())
		if err != nil {
			return utils.WrapError("read staged dictionary", err)
		}

		dict = make([]byte, 0, preambleSize+len(trieBytes))
		dict = append(dict, sentinelTrie, 0, 0, 0, 0, 0, 0, 0, 0, 0)
		dict = append(dict, trieBytes...)
		if err := w.Bytes(dict); err != nil {
			return err
		}

		size, err := utils.U32Len(len(dict), "dictionary")
		if err != nil {
			return err
		}
		hdr.sizeDict = size
	}

	hdr.dictChecksum, err = checksum.Sum(bytes.NewReader(dict), int64(len(dict)))
	if err != nil {
		return err
	}

	hdr.offsetFiles = alignUp(uint32(w.Tell()), a.SectorSize)

	if len(paths) > 0 {
		if err := w.Zeros(int(int64(hdr.offsetFiles) - w.Tell())); err != nil {
			return err
		}
		if err := a.writePayloads(w, paths, int64(hdr.offsetFiles)); err != nil {
			return err
		}
		hdr.sizeFiles = uint32(w.Tell() - int64(hdr.offsetFiles))
	}

	a.DictChecksum = hdr.dictChecksum
	if err := w.Seek(0); err != nil {
		return err
	}
	return w.Bytes(hdr.encode())
}

// refreshEntries recomputes offsets, sizes, and checksums from the
// content beneath OutPath, in canonical path order.
func (a *Archive) refreshEntries(paths []string) error {
	var offset uint32
	for _, p := range paths {
		src, err := a.contentPath(p)
		if err != nil {
			return err
		}
		fi, err := os.Stat(src)
		if err != nil {
			return utils.WrapError("stat content file", err)
		}

		entry := a.entries[p]
		entry.Offset = offset
		entry.Size = uint32(fi.Size())

		f, err := os.Open(src)
		if err != nil {
			return utils.WrapError("open content file", err)
		}
		entry.Checksum, err = checksum.SectorSum(f, int64(entry.Size), a.SectorSize)
		f.Close()
		if err != nil {
			return err
		}

		a.entries[p] = entry
		offset += alignUp(entry.Size, a.SectorSize)
	}
	return nil
}

// writePayloads streams each file beneath OutPath into the payload
// region, zero-padding every file to a full sector.
func (a *Archive) writePayloads(w *utils.Writer, paths []string, offsetFiles int64) error {
	buf := utils.GetBuffer(int(a.SectorSize))
	defer utils.ReleaseBuffer(buf)

	for _, p := range paths {
		entry := a.entries[p]
		if err := w.Seek(offsetFiles + int64(entry.Offset)); err != nil {
			return err
		}
		if entry.Size == 0 {
			continue
		}

		src, err := a.contentPath(p)
		if err != nil {
			return err
		}
		f, err := os.Open(src)
		if err != nil {
			return utils.WrapError("open content file", err)
		}

		remaining := int64(entry.Size)
		for remaining > 0 {
			step := min(remaining, int64(a.SectorSize))
			if step < int64(a.SectorSize) {
				clear(buf)
			}
			if _, err := io.ReadFull(f, buf[:step]); err != nil {
				f.Close()
				return utils.WrapError("read content file", utils.ErrShortIO)
			}
			// Always a whole sector: the tail chunk carries its zero pad.
			if err := w.Bytes(buf[:a.SectorSize]); err != nil {
				f.Close()
				return err
			}
			remaining -= step
		}
		f.Close()
	}
	return nil
}

func alignUp(v, align uint32) uint32 {
	if v%align == 0 {
		return v
	}
	return (v/align + 1) * align
}
