// Package checksum implements the MD5 digests the EDat container uses
// for its dictionary region and per-file content.
//
// Per-file digests follow the container's padded-tail rule: content is
// consumed in sector-sized chunks and the final partial chunk is
// zero-padded to a full sector before being fed to MD5. Digesting the
// raw tail bytes instead produces a checksum no game client accepts.
package checksum

import (
	"crypto/md5"
	"fmt"
	"io"

	"github.com/wgmod/eugen/internal/utils"
)

// Size is the digest length in bytes.
const Size = md5.Size

// Sum digests exactly n bytes from r.
func Sum(r io.Reader, n int64) ([Size]byte, error) {
	var digest [Size]byte
	h := md5.New()
	if _, err := io.CopyN(h, r, n); err != nil {
		return digest, utils.WrapError(fmt.Sprintf("digest of %d bytes (%v)", n, err), utils.ErrShortIO)
	}
	copy(digest[:], h.Sum(nil))
	return digest, nil
}

// SectorSum digests size bytes from r in sectorSize chunks, zero-padding
// the tail chunk to a full sector.
func SectorSum(r io.Reader, size int64, sectorSize uint32) ([Size]byte, error) {
	var digest [Size]byte
	h := md5.New()
	buf := utils.GetBuffer(int(sectorSize))
	defer utils.ReleaseBuffer(buf)

	remaining := size
	for remaining > 0 {
		step := int64(sectorSize)
		if remaining < step {
			step = remaining
			clear(buf)
		}
		if _, err := io.ReadFull(r, buf[:step]); err != nil {
			return digest, utils.WrapError(fmt.Sprintf("digest chunk of %d bytes (%v)", step, err), utils.ErrShortIO)
		}
		// The full sector is hashed even when only step bytes were read.
		h.Write(buf[:sectorSize])
		remaining -= step
	}
	copy(digest[:], h.Sum(nil))
	return digest, nil
}
