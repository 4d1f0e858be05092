package utils

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Both formats are little-endian throughout.
var order = binary.LittleEndian

// Reader wraps a seekable byte source with typed little-endian reads.
// It tracks the absolute offset so Tell never touches the source.
type Reader struct {
	r   io.ReadSeeker
	pos int64
	buf [8]byte
}

// NewReader creates a Reader positioned at the source's current offset.
func NewReader(r io.ReadSeeker) (*Reader, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, WrapError("seek failed", err)
	}
	return &Reader{r: r, pos: pos}, nil
}

// Tell returns the current absolute offset.
func (r *Reader) Tell() int64 {
	return r.pos
}

// Seek moves to an absolute offset.
func (r *Reader) Seek(off int64) error {
	if _, err := r.r.Seek(off, io.SeekStart); err != nil {
		return WrapError(fmt.Sprintf("seek to 0x%X failed", off), err)
	}
	r.pos = off
	return nil
}

// Bytes reads exactly n bytes. A short read is an ErrShortIO.
func (r *Reader) Bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadFull fills p exactly. A short read is an ErrShortIO.
func (r *Reader) ReadFull(p []byte) error {
	if _, err := io.ReadFull(r.r, p); err != nil {
		return WrapError(fmt.Sprintf("read %d bytes at 0x%X (%v)", len(p), r.pos, err), ErrShortIO)
	}
	r.pos += int64(len(p))
	return nil
}

func (r *Reader) fill(n int) ([]byte, error) {
	buf := r.buf[:n]
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, WrapError(fmt.Sprintf("read %d bytes at 0x%X (%v)", n, r.pos, err), ErrShortIO)
	}
	r.pos += int64(n)
	return buf, nil
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	buf, err := r.fill(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	buf, err := r.fill(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(buf), nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	buf, err := r.fill(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(buf), nil
}

// I16 reads a little-endian int16.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// I32 reads a little-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// F32 reads a little-endian IEEE 754 float32.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

// F64 reads a little-endian IEEE 754 float64.
func (r *Reader) F64() (float64, error) {
	buf, err := r.fill(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(order.Uint64(buf)), nil
}

// Writer wraps a seekable byte sink with typed little-endian writes and
// back-patching support. Offsets are tracked the same way as Reader.
type Writer struct {
	w   io.WriteSeeker
	pos int64
	buf [8]byte
}

// NewWriter creates a Writer positioned at the sink's current offset.
func NewWriter(w io.WriteSeeker) (*Writer, error) {
	pos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, WrapError("seek failed", err)
	}
	return &Writer{w: w, pos: pos}, nil
}

// Tell returns the current absolute offset.
func (w *Writer) Tell() int64 {
	return w.pos
}

// Seek moves to an absolute offset.
func (w *Writer) Seek(off int64) error {
	if _, err := w.w.Seek(off, io.SeekStart); err != nil {
		return WrapError(fmt.Sprintf("seek to 0x%X failed", off), err)
	}
	w.pos = off
	return nil
}

// Bytes writes the whole slice. A short write is an ErrShortIO.
func (w *Writer) Bytes(b []byte) error {
	n, err := w.w.Write(b)
	w.pos += int64(n)
	if err != nil {
		return WrapError(fmt.Sprintf("write %d bytes at 0x%X (%v)", len(b), w.pos, err), ErrShortIO)
	}
	if n != len(b) {
		return WrapError(fmt.Sprintf("wrote %d of %d bytes at 0x%X", n, len(b), w.pos), ErrShortIO)
	}
	return nil
}

// Zeros writes n zero bytes.
func (w *Writer) Zeros(n int) error {
	const chunk = 4096
	zero := make([]byte, min(n, chunk))
	for n > 0 {
		step := min(n, chunk)
		if err := w.Bytes(zero[:step]); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

// U8 writes one byte.
func (w *Writer) U8(v uint8) error {
	w.buf[0] = v
	return w.Bytes(w.buf[:1])
}

// U16 writes a little-endian uint16.
func (w *Writer) U16(v uint16) error {
	order.PutUint16(w.buf[:2], v)
	return w.Bytes(w.buf[:2])
}

// U32 writes a little-endian uint32.
func (w *Writer) U32(v uint32) error {
	order.PutUint32(w.buf[:4], v)
	return w.Bytes(w.buf[:4])
}

// I16 writes a little-endian int16.
func (w *Writer) I16(v int16) error {
	return w.U16(uint16(v))
}

// I32 writes a little-endian int32.
func (w *Writer) I32(v int32) error {
	return w.U32(uint32(v))
}

// F32 writes a little-endian IEEE 754 float32.
func (w *Writer) F32(v float32) error {
	return w.U32(math.Float32bits(v))
}

// F64 writes a little-endian IEEE 754 float64.
func (w *Writer) F64(v float64) error {
	order.PutUint64(w.buf[:8], math.Float64bits(v))
	return w.Bytes(w.buf[:8])
}

// PatchU32 back-patches a uint32 at an absolute offset and restores the
// write position.
func (w *Writer) PatchU32(off int64, v uint32) error {
	cur := w.pos
	if err := w.Seek(off); err != nil {
		return err
	}
	if err := w.U32(v); err != nil {
		return err
	}
	return w.Seek(cur)
}
