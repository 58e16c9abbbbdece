// Package wire implements the bancho binary wire format: little-endian
// primitives, ULEB128-prefixed strings, and the composite records carried
// inside packet payloads.
package wire

import (
	"encoding/binary"
	"math"
)

// Reader walks a byte slice left to right, consuming it as typed values
// are read off the front.
type Reader struct {
	data []byte
}

// NewReader wraps data for sequential reads. The reader takes ownership of
// the slice; callers must not mutate it afterward.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int {
	return len(r.data)
}

// Read consumes and returns up to n bytes. If fewer than n bytes remain,
// it returns whatever is left and drains the reader — the wire format is
// read permissively, never erroring on a short payload.
func (r *Reader) Read(n int) []byte {
	if n < 0 {
		return nil
	}
	if n > len(r.data) {
		n = len(r.data)
	}
	out := r.data[:n]
	r.data = r.data[n:]
	return out
}

// Remaining returns and consumes every remaining byte.
func (r *Reader) Remaining() []byte {
	return r.Read(len(r.data))
}

func (r *Reader) ReadI8() int8   { return int8(r.readByte()) }
func (r *Reader) ReadU8() uint8  { return r.readByte() }
func (r *Reader) ReadBool() bool { return r.readByte() != 0 }

func (r *Reader) readByte() byte {
	b := r.Read(1)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

func (r *Reader) ReadI16() int16  { return int16(binary.LittleEndian.Uint16(pad(r.Read(2), 2))) }
func (r *Reader) ReadU16() uint16 { return binary.LittleEndian.Uint16(pad(r.Read(2), 2)) }
func (r *Reader) ReadI32() int32  { return int32(binary.LittleEndian.Uint32(pad(r.Read(4), 4))) }
func (r *Reader) ReadU32() uint32 { return binary.LittleEndian.Uint32(pad(r.Read(4), 4)) }
func (r *Reader) ReadI64() int64  { return int64(binary.LittleEndian.Uint64(pad(r.Read(8), 8))) }

func (r *Reader) ReadF32() float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(pad(r.Read(4), 4)))
}

func (r *Reader) ReadF64() float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(pad(r.Read(8), 8)))
}

// ReadI32List reads a u16 count followed by that many u32 values, returned
// as signed ids (the wire values are only ever used as identifiers, so the
// sign is irrelevant to callers).
func (r *Reader) ReadI32List() []int32 {
	count := int(r.ReadU16())
	out := make([]int32, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, r.ReadI32())
	}
	return out
}

// pad right-extends a short read with zero bytes so fixed-width decodes
// never panic on a truncated packet — see the permissive-read policy.
func pad(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Writer accumulates bytes for a single packet payload.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated payload.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// WriteRaw appends raw bytes verbatim.
func (w *Writer) WriteRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) WriteI8(v int8)   { w.buf = append(w.buf, byte(v)) }
func (w *Writer) WriteU8(v uint8)  { w.buf = append(w.buf, v) }
func (w *Writer) WriteBool(v bool) { w.WriteU8(boolByte(v)) }

func boolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

func (w *Writer) WriteI16(v int16) { w.writeU16(uint16(v)) }
func (w *Writer) WriteU16(v uint16) {
	w.writeU16(v)
}
func (w *Writer) writeU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteI32(v int32) { w.writeU32(uint32(v)) }
func (w *Writer) WriteU32(v uint32) {
	w.writeU32(v)
}
func (w *Writer) writeU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteI64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteF32(v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteF64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteI32List writes a u16 count followed by that many u32 values.
func (w *Writer) WriteI32List(ids []int32) {
	w.WriteU16(uint16(len(ids)))
	for _, id := range ids {
		w.WriteU32(uint32(id))
	}
}
