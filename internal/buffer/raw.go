package buffer

import (
	"encoding/binary"

	"github.com/corelog/logpp/pkg/errors"
)

var errRecordTooLarge = errors.RecordTooLarge

// inlineCapacity is the small-buffer-optimization threshold: records that
// fit within this many bytes stay in the inline array allocated with the
// rawBuffer and need no further allocation.
const inlineCapacity = 255

// maxRecordSize is the largest record size a 16-bit Offset can address;
// writeString refuses any string that would take the record past it.
const maxRecordSize = 1<<16 - 1

// rawBuffer is the append-only byte storage underlying an Event. It owns
// either its inline array or a heap slice, never both at once, and every
// index it hands out is relative to data[0], so growth never invalidates
// a previously returned Offset.
//
// rawBuffer must only be used through a pointer: copying it by value
// would leave the copy's data slice pointing at the original's inline
// array. Clone performs the deep copy the type needs instead.
type rawBuffer struct {
	inline [inlineCapacity]byte
	data   []byte
	cursor int
	onHeap bool
}

func newRawBuffer() *rawBuffer {
	b := &rawBuffer{}
	b.data = b.inline[:]
	return b
}

// Clone makes an independent copy whose data slice is backed by its own
// inline array (or its own heap allocation), preserving every offset
// already handed out — offsets are relative, so a byte-for-byte copy of
// the written prefix is always valid on its own.
func (b *rawBuffer) Clone() *rawBuffer {
	nb := newRawBuffer()
	nb.reserve(b.cursor)
	copy(nb.data, b.data[:b.cursor])
	nb.cursor = b.cursor
	return nb
}

func (b *rawBuffer) reserve(capacity int) {
	if capacity <= len(b.data) {
		return
	}

	newCapacity := len(b.data) * 2
	if newCapacity < capacity {
		newCapacity = capacity
	}

	newData := make([]byte, newCapacity)
	copy(newData, b.data[:b.cursor])
	b.data = newData
	b.onHeap = true
}

func (b *rawBuffer) Size() int {
	return b.cursor
}

// encodeRaw appends p verbatim and returns the offset it was written at.
func (b *rawBuffer) encodeRaw(p []byte) int {
	b.reserve(b.cursor + len(p))
	idx := b.cursor
	copy(b.data[idx:], p)
	b.cursor += len(p)
	return idx
}

// overwrite patches already-written bytes in place; used only for the
// fixed header, before or at finalization.
func (b *rawBuffer) overwrite(at int, p []byte) {
	copy(b.data[at:at+len(p)], p)
}

func (b *rawBuffer) bytes() []byte {
	return b.data[:b.cursor]
}

// --- typed scalar codecs ---

func (b *rawBuffer) writeUint8(v uint8) int {
	return b.encodeRaw([]byte{v})
}

func (b *rawBuffer) writeUint16(v uint16) int {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return b.encodeRaw(buf[:])
}

func (b *rawBuffer) writeUint32(v uint32) int {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return b.encodeRaw(buf[:])
}

func (b *rawBuffer) writeUint64(v uint64) int {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return b.encodeRaw(buf[:])
}

func (b *rawBuffer) readUint8(off int) uint8 {
	return b.data[off]
}

func (b *rawBuffer) readUint16(off int) uint16 {
	return binary.LittleEndian.Uint16(b.data[off:])
}

func (b *rawBuffer) readUint32(off int) uint32 {
	return binary.LittleEndian.Uint32(b.data[off:])
}

func (b *rawBuffer) readUint64(off int) uint64 {
	return binary.LittleEndian.Uint64(b.data[off:])
}

// writeString appends a 2-byte length prefix followed by the raw bytes
// and returns the offset of the length word.
func (b *rawBuffer) writeString(s string) (int, error) {
	if b.cursor+2+len(s) > maxRecordSize {
		return 0, errRecordTooLarge
	}

	total := 2 + len(s)
	b.reserve(b.cursor + total)

	idx := b.cursor
	binary.LittleEndian.PutUint16(b.data[idx:idx+2], uint16(len(s)))
	copy(b.data[idx+2:idx+2+len(s)], s)
	b.cursor += total

	return idx, nil
}

func (b *rawBuffer) readString(off int) string {
	n := int(binary.LittleEndian.Uint16(b.data[off:]))
	start := off + 2
	return string(b.data[start : start+n])
}
