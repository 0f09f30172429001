// Package buffer implements the event buffer: the inline, append-only,
// self-describing binary record built on the producer side of one
// logging call. See EventLogBuffer in the original logpp C++ source for
// the design this is ported from.
package buffer

import "fmt"

// Kind tags the scalar type living at a value Offset. The set is closed:
// logpp never adds a new field type at runtime.
type Kind uint8

const (
	KindUint8 Kind = iota
	KindUint16
	KindUint32
	KindUint64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Offset is a 16-bit index, relative to a buffer's data region base, at
// which some piece of data lives. Offsets are produced by writes and
// consumed at format time; they remain valid across buffer copy, move and
// growth because they are never raw pointers.
type Offset uint16

// fieldRecordSize is the encoded size, in bytes, of one FieldOffset: two
// 16-bit offsets plus a one-byte kind tag.
const fieldRecordSize = 2 + 2 + 1

// FieldOffset is a pair of key/value offsets plus the value's kind,
// describing one structured field written with WriteField. The fields
// block is a packed sequence of these records.
type FieldOffset struct {
	Key   Offset
	Value Offset
	Kind  Kind
}
