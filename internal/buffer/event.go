package buffer

import (
	"fmt"
	"math"
	"time"

	"github.com/corelog/logpp/pkg/errors"
)

// DispatchKind tags how the trailing structured payload of an Event
// should be interpreted at format time. A language-neutral stand-in for
// the original C++ source's raw function-pointer header: a small enum
// plus a table lookup replaces unsafe pointer arithmetic while keeping
// O(1) dispatch.
type DispatchKind uint8

const (
	// DispatchLogRecord is the only dispatch shape logpp produces today:
	// a timestamp, thread id, optional source location and message,
	// followed by the structured fields block.
	DispatchLogRecord DispatchKind = iota
)

// headerSize is {Dispatch byte}{LayoutOffset uint16}{FieldsOffset uint16}{FieldsCount uint16}.
const headerSize = 1 + 2 + 2 + 2

// logRecordLayoutSize is five packed Offsets: Time, Thread, File, Line, Message.
const logRecordLayoutSize = 5 * 2

// Event is one log record built by a single logging call: a compact,
// self-describing binary record carrying the payload without string
// formatting. New allocates the Event together with an inline array of
// inlineCapacity bytes; a record that fits in it needs no further
// allocation, a larger one moves to a heap slice.
//
// Event must only be used through a pointer; see rawBuffer's doc comment.
// It is append-only until Finalize, after which it is read-only and safe
// to hand to any number of concurrent readers (a formatter, a visitor).
type Event struct {
	raw *rawBuffer

	finalized  bool
	fieldsHead Offset
	fieldCount int
}

// New allocates an Event with its header reserved and ready for writes.
func New() *Event {
	e := &Event{raw: newRawBuffer()}
	e.raw.reserve(headerSize)
	e.raw.cursor = headerSize
	return e
}

// Clone returns an independent copy; every Offset issued against the
// original remains valid against the clone, since offsets are relative to
// the data region, not raw pointers.
func (e *Event) Clone() *Event {
	return &Event{
		raw:        e.raw.Clone(),
		finalized:  e.finalized,
		fieldsHead: e.fieldsHead,
		fieldCount: e.fieldCount,
	}
}

// Size returns the number of bytes written so far.
func (e *Event) Size() int {
	return e.raw.Size()
}

// --- scalar writes ---

func (e *Event) WriteUint8(v uint8) Offset  { return Offset(e.raw.writeUint8(v)) }
func (e *Event) WriteUint16(v uint16) Offset { return Offset(e.raw.writeUint16(v)) }
func (e *Event) WriteUint32(v uint32) Offset { return Offset(e.raw.writeUint32(v)) }
func (e *Event) WriteUint64(v uint64) Offset { return Offset(e.raw.writeUint64(v)) }

func (e *Event) WriteInt8(v int8) Offset   { return Offset(e.raw.writeUint8(uint8(v))) }
func (e *Event) WriteInt16(v int16) Offset { return Offset(e.raw.writeUint16(uint16(v))) }
func (e *Event) WriteInt32(v int32) Offset { return Offset(e.raw.writeUint32(uint32(v))) }
func (e *Event) WriteInt64(v int64) Offset { return Offset(e.raw.writeUint64(uint64(v))) }

func (e *Event) WriteFloat32(v float32) Offset {
	return Offset(e.raw.writeUint32(math.Float32bits(v)))
}

func (e *Event) WriteFloat64(v float64) Offset {
	return Offset(e.raw.writeUint64(math.Float64bits(v)))
}

func (e *Event) WriteBool(v bool) Offset {
	var b uint8
	if v {
		b = 1
	}
	return Offset(e.raw.writeUint8(b))
}

// WriteString appends a 2-byte length prefix followed by the bytes of s
// and returns the offset of the length word. Fails with RecordTooLarge
// when the record would grow past the 65535 bytes a 16-bit Offset can
// address.
func (e *Event) WriteString(s string) (Offset, error) {
	off, err := e.raw.writeString(s)
	if err != nil {
		return 0, err
	}
	return Offset(off), nil
}

// WriteFormatted renders format/args with fmt.Sprintf and writes the
// result as a normal length-prefixed string field. It is the Go stand-in
// for the original source's FormatArgs deferred-rendering carrier: the
// deferral happens at the call site (a logger only calls this after its
// level check passes), not inside the buffer itself.
func (e *Event) WriteFormatted(format string, args ...interface{}) (Offset, error) {
	return e.WriteString(fmt.Sprintf(format, args...))
}

// --- scalar reads ---

func (e *Event) ReadUint8(off Offset) uint8   { return e.raw.readUint8(int(off)) }
func (e *Event) ReadUint16(off Offset) uint16 { return e.raw.readUint16(int(off)) }
func (e *Event) ReadUint32(off Offset) uint32 { return e.raw.readUint32(int(off)) }
func (e *Event) ReadUint64(off Offset) uint64 { return e.raw.readUint64(int(off)) }

func (e *Event) ReadInt8(off Offset) int8   { return int8(e.raw.readUint8(int(off))) }
func (e *Event) ReadInt16(off Offset) int16 { return int16(e.raw.readUint16(int(off))) }
func (e *Event) ReadInt32(off Offset) int32 { return int32(e.raw.readUint32(int(off))) }
func (e *Event) ReadInt64(off Offset) int64 { return int64(e.raw.readUint64(int(off))) }

func (e *Event) ReadFloat32(off Offset) float32 {
	return math.Float32frombits(e.raw.readUint32(int(off)))
}

func (e *Event) ReadFloat64(off Offset) float64 {
	return math.Float64frombits(e.raw.readUint64(int(off)))
}

func (e *Event) ReadBool(off Offset) bool {
	return e.raw.readUint8(int(off)) != 0
}

func (e *Event) ReadString(off Offset) string {
	return e.raw.readString(int(off))
}

// WriteField appends the key string, then the value via the scalar or
// string write matching its Go type, then a field descriptor (key
// offset, value offset, kind tag) into the structured-fields block.
// A value outside the closed set of scalar kinds is rejected with an
// *errors.AppError; its key string has then already been written, but
// no field descriptor is added.
func (e *Event) WriteField(key string, value interface{}) error {
	keyOff, err := e.WriteString(key)
	if err != nil {
		return err
	}

	var valOff Offset
	var kind Kind

	switch v := value.(type) {
	case string:
		valOff, err = e.WriteString(v)
		kind = KindString
	case uint8:
		valOff, kind = e.WriteUint8(v), KindUint8
	case uint16:
		valOff, kind = e.WriteUint16(v), KindUint16
	case uint32:
		valOff, kind = e.WriteUint32(v), KindUint32
	case uint64:
		valOff, kind = e.WriteUint64(v), KindUint64
	case int8:
		valOff, kind = e.WriteInt8(v), KindInt8
	case int16:
		valOff, kind = e.WriteInt16(v), KindInt16
	case int32:
		valOff, kind = e.WriteInt32(v), KindInt32
	case int64:
		valOff, kind = e.WriteInt64(v), KindInt64
	case int:
		valOff, kind = e.WriteInt64(int64(v)), KindInt64
	case float32:
		valOff, kind = e.WriteFloat32(v), KindFloat32
	case float64:
		valOff, kind = e.WriteFloat64(v), KindFloat64
	case bool:
		valOff, kind = e.WriteBool(v), KindBool
	default:
		return &errors.AppError{Code: "FIELD_TYPE_UNSUPPORTED", Message: "unsupported field value type"}
	}
	if err != nil {
		return err
	}

	e.appendFieldRecord(FieldOffset{Key: keyOff, Value: valOff, Kind: kind})
	return nil
}

func (e *Event) appendFieldRecord(f FieldOffset) {
	if e.fieldCount == 0 {
		e.fieldsHead = Offset(e.raw.cursor)
	}

	var buf [fieldRecordSize]byte
	buf[0] = byte(f.Key)
	buf[1] = byte(f.Key >> 8)
	buf[2] = byte(f.Value)
	buf[3] = byte(f.Value >> 8)
	buf[4] = byte(f.Kind)
	e.raw.encodeRaw(buf[:])

	e.fieldCount++
}

// VisitFields walks the structured fields block in write order.
func (e *Event) VisitFields(v FieldVisitor) {
	v.VisitStart(e.fieldCount)

	pos := int(e.fieldsHead)
	for i := 0; i < e.fieldCount; i++ {
		keyOff := Offset(e.raw.readUint16(pos))
		valOff := Offset(e.raw.readUint16(pos + 2))
		kind := Kind(e.raw.readUint8(pos + 4))
		pos += fieldRecordSize

		key := e.ReadString(keyOff)
		switch kind {
		case KindString:
			v.VisitString(key, e.ReadString(valOff))
		case KindUint8:
			v.VisitUint8(key, e.ReadUint8(valOff))
		case KindUint16:
			v.VisitUint16(key, e.ReadUint16(valOff))
		case KindUint32:
			v.VisitUint32(key, e.ReadUint32(valOff))
		case KindUint64:
			v.VisitUint64(key, e.ReadUint64(valOff))
		case KindInt8:
			v.VisitInt8(key, e.ReadInt8(valOff))
		case KindInt16:
			v.VisitInt16(key, e.ReadInt16(valOff))
		case KindInt32:
			v.VisitInt32(key, e.ReadInt32(valOff))
		case KindInt64:
			v.VisitInt64(key, e.ReadInt64(valOff))
		case KindFloat32:
			v.VisitFloat32(key, e.ReadFloat32(valOff))
		case KindFloat64:
			v.VisitFloat64(key, e.ReadFloat64(valOff))
		case KindBool:
			v.VisitBool(key, e.ReadBool(valOff))
		}
	}

	v.VisitEnd()
}

// FieldCount reports how many structured fields were written.
func (e *Event) FieldCount() int {
	return e.fieldCount
}

// LogRecordOffsets locates the fixed payload of a DispatchLogRecord
// event: when, from which thread, from which source location, and the
// rendered message text.
type LogRecordOffsets struct {
	Time    Offset
	Thread  Offset
	File    Offset
	Line    Offset
	Message Offset
}

// FinalizeLogRecord writes the record layout blob and the header,
// marking the buffer read-only. After this call WriteField/WriteString/
// etc. must not be called again.
func (e *Event) FinalizeLogRecord(o LogRecordOffsets) {
	layoutOffset := e.raw.cursor
	for _, off := range [...]Offset{o.Time, o.Thread, o.File, o.Line, o.Message} {
		e.raw.writeUint16(uint16(off))
	}

	var header [headerSize]byte
	header[0] = byte(DispatchLogRecord)
	header[1] = byte(layoutOffset)
	header[2] = byte(layoutOffset >> 8)
	header[3] = byte(e.fieldsHead)
	header[4] = byte(e.fieldsHead >> 8)
	header[5] = byte(uint16(e.fieldCount))
	header[6] = byte(uint16(e.fieldCount) >> 8)
	e.raw.overwrite(0, header[:])

	e.finalized = true
}

// Finalized reports whether FinalizeLogRecord has been called.
func (e *Event) Finalized() bool {
	return e.finalized
}

// Dispatch reads the dispatch tag written by FinalizeLogRecord.
func (e *Event) Dispatch() DispatchKind {
	return DispatchKind(e.raw.readUint8(0))
}

func (e *Event) layoutOffset() int {
	return int(e.raw.readUint16(1))
}

// Offsets decodes the LogRecordOffsets blob for a finalized
// DispatchLogRecord event.
func (e *Event) Offsets() LogRecordOffsets {
	pos := e.layoutOffset()
	read := func() Offset {
		v := Offset(e.raw.readUint16(pos))
		pos += 2
		return v
	}
	return LogRecordOffsets{Time: read(), Thread: read(), File: read(), Line: read(), Message: read()}
}

// Time returns the record's timestamp.
func (e *Event) Time() time.Time {
	o := e.Offsets()
	return time.Unix(0, e.ReadInt64(o.Time)).UTC()
}

// ThreadID returns the calling thread identity captured at write time.
func (e *Event) ThreadID() uint64 {
	return e.ReadUint64(e.Offsets().Thread)
}

// SourceFile returns the captured caller file path, or "" if none was recorded.
func (e *Event) SourceFile() string {
	o := e.Offsets()
	if o.File == 0 {
		return ""
	}
	return e.ReadString(o.File)
}

// SourceLine returns the captured caller line, or 0 if none was recorded.
func (e *Event) SourceLine() int32 {
	o := e.Offsets()
	if o.Line == 0 {
		return 0
	}
	return e.ReadInt32(o.Line)
}

// Message returns the record's rendered text.
func (e *Event) Message() string {
	return e.ReadString(e.Offsets().Message)
}
