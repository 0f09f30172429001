package buffer

// FieldVisitor is a polymorphic walk over the typed fields written into an
// Event. Implementations dispatch on the closed set of scalar kinds
// instead of downcasting at runtime. Visitation happens in write order.
// A visitor may be reused across records but must not be shared
// concurrently within one record's visit.
type FieldVisitor interface {
	VisitStart(count int)

	VisitString(key, value string)
	VisitUint8(key string, value uint8)
	VisitUint16(key string, value uint16)
	VisitUint32(key string, value uint32)
	VisitUint64(key string, value uint64)
	VisitInt8(key string, value int8)
	VisitInt16(key string, value int16)
	VisitInt32(key string, value int32)
	VisitInt64(key string, value int64)
	VisitFloat32(key string, value float32)
	VisitFloat64(key string, value float64)
	VisitBool(key string, value bool)

	VisitEnd()
}
