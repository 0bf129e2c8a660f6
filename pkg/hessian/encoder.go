package hessian

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// EncoderOption configures an Encoder built by NewEncoder.
type EncoderOption func(*Encoder)

// WithPreallocatedBuffer sizes the Encoder's internal buffer up front,
// avoiding reallocation for callers who know roughly how large their
// encoded output will be.
func WithPreallocatedBuffer(size int) EncoderOption {
	return func(e *Encoder) { e.prealloc = size }
}

// WithNonFinalChunkTag selects which marker byte the encoder emits for
// non-final string/binary chunks. Both spellings are legal on the wire
// (spec.md §9): pass hessian.TagStringChunk (the default, 's'/'b') or the
// alternate marker byte ('R', in which case binary chunks switch to 'A'
// to match) to request the alias family instead. Any other byte value is
// ignored and the default family is kept.
func WithNonFinalChunkTag(tag byte) EncoderOption {
	return func(e *Encoder) {
		if tag == byte(tagStringChunkAlias) {
			e.stringChunkTag = byte(tagStringChunkAlias)
			e.binaryChunkTag = byte(tagBinaryChunkAlias)
		} else {
			e.stringChunkTag = byte(TagStringChunk)
			e.binaryChunkTag = byte(TagBinaryChunk)
		}
	}
}

// Encoder serializes Values to the Hessian wire format. Like Decoder, an
// Encoder is scoped to a single top-level Encode call: it accumulates a
// back-reference identity table and a class-definition index that must
// not be reused or shared across goroutines (spec.md §3 Lifecycle).
type Encoder struct {
	prealloc int
	// stringChunkTag/binaryChunkTag are the non-final chunk markers this
	// Encoder emits; defaulted in NewEncoder to 's'/'b'.
	stringChunkTag byte
	binaryChunkTag byte

	refs       map[Value]int
	classes    classIndex
	fieldsByID [][]string
	emitted    map[int]bool
}

// NewEncoder constructs an Encoder ready for a single Encode call.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{
		refs:           make(map[Value]int),
		stringChunkTag: byte(TagStringChunk),
		binaryChunkTag: byte(TagBinaryChunk),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode serializes v to the Hessian wire format.
func (e *Encoder) Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if e.prealloc > 0 {
		buf.Grow(e.prealloc)
	}
	if err := e.encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode is the package-level convenience entry point: it builds a fresh
// Encoder and encodes a single top-level value.
func Encode(v Value) ([]byte, error) {
	return NewEncoder().Encode(v)
}

// identity returns the back-reference id already assigned to v and true,
// or assigns v a fresh id and returns (id, false). Only List, UntypedMap,
// TypedMap, and Object participate in reference identity (spec.md §4.3);
// callers must check refEligible(v) before calling identity.
func (e *Encoder) identity(v Value) (int, bool) {
	if id, ok := e.refs[v]; ok {
		return id, true
	}
	id := len(e.refs)
	e.refs[v] = id
	return id, false
}

func refEligible(v Value) bool {
	switch v.(type) {
	case *List, *UntypedMap, *TypedMap, *Object:
		return true
	default:
		return false
	}
}

// encodeValue dispatches on v's dynamic type, mirroring pkg/axdr's
// encodeValue switch but over the closed hessian.Value sum type rather
// than reflect.Type, since every encodable shape is already named in
// value.go (spec.md §4.3; DESIGN.md's note on replacing reflection with a
// plain type switch).
func (e *Encoder) encodeValue(buf *bytes.Buffer, v Value) error {
	if refEligible(v) {
		if id, seen := e.identity(v); seen {
			return e.encodeRef(buf, id)
		}
	}

	switch val := v.(type) {
	case Null:
		buf.WriteByte(byte(TagNull))
		return nil
	case Bool:
		if val {
			buf.WriteByte(byte(TagTrue))
		} else {
			buf.WriteByte(byte(TagFalse))
		}
		return nil
	case Int:
		return e.encodeInt(buf, int32(val))
	case Long:
		return e.encodeLong(buf, int64(val))
	case Double:
		return e.encodeDouble(buf, float64(val))
	case ForcedDouble:
		return e.encodeForcedDouble(buf, float64(val))
	case Date:
		return e.encodeDate(buf, int64(val))
	case String:
		return e.encodeString(buf, string(val))
	case Binary:
		return e.encodeBinary(buf, []byte(val))
	case *List:
		return e.encodeList(buf, val)
	case *UntypedMap:
		return e.encodeUntypedMap(buf, val)
	case *TypedMap:
		return e.encodeTypedMap(buf, val)
	case *Object:
		return e.encodeObject(buf, val)
	default:
		return newEncodeError(ErrEncoderTypeUnsupported, fmt.Sprintf("%T", v), "value has no assigned encoder")
	}
}

// encodeRef emits a 'Q' back-reference to a previously encoded composite.
func (e *Encoder) encodeRef(buf *bytes.Buffer, id int) error {
	buf.WriteByte(byte(TagRef))
	return e.encodeInt(buf, int32(id))
}

// encodeInt picks the tightest compact form that represents n, falling
// back to the explicit 4-byte 'I' tag (spec.md §4.3 Integers).
func (e *Encoder) encodeInt(buf *bytes.Buffer, n int32) error {
	switch {
	case n >= oneOctetIntEncMin && n <= oneOctetIntEncMax:
		buf.WriteByte(byte(n + oneOctetIntOff))
	case n >= twoOctetIntMin && n <= twoOctetIntMax:
		buf.WriteByte(byte((n >> 8) + twoOctetIntOff))
		buf.WriteByte(byte(n))
	case n >= threeOctetIntMin && n <= threeOctetIntMax:
		buf.WriteByte(byte((n >> 16) + threeOctetIntOff))
		buf.WriteByte(byte(n >> 8))
		buf.WriteByte(byte(n))
	default:
		buf.WriteByte(byte(TagInt32))
		binary.Write(buf, binary.BigEndian, n)
	}
	return nil
}

// encodeLong picks the tightest compact form that represents n, falling
// back to the 32-bit 'Y' form when n fits an int32, and finally the
// explicit 8-byte 'L' tag (spec.md §4.3 Longs).
func (e *Encoder) encodeLong(buf *bytes.Buffer, n int64) error {
	switch {
	case n >= oneOctetLongMin && n <= oneOctetLongMax:
		buf.WriteByte(byte(n + oneOctetLongOff))
	case n >= twoOctetLongMin && n <= twoOctetLongMax:
		buf.WriteByte(byte((n >> 8) + twoOctetLongOff))
		buf.WriteByte(byte(n))
	case n >= threeOctetLongMin && n <= threeOctetLongMax:
		buf.WriteByte(byte((n >> 16) + threeOctetLongOff))
		buf.WriteByte(byte(n >> 8))
		buf.WriteByte(byte(n))
	case n >= math.MinInt32 && n <= math.MaxInt32:
		buf.WriteByte(byte(TagLongAsInt32))
		binary.Write(buf, binary.BigEndian, int32(n))
	default:
		buf.WriteByte(byte(TagLong64))
		binary.Write(buf, binary.BigEndian, n)
	}
	return nil
}

// encodeDouble picks the tightest compact form for a double that the
// encoder is free to compress, including the exact-zero, exact-one,
// byte-range, short-range, and float-range shortcuts before falling back
// to the full 8-byte 'D' form (spec.md §4.3 Doubles).
func (e *Encoder) encodeDouble(buf *bytes.Buffer, f float64) error {
	switch {
	case f == 0.0:
		buf.WriteByte(byte(tagDoubleZero))
	case f == 1.0:
		buf.WriteByte(byte(tagDoubleOne))
	case f == math.Trunc(f) && f >= -128 && f <= 127:
		buf.WriteByte(byte(tagDoubleByte))
		buf.WriteByte(byte(int8(f)))
	case f == math.Trunc(f) && f >= -32768 && f <= 32767:
		buf.WriteByte(byte(tagDoubleShort))
		binary.Write(buf, binary.BigEndian, int16(f))
	case float64(float32(f)) == f:
		buf.WriteByte(byte(tagDoubleFloat))
		binary.Write(buf, binary.BigEndian, math.Float32bits(float32(f)))
	default:
		return e.encodeForcedDouble(buf, f)
	}
	return nil
}

// encodeForcedDouble always emits the full 8-byte 'D' form, regardless of
// whether a compact form would round-trip (ForcedDouble's contract in
// value.go).
func (e *Encoder) encodeForcedDouble(buf *bytes.Buffer, f float64) error {
	buf.WriteByte(byte(TagDouble8Byte))
	binary.Write(buf, binary.BigEndian, math.Float64bits(f))
	return nil
}

// encodeDate always emits the 8-byte millisecond form (spec.md §9: the
// encoder never emits the 4-byte minute-granularity tag, since doing so
// would be a lossy, one-directional choice the caller cannot opt out of).
func (e *Encoder) encodeDate(buf *bytes.Buffer, millis int64) error {
	buf.WriteByte(byte(TagDateMillis))
	binary.Write(buf, binary.BigEndian, millis)
	return nil
}

// encodeString emits a string in its short form if it fits, otherwise
// splits it into chunkMaxCodePoints-sized chunks tagged with the Encoder's
// non-final marker ('s' by default, 'R' under WithNonFinalChunkTag) for
// every non-final chunk and 'S' for the last (spec.md §4.3 Strings).
func (e *Encoder) encodeString(buf *bytes.Buffer, s string) error {
	runes := []rune(s)
	if len(runes) <= shortStringMax {
		buf.WriteByte(byte(len(runes)))
		buf.WriteString(s)
		return nil
	}
	for len(runes) > chunkMaxCodePoints {
		chunk := runes[:chunkMaxCodePoints]
		buf.WriteByte(e.stringChunkTag)
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(chunk)))
		buf.Write(lenBuf[:])
		buf.WriteString(string(chunk))
		runes = runes[chunkMaxCodePoints:]
	}
	buf.WriteByte(byte(TagStringFinal))
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(runes)))
	buf.Write(lenBuf[:])
	buf.WriteString(string(runes))
	return nil
}

// encodeBinary emits a byte blob in its short form if it fits, otherwise
// splits it into chunkMaxBytes-sized chunks tagged with the Encoder's
// non-final marker ('b' by default, 'A' under WithNonFinalChunkTag) for
// every non-final chunk and 'B' for the last (spec.md §4.3 Binary).
func (e *Encoder) encodeBinary(buf *bytes.Buffer, data []byte) error {
	if len(data) <= shortBinaryMax {
		buf.WriteByte(byte(shortBinaryLow + len(data)))
		buf.Write(data)
		return nil
	}
	for len(data) > chunkMaxBytes {
		chunk := data[:chunkMaxBytes]
		buf.WriteByte(e.binaryChunkTag)
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(chunk)))
		buf.Write(lenBuf[:])
		buf.Write(chunk)
		data = data[chunkMaxBytes:]
	}
	buf.WriteByte(byte(TagBinaryFinal))
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(data)))
	buf.Write(lenBuf[:])
	buf.Write(data)
	return nil
}

// encodeList emits a 'V' list: a 'n'+1-byte length prefix for length ≤ 255
// or a 'l'+4-byte length prefix otherwise (spec.md §4.3 Lists), its elements,
// and the 'z' terminator. list.Type is never emitted — spec.md §4.3 is
// explicit that the encoder does not emit a type prefix ('t' is
// decode-only tolerance); a List built with Type set still round-trips its
// Items, just without the nominal type label.
func (e *Encoder) encodeList(buf *bytes.Buffer, list *List) error {
	buf.WriteByte(byte(TagListVariable))
	if len(list.Items) <= 0xff {
		buf.WriteByte(byte(tagListLenShort))
		buf.WriteByte(byte(len(list.Items)))
	} else {
		buf.WriteByte(byte(tagListLenLong))
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(list.Items)))
		buf.Write(lenBuf[:])
	}
	for i, item := range list.Items {
		if err := e.encodeValue(buf, item); err != nil {
			return fmt.Errorf("encoding list element %d: %w", i, err)
		}
	}
	buf.WriteByte(byte(TagTerminator))
	return nil
}

// encodeUntypedMap emits an 'H' map: alternating key/value pairs followed
// by the 'z' terminator.
func (e *Encoder) encodeUntypedMap(buf *bytes.Buffer, m *UntypedMap) error {
	buf.WriteByte(byte(TagUntypedMap))
	for _, entry := range m.Entries {
		if err := e.encodeValue(buf, entry.Key); err != nil {
			return err
		}
		if err := e.encodeValue(buf, entry.Value); err != nil {
			return err
		}
	}
	buf.WriteByte(byte(TagTerminator))
	return nil
}

// encodeTypedMap emits an 'M' map: a type-name string, then alternating
// key/value pairs, then the 'z' terminator.
func (e *Encoder) encodeTypedMap(buf *bytes.Buffer, m *TypedMap) error {
	buf.WriteByte(byte(TagTypedMap))
	if err := e.encodeString(buf, m.Type); err != nil {
		return err
	}
	for _, entry := range m.Entries {
		if err := e.encodeValue(buf, entry.Key); err != nil {
			return err
		}
		if err := e.encodeValue(buf, entry.Value); err != nil {
			return err
		}
	}
	buf.WriteByte(byte(TagTerminator))
	return nil
}

// encodeObject emits an 'O' class definition the first time obj.ClassID is
// encoded within this Encoder's lifetime, immediately followed by the 'o'
// instance; later Objects sharing the same ClassID emit only the 'o' form
// (spec.md §4.3 Objects). obj.Fields must have the same length as the
// field list registered for obj.ClassID via RegisterClass, or encoding
// fails with ErrFieldCountMismatch (spec.md §7).
func (e *Encoder) encodeObject(buf *bytes.Buffer, obj *Object) error {
	if obj.ClassID < 0 || obj.ClassID >= len(e.fieldsByID) {
		return newEncodeError(ErrClassDefMissing, "Object",
			"object references a ClassID never registered via RegisterClass")
	}
	fieldNames := e.fieldsByID[obj.ClassID]
	if len(obj.Fields) != len(fieldNames) {
		return newEncodeError(ErrFieldCountMismatch, "Object",
			fmt.Sprintf("object has %d fields but class declares %d", len(obj.Fields), len(fieldNames)))
	}

	if e.emitted == nil {
		e.emitted = make(map[int]bool)
	}
	if !e.emitted[obj.ClassID] {
		buf.WriteByte(byte(TagObjectDef))
		if err := e.encodeString(buf, e.classes.order[obj.ClassID]); err != nil {
			return err
		}
		if err := e.encodeInt(buf, int32(len(fieldNames))); err != nil {
			return err
		}
		for _, name := range fieldNames {
			if err := e.encodeString(buf, name); err != nil {
				return err
			}
		}
		e.emitted[obj.ClassID] = true
	}

	buf.WriteByte(byte(TagObjectInstance))
	if err := e.encodeInt(buf, int32(obj.ClassID)); err != nil {
		return err
	}
	for i, field := range obj.Fields {
		if err := e.encodeValue(buf, field); err != nil {
			return fmt.Errorf("encoding object field %d: %w", i, err)
		}
	}
	return nil
}

// RegisterClass declares a class and returns the ClassID to use when
// constructing Objects of this class with this Encoder. Calling it twice
// with the same className returns the same id. Unlike decode, where class
// definitions arrive inline in the byte stream before their first
// instance, the encoder needs the caller to supply field names up front,
// since Go has no reflection-free way to recover them from an Object's
// Fields slice alone; the 'O' definition itself is still emitted inline,
// on the first encodeObject call for that id, not here.
func (e *Encoder) RegisterClass(className string, fieldNames []string) int {
	if id, ok := e.classes.indexOf(className); ok {
		return id
	}
	id := e.classes.assign(className)
	e.fieldsByID = append(e.fieldsByID, fieldNames)
	return id
}
