package hessian

import (
	"encoding/binary"
	"math"
)

// decodeFunc decodes one value starting at pos in buf, given the tag byte
// already identified at that position. It returns the position immediately
// following the decoded value.
type decodeFunc func(d *Decoder, pos int, buf []byte) (int, Value, error)

// decodeDispatch maps tag bytes that uniquely identify a decoder to their
// decode function, mirroring pkg/axdr's decodeDispatch map[Tag]decodeFunc
// pattern. Tags not present here fall through to the range checks in
// decodeAt (compact ints/longs/strings/binary), matching spec.md §4.1's
// precedence: explicit table hit, then integer-range, then long-range,
// then string-range, then binary-range, then error.
var decodeDispatch map[byte]decodeFunc

func init() {
	decodeDispatch = map[byte]decodeFunc{
		byte(TagNull):          func(d *Decoder, pos int, buf []byte) (int, Value, error) { return pos + 1, Null{}, nil },
		byte(TagTrue):          func(d *Decoder, pos int, buf []byte) (int, Value, error) { return pos + 1, Bool(true), nil },
		byte(TagFalse):         func(d *Decoder, pos int, buf []byte) (int, Value, error) { return pos + 1, Bool(false), nil },
		byte(TagInt32):         decodeInt,
		byte(tagIntAlias):      decodeInt,
		byte(TagLong64):        decodeLong,
		byte(TagLongAsInt32):   decodeLong,
		byte(TagDouble8Byte):   decodeDouble,
		byte(tagDoubleZero):    decodeDouble,
		byte(tagDoubleOne):     decodeDouble,
		byte(tagDoubleByte):    decodeDouble,
		byte(tagDoubleShort):   decodeDouble,
		byte(tagDoubleFloat):   decodeDouble,
		byte(TagDateMillis):    decodeDateMillis,
		byte(TagDateMillis2):   decodeDateMillis,
		byte(TagDateMinutes):   decodeDateMinutes,
		byte(TagRef):           decodeRef,
		byte(TagStringFinal):   decodeString,
		byte(TagStringChunk):   decodeString,
		byte(TagBinaryFinal):   decodeBinary,
		byte(TagBinaryChunk):   decodeBinary,
		byte(TagListVariable):  decodeList,
		byte(TagListRef):       decodeListRef,
		byte(TagUntypedMap):    decodeMap,
		byte(TagTypedMap):      decodeMap,
		byte(TagObjectDef):     decodeObjectDef,
		byte(TagObjectInstance): decodeObjectInstance,
	}
}

// DecoderOption configures a Decoder built by NewDecoder.
type DecoderOption func(*Decoder)

// WithStrictTrailingBytes makes Decode fail if bytes remain after the first
// complete top-level value. By default (spec.md §4.2) trailing bytes are
// tolerated and simply not consumed.
func WithStrictTrailingBytes() DecoderOption {
	return func(d *Decoder) { d.strictTrailing = true }
}

// Decoder consumes a Hessian byte stream and produces Values. A Decoder is
// created empty, used for exactly one top-level Decode call, and then
// discarded (spec.md §3 Lifecycle) — it owns mutable reference and
// class-definition tables that are not safe to share across calls or
// across goroutines.
type Decoder struct {
	strictTrailing bool

	refs     []Value
	typeRefs []string
	classes  classRegistry
}

// NewDecoder constructs a Decoder ready for a single Decode call.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode consumes buf from offset 0 and returns the first complete
// top-level Value. Trailing bytes are not required to be consumed unless
// WithStrictTrailingBytes was set.
func (d *Decoder) Decode(buf []byte) (Value, error) {
	pos, v, err := d.decodeAt(0, buf)
	if err != nil {
		return nil, err
	}
	if d.strictTrailing && pos != len(buf) {
		return nil, newDecodeError(ErrTruncatedInput, pos, 0, "trailing bytes after top-level value")
	}
	return v, nil
}

// Decode is the package-level convenience entry point: it builds a fresh
// Decoder and decodes a single top-level value from buf.
func Decode(buf []byte) (Value, error) {
	return NewDecoder().Decode(buf)
}

// decodeAt is the recursive routine shared by every specific decoder
// (spec.md §4.2's "_decode(pos, buf) -> (new-pos, Value)").
func (d *Decoder) decodeAt(pos int, buf []byte) (int, Value, error) {
	if pos >= len(buf) {
		return pos, nil, newDecodeError(ErrTruncatedInput, pos, 0, "unexpected end of input")
	}
	tag := buf[pos]

	if fn, ok := decodeDispatch[tag]; ok {
		return fn(d, pos, buf)
	}
	if isOneOctetInt(tag) || isTwoOctetInt(tag) || isThreeOctetInt(tag) {
		return decodeInt(d, pos, buf)
	}
	if isOneOctetLong(tag) || isTwoOctetLong(tag) || isThreeOctetLong(tag) {
		return decodeLong(d, pos, buf)
	}
	if isShortString(tag) || tag == byte(tagStringChunkAlias) {
		return decodeString(d, pos, buf)
	}
	if isShortBinary(tag) || tag == byte(tagBinaryChunkAlias) {
		return decodeBinary(d, pos, buf)
	}
	return pos, nil, newDecodeError(ErrUnknownTag, pos, Tag(tag), "unknown tag")
}

// Range predicates, one per compact form, grounded on
// original_source/pyhessian2/decoder.py's is_int/is_long/is_string/
// is_binary classifiers.

func isOneOctetInt(tag byte) bool   { return tag >= oneOctetIntLow && tag <= oneOctetIntHigh }
func isTwoOctetInt(tag byte) bool   { return tag >= twoOctetIntLow && tag <= twoOctetIntHigh }
func isThreeOctetInt(tag byte) bool { return tag >= threeOctetIntLow && tag <= threeOctetIntHigh }

func isOneOctetLong(tag byte) bool   { return tag >= oneOctetLongLow && tag <= oneOctetLongHigh }
func isTwoOctetLong(tag byte) bool   { return tag >= twoOctetLongLow && tag <= twoOctetLongHigh }
func isThreeOctetLong(tag byte) bool { return tag >= threeOctetLongLow && tag <= threeOctetLongHigh }

func isShortString(tag byte) bool { return tag >= shortStringLow && tag <= shortStringHigh }
func isShortBinary(tag byte) bool { return tag >= shortBinaryLow && tag <= shortBinaryHigh }

// need reports whether n further bytes are available starting at pos.
func need(buf []byte, pos, n int) bool { return pos+n <= len(buf) }

// decodeInt decodes a 32-bit signed integer from any of its compact forms
// or the explicit 'I'/'w' tags (spec.md §4.2 Integers).
func decodeInt(d *Decoder, pos int, buf []byte) (int, Value, error) {
	tag := buf[pos]
	switch {
	case isOneOctetInt(tag):
		return pos + 1, Int(int32(tag) - oneOctetIntOff), nil
	case isTwoOctetInt(tag):
		if !need(buf, pos, 2) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated two-octet int")
		}
		v := (int32(tag)-twoOctetIntOff)<<8 + int32(buf[pos+1])
		return pos + 2, Int(v), nil
	case isThreeOctetInt(tag):
		if !need(buf, pos, 3) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated three-octet int")
		}
		v := (int32(tag)-threeOctetIntOff)<<16 + int32(buf[pos+1])<<8 + int32(buf[pos+2])
		return pos + 3, Int(v), nil
	case tag == byte(TagInt32) || tag == byte(tagIntAlias):
		if !need(buf, pos, 5) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated 4-byte int")
		}
		v := int32(binary.BigEndian.Uint32(buf[pos+1 : pos+5]))
		return pos + 5, Int(v), nil
	default:
		return pos, nil, newDecodeError(ErrUnknownTag, pos, Tag(tag), "unknown int tag")
	}
}

// decodeLong decodes a 64-bit signed integer from any of its compact
// forms, the 'Y' 32-bit alias, or the explicit 'L' tag (spec.md §4.2
// Longs).
func decodeLong(d *Decoder, pos int, buf []byte) (int, Value, error) {
	tag := buf[pos]
	switch {
	case isOneOctetLong(tag):
		return pos + 1, Long(int64(tag) - oneOctetLongOff), nil
	case isTwoOctetLong(tag):
		if !need(buf, pos, 2) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated two-octet long")
		}
		v := (int64(tag)-twoOctetLongOff)<<8 + int64(buf[pos+1])
		return pos + 2, Long(v), nil
	case isThreeOctetLong(tag):
		if !need(buf, pos, 3) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated three-octet long")
		}
		v := (int64(tag)-threeOctetLongOff)<<16 + int64(buf[pos+1])<<8 + int64(buf[pos+2])
		return pos + 3, Long(v), nil
	case tag == byte(TagLongAsInt32):
		if !need(buf, pos, 5) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated long-as-int32")
		}
		v := int64(int32(binary.BigEndian.Uint32(buf[pos+1 : pos+5])))
		return pos + 5, Long(v), nil
	case tag == byte(TagLong64):
		if !need(buf, pos, 9) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated 8-byte long")
		}
		v := int64(binary.BigEndian.Uint64(buf[pos+1 : pos+9]))
		return pos + 9, Long(v), nil
	default:
		return pos, nil, newDecodeError(ErrUnknownTag, pos, Tag(tag), "unknown long tag")
	}
}

// decodeDouble decodes a double from any of its compact forms or the
// explicit 'D' tag. 'D' yields ForcedDouble, preserving the explicit wide
// encoding (spec.md §4.2 Doubles).
func decodeDouble(d *Decoder, pos int, buf []byte) (int, Value, error) {
	tag := buf[pos]
	switch Tag(tag) {
	case tagDoubleZero:
		return pos + 1, Double(0.0), nil
	case tagDoubleOne:
		return pos + 1, Double(1.0), nil
	case tagDoubleByte:
		if !need(buf, pos, 2) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated byte double")
		}
		return pos + 2, Double(float64(int8(buf[pos+1]))), nil
	case tagDoubleShort:
		if !need(buf, pos, 3) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated short double")
		}
		v := int16(binary.BigEndian.Uint16(buf[pos+1 : pos+3]))
		return pos + 3, Double(float64(v)), nil
	case tagDoubleFloat:
		if !need(buf, pos, 5) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated float double")
		}
		bits := binary.BigEndian.Uint32(buf[pos+1 : pos+5])
		return pos + 5, Double(float64(math.Float32frombits(bits))), nil
	case TagDouble8Byte:
		if !need(buf, pos, 9) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated 8-byte double")
		}
		bits := binary.BigEndian.Uint64(buf[pos+1 : pos+9])
		return pos + 9, ForcedDouble(math.Float64frombits(bits)), nil
	default:
		return pos, nil, newDecodeError(ErrUnknownTag, pos, Tag(tag), "unknown double tag")
	}
}

// decodeDateMillis decodes the 8-byte millisecond date tags ('d' and the
// 2.0 0x4a form), both equivalent on decode.
func decodeDateMillis(d *Decoder, pos int, buf []byte) (int, Value, error) {
	tag := buf[pos]
	if !need(buf, pos, 9) {
		return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated millisecond date")
	}
	v := int64(binary.BigEndian.Uint64(buf[pos+1 : pos+9]))
	return pos + 9, Date(v), nil
}

// decodeDateMinutes decodes the 4-byte minute-granularity date tag
// (0x4b), scaling minutes to milliseconds (spec.md §9's fix for the
// source's minutes-to-seconds bug: multiply by 60000, not 60).
func decodeDateMinutes(d *Decoder, pos int, buf []byte) (int, Value, error) {
	tag := buf[pos]
	if !need(buf, pos, 5) {
		return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated minute date")
	}
	minutes := int64(int32(binary.BigEndian.Uint32(buf[pos+1 : pos+5])))
	return pos + 5, Date(minutes * 60 * 1000), nil
}

// readUTF8Chars walks count Unicode code points forward from pos, using
// UTF-8 lead-byte widths to advance by the correct number of bytes
// (spec.md §4.2 Strings; original_source's read_characters).
func readUTF8Chars(buf []byte, pos, count int) (int, string, error) {
	start := pos
	for i := 0; i < count; i++ {
		if pos >= len(buf) {
			return pos, "", newDecodeError(ErrTruncatedInput, pos, 0, "truncated string body")
		}
		lead := buf[pos]
		switch {
		case lead <= 0x7f:
			pos++
		case lead >= 0xc0 && lead <= 0xdf:
			pos += 2
		case lead >= 0xe0 && lead <= 0xef:
			pos += 3
		case lead >= 0xf0 && lead <= 0xf7:
			pos += 4
		default:
			return pos, "", newDecodeError(ErrMalformedUTF8, pos, 0, "invalid UTF-8 lead byte")
		}
		if pos > len(buf) {
			return pos, "", newDecodeError(ErrTruncatedInput, pos, 0, "truncated multi-byte code point")
		}
	}
	return pos, string(buf[start:pos]), nil
}

// decodeString decodes a string from its short form, a final chunk, or a
// non-final chunk followed by its tail (spec.md §4.2 Strings). Both 's'
// and the alternate 'R' non-final marker are accepted on decode (spec.md
// §9).
func decodeString(d *Decoder, pos int, buf []byte) (int, Value, error) {
	tag := buf[pos]
	switch {
	case isShortString(tag):
		length := int(tag)
		newPos, s, err := readUTF8Chars(buf, pos+1, length)
		if err != nil {
			return pos, nil, err
		}
		return newPos, String(s), nil
	case tag == byte(TagStringFinal):
		if !need(buf, pos, 3) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated string length")
		}
		length := int(binary.BigEndian.Uint16(buf[pos+1 : pos+3]))
		newPos, s, err := readUTF8Chars(buf, pos+3, length)
		if err != nil {
			return pos, nil, err
		}
		return newPos, String(s), nil
	case tag == byte(TagStringChunk) || tag == byte(tagStringChunkAlias):
		if !need(buf, pos, 3) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated string chunk length")
		}
		length := int(binary.BigEndian.Uint16(buf[pos+1 : pos+3]))
		newPos, head, err := readUTF8Chars(buf, pos+3, length)
		if err != nil {
			return pos, nil, err
		}
		newPos, tail, err := decodeString(d, newPos, buf)
		if err != nil {
			return pos, nil, err
		}
		return newPos, String(string(head) + string(tail.(String))), nil
	default:
		return pos, nil, newDecodeError(ErrUnknownTag, pos, Tag(tag), "unknown string tag")
	}
}

// decodeBinary decodes a binary blob from its short form, a final chunk,
// or a non-final chunk followed by its tail, symmetrical to decodeString
// but byte-counted rather than code-point-counted (spec.md §4.2 Binary —
// the source left this stubbed; implemented here from the wire spec).
func decodeBinary(d *Decoder, pos int, buf []byte) (int, Value, error) {
	tag := buf[pos]
	switch {
	case isShortBinary(tag):
		length := int(tag) - shortBinaryLow
		if !need(buf, pos+1, length) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated short binary")
		}
		data := append([]byte(nil), buf[pos+1:pos+1+length]...)
		return pos + 1 + length, Binary(data), nil
	case tag == byte(TagBinaryFinal):
		if !need(buf, pos, 3) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated binary length")
		}
		length := int(binary.BigEndian.Uint16(buf[pos+1 : pos+3]))
		if !need(buf, pos+3, length) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated binary body")
		}
		data := append([]byte(nil), buf[pos+3:pos+3+length]...)
		return pos + 3 + length, Binary(data), nil
	case tag == byte(TagBinaryChunk) || tag == byte(tagBinaryChunkAlias):
		if !need(buf, pos, 3) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated binary chunk length")
		}
		length := int(binary.BigEndian.Uint16(buf[pos+1 : pos+3]))
		if !need(buf, pos+3, length) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated binary chunk body")
		}
		head := append([]byte(nil), buf[pos+3:pos+3+length]...)
		newPos, tail, err := decodeBinary(d, pos+3+length, buf)
		if err != nil {
			return pos, nil, err
		}
		return newPos, Binary(append(head, tail.(Binary)...)), nil
	default:
		return pos, nil, newDecodeError(ErrUnknownTag, pos, Tag(tag), "unknown binary tag")
	}
}

// decodeList decodes a 'V' list: it reserves a back-reference slot before
// decoding children so self-referential cycles are expressible (spec.md
// §4.2 Lists), reads an optional type prefix, a length prefix, that many
// elements, and a 'z' terminator.
func decodeList(d *Decoder, pos int, buf []byte) (int, Value, error) {
	pos++ // consume 'V'
	list := &List{}
	d.refs = append(d.refs, list) // store the pointer now so a self-reference among this list's own elements resolves to it

	if pos >= len(buf) {
		return pos, nil, newDecodeError(ErrTruncatedInput, pos, byte2tag(buf, pos), "truncated list header")
	}

	if buf[pos] == byte(tagListType) {
		pos++
		if !need(buf, pos, 2) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, tagListType, "truncated list type length")
		}
		typeLen := int(binary.BigEndian.Uint16(buf[pos : pos+2]))
		pos += 2
		if !need(buf, pos, typeLen) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, tagListType, "truncated list type name")
		}
		list.Type = string(buf[pos : pos+typeLen])
		d.typeRefs = append(d.typeRefs, list.Type)
		pos += typeLen
	}

	if pos >= len(buf) {
		return pos, nil, newDecodeError(ErrTruncatedInput, pos, 0, "truncated list length")
	}

	var length int
	switch buf[pos] {
	case byte(tagListLenShort):
		pos++
		if pos >= len(buf) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, tagListLenShort, "truncated list length byte")
		}
		length = int(buf[pos])
		pos++
	case byte(tagListLenLong):
		pos++
		if !need(buf, pos, 4) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, tagListLenLong, "truncated list length word")
		}
		length = int(binary.BigEndian.Uint32(buf[pos : pos+4]))
		pos += 4
	default:
		return pos, nil, newDecodeError(ErrUnknownTag, pos, Tag(buf[pos]), "unknown list length tag")
	}

	items := make([]Value, length)
	var err error
	for i := 0; i < length; i++ {
		pos, items[i], err = d.decodeAt(pos, buf)
		if err != nil {
			return pos, nil, err
		}
	}
	if pos >= len(buf) || buf[pos] != byte(TagTerminator) {
		return pos, nil, newDecodeError(ErrUnknownTag, pos, 0, "missing list terminator")
	}
	pos++

	list.Items = items
	return pos, list, nil
}

// decodeListRef decodes a 'v' typed-list back-reference: it reuses a
// previously recorded type name, reads its own explicit length and
// elements, and does not occupy a new back-reference slot (spec.md §4.2
// Lists).
func decodeListRef(d *Decoder, pos int, buf []byte) (int, Value, error) {
	pos++ // consume 'v'
	pos, typeRefVal, err := decodeInt(d, pos, buf)
	if err != nil {
		return pos, nil, err
	}
	typeRefID := int(typeRefVal.(Int))
	pos, lengthVal, err := decodeInt(d, pos, buf)
	if err != nil {
		return pos, nil, err
	}
	length := int(lengthVal.(Int))

	if typeRefID < 0 || typeRefID >= len(d.typeRefs) {
		return pos, nil, newDecodeError(ErrInvalidReference, pos, TagListRef, "type-ref id out of range")
	}

	items := make([]Value, length)
	for i := 0; i < length; i++ {
		pos, items[i], err = d.decodeAt(pos, buf)
		if err != nil {
			return pos, nil, err
		}
	}
	return pos, &List{Type: d.typeRefs[typeRefID], Items: items}, nil
}

// decodeMap decodes 'H' (untyped) and 'M' (typed) maps: it reserves a
// back-reference slot, optionally reads a type-name prefix for 'M', then
// reads alternating key/value pairs until the 'z' sentinel (spec.md §4.2
// Maps). Unlike original_source's decoder, the type name on an 'M' map is
// preserved rather than discarded (DESIGN.md open-question #5).
func decodeMap(d *Decoder, pos int, buf []byte) (int, Value, error) {
	tag := buf[pos]
	pos++

	// The pointer is stored in the ref table immediately, before the type
	// name or any entry is decoded, so a value nested inside this map can
	// refer back to the map itself.
	var result Value
	var typed *TypedMap
	var untyped *UntypedMap
	if Tag(tag) == TagTypedMap {
		typed = &TypedMap{}
		result = typed
	} else {
		untyped = &UntypedMap{}
		result = untyped
	}
	d.refs = append(d.refs, result)

	if typed != nil {
		newPos, typeVal, err := decodeString(d, pos, buf)
		if err != nil {
			return pos, nil, err
		}
		typed.Type = string(typeVal.(String))
		pos = newPos
	}

	var entries []MapEntry
	for {
		if pos >= len(buf) {
			return pos, nil, newDecodeError(ErrTruncatedInput, pos, Tag(tag), "truncated map body")
		}
		if buf[pos] == byte(TagTerminator) {
			pos++
			break
		}
		var key, val Value
		var err error
		pos, key, err = d.decodeAt(pos, buf)
		if err != nil {
			return pos, nil, err
		}
		pos, val, err = d.decodeAt(pos, buf)
		if err != nil {
			return pos, nil, err
		}
		entries = append(entries, MapEntry{Key: key, Value: val})
	}

	if typed != nil {
		typed.Entries = entries
	} else {
		untyped.Entries = entries
	}
	return pos, result, nil
}

// decodeObjectDef decodes an 'O' class definition (name + field names),
// registers it, and then immediately parses the 'o' instance that follows
// it (spec.md §4.2 Objects).
func decodeObjectDef(d *Decoder, pos int, buf []byte) (int, Value, error) {
	pos++ // consume 'O'
	pos, classNameVal, err := decodeString(d, pos, buf)
	if err != nil {
		return pos, nil, err
	}
	className := string(classNameVal.(String))

	pos, fieldCountVal, err := decodeInt(d, pos, buf)
	if err != nil {
		return pos, nil, err
	}
	fieldCount := int(fieldCountVal.(Int))

	fields := make([]string, fieldCount)
	for i := 0; i < fieldCount; i++ {
		var fieldVal Value
		pos, fieldVal, err = decodeString(d, pos, buf)
		if err != nil {
			return pos, nil, err
		}
		fields[i] = string(fieldVal.(String))
	}
	d.classes.register(ClassDef{ClassName: className, FieldNames: fields})

	if pos >= len(buf) || buf[pos] != byte(TagObjectInstance) {
		return pos, nil, newDecodeError(ErrUnknownTag, pos, 0, "class definition not followed by instance")
	}
	return decodeObjectInstance(d, pos, buf)
}

// decodeObjectInstance decodes an 'o' instance: a compact-int class-def id
// followed by one Value per declared field, in declaration order. A
// back-reference slot is allocated before fields are decoded, so
// self-referential object graphs are expressible (spec.md §4.2 Objects).
func decodeObjectInstance(d *Decoder, pos int, buf []byte) (int, Value, error) {
	pos++ // consume 'o'

	pos, classIDVal, err := decodeInt(d, pos, buf)
	if err != nil {
		return pos, nil, err
	}
	classID := int(classIDVal.(Int))

	def, err := d.classes.resolve(classID, pos)
	if err != nil {
		return pos, nil, err
	}

	// The object is stored in the ref table before its fields are decoded
	// so a field can refer back to the object itself.
	obj := &Object{ClassID: classID}
	d.refs = append(d.refs, obj)

	fields := make([]Value, len(def.FieldNames))
	for i := range fields {
		pos, fields[i], err = d.decodeAt(pos, buf)
		if err != nil {
			return pos, nil, err
		}
	}
	obj.Fields = fields

	return pos, obj, nil
}

// decodeRef resolves a back-reference. 'Q' carries a compact-int ref-id;
// per DESIGN.md's open-question #1 decision, 0x4a/0x4b are reserved for
// dates and are not treated as alternate compact-ref forms here.
func decodeRef(d *Decoder, pos int, buf []byte) (int, Value, error) {
	pos++ // consume 'Q'
	pos, idVal, err := decodeInt(d, pos, buf)
	if err != nil {
		return pos, nil, err
	}
	id := int(idVal.(Int))
	if id < 0 || id >= len(d.refs) || d.refs[id] == nil {
		return pos, nil, newDecodeError(ErrInvalidReference, pos, TagRef, "reference id out of range")
	}
	return pos, d.refs[id], nil
}

// byte2tag is a small helper for constructing error Tag values safely when
// pos may already be out of range.
func byte2tag(buf []byte, pos int) Tag {
	if pos < len(buf) {
		return Tag(buf[pos])
	}
	return 0
}
