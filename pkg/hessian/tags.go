// Package hessian implements a codec for the Hessian 2.0 binary
// serialization wire format, as documented at
// http://hessian.caucho.com/doc/hessian-serialization.html.
package hessian

// Tag identifies a single leading byte of the Hessian wire format that
// classifies the bytes following it as a specific value kind.
type Tag byte

// Symbolic single-byte tags. Compact numeric and string/binary ranges are
// not enumerated here as constants; see isShortString, isShortBinary,
// isOneOctetInt, and friends in decoder.go/encoder.go for the range
// boundaries, which mirror the ranges documented below.
const (
	// TagNull represents the null value.
	// Encoding: single byte (0x4e, 'N').
	TagNull Tag = 'N'

	// TagTrue represents the boolean value true.
	// Encoding: single byte (0x54, 'T').
	TagTrue Tag = 'T'

	// TagFalse represents the boolean value false.
	// Encoding: single byte (0x46, 'F').
	TagFalse Tag = 'F'

	// TagInt32 represents a 32-bit signed integer outside the compact
	// ranges.
	// Encoding: tag (0x49, 'I'), value (4 bytes, big-endian).
	TagInt32 Tag = 'I'

	// TagLong64 represents a 64-bit signed long outside the compact ranges.
	// Encoding: tag (0x4c, 'L'), value (8 bytes, big-endian).
	TagLong64 Tag = 'L'

	// TagLongAsInt32 represents a long value that fits a 32-bit signed
	// range, encoded as a 4-byte int payload tagged 'Y' (or, on receive
	// only, tolerated under the 'w'/0x77 alias for compact-int dispatch).
	// Encoding: tag (0x59, 'Y'), value (4 bytes, big-endian, sign-extended
	// to 64 bits on decode).
	TagLongAsInt32 Tag = 'Y'

	// tagLongAsInt32Alias names the 0x77 byte ('w') in its long-as-32-bit
	// role. It is not referenced by the encoder or the decoder: the encoder
	// emits TagLongAsInt32 ('Y') for longs that fit 32 bits, and on decode
	// 0x77 is dispatched as tagIntAlias, yielding an Int.
	tagLongAsInt32Alias Tag = 0x77

	// tagIntAlias is accepted on decode as an alias for TagInt32 (0x77
	// dispatches the same 4-byte-int reader as 'I'; see 'w' in the tag
	// map).
	tagIntAlias Tag = 'w'

	// TagDouble8Byte represents a full 8-byte IEEE-754 double, also used
	// for the ForcedDouble variant, which always emits this tag.
	// Encoding: tag (0x44, 'D'), value (8 bytes, big-endian IEEE-754
	// binary64).
	TagDouble8Byte Tag = 'D'

	// TagDateMillis represents a UTC-millisecond date (Hessian 1.0
	// compatible tag, also valid in 2.0).
	// Encoding: tag ('d'), value (8 bytes, big-endian signed milliseconds
	// since epoch).
	TagDateMillis Tag = 'd'

	// TagDateMillis2 is the 2.0 8-byte millisecond date tag (0x4a). It is
	// decode-compatible with TagDateMillis.
	TagDateMillis2 Tag = 0x4a

	// TagDateMinutes is the 2.0 4-byte minute-granularity date tag (0x4b).
	// Encoding: tag (0x4b), value (4 bytes, big-endian signed minutes
	// since epoch). The encoder never emits this tag (see encodeDate in
	// encoder.go); it emits TagDateMillis instead.
	TagDateMinutes Tag = 0x4b

	// TagRef represents a back-reference to a previously materialized
	// List, Map, or Object, carried as a compact integer.
	// Encoding: tag (0x51, 'Q'), ref-id (compact int encoding).
	TagRef Tag = 'Q'

	// TagStringFinal represents the final (or only) chunk of a string
	// whose length exceeds the short-string range, or is used directly
	// for a length-prefixed string between 32 and 65535 code points.
	// Encoding: tag (0x53, 'S'), length (2 bytes, big-endian code-point
	// count), followed by that many UTF-8-encoded code points.
	TagStringFinal Tag = 'S'

	// TagStringChunk represents a non-final chunk of a string split across
	// multiple chunks.
	// Encoding: tag ('s'), length (2 bytes), followed by code points, then
	// another string encoding (the remainder).
	TagStringChunk Tag = 's'

	// tagStringChunkAlias is accepted on decode as an alternate non-final
	// string chunk marker (spec's "'R' (0x52)").
	tagStringChunkAlias Tag = 'R'

	// TagBinaryFinal represents the final (or only) chunk of a binary
	// value whose length exceeds the short-binary range.
	// Encoding: tag (0x42, 'B'), length (2 bytes, big-endian byte count),
	// followed by that many bytes.
	TagBinaryFinal Tag = 'B'

	// TagBinaryChunk represents a non-final chunk of a binary value split
	// across multiple chunks.
	// Encoding: tag ('b'), length (2 bytes), followed by bytes, then
	// another binary encoding (the remainder).
	TagBinaryChunk Tag = 'b'

	// tagBinaryChunkAlias is accepted on decode as an alternate non-final
	// binary chunk marker (spec's "'A' (0x41)").
	tagBinaryChunkAlias Tag = 'A'

	// TagListVariable represents a list (reference-tracked, optionally
	// typed).
	// Encoding: tag (0x56, 'V'), optional type prefix ('t' + 2-byte
	// length + bytes), length prefix ('n'+1 byte or 'l'+4 bytes), that
	// many elements, terminator 'z'.
	TagListVariable Tag = 'V'

	// TagListRef represents a typed-list back-reference: same type as a
	// previously-seen typed list, with an explicit length and its own
	// fresh elements (it does not itself occupy a new back-reference
	// slot).
	// Encoding: tag ('v'), compact-int type-ref-id, compact-int length,
	// that many elements.
	TagListRef Tag = 'v'

	// tagListType introduces the optional type-name prefix inside a 'V'
	// list.
	tagListType Tag = 't'

	// tagListLenShort introduces a 1-byte list length.
	tagListLenShort Tag = 'n'

	// tagListLenLong introduces a 4-byte list length, on both encode and
	// decode; a 2-byte 'l' length is not accepted (see DESIGN.md
	// open-question #3 for why 4 bytes was chosen uniformly).
	tagListLenLong Tag = 'l'

	// TagUntypedMap represents an untyped key/value map.
	// Encoding: tag (0x48, 'H'), alternating key/value pairs, terminator
	// 'z'.
	TagUntypedMap Tag = 'H'

	// TagTypedMap represents a key/value map carrying a nominal type name.
	// Encoding: tag (0x4d, 'M'), type-name string, alternating key/value
	// pairs, terminator 'z'.
	TagTypedMap Tag = 'M'

	// TagTerminator closes a 'V', 'H', or 'M' composite.
	// Encoding: single byte (0x7a, 'z').
	TagTerminator Tag = 'z'

	// TagObjectDef registers a new class definition and immediately
	// parses the 'o' instance that follows it.
	// Encoding: tag (0x4f, 'O'), class-name string, field-count (compact
	// int), that many field-name strings, then a TagObjectInstance.
	TagObjectDef Tag = 'O'

	// TagObjectInstance represents an instance of a previously (or just
	// now) registered class.
	// Encoding: tag (0x6f, 'o'), compact-int class-def id, one value per
	// declared field, in declaration order.
	TagObjectInstance Tag = 'o'

	// Compact double forms (0x5b-0x5f).
	tagDoubleZero  Tag = 0x5b // 0.0
	tagDoubleOne   Tag = 0x5c // 1.0
	tagDoubleByte  Tag = 0x5d // signed 8-bit integer promoted to double
	tagDoubleShort Tag = 0x5e // signed 16-bit integer promoted to double
	tagDoubleFloat Tag = 0x5f // 32-bit IEEE-754 float widened to double
)

// Compact integer range boundaries (spec.md §4.1/§6).
const (
	oneOctetIntLow   = 0x80
	oneOctetIntHigh  = 0xbf
	oneOctetIntOff   = 0x90
	twoOctetIntLow   = 0xc0
	twoOctetIntHigh  = 0xcf
	twoOctetIntOff   = 0xc8
	threeOctetIntLow  = 0xd0
	threeOctetIntHigh = 0xd7
	threeOctetIntOff  = 0xd4

	// Encoder-produced subrange for the one-octet int form; the decoder
	// tolerates the wider 0x80-0xbf range (values -0x10..0x3f) on receive
	// even though the encoder only ever emits -0x10..0x2f (spec.md §4.1).
	oneOctetIntEncMin = -0x10
	oneOctetIntEncMax = 0x2f

	twoOctetIntMin   = -0x800
	twoOctetIntMax   = 0x7ff
	threeOctetIntMin = -0x40000
	threeOctetIntMax = 0x3ffff
)

// Compact long range boundaries (spec.md §4.1/§6).
const (
	oneOctetLongLow   = 0xd8
	oneOctetLongHigh  = 0xef
	oneOctetLongOff   = 0xe0
	twoOctetLongLow   = 0xf0
	twoOctetLongHigh  = 0xff
	twoOctetLongOff   = 0xf8
	threeOctetLongLow  = 0x38
	threeOctetLongHigh = 0x3f
	threeOctetLongOff  = 0x3c

	oneOctetLongMin   = -0x8
	oneOctetLongMax   = 0xf
	twoOctetLongMin   = -0x800
	twoOctetLongMax   = 0x7ff
	threeOctetLongMin = -0x40000
	threeOctetLongMax = 0x3ffff
)

// Short string/binary range boundaries.
const (
	shortStringLow  = 0x00
	shortStringHigh = 0x1f
	shortStringMax  = 31

	shortBinaryLow  = 0x20
	shortBinaryHigh = 0x2f
	shortBinaryMax  = 15
)

// chunkMaxCodePoints and chunkMaxBytes bound non-final string/binary
// chunks: the 2-byte length prefix tops out at 0xffff.
const (
	chunkMaxCodePoints = 0xffff
	chunkMaxBytes      = 0xffff
)
