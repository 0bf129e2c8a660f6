package hessian

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// TestListRoundTrip encodes and decodes an untyped list, comparing the
// decoded tree against the original with go-cmp (grounded on
// creachadair/binpack's marshal_test.go use of cmp.Diff for structural
// comparison of decoded values).
func TestListRoundTrip(t *testing.T) {
	list := &List{Items: []Value{Int(1), Int(2), String("three")}}

	encoded, err := Encode(list)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x56,             // 'V'
		0x6e, 0x03,       // 'n' + length 3
		0x91,             // Int(1)
		0x92,             // Int(2)
		0x05, 't', 'h', 'r', 'e', 'e', // short string "three"
		0x7a, // 'z'
	}, encoded)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	if diff := cmp.Diff(list, decoded); diff != "" {
		t.Errorf("decoded list mismatch (-want +got):\n%s", diff)
	}
}

// TestEncodeIntListScenario pins the spec's concrete scenario for
// encode(List([Int(1), Int(2)])): the 'n'+1-byte short length form, not
// the 'l'+4-byte form.
func TestEncodeIntListScenario(t *testing.T) {
	list := &List{Items: []Value{Int(1), Int(2)}}

	encoded, err := Encode(list)
	require.NoError(t, err)
	require.Equal(t, []byte{0x56, 0x6e, 0x02, 0x91, 0x92, 0x7a}, encoded)
}

// TestLongListUsesFourByteLength checks that a list longer than 255
// elements switches to the 'l'+4-byte length form.
func TestLongListUsesFourByteLength(t *testing.T) {
	items := make([]Value, 256)
	for i := range items {
		items[i] = Int(0)
	}
	list := &List{Items: items}

	encoded, err := Encode(list)
	require.NoError(t, err)
	require.Equal(t, byte(tagListLenLong), encoded[1])
	require.Equal(t, []byte{0x00, 0x00, 0x01, 0x00}, encoded[2:6])

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	gotList, ok := decoded.(*List)
	require.True(t, ok)
	require.Len(t, gotList.Items, 256)
}

// TestListTypeNotEmittedOnEncode checks that a List's Type field is
// dropped on encode (spec.md §4.3 Lists: "the encoder does not emit a type
// prefix"), while decode still tolerates a 't' prefix sent by another
// producer (decode-only tolerance).
func TestListTypeNotEmittedOnEncode(t *testing.T) {
	list := &List{Type: "[int", Items: []Value{Int(1), Int(2)}}

	encoded, err := Encode(list)
	require.NoError(t, err)
	require.Equal(t, []byte{0x56, 0x6e, 0x02, 0x91, 0x92, 0x7a}, encoded)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	gotList, ok := decoded.(*List)
	require.True(t, ok)
	require.Empty(t, gotList.Type)

	// A foreign producer's 't'-prefixed buffer still decodes its type name.
	foreign := []byte{
		0x56,                          // 'V'
		0x74, 0x00, 0x04, '[', 'i', 'n', 't', // 't' + length 4 + "[int"
		0x6e, 0x02, // 'n' + length 2
		0x91, 0x92, // Int(1), Int(2)
		0x7a, // 'z'
	}
	decodedForeign, err := Decode(foreign)
	require.NoError(t, err)
	gotForeign, ok := decodedForeign.(*List)
	require.True(t, ok)
	require.Equal(t, "[int", gotForeign.Type)
	if diff := cmp.Diff(list.Items, gotForeign.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

// TestUntypedMapRoundTrip encodes and decodes an 'H' map.
func TestUntypedMapRoundTrip(t *testing.T) {
	m := &UntypedMap{Entries: []MapEntry{
		{Key: String("a"), Value: Int(1)},
	}}

	encoded, err := Encode(m)
	require.NoError(t, err)
	require.Equal(t, []byte{0x48, 0x01, 'a', 0x91, 0x7a}, encoded)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	if diff := cmp.Diff(m, decoded); diff != "" {
		t.Errorf("decoded map mismatch (-want +got):\n%s", diff)
	}
}

// TestTypedMapPreservesType checks that decoding an 'M' map keeps the type
// label (DESIGN.md open-question #5, unlike the Python source it was
// distilled from).
func TestTypedMapPreservesType(t *testing.T) {
	m := &TypedMap{Type: "com.example.Config", Entries: []MapEntry{
		{Key: String("debug"), Value: Bool(true)},
	}}

	encoded, err := Encode(m)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	gotMap, ok := decoded.(*TypedMap)
	require.True(t, ok)
	require.Equal(t, "com.example.Config", gotMap.Type)
	if diff := cmp.Diff(m.Entries, gotMap.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

// TestObjectRoundTrip registers a class, encodes two instances (checking
// the 'O' definition is only emitted once), and decodes them back.
func TestObjectRoundTrip(t *testing.T) {
	enc := NewEncoder()
	classID := enc.RegisterClass("Foo", []string{"a", "b"})

	obj1 := &Object{ClassID: classID, Fields: []Value{Int(1), String("x")}}
	encoded1, err := enc.Encode(obj1)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x4f,                          // 'O'
		0x03, 'F', 'o', 'o',           // class name "Foo"
		0x92,                          // field count 2
		0x01, 'a',                     // field name "a"
		0x01, 'b',                     // field name "b"
		0x6f, 0x90,                    // 'o' + class id 0
		0x91,                          // field value Int(1)
		0x01, 'x',                     // field value String("x")
	}, encoded1)

	obj2 := &Object{ClassID: classID, Fields: []Value{Int(2), String("y")}}
	encoded2, err := enc.Encode(obj2)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x6f, 0x90, // 'o' + class id 0, no 'O' redefinition
		0x92,
		0x01, 'y',
	}, encoded2)

	dec := NewDecoder()
	decoded1, err := dec.Decode(encoded1)
	require.NoError(t, err)
	gotObj, ok := decoded1.(*Object)
	require.True(t, ok)
	require.Equal(t, 0, gotObj.ClassID)
	if diff := cmp.Diff(obj1.Fields, gotObj.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	dump, err := dec.Dump(decoded1)
	require.NoError(t, err)
	require.Contains(t, dump, `"_class": "Foo"`)
	require.Contains(t, dump, `"a": 1`)
}

// TestFieldCountMismatch checks ErrFieldCountMismatch fires when an
// Object's Fields slice doesn't match its class's declared arity.
func TestFieldCountMismatch(t *testing.T) {
	enc := NewEncoder()
	classID := enc.RegisterClass("Foo", []string{"a", "b"})
	obj := &Object{ClassID: classID, Fields: []Value{Int(1)}}

	_, err := enc.Encode(obj)
	require.Error(t, err)
	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, ErrFieldCountMismatch, ce.Code)
}

// TestSelfReferentialList builds a list containing itself directly (via
// shared pointer identity, not through decode) and checks the encoder
// emits a 'Q' back-reference instead of recursing forever, and that
// decoding it reconstructs the same cycle.
func TestSelfReferentialList(t *testing.T) {
	list := &List{}
	list.Items = []Value{list}

	encoded, err := Encode(list)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x56,
		0x6e, 0x01, // 'n' + length 1
		0x51, 0x90, // 'Q' + ref id 0
		0x7a,
	}, encoded)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	gotList, ok := decoded.(*List)
	require.True(t, ok)
	require.Len(t, gotList.Items, 1)
	require.Same(t, gotList, gotList.Items[0])
}

// TestBackReferenceSharedIdentity checks that encoding the same *List
// pointer twice inside a parent list produces one definition and one
// 'Q' reference, and that decode resolves both to the identical pointer.
func TestBackReferenceSharedIdentity(t *testing.T) {
	shared := &List{Items: []Value{Int(1)}}
	parent := &List{Items: []Value{shared, shared}}

	encoded, err := Encode(parent)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x56, 0x6e, 0x02, // parent: 'V' + 'n' + length 2
		0x56, 0x6e, 0x01, 0x91, 0x7a, // shared list, defined once
		0x51, 0x91, // 'Q' + ref id 1
		0x7a,
	}, encoded)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	gotParent, ok := decoded.(*List)
	require.True(t, ok)
	require.Len(t, gotParent.Items, 2)
	require.Same(t, gotParent.Items[0], gotParent.Items[1])
}

// TestInvalidReference checks that an out-of-range 'Q' id decodes to
// ErrInvalidReference.
func TestInvalidReference(t *testing.T) {
	buf := []byte{0x51, 0x90} // 'Q' ref-id 0, but nothing has been decoded yet
	_, err := Decode(buf)
	require.Error(t, err)
	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, ErrInvalidReference, ce.Code)
}

// TestClassDefMissing checks that an 'o' instance citing an unregistered
// class-def id fails cleanly rather than panicking.
func TestClassDefMissing(t *testing.T) {
	buf := []byte{0x6f, 0x90} // 'o' + class id 0, no 'O' definition ever seen
	_, err := Decode(buf)
	require.Error(t, err)
	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, ErrClassDefMissing, ce.Code)
}

// TestNonFinalChunkAlias checks that WithNonFinalChunkTag switches the
// encoder to the alternate 'R'/'A' markers and that decode still accepts
// them.
func TestNonFinalChunkAlias(t *testing.T) {
	enc := NewEncoder(WithNonFinalChunkTag(byte(tagStringChunkAlias)))
	long := make([]byte, chunkMaxCodePoints+10)
	for i := range long {
		long[i] = 'x'
	}
	encoded, err := enc.Encode(String(long))
	require.NoError(t, err)
	require.Equal(t, byte(tagStringChunkAlias), encoded[0])

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, string(long), string(decoded.(String)))
}
