package hessian

import "encoding/json"

// Dump renders v as an indented JSON string for debugging and test
// failure output, grounded on original_source/pyhessian2/proto.py's
// JsonEncoder/HessianObject.representation(), which serializes decoded
// values to JSON for human inspection rather than wire transport.
// Object values are rendered with numeric field positions, since a bare
// Value carries no class registry; use Decoder.Dump on a value obtained
// from that Decoder's Decode call to get field names instead.
func Dump(v Value) (string, error) {
	b, err := json.MarshalIndent(toJSONable(v), "", "  ")
	if err != nil {
		return "", newEncodeError(ErrEncoderTypeUnsupported, "Value", "failed to render debug representation")
	}
	return string(b), nil
}

// Dump renders v as an indented JSON string, resolving Object field names
// through d's class registry (populated by the Decode call that produced
// v). Values from other Decoders or from hand-built Objects with a
// ClassID this Decoder never registered render with numeric positions,
// same as the package-level Dump.
func (d *Decoder) Dump(v Value) (string, error) {
	b, err := json.MarshalIndent(d.toJSONableWithClasses(v), "", "  ")
	if err != nil {
		return "", newEncodeError(ErrEncoderTypeUnsupported, "Value", "failed to render debug representation")
	}
	return string(b), nil
}

func toJSONable(v Value) interface{} {
	return jsonable(v, nil)
}

func (d *Decoder) toJSONableWithClasses(v Value) interface{} {
	return jsonable(v, &d.classes)
}

// jsonable converts a Value tree into plain Go values (map/slice/scalar)
// that encoding/json can render, mirroring HessianObject.representation()'s
// "_class plus attrs" shape for objects.
func jsonable(v Value, classes *classRegistry) interface{} {
	switch val := v.(type) {
	case Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int32(val)
	case Long:
		return int64(val)
	case Double:
		return float64(val)
	case ForcedDouble:
		return float64(val)
	case Date:
		return map[string]interface{}{"_class": "date", "millis": int64(val)}
	case String:
		return string(val)
	case Binary:
		return map[string]interface{}{"_class": "binary", "length": len(val)}
	case *List:
		items := make([]interface{}, len(val.Items))
		for i, item := range val.Items {
			items[i] = jsonable(item, classes)
		}
		if val.Type != "" {
			return map[string]interface{}{"_class": val.Type, "items": items}
		}
		return items
	case *UntypedMap:
		return map[string]interface{}{"_class": "map", "entries": entriesJSONable(val.Entries, classes)}
	case *TypedMap:
		return map[string]interface{}{"_class": val.Type, "entries": entriesJSONable(val.Entries, classes)}
	case *Object:
		return objectJSONable(val, classes)
	case Ref:
		return map[string]interface{}{"_class": "ref", "id": uint32(val)}
	default:
		return nil
	}
}

func entriesJSONable(entries []MapEntry, classes *classRegistry) []interface{} {
	out := make([]interface{}, len(entries))
	for i, e := range entries {
		out[i] = map[string]interface{}{
			"key":   jsonable(e.Key, classes),
			"value": jsonable(e.Value, classes),
		}
	}
	return out
}

func objectJSONable(obj *Object, classes *classRegistry) interface{} {
	if classes != nil {
		if def, err := classes.resolve(obj.ClassID, -1); err == nil && len(def.FieldNames) == len(obj.Fields) {
			attrs := make(map[string]interface{}, len(obj.Fields))
			for i, name := range def.FieldNames {
				attrs[name] = jsonable(obj.Fields[i], classes)
			}
			return map[string]interface{}{"_class": def.ClassName, "attrs": attrs}
		}
	}
	fields := make([]interface{}, len(obj.Fields))
	for i, f := range obj.Fields {
		fields[i] = jsonable(f, classes)
	}
	return map[string]interface{}{"_class_id": obj.ClassID, "fields": fields}
}
