package hessian

// classRegistry tracks class definitions within one top-level decode call.
// Definitions are appended in first-encounter order, giving each class a
// dense 0-based id — the same indexing scheme original_source's
// HessianObjectFactory uses for its objects/object_fields tables.
type classRegistry struct {
	defs []ClassDef
}

// register records a new class definition and returns its id.
func (r *classRegistry) register(def ClassDef) int {
	r.defs = append(r.defs, def)
	return len(r.defs) - 1
}

// resolve looks up a class definition by id, failing with
// ErrClassDefMissing if it has not yet been registered in this call.
func (r *classRegistry) resolve(id int, offset int) (ClassDef, error) {
	if id < 0 || id >= len(r.defs) {
		return ClassDef{}, newDecodeError(ErrClassDefMissing, offset, TagObjectInstance,
			"object instance cites an unregistered class-def id")
	}
	return r.defs[id], nil
}

// classIndex tracks, on the encoder side, which class names have been
// registered via Encoder.RegisterClass, mapping class name to its
// registration-order id. Whether a class's 'O' definition has already been
// emitted is tracked separately, in Encoder.emitted.
type classIndex struct {
	ids   map[string]int
	order []string
}

// indexOf returns the id previously assigned to name and true, or
// (0, false) if name has not been seen yet in this call.
func (c *classIndex) indexOf(name string) (int, bool) {
	if c.ids == nil {
		return 0, false
	}
	id, ok := c.ids[name]
	return id, ok
}

// assign records name as newly seen and returns its fresh id.
func (c *classIndex) assign(name string) int {
	if c.ids == nil {
		c.ids = make(map[string]int)
	}
	id := len(c.order)
	c.ids[name] = id
	c.order = append(c.order, name)
	return id
}
