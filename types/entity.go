package types

// EntityID is the opaque key identifying an entity within its remote
// collection. The server issues globally unique ids (UUIDs), so an EntityID
// alone is sufficient to key the local cache.
type EntityID string

// Entity is the local representation of a single remotely stored record: a
// namespace-qualified id plus a flat field map
type Entity struct {
	Namespace string           `json:"namespace"`
	ID        EntityID         `json:"id"`
	Fields    map[string]Value `json:"fields"`
}

// NewEntity creates an entity with an empty field map
func NewEntity(namespace string, id EntityID) *Entity {
	return &Entity{
		Namespace: namespace,
		ID:        id,
		Fields:    make(map[string]Value),
	}
}

// Clone returns a deep copy of the entity. The update path mutates a clone so
// a failed build never corrupts the cached original.
func (e *Entity) Clone() *Entity {
	fields := make(map[string]Value, len(e.Fields))
	for k, v := range e.Fields {
		fields[k] = v.Clone()
	}
	return &Entity{
		Namespace: e.Namespace,
		ID:        e.ID,
		Fields:    fields,
	}
}

// Set assigns a field value
func (e *Entity) Set(field string, v Value) {
	if e.Fields == nil {
		e.Fields = make(map[string]Value)
	}
	e.Fields[field] = v
}

// Unset removes a field outright. Use Set with a Tombstone to express an
// intentional removal that should reach the server.
func (e *Entity) Unset(field string) {
	delete(e.Fields, field)
}

// Get returns a field value; ok is false when the field is not present
func (e *Entity) Get(field string) (Value, bool) {
	v, ok := e.Fields[field]
	return v, ok
}

// Cost approximates the entity's contribution to the cache budget: the
// number of fields it carries, counting nested list/map elements
func (e *Entity) Cost() uint64 {
	var total uint64
	for _, v := range e.Fields {
		total += valueCost(v)
	}
	if total == 0 {
		total = 1
	}
	return total
}

func valueCost(v Value) uint64 {
	switch v.Kind() {
	case KindList:
		list, _ := v.AsList()
		var total uint64 = 1
		for _, e := range list {
			total += valueCost(e)
		}
		return total
	case KindMap:
		m, _ := v.AsMap()
		var total uint64 = 1
		for _, e := range m {
			total += valueCost(e)
		}
		return total
	default:
		return 1
	}
}

// FieldMapper is the explicit serialization contract between application
// structs and the flat field maps the diff engine operates on. Implementations
// are expected to be generated or hand written per type; the client never uses
// runtime reflection to discover fields.
type FieldMapper interface {
	// ToFields flattens the receiver into a field map. An error here
	// surfaces to the caller as an encoding failure.
	ToFields() (map[string]Value, error)

	// FromFields populates the receiver from a field map
	FromFields(fields map[string]Value) error
}
