package types

// OpKind identifies a wire-level transaction operation variant
type OpKind string

const (
	// OpUpsert creates an entity or merges the given fields into it.
	// Fields mapped to a tombstone are removed on the server.
	OpUpsert OpKind = "upsert"
	// OpDelete removes the entity and its links
	OpDelete OpKind = "delete"
	// OpLink attaches a labelled edge from the entity to a target entity
	OpLink OpKind = "link"
	// OpUnlink detaches a labelled edge
	OpUnlink OpKind = "unlink"
)

// TransactionOp is one wire-level operation against a single entity.
// Fields is set for upserts; Label/TargetNamespace/TargetID for link and
// unlink; deletes carry only the namespace and id.
type TransactionOp struct {
	Kind            OpKind           `json:"kind"`
	Namespace       string           `json:"namespace"`
	EntityID        EntityID         `json:"entity_id"`
	Fields          map[string]Value `json:"fields,omitempty"`
	Label           string           `json:"label,omitempty"`
	TargetNamespace string           `json:"target_namespace,omitempty"`
	TargetID        EntityID         `json:"target_id,omitempty"`
}

// TransactionChunk groups the operations expressing one intended mutation of
// one entity. It is the unit handed to the transport: chunks apply atomically
// on the server, and chunks for different entities commute.
type TransactionChunk struct {
	Namespace string          `json:"namespace"`
	EntityID  EntityID        `json:"entity_id"`
	Ops       []TransactionOp `json:"ops"`
}

// NewUpsertOp builds an upsert for the given fields
func NewUpsertOp(namespace string, id EntityID, fields map[string]Value) TransactionOp {
	return TransactionOp{
		Kind:      OpUpsert,
		Namespace: namespace,
		EntityID:  id,
		Fields:    fields,
	}
}

// NewDeleteOp builds an entity delete
func NewDeleteOp(namespace string, id EntityID) TransactionOp {
	return TransactionOp{
		Kind:      OpDelete,
		Namespace: namespace,
		EntityID:  id,
	}
}

// NewLinkOp builds a link edge op
func NewLinkOp(namespace string, id EntityID, label, targetNamespace string, targetID EntityID) TransactionOp {
	return TransactionOp{
		Kind:            OpLink,
		Namespace:       namespace,
		EntityID:        id,
		Label:           label,
		TargetNamespace: targetNamespace,
		TargetID:        targetID,
	}
}

// NewUnlinkOp builds an unlink edge op
func NewUnlinkOp(namespace string, id EntityID, label, targetNamespace string, targetID EntityID) TransactionOp {
	return TransactionOp{
		Kind:            OpUnlink,
		Namespace:       namespace,
		EntityID:        id,
		Label:           label,
		TargetNamespace: targetNamespace,
		TargetID:        targetID,
	}
}

// NewChunk wraps ops targeting one entity into a chunk
func NewChunk(namespace string, id EntityID, ops ...TransactionOp) TransactionChunk {
	return TransactionChunk{
		Namespace: namespace,
		EntityID:  id,
		Ops:       ops,
	}
}
