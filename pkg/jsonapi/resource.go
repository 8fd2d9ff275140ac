package jsonapi

import (
	"maps"
	"reflect"
)

// Reserved field names on a materialized Resource.
const (
	FieldID   = "id"
	FieldType = "type"
)

// Resource is a materialized resource: id, type, flattened attributes, and
// relationship fields resolved to Resource, []Resource, or nil.
type Resource map[string]any

// NewResource returns a placeholder holding only id and type.
func NewResource(id Identifier) Resource {
	return Resource{FieldID: id.ID, FieldType: id.Type}
}

// ID returns the resource id.
func (r Resource) ID() string {
	s, _ := r[FieldID].(string)
	return s
}

// Type returns the resource type.
func (r Resource) Type() string {
	s, _ := r[FieldType].(string)
	return s
}

// Identifier returns the (type, id) pair of r.
func (r Resource) Identifier() Identifier {
	return Identifier{Type: r.Type(), ID: r.ID()}
}

// Same reports whether r and o are the same instance, not merely equal.
func (r Resource) Same(o Resource) bool {
	if r == nil || o == nil {
		return r == nil && o == nil
	}
	return reflect.ValueOf(r).Pointer() == reflect.ValueOf(o).Pointer()
}

// One returns the to-one relationship field name, or nil.
func (r Resource) One(name string) Resource {
	v, _ := r[name].(Resource)
	return v
}

// Many returns the to-many relationship field name, or nil.
func (r Resource) Many(name string) []Resource {
	v, _ := r[name].([]Resource)
	return v
}

// StringAttr returns the string attribute name, or "".
func (r Resource) StringAttr(name string) string {
	s, _ := r[name].(string)
	return s
}

// Clone returns a shallow copy of r. Relationship fields still point at the
// shared instances.
func (r Resource) Clone() Resource {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Merge returns a shallow copy of r with patch applied on top.
// r itself is left untouched.
func (r Resource) Merge(patch map[string]any) Resource {
	out := make(Resource, len(r)+len(patch))
	maps.Copy(out, r)
	maps.Copy(out, patch)
	return out
}
