package payload

import (
	"errors"
	"fmt"
)

// Kind enumerates the attribute value kinds a Type may declare.
type Kind string

const (
	KindString Kind = "str"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindDict   Kind = "dict"
)

var (
	// ErrAttributeNotFound is returned when an update or delete names an
	// attribute the type does not carry.
	ErrAttributeNotFound = errors.New("payload: attribute not found")

	// ErrAttributeExists is returned when creating an attribute that is
	// already declared.
	ErrAttributeExists = errors.New("payload: attribute already exists")

	// ErrKindMismatch is returned when a value does not match the declared
	// kind of its attribute.
	ErrKindMismatch = errors.New("payload: value does not match declared kind")
)

// ParseKind validates a declared kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindString, KindInt, KindFloat, KindBool, KindDict:
		return Kind(s), nil
	}
	return "", fmt.Errorf("payload: unknown attribute kind %q", s)
}

// Attribute is one declared field of a Type: a kind and its current value.
type Attribute struct {
	Kind  Kind `json:"type"`
	Value any  `json:"value"`
}

// Type is a named payload schema: a set of kinded attributes originated by a
// particular component. Instances travel inside containers; the canonical
// definitions live in the shared Registry.
type Type struct {
	TypeName       string               `json:"typeName"`
	GenComponentID string               `json:"genComponentId"`
	Attributes     map[string]Attribute `json:"attributes"`
}

// NewType creates an empty type owned by the given originating component.
func NewType(typeName, genComponentID string) *Type {
	return &Type{
		TypeName:       typeName,
		GenComponentID: genComponentID,
		Attributes:     make(map[string]Attribute),
	}
}

// Attribute returns the named attribute.
func (t *Type) Attribute(name string) (Attribute, bool) {
	attr, ok := t.Attributes[name]
	return attr, ok
}

// Value returns the current value of the named attribute.
func (t *Type) Value(name string) (any, bool) {
	attr, ok := t.Attributes[name]
	if !ok {
		return nil, false
	}
	return attr.Value, true
}

// UpdateValue replaces the value of an existing attribute. The new value must
// match the attribute's declared kind.
func (t *Type) UpdateValue(name string, value any) error {
	attr, ok := t.Attributes[name]
	if !ok {
		return fmt.Errorf("%w: %q on type %q", ErrAttributeNotFound, name, t.TypeName)
	}
	normalized, ok := normalize(attr.Kind, value)
	if !ok {
		return fmt.Errorf("%w: attribute %q of type %q declared %s, got %T",
			ErrKindMismatch, name, t.TypeName, attr.Kind, value)
	}
	attr.Value = normalized
	t.Attributes[name] = attr
	return nil
}

// CreateAttribute declares a new attribute. The initial value must match the
// declared kind, and the name must not already be declared.
func (t *Type) CreateAttribute(name string, kind Kind, value any) error {
	if _, exists := t.Attributes[name]; exists {
		return fmt.Errorf("%w: %q on type %q", ErrAttributeExists, name, t.TypeName)
	}
	normalized, ok := normalize(kind, value)
	if !ok {
		return fmt.Errorf("%w: attribute %q of type %q declared %s, got %T",
			ErrKindMismatch, name, t.TypeName, kind, value)
	}
	t.Attributes[name] = Attribute{Kind: kind, Value: normalized}
	return nil
}

// DeleteAttribute removes an existing attribute.
func (t *Type) DeleteAttribute(name string) error {
	if _, ok := t.Attributes[name]; !ok {
		return fmt.Errorf("%w: %q on type %q", ErrAttributeNotFound, name, t.TypeName)
	}
	delete(t.Attributes, name)
	return nil
}

// Clone returns a deep copy of the type, so a container instance can be
// mutated without touching the registry's canonical definition.
func (t *Type) Clone() *Type {
	clone := &Type{
		TypeName:       t.TypeName,
		GenComponentID: t.GenComponentID,
		Attributes:     make(map[string]Attribute, len(t.Attributes)),
	}
	for name, attr := range t.Attributes {
		clone.Attributes[name] = Attribute{Kind: attr.Kind, Value: cloneValue(attr.Value)}
	}
	return clone
}

// normalize reports whether value matches kind, returning the value in its
// canonical representation. JSON decoding hands every number over as float64,
// so whole-number floats are accepted for int attributes and stored as int64.
func normalize(kind Kind, value any) (any, bool) {
	switch kind {
	case KindString:
		v, ok := value.(string)
		return v, ok
	case KindBool:
		v, ok := value.(bool)
		return v, ok
	case KindInt:
		switch v := value.(type) {
		case int:
			return int64(v), true
		case int64:
			return v, true
		case float64:
			if v == float64(int64(v)) {
				return int64(v), true
			}
		}
		return nil, false
	case KindFloat:
		switch v := value.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
		return nil, false
	case KindDict:
		v, ok := value.(map[string]any)
		return v, ok
	}
	return nil, false
}

// cloneValue deep-copies dict values; scalars are copied by assignment.
func cloneValue(value any) any {
	dict, ok := value.(map[string]any)
	if !ok {
		return value
	}
	copied := make(map[string]any, len(dict))
	for k, v := range dict {
		copied[k] = cloneValue(v)
	}
	return copied
}
