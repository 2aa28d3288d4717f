package payload

import (
	"errors"
	"fmt"
)

// ErrPayloadExists is returned when inserting a payload type a container
// already carries.
var ErrPayloadExists = errors.New("payload: container already carries type")

// Container is an in-flight message: one or more payload type instances plus
// the routing fields that steer it through the workflow graph. A container is
// created by a generator (or forwarded by a processing node), travels along
// exactly one edge per hop, and is dropped when no component retains it.
type Container struct {
	// ID is unique within a run. Ids are sequential so identical runs stay
	// byte-identical in the event log.
	ID int64 `json:"containerId"`

	// Data maps type name to the carried instance.
	Data map[string]*Type `json:"data"`

	// TargetComp and TargetHandler address the next hop. Before routing they
	// name the emitting side; the forwarding step rewrites them to the
	// resolved destination pair.
	TargetComp    string `json:"targetComp,omitempty"`
	TargetHandler string `json:"targetHandler,omitempty"`
}

// NewContainer creates an empty container with the given id.
func NewContainer(id int64) *Container {
	return &Container{ID: id, Data: make(map[string]*Type)}
}

// Insert adds one payload instance. Carrying the same type twice is an error.
func (c *Container) Insert(t *Type) error {
	if _, exists := c.Data[t.TypeName]; exists {
		return fmt.Errorf("%w: %q", ErrPayloadExists, t.TypeName)
	}
	c.Data[t.TypeName] = t
	return nil
}

// InsertData adds several payload instances, failing on the first duplicate.
func (c *Container) InsertData(data map[string]*Type) error {
	for name, t := range data {
		if _, exists := c.Data[name]; exists {
			return fmt.Errorf("%w: %q", ErrPayloadExists, name)
		}
		c.Data[name] = t
	}
	return nil
}

// Get returns the carried instance of the named type.
func (c *Container) Get(typeName string) (*Type, bool) {
	t, ok := c.Data[typeName]
	return t, ok
}

// SingleTypeName returns the type name if the container carries exactly one
// payload type. The forwarding step uses it to derive a default output handle.
func (c *Container) SingleTypeName() (string, bool) {
	if len(c.Data) != 1 {
		return "", false
	}
	for name := range c.Data {
		return name, true
	}
	return "", false
}

// SetNextTarget rewrites the routing fields to the resolved destination.
func (c *Container) SetNextTarget(comp, handler string) {
	c.TargetComp = comp
	c.TargetHandler = handler
}
