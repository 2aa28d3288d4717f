// Package payload defines the typed data that flows through a simulation:
// named attribute schemas (Type), the shared registry of those schemas
// (Registry), and the container that carries type instances from one
// component to the next (Container).
//
// Attribute values are dynamically typed but each carries a declared Kind,
// and every mutation checks the value against the declaration. Because
// configuration arrives as JSON, integer attributes accept whole-number
// float64 values and store them as int64.
package payload
