// Package component implements the node runtime of a simulation: the
// Component interface every node satisfies, the Base type that carries the
// shared lifecycle (identity, counters, key-value bag, compiled user hooks,
// event logging, and the token-forwarding protocol), the process-wide
// Registry components are discoverable through, and the two built-in kinds,
// Generator and Resource.
//
// Forwarding hands a token from one component to the next: the emitting side
// is completed (the component's own id, and a default handle derived from a
// single-type payload), the workflow graph resolves the destination, the
// container's routing fields are rewritten to that destination, and the
// destination component's run is spawned as a new scheduler process. A token
// with no resolvable route or destination is dropped and reported to the
// diagnostic logger; the upstream component keeps running.
package component
