// Package builder materialises a simulation from a project directory: it
// loads the three configuration documents (dataState.json, genState.json,
// edge.json), constructs the type registry, the workflow graph, and the
// event log, instantiates every component by dispatching its category
// against a constructor registry, and finally seeds the scheduler with the
// root components and runs it.
//
// Configuration problems — unreadable or unrepairable JSON, a missing
// required field, an unregistered category, a duplicate edge key — are fatal
// and reported before the first event is dispatched.
package builder
