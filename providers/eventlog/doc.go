// Package eventlog implements the append-only CSV sink a simulation writes
// its event rows to. The column set is fixed; structured cells (values, the
// carried container, additions) are serialised as JSON so downstream tooling
// can parse them back.
//
// The logger serialises concurrent writes with an internal mutex — it is the
// one piece of the engine that may be touched from outside the scheduler,
// e.g. by a shutdown handler. Write failures are reported to the diagnostic
// logger and do not stop the simulation.
package eventlog
