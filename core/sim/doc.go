// Package sim implements a single-threaded discrete-event scheduler over a
// virtual clock, together with the cooperative process model that runs on it.
//
// An Environment owns the clock and a priority queue of pending events ordered
// by (due time, insertion sequence), so events due at the same virtual instant
// fire in the order they were scheduled. Processes are ordinary functions run
// on dedicated goroutines, but the scheduler hands control to at most one of
// them at a time: a process runs until it suspends in Timeout or Seize (or
// finishes), and only then does the next event fire. Every other statement a
// process executes is therefore atomic with respect to all other processes,
// which is what lets the rest of the engine share mutable state without locks.
//
// Resource models a capacity-limited server with a FIFO wait queue. A process
// acquires one unit with Seize and returns it with Release; units a process
// still holds when it ends (normally, or because the run was cut off) are
// released automatically before any sibling process resumes.
//
// Nothing in this package observes wall-clock time.
package sim
