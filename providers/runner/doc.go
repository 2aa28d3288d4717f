// Package runner is the seam between the engine and user-supplied component
// logic. A component definition carries up to four code fragments — run,
// generator, model, event — and each fragment names a strategy registered in
// a Registry, optionally with arguments: "delay(ticks=2)".
//
// Fragments are validated when a component is built: a malformed or unknown
// fragment disables only that hook and is reported to the diagnostic logger,
// never treated as fatal. At call time a missing hook is surfaced as
// ErrHookMissing so the host component can apply its built-in default, and
// anything a hook panics with or returns as an error is caught, reported,
// and surfaced as ErrUserCode with a nil result.
//
// A hook receives the scheduler process it runs on, so it may suspend with
// Timeout or Seize at any point before returning its output container.
package runner
