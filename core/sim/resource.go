package sim

import "fmt"

// Resource is a capacity-limited server. Processes acquire units through
// Process.Seize and return them through Process.Release; waiters queue FIFO.
// The in-service count never exceeds the capacity.
type Resource struct {
	capacity  int
	inService int
	waiters   []*Process
}

// NewResource creates a resource with the given integer capacity (≥ 1).
func NewResource(capacity int) *Resource {
	if capacity < 1 {
		panic(fmt.Sprintf("sim: resource capacity must be at least 1, got %d", capacity))
	}
	return &Resource{capacity: capacity}
}

// Capacity returns the total number of units.
func (res *Resource) Capacity() int {
	return res.capacity
}

// InService returns the number of units currently seized (or committed to a
// waiter that has been granted but not yet resumed).
func (res *Resource) InService() int {
	return res.inService
}

// Queued returns the number of processes waiting for a unit.
func (res *Resource) Queued() int {
	return len(res.waiters)
}

// handOff returns one unit. If a waiter is queued the unit passes directly to
// the queue head — inService stays constant across the transfer — and the
// waiter is resumed by an event at the current time. Otherwise the unit goes
// back to the pool.
func (res *Resource) handOff(env *Environment) {
	if len(res.waiters) == 0 {
		res.inService--
		return
	}
	head := res.waiters[0]
	res.waiters = res.waiters[1:]
	env.schedule(env.now, func() { env.resume(head, wakeRun) })
}
