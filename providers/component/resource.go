package component

import (
	"errors"
	"fmt"
	"strings"

	"github.com/simflow/simflow/core/config"
	"github.com/simflow/simflow/core/payload"
	"github.com/simflow/simflow/core/sim"
	"github.com/simflow/simflow/providers/runner"
)

// Actions of the built-in Resource kind.
const (
	ActionEnter      = "ENTER"
	ActionExit       = "EXIT"
	ActionProcessing = "PROCESSING"
)

// ErrCapacityRequired is returned when a resource definition lacks a valid
// integer capacity.
var ErrCapacityRequired = errors.New("component: resource requires integer capacity >= 1")

// Resource is the built-in capacity-limited server kind. Each delivered token
// seizes one unit of the server, is serviced (by the component's run hook, or
// a one-tick default), and leaves on the outbound side of the handle it
// arrived on. Tokens beyond the capacity wait FIFO, which is what propagates
// backpressure to upstream components.
type Resource struct {
	*Base

	capacity int
	server   *sim.Resource
}

// NewResource builds a Resource from its definition. The inputData key
// "capacity" is required and must be an integer >= 1.
func NewResource(ctx *Context, def config.Component) (Component, error) {
	capacity, ok := def.InputInt("capacity")
	if !ok {
		return nil, fmt.Errorf("%w: component %q", ErrCapacityRequired, def.ID)
	}
	if capacity < 1 {
		return nil, fmt.Errorf("%w: component %q got %d", ErrCapacityRequired, def.ID, capacity)
	}
	return &Resource{
		Base:     NewBase(ctx, def, "Resource", []string{ActionEnter, ActionExit, ActionProcessing}),
		capacity: capacity,
		server:   sim.NewResource(capacity),
	}, nil
}

// Capacity returns the configured server capacity.
func (r *Resource) Capacity() int {
	return r.capacity
}

// Server returns the underlying scheduler resource.
func (r *Resource) Server() *sim.Resource {
	return r.server
}

// Run services one delivered token: seize a unit, log ENTER, run the service
// step, release on scope exit, log EXIT, then forward the result on the
// outbound side of the arrival handle. A service failure drops the token but
// leaves the capacity accounting intact.
func (r *Resource) Run(proc *sim.Process, input *payload.Container) {
	r.IncRunCalls()
	r.IncInputs()

	var (
		output *payload.Container
		svcErr error
	)
	func() {
		proc.Seize(r.server)
		defer proc.Release(r.server)

		r.LogEvent(ActionEnter, r.counterValues(), input, nil)
		output, svcErr = r.service(proc, input)
	}()

	r.LogEvent(ActionExit, r.counterValues(), input, nil)

	if svcErr != nil || output == nil {
		// Service failures were already reported by the bridge.
		return
	}
	output.TargetHandler = rotateOut(output.TargetHandler)
	r.Forward(output)
}

// service runs the user-configured run hook, or the default one-tick service
// returning the input unchanged.
func (r *Resource) service(proc *sim.Process, input *payload.Container) (*payload.Container, error) {
	output, err := r.Bundle().Run(proc, r, input)
	if errors.Is(err, runner.ErrHookMissing) {
		proc.Timeout(1)
		return input, nil
	}
	return output, err
}

// rotateOut rewrites a "<channel>-<side>" handle id to the outbound side of
// the same channel, so a token that arrived on "jobs-in" leaves on
// "jobs-out". Handles without a dash are returned unchanged.
func rotateOut(handle string) string {
	idx := strings.LastIndexByte(handle, '-')
	if idx < 0 {
		return handle
	}
	return handle[:idx] + "-out"
}
