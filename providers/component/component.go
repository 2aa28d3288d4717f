package component

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/simflow/simflow/core/config"
	"github.com/simflow/simflow/core/payload"
	"github.com/simflow/simflow/core/sim"
	"github.com/simflow/simflow/providers/eventlog"
	"github.com/simflow/simflow/providers/kvstore"
	"github.com/simflow/simflow/providers/runner"
)

// Component is a node of the workflow: a cooperative run procedure plus the
// identity the registry and the event log know it by.
type Component interface {
	// ID is the unique component id the graph routes by.
	ID() string

	// Name is the human-readable component name from the definition.
	Name() string

	// Category is the constructor category the component was built from.
	Category() string

	// Run is the component's cooperative process body. It is spawned once
	// per delivered token (or once with a nil input for a root component)
	// and may suspend through proc.
	Run(proc *sim.Process, input *payload.Container)
}

// Constructor builds a component of one category from its definition.
type Constructor func(ctx *Context, def config.Component) (Component, error)

// Base carries the lifecycle shared by every component kind: identity,
// counters, the action vocabulary, the key-value bag seeded from the
// definition's custom inputs, and the compiled user-code bundle.
//
// Base satisfies runner.Host, so user hooks see exactly this surface.
type Base struct {
	ctx      *Context
	def      config.Component
	id       string
	name     string
	category string
	actions  []string
	genList  []string

	runCalls int
	inputs   int

	kv     *kvstore.Store
	bundle *runner.Bundle
}

// NewBase builds the shared part of a component from its definition. A
// definition without an id gets a generated one. The action vocabulary starts
// with the kind's defaults and can be extended with AddAction.
func NewBase(ctx *Context, def config.Component, defaultName string, actions []string) *Base {
	id := def.ID
	if id == "" {
		id = uuid.NewString()
	}
	name := def.CompName
	if name == "" {
		name = defaultName
	}
	var genList []string
	if def.GenData != nil {
		genList = append(genList, def.GenData.Types...)
	}
	return &Base{
		ctx:      ctx,
		def:      def,
		id:       id,
		name:     name,
		category: def.Category,
		actions:  append([]string(nil), actions...),
		genList:  genList,
		kv:       kvstore.New(def.CustomDefaults()),
		bundle:   runner.Compile(def.Runners, ctx.Hooks, ctx.Diag.WithField("component", id)),
	}
}

func (b *Base) ID() string { return b.id }

func (b *Base) Name() string { return b.name }

func (b *Base) Category() string { return b.category }

// Definition returns the configuration the component was built from.
func (b *Base) Definition() config.Component { return b.def }

// KV returns the component's key-value bag.
func (b *Base) KV() *kvstore.Store { return b.kv }

// Types returns the shared payload type registry.
func (b *Base) Types() *payload.Registry { return b.ctx.Types }

// Bundle returns the compiled user-code hooks.
func (b *Base) Bundle() *runner.Bundle { return b.bundle }

// Context returns the simulation context.
func (b *Base) Context() *Context { return b.ctx }

// Actions returns the component's action vocabulary.
func (b *Base) Actions() []string {
	return append([]string(nil), b.actions...)
}

// AddAction extends the action vocabulary.
func (b *Base) AddAction(action string) {
	b.actions = append(b.actions, action)
}

// IncRunCalls bumps the run-invocation counter.
func (b *Base) IncRunCalls() { b.runCalls++ }

// IncInputs bumps the delivered-input counter.
func (b *Base) IncInputs() { b.inputs++ }

// RunCalls returns the number of run invocations so far.
func (b *Base) RunCalls() int { return b.runCalls }

// Inputs returns the number of delivered inputs so far.
func (b *Base) Inputs() int { return b.inputs }

// counterValues is the standard values cell of a lifecycle event row.
func (b *Base) counterValues() map[string]any {
	return map[string]any{
		"input_count": b.inputs,
		"run_count":   b.runCalls,
	}
}

// LogEvent appends a row to the event log, stamped with the current virtual
// time and the component's identity.
func (b *Base) LogEvent(action string, values map[string]any, pdv *payload.Container, addition map[string]any) {
	b.ctx.Log.LogEvent(eventlog.Row{
		Time:          b.ctx.Env.Now(),
		ComponentID:   b.id,
		ComponentType: b.category,
		Action:        action,
		Values:        values,
		PDV:           pdv,
		Addition:      addition,
	})
}

// BuildContainer assembles a fresh container carrying a clone of every
// payload type the component is declared to generate. Unknown type names are
// reported and skipped.
func (b *Base) BuildContainer() *payload.Container {
	container := payload.NewContainer(b.ctx.NextContainerID())
	for _, typeName := range b.genList {
		canonical, ok := b.ctx.Types.Lookup(typeName)
		if !ok {
			b.diag().WithField("type", typeName).Warn("generated type not registered; skipped")
			continue
		}
		if err := container.Insert(canonical.Clone()); err != nil {
			b.diag().WithError(err).WithField("type", typeName).Warn("duplicate generated type; skipped")
		}
	}
	return container
}

// Forward hands a finished token to its successor. The emitting side is
// completed first: an unset target component becomes this component's id, and
// an unset target handle is derived from a single-type payload as
// "<type>-out". The graph then resolves the destination; the container's
// routing fields are rewritten to it and the destination's Run is spawned.
//
// A token that cannot be completed, routed, or delivered is dropped here; the
// condition is reported to the diagnostic logger and the caller continues.
func (b *Base) Forward(output *payload.Container) {
	if output == nil {
		return
	}
	if output.TargetComp == "" {
		output.TargetComp = b.id
	}
	if output.TargetHandler == "" {
		typeName, ok := output.SingleTypeName()
		if !ok {
			b.diag().WithField("container", output.ID).
				Warn("cannot derive output handle for multi-type payload; token dropped")
			return
		}
		output.TargetHandler = typeName + "-out"
	}

	route, ok := b.ctx.Graph.RouteFrom(output.TargetComp, output.TargetHandler)
	if !ok {
		b.diag().WithFields(logrus.Fields{
			"container": output.ID,
			"source":    output.TargetComp,
			"handle":    output.TargetHandler,
		}).Warn("no route for token; dropped")
		return
	}
	output.SetNextTarget(route.Comp, route.Handle)

	dst, ok := b.ctx.Components.Get(route.Comp)
	if !ok {
		b.diag().WithFields(logrus.Fields{
			"container":   output.ID,
			"destination": route.Comp,
		}).Warn("destination component not registered; token dropped")
		return
	}
	b.ctx.Env.Spawn(fmt.Sprintf("%s#%d", dst.ID(), output.ID), func(proc *sim.Process) {
		dst.Run(proc, output)
	})
}

func (b *Base) diag() logrus.FieldLogger {
	return b.ctx.Diag.WithField("component", b.id)
}
