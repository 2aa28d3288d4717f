package component

import (
	"errors"

	"github.com/simflow/simflow/core/config"
	"github.com/simflow/simflow/core/payload"
	"github.com/simflow/simflow/core/sim"
	"github.com/simflow/simflow/providers/runner"
)

// ActionGenerate is the Generator's single action.
const ActionGenerate = "GENERATE"

// Generator is the built-in source kind. Each activation emits containers
// populated with the component's configured payload types, one per virtual
// tick, until the optional gen_count budget is spent.
type Generator struct {
	*Base

	// genCount bounds the number of emissions; unbounded when bounded is
	// false.
	genCount int
	bounded  bool

	generated int
}

// NewGenerator builds a Generator from its definition. The optional
// inputData key "gen_count" bounds the emission count.
func NewGenerator(ctx *Context, def config.Component) (Component, error) {
	gen := &Generator{
		Base: NewBase(ctx, def, "Generator", []string{ActionGenerate}),
	}
	if count, ok := def.InputInt("gen_count"); ok {
		gen.genCount = count
		gen.bounded = true
	}
	return gen, nil
}

// Generated returns the number of containers emitted so far.
func (g *Generator) Generated() int {
	return g.generated
}

// Run emits one container per iteration: suspend a tick, build the payload,
// let the generator hook refine it if configured, log the emission, and hand
// the token onward.
func (g *Generator) Run(proc *sim.Process, _ *payload.Container) {
	remaining := g.genCount
	for !g.bounded || remaining > 0 {
		g.IncRunCalls()
		g.IncInputs()

		proc.Timeout(1)

		output := g.BuildContainer()
		if g.Bundle().Enabled(runner.HookGenerator) {
			refined, err := g.Bundle().GenerateData(proc, g, output)
			switch {
			case err != nil && !errors.Is(err, runner.ErrHookMissing):
				// Already reported by the bridge; emit the unrefined payload.
			case refined != nil:
				output = refined
			}
		}

		g.LogEvent(ActionGenerate, g.counterValues(), output, nil)
		g.Forward(output)
		g.generated++

		if g.bounded {
			remaining--
		}
	}
}
