package component

import (
	"github.com/sirupsen/logrus"

	"github.com/simflow/simflow/core/payload"
	"github.com/simflow/simflow/core/sim"
	"github.com/simflow/simflow/patterns/workflow"
	"github.com/simflow/simflow/providers/eventlog"
	"github.com/simflow/simflow/providers/runner"
)

// Context bundles the ambient references every component needs: the
// scheduler, the shared type registry, the workflow graph, the event log, the
// component registry, the user-code strategy registry, and the diagnostic
// logger. It is created once by the builder and handed to each component at
// construction, so there is no initialisation-order dependency on globals.
type Context struct {
	Env        *sim.Environment
	Types      *payload.Registry
	Graph      *workflow.Graph
	Log        *eventlog.Logger
	Components *Registry
	Hooks      *runner.Registry
	Diag       logrus.FieldLogger

	containerSeq int64
}

// NewContext assembles a simulation context. A nil hooks registry falls back
// to the built-in strategies; a nil diagnostic logger falls back to the
// logrus standard logger.
func NewContext(env *sim.Environment, types *payload.Registry, graph *workflow.Graph,
	log *eventlog.Logger, hooks *runner.Registry, diag logrus.FieldLogger) *Context {
	if hooks == nil {
		hooks = runner.DefaultRegistry()
	}
	if diag == nil {
		diag = logrus.StandardLogger()
	}
	return &Context{
		Env:        env,
		Types:      types,
		Graph:      graph,
		Log:        log,
		Components: NewRegistry(),
		Hooks:      hooks,
		Diag:       diag,
	}
}

// NextContainerID returns the next sequential container id. Ids are
// deterministic across identical runs.
func (ctx *Context) NextContainerID() int64 {
	ctx.containerSeq++
	return ctx.containerSeq
}
