package builder

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/simflow/simflow/core/config"
	"github.com/simflow/simflow/core/payload"
	"github.com/simflow/simflow/core/sim"
	"github.com/simflow/simflow/patterns/workflow"
	"github.com/simflow/simflow/providers/component"
	"github.com/simflow/simflow/providers/eventlog"
	"github.com/simflow/simflow/providers/runner"
)

// Project document file names.
const (
	DataStateFile = "dataState.json"
	GenStateFile  = "genState.json"
	EdgeFile      = "edge.json"
)

// Options parameterises a simulation run.
type Options struct {
	// RunName names the run; the event log is written to
	// <RunPath>/<RunName>.csv.
	RunName string

	// ProjectPath is the directory holding the three config documents.
	ProjectPath string

	// RunPath is the directory the event log is written to.
	RunPath string

	// RunTime bounds the virtual clock; nil runs until the event queue
	// drains.
	RunTime *float64

	// Categories maps component categories to constructors. Nil selects
	// DefaultCategories.
	Categories map[string]component.Constructor

	// Hooks is the user-code strategy registry. Nil selects the built-ins.
	Hooks *runner.Registry

	// Diag receives diagnostics. Nil selects the logrus standard logger.
	Diag logrus.FieldLogger

	// LogBufferSize is the event log write-buffer budget in bytes; zero
	// selects the default.
	LogBufferSize int
}

// DefaultCategories returns the built-in component constructors.
func DefaultCategories() map[string]component.Constructor {
	return map[string]component.Constructor{
		"generator": component.NewGenerator,
		"resource":  component.NewResource,
	}
}

// Builder holds a fully materialised simulation, ready to start.
type Builder struct {
	opts  Options
	runID string

	store config.Store
	types *payload.Registry
	graph *workflow.Graph
	log   *eventlog.Logger
	ctx   *component.Context
	diag  logrus.FieldLogger
}

// New loads the project at opts.ProjectPath and constructs every part of the
// simulation. Any configuration error is returned before a single event is
// dispatched.
func New(opts Options) (*Builder, error) {
	if opts.RunName == "" {
		return nil, fmt.Errorf("builder: run name is required")
	}
	if opts.ProjectPath == "" {
		return nil, fmt.Errorf("builder: project path is required")
	}
	if opts.RunPath == "" {
		return nil, fmt.Errorf("builder: run path is required")
	}
	if opts.Categories == nil {
		opts.Categories = DefaultCategories()
	}
	diag := opts.Diag
	if diag == nil {
		diag = logrus.StandardLogger()
	}

	b := &Builder{
		opts:  opts,
		runID: uuid.NewString(),
		diag:  diag.WithField("run", opts.RunName),
	}

	if err := b.load(); err != nil {
		return nil, err
	}
	if err := b.build(); err != nil {
		b.log.Close() //nolint:errcheck
		return nil, err
	}
	return b, nil
}

// load reads the three documents and constructs the shared state they
// describe, in dependency order: types, graph, logger.
func (b *Builder) load() error {
	store, err := config.LoadStore(filepath.Join(b.opts.ProjectPath, DataStateFile))
	if err != nil {
		return err
	}
	b.store = store

	state, err := config.LoadTypeState(filepath.Join(b.opts.ProjectPath, GenStateFile))
	if err != nil {
		return err
	}
	types, err := buildTypes(state)
	if err != nil {
		return err
	}
	b.types = types

	var edges []workflow.Edge
	if err := config.ReadJSON(filepath.Join(b.opts.ProjectPath, EdgeFile), &edges); err != nil {
		return err
	}
	graph, err := workflow.New(edges)
	if err != nil {
		return err
	}
	b.graph = graph

	logPath := filepath.Join(b.opts.RunPath, b.opts.RunName+".csv")
	log, err := eventlog.New(logPath, b.opts.LogBufferSize, b.diag)
	if err != nil {
		return fmt.Errorf("builder: opening event log: %w", err)
	}
	b.log = log
	return nil
}

// build instantiates every defined component through its category
// constructor and registers it. Component ids are processed in sorted order
// so identical projects build identically.
func (b *Builder) build() error {
	b.ctx = component.NewContext(sim.NewEnvironment(), b.types, b.graph, b.log, b.opts.Hooks, b.diag)

	for _, id := range sortedIDs(b.store) {
		def := b.store[id]
		if def.ID == "" {
			def.ID = id
		}
		construct, ok := b.opts.Categories[def.Category]
		if !ok {
			return fmt.Errorf("builder: component %q has unregistered category %q", def.ID, def.Category)
		}
		comp, err := construct(b.ctx, def)
		if err != nil {
			return fmt.Errorf("builder: constructing component %q: %w", def.ID, err)
		}
		if err := b.ctx.Components.Add(comp); err != nil {
			return err
		}
	}

	// Every graph endpoint must have a component behind it.
	for _, node := range b.graph.Nodes() {
		if _, ok := b.ctx.Components.Get(node); !ok {
			return fmt.Errorf("builder: edge references undefined component %q", node)
		}
	}
	return nil
}

// RunID returns the unique identifier of this run, used in diagnostics.
func (b *Builder) RunID() string { return b.runID }

// Context returns the simulation context.
func (b *Builder) Context() *component.Context { return b.ctx }

// Graph returns the loaded workflow graph.
func (b *Builder) Graph() *workflow.Graph { return b.graph }

// Types returns the shared payload type registry.
func (b *Builder) Types() *payload.Registry { return b.types }

// Logger returns the event log sink.
func (b *Builder) Logger() *eventlog.Logger { return b.log }

// Roots returns the ids of the components the scheduler is seeded with:
// every defined component with no incoming edge, in sorted-id order. A
// component that appears in no edge at all is a root too.
func (b *Builder) Roots() []string {
	var roots []string
	for _, id := range sortedIDs(b.store) {
		if len(b.graph.Incoming(componentGraphID(b.store[id], id))) == 0 {
			roots = append(roots, componentGraphID(b.store[id], id))
		}
	}
	return roots
}

// Start spawns the root components and drives the scheduler until the event
// queue drains or the configured run time is reached, then flushes the event
// log.
func (b *Builder) Start() error {
	roots := b.Roots()
	if len(roots) == 0 {
		return fmt.Errorf("builder: no root components to start")
	}
	for _, id := range roots {
		comp, ok := b.ctx.Components.Get(id)
		if !ok {
			return fmt.Errorf("builder: root component %q not registered", id)
		}
		root := comp
		b.ctx.Env.Spawn(root.ID(), func(proc *sim.Process) {
			root.Run(proc, nil)
		})
	}

	b.diag.WithFields(logrus.Fields{
		"run_id":     b.runID,
		"components": b.ctx.Components.Len(),
		"roots":      len(roots),
	}).Info("simulation starting")

	if b.opts.RunTime != nil {
		b.ctx.Env.RunUntil(*b.opts.RunTime)
	} else {
		b.ctx.Env.Run()
	}

	b.diag.WithField("until", b.ctx.Env.Now()).Info("simulation finished")
	return b.log.Flush()
}

// Close releases the event log. It is safe to call more than once.
func (b *Builder) Close() error {
	if b.log == nil {
		return nil
	}
	return b.log.Close()
}

// buildTypes converts the raw genState document into the shared registry,
// validating that every attribute value matches its declared kind.
func buildTypes(state config.TypeState) (*payload.Registry, error) {
	registry := payload.NewRegistry()

	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := state[name]
		typeName := raw.TypeName
		if typeName == "" {
			typeName = name
		}
		t := payload.NewType(typeName, raw.GenComponentID)
		for attrName, attr := range raw.Attributes {
			kind, err := payload.ParseKind(attr.Type)
			if err != nil {
				return nil, fmt.Errorf("builder: type %q attribute %q: %w", typeName, attrName, err)
			}
			if err := t.CreateAttribute(attrName, kind, attr.Value); err != nil {
				return nil, fmt.Errorf("builder: type %q: %w", typeName, err)
			}
		}
		if err := registry.Insert(t); err != nil {
			return nil, fmt.Errorf("builder: %w", err)
		}
	}
	return registry, nil
}

func sortedIDs(store config.Store) []string {
	ids := make([]string, 0, len(store))
	for id := range store {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// componentGraphID resolves the id a component participates in the graph
// under: the definition's own id, or its store key when the definition omits
// one.
func componentGraphID(def config.Component, storeKey string) string {
	if def.ID != "" {
		return def.ID
	}
	return storeKey
}
