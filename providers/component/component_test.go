package component

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simflow/simflow/core/config"
	"github.com/simflow/simflow/core/payload"
	"github.com/simflow/simflow/core/sim"
	"github.com/simflow/simflow/patterns/workflow"
	"github.com/simflow/simflow/providers/eventlog"
)

// logRow is the slice of an event log row the scenario tests care about.
type logRow struct {
	time   float64
	comp   string
	action string
}

type fixture struct {
	ctx     *Context
	logPath string
	diag    *logtest.Hook
}

// newFixture wires a context around a fresh environment, a registry carrying
// a "job" type, the given edges, and an event log in a temp dir.
func newFixture(t *testing.T, edges []workflow.Edge) *fixture {
	t.Helper()

	types := payload.NewRegistry()
	job := payload.NewType("job", "gen")
	require.NoError(t, job.CreateAttribute("priority", payload.KindInt, 1))
	require.NoError(t, types.Insert(job))

	graph, err := workflow.New(edges)
	require.NoError(t, err)

	logPath := filepath.Join(t.TempDir(), "run.csv")
	diagLogger, diagHook := logtest.NewNullLogger()
	log, err := eventlog.New(logPath, 0, diagLogger)
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() }) //nolint:errcheck

	ctx := NewContext(sim.NewEnvironment(), types, graph, log, nil, diagLogger)
	return &fixture{ctx: ctx, logPath: logPath, diag: diagHook}
}

func (f *fixture) rows(t *testing.T) []logRow {
	t.Helper()
	require.NoError(t, f.ctx.Log.Flush())

	file, err := os.Open(f.logPath)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)

	rows := make([]logRow, 0, len(records)-1)
	for _, record := range records[1:] {
		at, err := strconv.ParseFloat(record[0], 64)
		require.NoError(t, err)
		rows = append(rows, logRow{time: at, comp: record[1], action: record[3]})
	}
	return rows
}

func filterRows(rows []logRow, comp, action string) []logRow {
	var out []logRow
	for _, row := range rows {
		if row.comp == comp && row.action == action {
			out = append(out, row)
		}
	}
	return out
}

func rowTimes(rows []logRow) []float64 {
	times := make([]float64, len(rows))
	for i, row := range rows {
		times[i] = row.time
	}
	return times
}

func generatorDef(id string, genCount int) config.Component {
	def := config.Component{
		TypeName:  "Generator",
		CompName:  id,
		ID:        id,
		Category:  "generator",
		InputData: map[string]any{},
		GenData:   &config.DataGenerator{Types: []string{"job"}},
	}
	if genCount > 0 {
		def.InputData["gen_count"] = genCount
	}
	return def
}

func resourceDef(id string, capacity int, runFragment string) config.Component {
	return config.Component{
		TypeName:  "Resource",
		CompName:  id,
		ID:        id,
		Category:  "resource",
		InputData: map[string]any{"capacity": capacity},
		Runners:   config.RunnerSet{Run: runFragment},
	}
}

func mustBuild(t *testing.T, f *fixture, build Constructor, def config.Component) Component {
	t.Helper()
	comp, err := build(f.ctx, def)
	require.NoError(t, err)
	require.NoError(t, f.ctx.Components.Add(comp))
	return comp
}

func spawnRoot(f *fixture, comp Component) {
	f.ctx.Env.Spawn(comp.ID(), func(proc *sim.Process) {
		comp.Run(proc, nil)
	})
}

func TestGenerator_EmitsExactlyGenCount(t *testing.T) {
	f := newFixture(t, nil)
	gen := mustBuild(t, f, NewGenerator, generatorDef("gen", 3))

	spawnRoot(f, gen)
	f.ctx.Env.RunUntil(10)

	rows := f.rows(t)
	generates := filterRows(rows, "gen", ActionGenerate)
	assert.Equal(t, []float64{1, 2, 3}, rowTimes(generates))
	assert.Len(t, rows, 3, "no rows besides the three emissions")
	assert.Equal(t, 3, gen.(*Generator).Generated())
}

func TestPipeline_GeneratorFeedsSingleServer(t *testing.T) {
	f := newFixture(t, []workflow.Edge{
		{Source: "gen", SourceHandle: "job-out", Target: "srv", TargetHandle: "job-in", ID: "e1"},
	})
	gen := mustBuild(t, f, NewGenerator, generatorDef("gen", 5))
	srv := mustBuild(t, f, NewResource, resourceDef("srv", 1, ""))

	spawnRoot(f, gen)
	f.ctx.Env.Run()

	rows := f.rows(t)
	generates := filterRows(rows, "gen", ActionGenerate)
	enters := filterRows(rows, "srv", ActionEnter)
	exits := filterRows(rows, "srv", ActionExit)

	assert.Equal(t, []float64{1, 2, 3, 4, 5}, rowTimes(generates))
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, rowTimes(enters))
	assert.Equal(t, []float64{2, 3, 4, 5, 6}, rowTimes(exits))

	for i := 1; i < len(enters); i++ {
		assert.Greater(t, enters[i].time, enters[i-1].time, "enter times strictly monotonic")
	}

	assert.Equal(t, 5, gen.(*Generator).RunCalls())
	assert.Equal(t, 5, srv.(*Resource).RunCalls())
	assert.Equal(t, 5, srv.(*Resource).Inputs())
	assert.Equal(t, 0, srv.(*Resource).Server().InService())
}

func TestResource_CapacityTwoWithThreeTickService(t *testing.T) {
	f := newFixture(t, []workflow.Edge{
		{Source: "gen", SourceHandle: "job-out", Target: "srv", TargetHandle: "job-in", ID: "e1"},
	})
	gen := mustBuild(t, f, NewGenerator, generatorDef("gen", 10))
	mustBuild(t, f, NewResource, resourceDef("srv", 2, "delay(ticks=3)"))

	spawnRoot(f, gen)
	f.ctx.Env.Run()

	rows := f.rows(t)
	enters := filterRows(rows, "srv", ActionEnter)
	assert.Equal(t, []float64{1, 2, 4, 5, 7, 8, 10, 11, 13, 14}, rowTimes(enters))

	// Replaying ENTER/EXIT in log order never exceeds the capacity.
	inService, maxInService := 0, 0
	for _, row := range rows {
		switch row.action {
		case ActionEnter:
			inService++
			if inService > maxInService {
				maxInService = inService
			}
		case ActionExit:
			inService--
		}
	}
	assert.Equal(t, 2, maxInService)
	assert.Equal(t, 0, inService)
	assert.Equal(t, 10, gen.(*Generator).Generated())
}

func TestCycle_TokenCirculatesUntilRunTime(t *testing.T) {
	f := newFixture(t, []workflow.Edge{
		{Source: "gen", SourceHandle: "job-out", Target: "a", TargetHandle: "job-in", ID: "e1"},
		{Source: "a", SourceHandle: "job-out", Target: "b", TargetHandle: "job-in", ID: "e2"},
		{Source: "b", SourceHandle: "job-out", Target: "a", TargetHandle: "job-in", ID: "e3"},
	})
	gen := mustBuild(t, f, NewGenerator, generatorDef("gen", 1))
	mustBuild(t, f, NewResource, resourceDef("a", 1, ""))
	mustBuild(t, f, NewResource, resourceDef("b", 1, ""))

	require.True(t, f.ctx.Graph.HasCycles())

	spawnRoot(f, gen)
	f.ctx.Env.RunUntil(10)

	rows := f.rows(t)
	assert.Equal(t, []float64{1, 3, 5, 7, 9}, rowTimes(filterRows(rows, "a", ActionEnter)))
	assert.Equal(t, []float64{2, 4, 6, 8}, rowTimes(filterRows(rows, "a", ActionExit)))
	assert.Equal(t, []float64{2, 4, 6, 8}, rowTimes(filterRows(rows, "b", ActionEnter)))
	assert.Equal(t, []float64{3, 5, 7, 9}, rowTimes(filterRows(rows, "b", ActionExit)))
	assert.Equal(t, 10.0, f.ctx.Env.Now())
}

func TestForward_MissingRouteDropsToken(t *testing.T) {
	f := newFixture(t, nil)
	gen := mustBuild(t, f, NewGenerator, generatorDef("gen", 1))

	spawnRoot(f, gen)
	f.ctx.Env.Run()

	rows := f.rows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, ActionGenerate, rows[0].action)

	dropped := false
	for _, entry := range f.diag.AllEntries() {
		if entry.Message == "no route for token; dropped" {
			dropped = true
		}
	}
	assert.True(t, dropped, "route-missing diagnostic expected")
}

func TestForward_MultiTypePayloadCannotDeriveHandle(t *testing.T) {
	f := newFixture(t, nil)
	ticket := payload.NewType("ticket", "gen")
	require.NoError(t, f.ctx.Types.Insert(ticket))

	def := generatorDef("gen", 1)
	def.GenData.Types = []string{"job", "ticket"}
	gen := mustBuild(t, f, NewGenerator, def)

	spawnRoot(f, gen)
	f.ctx.Env.Run()

	derived := false
	for _, entry := range f.diag.AllEntries() {
		if entry.Message == "cannot derive output handle for multi-type payload; token dropped" {
			derived = true
		}
	}
	assert.True(t, derived)
}

func TestResource_UserCodeFailureDropsTokenKeepsCapacity(t *testing.T) {
	f := newFixture(t, []workflow.Edge{
		{Source: "gen", SourceHandle: "job-out", Target: "srv", TargetHandle: "job-in", ID: "e1"},
	})
	gen := mustBuild(t, f, NewGenerator, generatorDef("gen", 6))
	srv := mustBuild(t, f, NewResource, resourceDef("srv", 1, "fail_every(n=3)"))

	spawnRoot(f, gen)
	f.ctx.Env.Run()

	rows := f.rows(t)
	assert.Len(t, filterRows(rows, "srv", ActionEnter), 6, "ENTER is always logged")
	assert.Len(t, filterRows(rows, "srv", ActionExit), 6)

	failures := 0
	for _, entry := range f.diag.AllEntries() {
		if entry.Message == "user code failed" {
			failures++
		}
	}
	assert.Equal(t, 2, failures, "calls 3 and 6 fail")

	assert.Equal(t, 6, gen.(*Generator).RunCalls(), "upstream counters untouched by failures")
	assert.Equal(t, 0, srv.(*Resource).Server().InService())
	assert.Equal(t, 0, srv.(*Resource).Server().Queued())
}
