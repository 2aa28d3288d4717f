package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResource_RejectsNonPositiveCapacity(t *testing.T) {
	require.Panics(t, func() { NewResource(0) })
	require.Panics(t, func() { NewResource(-3) })
}

func TestSeize_GrantsImmediatelyWhenFree(t *testing.T) {
	env := NewEnvironment()
	res := NewResource(2)
	var inServiceAtHold int

	env.Spawn("holder", func(proc *Process) {
		proc.Seize(res)
		inServiceAtHold = res.InService()
		proc.Release(res)
	})
	env.Run()

	assert.Equal(t, 1, inServiceAtHold)
	assert.Equal(t, 0, res.InService())
}

func TestSeize_WaitersServedInArrivalOrder(t *testing.T) {
	env := NewEnvironment()
	res := NewResource(1)
	type grant struct {
		name string
		at   float64
	}
	var grants []grant

	for _, name := range []string{"first", "second", "third"} {
		procName := name
		env.Spawn(procName, func(proc *Process) {
			proc.Seize(res)
			grants = append(grants, grant{name: procName, at: proc.Env().Now()})
			proc.Timeout(2)
			proc.Release(res)
		})
	}
	env.Run()

	require.Len(t, grants, 3)
	assert.Equal(t, grant{"first", 0}, grants[0])
	assert.Equal(t, grant{"second", 2}, grants[1])
	assert.Equal(t, grant{"third", 4}, grants[2])
}

func TestSeize_InServiceNeverExceedsCapacity(t *testing.T) {
	env := NewEnvironment()
	res := NewResource(2)
	maxInService := 0

	for i := 0; i < 8; i++ {
		env.Spawn("worker", func(proc *Process) {
			proc.Seize(res)
			if res.InService() > maxInService {
				maxInService = res.InService()
			}
			proc.Timeout(3)
			proc.Release(res)
		})
	}
	env.Run()

	assert.Equal(t, 2, maxInService)
	assert.Equal(t, 0, res.InService())
	assert.Equal(t, 0, res.Queued())
}

func TestRelease_WithoutSeizeIsFatal(t *testing.T) {
	env := NewEnvironment()
	res := NewResource(1)

	env.Spawn("rogue", func(proc *Process) {
		proc.Release(res)
	})

	require.Panics(t, func() { env.Run() })
}

func TestTeardown_ReleasesHeldUnits(t *testing.T) {
	env := NewEnvironment()
	res := NewResource(1)

	env.Spawn("holder", func(proc *Process) {
		proc.Seize(res)
		proc.Timeout(100)
		proc.Release(res)
	})
	env.RunUntil(5)

	assert.Equal(t, 0, res.InService())
}

func TestFinish_ReleasesScopedUnitsBeforeSiblingsResume(t *testing.T) {
	env := NewEnvironment()
	res := NewResource(1)
	var observed []int

	env.Spawn("holder", func(proc *Process) {
		proc.Seize(res)
		proc.Timeout(1)
		// Ends while still holding; the unit must come back automatically.
	})
	env.Spawn("watcher", func(proc *Process) {
		proc.Timeout(1)
		proc.Seize(res)
		observed = append(observed, res.InService())
		proc.Release(res)
	})
	env.Run()

	assert.Equal(t, []int{1}, observed)
	assert.Equal(t, 0, res.InService())
}
