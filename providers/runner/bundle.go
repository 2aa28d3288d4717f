package runner

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/simflow/simflow/core/config"
	"github.com/simflow/simflow/core/payload"
	"github.com/simflow/simflow/core/sim"
	"github.com/simflow/simflow/internal/utils"
)

// HookKind names the four hook slots of a component.
type HookKind string

const (
	HookRun       HookKind = "run"
	HookGenerator HookKind = "generator"
	HookModel     HookKind = "model"
	HookEvent     HookKind = "event"
)

// Bundle holds a component's compiled hooks. Slots whose fragment was empty,
// malformed, or unknown are simply absent.
type Bundle struct {
	hooks map[HookKind]Hook
	diag  logrus.FieldLogger
}

// Compile resolves a component's runner fragments against the strategy
// registry. A bad fragment disables its slot and is reported; compilation
// itself never fails.
func Compile(set config.RunnerSet, reg *Registry, diag logrus.FieldLogger) *Bundle {
	if diag == nil {
		diag = logrus.StandardLogger()
	}
	bundle := &Bundle{hooks: make(map[HookKind]Hook), diag: diag}
	bundle.compileSlot(HookRun, set.Run, reg)
	bundle.compileSlot(HookGenerator, set.Generator, reg)
	bundle.compileSlot(HookModel, set.Model, reg)
	bundle.compileSlot(HookEvent, set.Event, reg)
	return bundle
}

func (b *Bundle) compileSlot(kind HookKind, fragment string, reg *Registry) {
	if fragment == "" {
		return
	}
	name, args, err := parseFragment(fragment)
	if err != nil {
		b.diag.WithError(err).WithField("hook", string(kind)).
			Warnf("hook disabled: %s", utils.TruncateString(fragment, 80))
		return
	}
	factory, ok := reg.lookup(name)
	if !ok {
		b.diag.WithFields(logrus.Fields{"hook": string(kind), "strategy": name}).
			Warn("hook disabled: unknown strategy")
		return
	}
	hook, err := factory(args)
	if err != nil {
		b.diag.WithError(err).WithFields(logrus.Fields{"hook": string(kind), "strategy": name}).
			Warn("hook disabled: bad arguments")
		return
	}
	b.hooks[kind] = hook
}

// Enabled reports whether the given slot carries a hook.
func (b *Bundle) Enabled(kind HookKind) bool {
	_, ok := b.hooks[kind]
	return ok
}

// Run invokes the "run" hook.
func (b *Bundle) Run(proc *sim.Process, host Host, input *payload.Container) (*payload.Container, error) {
	return b.invoke(HookRun, proc, host, input)
}

// GenerateData invokes the "generator" hook.
func (b *Bundle) GenerateData(proc *sim.Process, host Host, input *payload.Container) (*payload.Container, error) {
	return b.invoke(HookGenerator, proc, host, input)
}

// ProcessModel invokes the "model" hook.
func (b *Bundle) ProcessModel(proc *sim.Process, host Host, input *payload.Container) (*payload.Container, error) {
	return b.invoke(HookModel, proc, host, input)
}

// HandleEvent invokes the "event" hook.
func (b *Bundle) HandleEvent(proc *sim.Process, host Host, input *payload.Container) (*payload.Container, error) {
	return b.invoke(HookEvent, proc, host, input)
}

// invoke runs one hook, isolating the host from whatever the user code does:
// errors and panics are reported and surfaced as ErrUserCode with a nil
// result. Scheduler teardown unwinds are passed through untouched.
func (b *Bundle) invoke(kind HookKind, proc *sim.Process, host Host, input *payload.Container) (result *payload.Container, err error) {
	hook, ok := b.hooks[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHookMissing, kind)
	}

	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		if sim.IsTeardown(recovered) {
			panic(recovered)
		}
		b.diag.WithFields(logrus.Fields{"hook": string(kind), "component": host.ID()}).
			Errorf("user code panicked: %v", recovered)
		result = nil
		err = fmt.Errorf("%w: %s hook panicked: %v", ErrUserCode, kind, recovered)
	}()

	output, hookErr := hook(proc, host, input)
	if hookErr != nil {
		b.diag.WithError(hookErr).WithFields(logrus.Fields{"hook": string(kind), "component": host.ID()}).
			Error("user code failed")
		return nil, fmt.Errorf("%w: %s hook: %v", ErrUserCode, kind, hookErr)
	}
	return output, nil
}
