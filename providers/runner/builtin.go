package runner

import (
	"fmt"
	"strconv"

	"github.com/simflow/simflow/core/payload"
	"github.com/simflow/simflow/core/sim"
)

// DefaultRegistry returns a registry pre-loaded with the built-in strategies:
//
//	pass                      — return the input unchanged
//	delay(ticks=N)            — suspend N virtual ticks, then return the input
//	count(key=K)              — increment the int64 counter K in the KV bag
//	stamp(type=T, attr=A, value=V)
//	                          — set string attribute A on carried type T
//	fail_every(n=N)           — fail every N-th invocation, otherwise delay 1
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	mustRegister(reg, "pass", passFactory)
	mustRegister(reg, "delay", delayFactory)
	mustRegister(reg, "count", countFactory)
	mustRegister(reg, "stamp", stampFactory)
	mustRegister(reg, "fail_every", failEveryFactory)
	return reg
}

func mustRegister(reg *Registry, name string, factory Factory) {
	if err := reg.Register(name, factory); err != nil {
		panic(err)
	}
}

func passFactory(map[string]string) (Hook, error) {
	return func(_ *sim.Process, _ Host, input *payload.Container) (*payload.Container, error) {
		return input, nil
	}, nil
}

func delayFactory(args map[string]string) (Hook, error) {
	ticks, err := floatArg(args, "ticks", 1)
	if err != nil {
		return nil, err
	}
	if ticks < 0 {
		return nil, fmt.Errorf("runner: delay ticks must not be negative, got %v", ticks)
	}
	return func(proc *sim.Process, _ Host, input *payload.Container) (*payload.Container, error) {
		proc.Timeout(ticks)
		return input, nil
	}, nil
}

func countFactory(args map[string]string) (Hook, error) {
	key, ok := args["key"]
	if !ok || key == "" {
		return nil, fmt.Errorf("runner: count requires a key argument")
	}
	return func(_ *sim.Process, host Host, input *payload.Container) (*payload.Container, error) {
		current, _ := host.KV().Get(key)
		count, _ := current.(int64)
		host.KV().Set(key, count+1)
		return input, nil
	}, nil
}

func stampFactory(args map[string]string) (Hook, error) {
	typeName, attr, value := args["type"], args["attr"], args["value"]
	if typeName == "" || attr == "" {
		return nil, fmt.Errorf("runner: stamp requires type and attr arguments")
	}
	return func(_ *sim.Process, _ Host, input *payload.Container) (*payload.Container, error) {
		if input == nil {
			return nil, fmt.Errorf("stamp: no input container")
		}
		carried, ok := input.Get(typeName)
		if !ok {
			return nil, fmt.Errorf("stamp: container does not carry type %q", typeName)
		}
		if _, exists := carried.Attribute(attr); !exists {
			if err := carried.CreateAttribute(attr, payload.KindString, value); err != nil {
				return nil, err
			}
			return input, nil
		}
		if err := carried.UpdateValue(attr, value); err != nil {
			return nil, err
		}
		return input, nil
	}, nil
}

func failEveryFactory(args map[string]string) (Hook, error) {
	n, err := intArg(args, "n", 0)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("runner: fail_every requires n >= 1")
	}
	calls := 0
	return func(proc *sim.Process, _ Host, input *payload.Container) (*payload.Container, error) {
		calls++
		if calls%n == 0 {
			return nil, fmt.Errorf("scripted failure on call %d", calls)
		}
		proc.Timeout(1)
		return input, nil
	}, nil
}

func intArg(args map[string]string, key string, fallback int) (int, error) {
	raw, ok := args[key]
	if !ok {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("runner: argument %s=%q is not an integer", key, raw)
	}
	return value, nil
}

func floatArg(args map[string]string, key string, fallback float64) (float64, error) {
	raw, ok := args[key]
	if !ok {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("runner: argument %s=%q is not a number", key, raw)
	}
	return value, nil
}
