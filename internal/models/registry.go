package models

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownModel = errors.New("models: unknown model")

var registry = map[string]func() Model{
	"pointmass":  func() Model { return NewPointMass(2) },
	"pendulum":   func() Model { return NewPendulum() },
	"cartpole":   func() Model { return NewCartPole() },
	"drone":      func() Model { return NewDrone() },
	"springmass": func() Model { return NewSpringMassChain(3) },
}

// New returns a fresh model with default parameters.
func New(name string) (Model, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return fn(), nil
}

// Names lists the registered models in lexical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
