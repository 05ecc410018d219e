package workflow

import (
	"fmt"
	"sort"
)

// Builder collects the transition table and produces machines from it
type Builder interface {
	// Configure returns the configuration for transitions leaving state
	Configure(state State) StateConfiguration

	// Build creates a machine positioned at initialState
	Build(initialState State) StateMachine
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration interface {
	// Permit allows trigger to move the machine to toState
	Permit(trigger Trigger, toState State) StateConfiguration
}

type stateConfig struct {
	edges map[Trigger]State
}

type builder struct {
	table map[State]*stateConfig
}

type machine struct {
	current State
	table   map[State]map[Trigger]State
}

// NewBuilder creates an empty transition table
func NewBuilder() Builder {
	return &builder{table: make(map[State]*stateConfig)}
}

func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	cfg, ok := b.table[state]
	if !ok {
		cfg = &stateConfig{edges: make(map[Trigger]State)}
		b.table[state] = cfg
	}
	return cfg
}

// Build copies the table so later Configure calls do not leak into built machines
func (b *builder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	table := make(map[State]map[Trigger]State, len(b.table))
	for from, cfg := range b.table {
		edges := make(map[Trigger]State, len(cfg.edges))
		for trigger, to := range cfg.edges {
			edges[trigger] = to
		}
		table[from] = edges
	}

	return &machine{current: initialState, table: table}
}

func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	if existing, dup := c.edges[trigger]; dup && existing != toState {
		panic(fmt.Sprintf("trigger %s already targets %s", trigger, existing))
	}
	c.edges[trigger] = toState
	return c
}

func (m *machine) State() State {
	return m.current
}

func (m *machine) CanFire(trigger Trigger) bool {
	_, ok := m.table[m.current][trigger]
	return ok
}

func (m *machine) Fire(trigger Trigger) error {
	to, ok := m.table[m.current][trigger]
	if !ok {
		return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = to
	return nil
}

func (m *machine) PermittedTriggers() []Trigger {
	edges := m.table[m.current]
	triggers := make([]Trigger, 0, len(edges))
	for trigger := range edges {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
