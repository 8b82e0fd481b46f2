package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/giftem/giftem/internal/bus"
)

// State is a daemon lifecycle state.
type State string

const (
	Booting  State = "BOOTING"
	Seeding  State = "SEEDING"
	Ready    State = "READY"
	Stopping State = "STOPPING"
	Error    State = "ERROR"
)

var validTransitions = map[State][]State{
	Booting:  {Seeding, Error},
	Seeding:  {Ready, Error},
	Ready:    {Stopping, Error},
	Stopping: {},
	Error:    {Booting, Stopping},
}

// Machine tracks and enforces daemon lifecycle transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	started time.Time
	bus     *bus.Bus
}

// NewMachine creates a machine in the Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		started: time.Now(),
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Uptime is the time since the machine was created.
func (m *Machine) Uptime() time.Duration {
	return time.Since(m.started)
}

// Transition moves to a new state, failing if the move is not allowed.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.bus.Emit(bus.StatusChanged, StatusChange{From: from, To: to})
	return nil
}

// StatusChange is the payload of daemon.status_changed events.
type StatusChange struct {
	From State
	To   State
}
