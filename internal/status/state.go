package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/matheus3301/quill/internal/bus"
)

// State is a daemon connection state.
type State string

const (
	Booting      State = "BOOTING"
	AuthRequired State = "AUTH_REQUIRED"
	Connecting   State = "CONNECTING"
	Syncing      State = "SYNCING"
	Ready        State = "READY"
	Reconnecting State = "RECONNECTING"
	Degraded     State = "DEGRADED"
	Error        State = "ERROR"
)

var transitions = map[State][]State{
	Booting:      {AuthRequired, Connecting, Error},
	AuthRequired: {Connecting, Error},
	Connecting:   {Syncing, AuthRequired, Reconnecting, Error},
	Syncing:      {Ready, Reconnecting, Degraded, Error},
	Ready:        {Reconnecting, Degraded, AuthRequired, Error},
	Reconnecting: {Connecting, Degraded, Error},
	Degraded:     {Connecting, Reconnecting, Ready, Error},
	Error:        {Booting},
}

// Online reports whether the transport can deliver posts in state s.
func (s State) Online() bool {
	return s == Syncing || s == Ready
}

// Change is the payload of bus.KindSessionStatus events.
type Change struct {
	From State
	To   State
	At   time.Time
}

// Machine enforces the transition table and announces every change on the bus.
type Machine struct {
	mu      sync.RWMutex
	current State
	since   time.Time
	bus     *bus.Bus
}

// NewMachine returns a machine in Booting. b may be nil.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: Booting, since: time.Now(), bus: b}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Since returns when the current state was entered.
func (m *Machine) Since() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.since
}

// Online is shorthand for Current().Online().
func (m *Machine) Online() bool {
	return m.Current().Online()
}

// Transition moves to the given state or returns an error when the table forbids it.
// Transitioning to the current state is a no-op.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	from := m.current
	if from == to {
		m.mu.Unlock()
		return nil
	}
	if !slices.Contains(transitions[from], to) {
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	m.current = to
	m.since = time.Now()
	change := Change{From: from, To: to, At: m.since}
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Emit(bus.KindSessionStatus, change)
	}
	return nil
}
