package machine

import (
	"errors"
	"sync"

	"go-drumpad/debug"
	"go-drumpad/kit"
)

const (
	MinVolume     = 0
	MaxVolume     = 100
	DefaultVolume = 80

	// WelcomeText is shown right after power on
	WelcomeText = "Welcome"
)

var ErrNoSound = errors.New("pad has no sound")

// Sound is the playback side of a pad
type Sound interface {
	Trigger() error
	SetVolume(level int)
}

// Pad is the runtime view of a kit pad
type Pad struct {
	Key    string
	Name   string
	Active bool
}

// State is everything the presentation layer needs to draw the machine
type State struct {
	Power   bool
	Volume  int
	Display string
	Pads    []Pad
}

// Machine owns the drum machine state. All transitions are synchronous
// and never fail; sound errors are logged and swallowed.
type Machine struct {
	mu sync.Mutex

	state  State
	index  map[string]int // trigger key -> pad
	sounds []Sound

	listeners []func(State)
}

type Option func(*Machine)

// WithVolume sets the starting volume (clamped)
func WithVolume(v int) Option {
	return func(m *Machine) {
		m.state.Volume = clampVolume(v)
	}
}

// New builds a powered-off machine for k. sounds is keyed by trigger key;
// pads without an entry stay silent. The kit is validated first.
func New(k kit.Kit, sounds map[string]Sound, opts ...Option) (*Machine, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		state: State{
			Volume: DefaultVolume,
			Pads:   make([]Pad, len(k.Pads)),
		},
		index:  k.Index(),
		sounds: make([]Sound, len(k.Pads)),
	}

	for i, p := range k.Pads {
		m.state.Pads[i] = Pad{Key: p.Key, Name: p.Name}
		if s, ok := sounds[p.Key]; ok && s != nil {
			m.sounds[i] = s
		} else {
			m.sounds[i] = silent{}
		}
	}

	for _, opt := range opts {
		opt(m)
	}

	m.propagateVolume(m.state.Volume)

	return m, nil
}

// OnChange registers fn to run after every transition that changes state.
// fn receives a copy and runs outside the machine lock.
func (m *Machine) OnChange(fn func(State)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

func (m *Machine) notify() {
	m.mu.Lock()
	st := m.snapshot()
	listeners := append([]func(State){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
}

// Transitions

// TogglePower flips power. Turning on shows the welcome text; turning off
// clears the display and every active pad.
func (m *Machine) TogglePower() {
	m.mu.Lock()
	m.state.Power = !m.state.Power
	if m.state.Power {
		m.state.Display = WelcomeText
	} else {
		m.state.Display = ""
		for i := range m.state.Pads {
			m.state.Pads[i].Active = false
		}
	}
	power := m.state.Power
	m.mu.Unlock()

	debug.Log("machine", "power %v", power)
	m.notify()
}

// ActivatePad marks the pad active and shows its name. It does nothing
// (and returns false) when power is off or the key is unmapped.
func (m *Machine) ActivatePad(key string) bool {
	m.mu.Lock()
	i, ok := m.index[key]
	if !ok || !m.state.Power {
		m.mu.Unlock()
		return false
	}
	m.state.Pads[i].Active = true
	m.state.Display = m.state.Pads[i].Name
	m.mu.Unlock()

	m.notify()
	return true
}

// TriggerPad activates the pad and restarts its sound
func (m *Machine) TriggerPad(key string) bool {
	if !m.ActivatePad(key) {
		return false
	}

	m.mu.Lock()
	s := m.sounds[m.index[key]]
	m.mu.Unlock()

	if err := s.Trigger(); err != nil {
		debug.Log("sound", "trigger %s: %v", key, err)
	}
	return true
}

// PlayPad shows the pad's name and restarts its sound without touching
// its active flag or checking power. Pointer clicks use it while power is
// off. It returns false for an unmapped key.
func (m *Machine) PlayPad(key string) bool {
	m.mu.Lock()
	i, ok := m.index[key]
	if !ok {
		m.mu.Unlock()
		return false
	}
	m.state.Display = m.state.Pads[i].Name
	s := m.sounds[i]
	m.mu.Unlock()

	m.notify()
	if err := s.Trigger(); err != nil {
		debug.Log("sound", "trigger %s: %v", key, err)
	}
	return true
}

// DeactivatePad clears the pad's active flag whatever the power state,
// so a pad held while power goes off can't stay stuck.
func (m *Machine) DeactivatePad(key string) {
	m.mu.Lock()
	i, ok := m.index[key]
	if !ok {
		m.mu.Unlock()
		return
	}
	changed := m.state.Pads[i].Active
	m.state.Pads[i].Active = false
	m.mu.Unlock()

	if changed {
		m.notify()
	}
}

// IncreaseVolume raises volume by one, stopping at MaxVolume
func (m *Machine) IncreaseVolume() {
	m.SetVolume(m.Volume() + 1)
}

// DecreaseVolume lowers volume by one, stopping at MinVolume
func (m *Machine) DecreaseVolume() {
	m.SetVolume(m.Volume() - 1)
}

// SetVolume clamps level and, if it changed, pushes it to every pad's sound
func (m *Machine) SetVolume(level int) {
	level = clampVolume(level)

	m.mu.Lock()
	if level == m.state.Volume {
		m.mu.Unlock()
		return
	}
	m.state.Volume = level
	m.mu.Unlock()

	m.propagateVolume(level)
	debug.LogEvery(10, "machine", "volume %d", level)
	m.notify()
}

func (m *Machine) propagateVolume(level int) {
	for _, s := range m.sounds {
		s.SetVolume(level)
	}
}

// Queries

// State returns a copy of the current state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *Machine) snapshot() State {
	st := m.state
	st.Pads = append([]Pad(nil), m.state.Pads...)
	return st
}

// Pad looks up a pad by trigger key
func (m *Machine) Pad(key string) (Pad, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.index[key]
	if !ok {
		return Pad{}, false
	}
	return m.state.Pads[i], true
}

func (m *Machine) Power() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Power
}

func (m *Machine) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Volume
}

func (m *Machine) Display() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Display
}

// Keys returns trigger keys in pad order
func (m *Machine) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, len(m.state.Pads))
	for i, p := range m.state.Pads {
		keys[i] = p.Key
	}
	return keys
}

func clampVolume(v int) int {
	if v < MinVolume {
		return MinVolume
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}

type silent struct{}

func (silent) Trigger() error { return ErrNoSound }
func (silent) SetVolume(int)  {}
