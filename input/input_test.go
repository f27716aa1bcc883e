package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-drumpad/kit"
	"go-drumpad/machine"
)

func newMachine(t *testing.T) *machine.Machine {
	t.Helper()
	m, err := machine.New(kit.Default(), nil)
	require.NoError(t, err)
	return m
}

func active(m *machine.Machine, key string) bool {
	p, _ := m.Pad(key)
	return p.Active
}

func TestBusSubscribe(t *testing.T) {
	bus := NewBus()
	var got []string
	unsubA := bus.Subscribe(func(ev Event) { got = append(got, "a:"+ev.Key) })
	bus.Subscribe(func(ev Event) { got = append(got, "b:"+ev.Key) })
	assert.Equal(t, 2, bus.Len())

	bus.Publish(Event{Key: "Q"})
	assert.Equal(t, []string{"a:Q", "b:Q"}, got)

	unsubA()
	unsubA() // idempotent
	assert.Equal(t, 1, bus.Len())

	bus.Publish(Event{Key: "W"})
	assert.Equal(t, []string{"a:Q", "b:Q", "b:W"}, got)
}

func TestRouterMountCycles(t *testing.T) {
	bus := NewBus()
	r := NewRouter(newMachine(t))

	for i := 0; i < 5; i++ {
		r.Mount(bus)
		assert.True(t, r.Mounted())
		r.Unmount()
	}
	assert.Equal(t, 0, bus.Len())
	assert.False(t, r.Mounted())
}

func TestRouterKeyboard(t *testing.T) {
	m := newMachine(t)
	bus := NewBus()
	r := NewRouter(m)
	r.Mount(bus)
	defer r.Unmount()

	// power off: ignored
	bus.Publish(Event{Source: Keyboard, Action: Press, Key: "W"})
	assert.False(t, active(m, "W"))
	assert.Equal(t, "", m.Display())

	m.TogglePower()
	bus.Publish(Event{Source: Keyboard, Action: Press, Key: "W"})
	assert.True(t, active(m, "W"))
	assert.Equal(t, "Snare", m.Display())

	bus.Publish(Event{Source: Keyboard, Action: Release, Key: "W"})
	assert.False(t, active(m, "W"))
	assert.Equal(t, "Snare", m.Display())
}

func TestRouterUnmappedIsNoop(t *testing.T) {
	m := newMachine(t)
	m.TogglePower()
	r := NewRouter(m)
	before := m.State()

	assert.False(t, r.Handle(Event{Source: Keyboard, Action: Press, Key: "P"}))
	assert.False(t, r.Handle(Event{Source: Pointer, Action: Release, Key: "P"}))
	assert.Equal(t, before, m.State())
}

func TestRouterReleaseAfterPowerOff(t *testing.T) {
	m := newMachine(t)
	m.TogglePower()
	r := NewRouter(m)

	require.True(t, r.Handle(Event{Source: MIDI, Action: Press, Key: "A"}))
	m.TogglePower()
	m.TogglePower()
	r.Handle(Event{Source: MIDI, Action: Press, Key: "S"})
	m.TogglePower()

	r.Handle(Event{Source: MIDI, Action: Release, Key: "S"})
	assert.False(t, active(m, "S"))
}

func TestRouterSimultaneousPads(t *testing.T) {
	m := newMachine(t)
	m.TogglePower()
	r := NewRouter(m)

	r.Handle(Event{Source: Keyboard, Action: Press, Key: "Q"})
	r.Handle(Event{Source: Pointer, Action: Press, Key: "E"})
	assert.True(t, active(m, "Q"))
	assert.True(t, active(m, "E"))

	r.Handle(Event{Source: Keyboard, Action: Release, Key: "Q"})
	assert.False(t, active(m, "Q"))
	assert.True(t, active(m, "E"))
}

func TestEventString(t *testing.T) {
	assert.Equal(t, `keyboard press "Q"`, Event{Source: Keyboard, Action: Press, Key: "Q"}.String())
	assert.Equal(t, `midi release "C"`, Event{Source: MIDI, Action: Release, Key: "C"}.String())
}

type countingSound struct {
	triggers int
}

func (c *countingSound) Trigger() error {
	c.triggers++
	return nil
}

func (c *countingSound) SetVolume(int) {}

func newCountingMachine(t *testing.T) (*machine.Machine, map[string]*countingSound) {
	t.Helper()
	k := kit.Default()
	counts := make(map[string]*countingSound)
	sounds := make(map[string]machine.Sound)
	for _, p := range k.Pads {
		c := &countingSound{}
		counts[p.Key] = c
		sounds[p.Key] = c
	}
	m, err := machine.New(k, sounds)
	require.NoError(t, err)
	return m, counts
}

func TestRouterPointerPlaysWhileOff(t *testing.T) {
	m, counts := newCountingMachine(t)
	r := NewRouter(m)

	assert.True(t, r.Handle(Event{Source: Pointer, Action: Press, Key: "W"}))
	assert.False(t, m.Power())
	assert.Equal(t, "Snare", m.Display())
	assert.False(t, active(m, "W"))
	assert.Equal(t, 1, counts["W"].triggers)

	// keyboard and midi stay gated
	assert.False(t, r.Handle(Event{Source: Keyboard, Action: Press, Key: "Q"}))
	assert.False(t, r.Handle(Event{Source: MIDI, Action: Press, Key: "Q"}))
	assert.Zero(t, counts["Q"].triggers)
	assert.Equal(t, "Snare", m.Display())

	// unmapped pointer press does nothing
	assert.False(t, r.Handle(Event{Source: Pointer, Action: Press, Key: "P"}))
	assert.Equal(t, "Snare", m.Display())
}

func TestRouterMountTwice(t *testing.T) {
	m, counts := newCountingMachine(t)
	m.TogglePower()
	bus := NewBus()
	r := NewRouter(m)

	r.Mount(bus)
	r.Mount(bus)
	assert.Equal(t, 1, bus.Len())

	bus.Publish(Event{Source: Keyboard, Action: Press, Key: "E"})
	assert.Equal(t, 1, counts["E"].triggers)

	// a second port is a separate mount
	other := NewBus()
	r.Mount(other)
	assert.Equal(t, 1, other.Len())

	r.Unmount()
	assert.Equal(t, 0, bus.Len())
	assert.Equal(t, 0, other.Len())
}
