package input

import (
	"go-drumpad/debug"
)

// Machine is the part of the state controller the router drives
type Machine interface {
	Power() bool
	TriggerPad(key string) bool
	PlayPad(key string) bool
	DeactivatePad(key string)
}

// Router turns pad events into machine transitions. Keyboard and MIDI
// presses are gated by power. A pointer press while off still plays the
// sound and shows the name, but leaves the pad inactive. Releases always
// go through so pads can't get stuck.
type Router struct {
	machine Machine
	mounts  []mount
}

type mount struct {
	port  Port
	unsub func()
}

func NewRouter(m Machine) *Router {
	return &Router{machine: m}
}

// Mount subscribes the router to port. Mounting the same port again is a
// no-op. Ports are compared with ==, so they must be comparable (pointers).
// Call Unmount on teardown.
func (r *Router) Mount(port Port) {
	for _, m := range r.mounts {
		if m.port == port {
			return
		}
	}
	r.mounts = append(r.mounts, mount{
		port:  port,
		unsub: port.Subscribe(func(ev Event) { r.Handle(ev) }),
	})
}

// Unmount drops every subscription made by Mount
func (r *Router) Unmount() {
	for _, m := range r.mounts {
		m.unsub()
	}
	r.mounts = nil
}

// Mounted reports whether the router holds any subscription
func (r *Router) Mounted() bool {
	return len(r.mounts) > 0
}

// Handle applies one event. It reports whether a pad's sound was triggered.
func (r *Router) Handle(ev Event) bool {
	switch ev.Action {
	case Press:
		if !r.machine.Power() {
			if ev.Source != Pointer || !r.machine.PlayPad(ev.Key) {
				return false
			}
			debug.Log("input", "%s (power off)", ev)
			return true
		}
		if !r.machine.TriggerPad(ev.Key) {
			return false
		}
		debug.Log("input", "%s", ev)
		return true

	case Release:
		r.machine.DeactivatePad(ev.Key)
	}
	return false
}
