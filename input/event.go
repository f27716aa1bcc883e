package input

import (
	"fmt"
	"slices"
	"sync"
)

// Source says where an event came from
type Source int

const (
	Keyboard Source = iota
	Pointer
	MIDI
)

func (s Source) String() string {
	switch s {
	case Keyboard:
		return "keyboard"
	case Pointer:
		return "pointer"
	case MIDI:
		return "midi"
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// Action is a press or a release
type Action int

const (
	Press Action = iota
	Release
)

func (a Action) String() string {
	if a == Release {
		return "release"
	}
	return "press"
}

// Event is a pad gesture. Key is the trigger key, which may not be mapped.
type Event struct {
	Source Source
	Action Action
	Key    string
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s %q", e.Source, e.Action, e.Key)
}

// Handler receives events from a Port
type Handler func(Event)

// Port is something that produces pad events
type Port interface {
	Subscribe(h Handler) (unsubscribe func())
}

// Bus is a Port that fans published events out to its subscribers
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev to every current subscriber in subscription order
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Len is the number of live subscriptions
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}
