package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"go-drumpad/kit"
)

type keyMap struct {
	Pads       key.Binding
	Power      key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func newKeyMap(k kit.Kit) keyMap {
	var padKeys []string
	var labels []string
	for i, p := range k.Pads {
		padKeys = append(padKeys, foldedKeys(p.Key)...)
		if _, col := kit.Position(i); i > 0 && col == 0 {
			labels = append(labels, "/")
		}
		labels = append(labels, strings.ToLower(p.Key))
	}

	return keyMap{
		Pads:       key.NewBinding(key.WithKeys(padKeys...), key.WithHelp(strings.Join(labels, ""), "play pads")),
		Power:      key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space/p", "power")),
		VolumeUp:   key.NewBinding(key.WithKeys("up", "+", "="), key.WithHelp("↑/+", "volume up")),
		VolumeDown: key.NewBinding(key.WithKeys("down", "-", "_"), key.WithHelp("↓/-", "volume down")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pads, k.Power, k.VolumeUp, k.VolumeDown, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pads},
		{k.Power, k.VolumeUp, k.VolumeDown},
		{k.Help, k.Quit},
	}
}

// foldedKeys returns the key plus its other-case form, so pads play with
// or without shift
func foldedKeys(k string) []string {
	keys := []string{k}
	for _, alt := range []string{strings.ToLower(k), strings.ToUpper(k)} {
		if alt != k {
			keys = append(keys, alt)
		}
	}
	return keys
}

// padLookup resolves a typed key to a trigger key. Exact matches win over
// case-folded ones.
type padLookup map[string]string

func newPadLookup(k kit.Kit) padLookup {
	lookup := make(padLookup)
	for _, p := range k.Pads {
		lookup[p.Key] = p.Key
	}
	for _, p := range k.Pads {
		for _, alt := range foldedKeys(p.Key) {
			if _, taken := lookup[alt]; !taken {
				lookup[alt] = p.Key
			}
		}
	}
	return lookup
}

func (l padLookup) resolve(typed string) (string, bool) {
	k, ok := l[typed]
	return k, ok
}
