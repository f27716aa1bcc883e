package tui

import (
	"go-drumpad/debug"
	"go-drumpad/kit"
	"go-drumpad/machine"
	"go-drumpad/midi"
	"go-drumpad/theme"
)

type cell [2]int

// ledFrame computes every LED the machine drives
func ledFrame(st machine.State, th *theme.Theme) []midi.LEDUpdate {
	off := [3]uint8{}
	var frame []midi.LEDUpdate

	for i, p := range st.Pads {
		row, col, ok := midi.PadCell(i, len(st.Pads), kit.Columns)
		if !ok {
			continue
		}
		color := off
		switch {
		case p.Active:
			color = th.RGB(theme.RoleActive)
		case st.Power:
			color = th.RGB(theme.RoleIdle)
		}
		frame = append(frame, midi.LEDUpdate{Row: row, Col: col, Color: color})
	}

	power := th.RGB(theme.RoleMuted)
	volume := off
	if st.Power {
		power = th.RGB(theme.RoleSuccess)
		volume = th.RGB(theme.RoleFG)
	}
	frame = append(frame,
		midi.LEDUpdate{Row: midi.TopRow, Col: midi.PowerCol, Color: power},
		midi.LEDUpdate{Row: midi.TopRow, Col: midi.VolumeUpCol, Color: volume},
		midi.LEDUpdate{Row: midi.TopRow, Col: midi.VolumeDownCol, Color: volume},
	)

	return frame
}

// ledSync pushes machine state to connected grid controllers, sending only
// LEDs that changed since the last push.
type ledSync struct {
	theme       *theme.Theme
	controllers map[string]midi.Controller
	last        map[string]map[cell][3]uint8
}

func newLEDSync(th *theme.Theme) *ledSync {
	return &ledSync{
		theme:       th,
		controllers: make(map[string]midi.Controller),
		last:        make(map[string]map[cell][3]uint8),
	}
}

func (l *ledSync) add(c midi.Controller, st machine.State) {
	l.controllers[c.ID()] = c
	l.last[c.ID()] = make(map[cell][3]uint8)
	l.render(st)
}

func (l *ledSync) remove(id string) {
	delete(l.controllers, id)
	delete(l.last, id)
}

// refresh forgets what was sent and pushes a full frame
func (l *ledSync) refresh(st machine.State) {
	for id := range l.last {
		l.last[id] = make(map[cell][3]uint8)
	}
	l.render(st)
}

func (l *ledSync) render(st machine.State) {
	if len(l.controllers) == 0 {
		return
	}

	frame := ledFrame(st, l.theme)
	for id, c := range l.controllers {
		prev := l.last[id]
		var updates []midi.LEDUpdate
		for _, u := range frame {
			k := cell{u.Row, u.Col}
			if old, ok := prev[k]; ok && old == u.Color {
				continue
			}
			updates = append(updates, u)
			prev[k] = u.Color
		}
		if len(updates) == 0 {
			continue
		}
		if err := c.SetLEDBatch(updates); err != nil {
			debug.Log("midi", "led batch %s: %v", id, err)
		}
	}
}
