package midi

import (
	"fmt"
	"sync/atomic"

	"go-drumpad/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ledSendCount is read by padtest to report LED traffic
var ledSendCount uint64

// LEDSendCount returns how many LED messages have been sent
func LEDSendCount() uint64 {
	return atomic.LoadUint64(&ledSendCount)
}

// SysEx bodies sent on connect, without the F0/F7 framing
var launchpadSetup = [][]byte{
	{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x7F},       // programmer mode
	{0x00, 0x20, 0x29, 0x02, 0x0C, 0x08, 0x7F},       // full brightness
	{0x00, 0x20, 0x29, 0x02, 0x0C, 0x0A, 0x01, 0x01}, // external LED feedback
}

// LaunchpadController drives a Novation Launchpad X in programmer mode
type LaunchpadController struct {
	id      string
	outPort drivers.Out
	inPort  drivers.In
	send    func(msg gomidi.Message) error
	stop    func()

	pads  chan PadEvent
	notes chan NoteEvent
}

// NewLaunchpadController switches the device to programmer mode and starts
// listening. Either port may be nil.
func NewLaunchpadController(id string, inPort drivers.In, outPort drivers.Out) (*LaunchpadController, error) {
	lp := &LaunchpadController{
		id:      id,
		inPort:  inPort,
		outPort: outPort,
		pads:    make(chan PadEvent, 32),
		notes:   make(chan NoteEvent, 32),
	}

	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		lp.send = send
		for _, body := range launchpadSetup {
			if err := send(gomidi.SysEx(body)); err != nil {
				debug.Log("midi", "%s setup: %v", id, err)
			}
		}
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, lp.handle)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		lp.stop = stop
	}

	return lp, nil
}

// handle turns grid notes and top strip CCs into pad events. Releases
// arrive as note end (note off or zero velocity) and CC value 0.
func (lp *LaunchpadController) handle(msg gomidi.Message, timestampms int32) {
	var channel, note, velocity, cc, value uint8

	switch {
	case msg.GetNoteStart(&channel, &note, &velocity):
		row, col := noteCell(note)
		lp.emit(row, col, velocity)
	case msg.GetNoteEnd(&channel, &note):
		row, col := noteCell(note)
		lp.emit(row, col, 0)
	case msg.GetControlChange(&channel, &cc, &value):
		row, col := ccCell(cc)
		lp.emit(row, col, value)
	}
}

func (lp *LaunchpadController) emit(row, col int, velocity uint8) {
	if row < 0 {
		return
	}
	select {
	case lp.pads <- PadEvent{Row: row, Col: col, Velocity: velocity}:
	default:
		debug.Log("midi", "pad event dropped %d,%d", row, col)
	}
}

func (lp *LaunchpadController) ID() string           { return lp.id }
func (lp *LaunchpadController) Type() ControllerType { return ControllerLaunchpad }

func (lp *LaunchpadController) PadEvents() <-chan PadEvent { return lp.pads }

// NoteEvents never fires; the grid reports through PadEvents
func (lp *LaunchpadController) NoteEvents() <-chan NoteEvent { return lp.notes }

func (lp *LaunchpadController) SetLEDRGB(row, col int, rgb [3]uint8, channel uint8) error {
	return lp.SetLEDBatch([]LEDUpdate{{Row: row, Col: col, Color: rgb, Channel: channel}})
}

// SetLEDBatch sends one NoteOn per LED. Callers already drop unchanged
// LEDs, so a SysEx frame buys little here.
func (lp *LaunchpadController) SetLEDBatch(updates []LEDUpdate) error {
	if lp.send == nil || len(updates) == 0 {
		return nil
	}

	var firstErr error
	for _, u := range updates {
		err := lp.send(gomidi.NoteOn(u.Channel, gridNote(u.Row, u.Col), nearestColor(u.Color)))
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	atomic.AddUint64(&ledSendCount, uint64(len(updates)))
	debug.LogEvery(50, "midi", "led batch of %d", len(updates))

	return firstErr
}

type paletteEntry struct {
	velocity uint8
	rgb      [3]uint8
}

// Approximate RGB of the Launchpad X palette slots we use
var launchpadPalette = []paletteEntry{
	{0, [3]uint8{0, 0, 0}},
	{5, [3]uint8{255, 0, 0}},
	{6, [3]uint8{255, 80, 80}},
	{7, [3]uint8{180, 60, 60}},
	{9, [3]uint8{255, 100, 0}},
	{11, [3]uint8{180, 80, 40}},
	{13, [3]uint8{255, 200, 0}},
	{17, [3]uint8{0, 180, 0}},
	{19, [3]uint8{0, 100, 0}},
	{21, [3]uint8{0, 255, 0}},
	{37, [3]uint8{0, 200, 200}},
	{43, [3]uint8{40, 60, 120}},
	{45, [3]uint8{0, 100, 255}},
	{47, [3]uint8{80, 150, 255}},
	{49, [3]uint8{150, 0, 200}},
	{53, [3]uint8{255, 80, 180}},
	{78, [3]uint8{100, 100, 255}},
	{84, [3]uint8{255, 150, 50}},
	{87, [3]uint8{150, 255, 100}},
	{97, [3]uint8{180, 180, 60}},
	{119, [3]uint8{255, 255, 255}},
}

// nearestColor picks the palette velocity closest to rgb
func nearestColor(rgb [3]uint8) uint8 {
	best, bestDist := uint8(0), -1
	for _, p := range launchpadPalette {
		dist := 0
		for c := range 3 {
			d := int(rgb[c]) - int(p.rgb[c])
			dist += d * d
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = p.velocity, dist
		}
	}
	return best
}

// Close blanks every LED and stops listening
func (lp *LaunchpadController) Close() error {
	if lp.send != nil {
		var blank []LEDUpdate
		for row := 0; row <= TopRow; row++ {
			for col := 0; col <= 8; col++ {
				if row == TopRow && col == 8 {
					continue // logo, not an LED we address
				}
				blank = append(blank, LEDUpdate{Row: row, Col: col})
			}
		}
		lp.SetLEDBatch(blank)
	}
	if lp.stop != nil {
		lp.stop()
	}
	close(lp.pads)
	close(lp.notes)
	return nil
}
