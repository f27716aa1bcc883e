package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-drumpad/kit"
	"go-drumpad/machine"
	"go-drumpad/midi"
	"go-drumpad/sound"
	"go-drumpad/theme"
)

type fakeController struct {
	id      string
	typ     midi.ControllerType
	pads    chan midi.PadEvent
	notes   chan midi.NoteEvent
	batches [][]midi.LEDUpdate
}

func newFakeController(id string, typ midi.ControllerType) *fakeController {
	return &fakeController{
		id:    id,
		typ:   typ,
		pads:  make(chan midi.PadEvent, 8),
		notes: make(chan midi.NoteEvent, 8),
	}
}

func (f *fakeController) ID() string                                { return f.id }
func (f *fakeController) Type() midi.ControllerType                 { return f.typ }
func (f *fakeController) PadEvents() <-chan midi.PadEvent           { return f.pads }
func (f *fakeController) NoteEvents() <-chan midi.NoteEvent         { return f.notes }
func (f *fakeController) SetLEDRGB(int, int, [3]uint8, uint8) error { return nil }
func (f *fakeController) Close() error                              { return nil }

func (f *fakeController) SetLEDBatch(updates []midi.LEDUpdate) error {
	f.batches = append(f.batches, updates)
	return nil
}

func silentSample() *sound.Sample {
	buf := beep.NewBuffer(beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2})
	buf.Append(beep.Silence(64))
	return &sound.Sample{Source: "silence", Buffer: buf}
}

func newTestModel(t *testing.T, load LoadFunc) (Model, *machine.Machine) {
	t.Helper()
	k := kit.Default()
	sounds := make(map[string]*sound.Controller)
	msounds := make(map[string]machine.Sound)
	for _, p := range k.Pads {
		c := sound.NewController(nil)
		sounds[p.Key] = c
		msounds[p.Key] = c
	}
	mach, err := machine.New(k, msounds)
	require.NoError(t, err)

	m := NewModel(context.Background(), Options{
		Kit:     k,
		Machine: mach,
		Sounds:  sounds,
		Load:    load,
		Hold:    time.Millisecond,
		Repeat:  time.Millisecond,
	})
	return m, mach
}

type countOutput struct {
	mu    sync.Mutex
	plays int
}

func (o *countOutput) Play(beep.Streamer) { o.plays++ }
func (o *countOutput) Lock()              { o.mu.Lock() }
func (o *countOutput) Unlock()            { o.mu.Unlock() }

// newPlayingModel has every sample loaded, playing into a counter
func newPlayingModel(t *testing.T) (Model, *machine.Machine, *countOutput) {
	t.Helper()
	out := &countOutput{}
	k := kit.Default()
	sounds := make(map[string]*sound.Controller)
	msounds := make(map[string]machine.Sound)
	for _, p := range k.Pads {
		c := sound.NewController(out)
		c.Attach(silentSample())
		sounds[p.Key] = c
		msounds[p.Key] = c
	}
	mach, err := machine.New(k, msounds)
	require.NoError(t, err)

	m := NewModel(context.Background(), Options{
		Kit:     k,
		Machine: mach,
		Sounds:  sounds,
		Hold:    time.Millisecond,
		Repeat:  time.Millisecond,
	})
	return m, mach, out
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// drain runs cmd and any batched commands, returning their messages
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, drain(c)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func active(t *testing.T, mach *machine.Machine, key string) bool {
	t.Helper()
	p, ok := mach.Pad(key)
	require.True(t, ok, key)
	return p.Active
}

func regionFor(t *testing.T, m Model, want target) region {
	t.Helper()
	m.View()
	for _, r := range m.bounds.regions {
		if r.target == want {
			return r
		}
	}
	t.Fatalf("no region for %+v", want)
	return region{}
}

func click(r region, action tea.MouseAction) tea.MouseMsg {
	return tea.MouseMsg{X: r.x + r.w/2, Y: r.y + r.h/2, Action: action, Button: tea.MouseButtonLeft}
}

func TestKeyPressAndSynthesizedRelease(t *testing.T) {
	m, mach := newTestModel(t, nil)
	m.Init()
	mach.TogglePower()

	m, cmd := step(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.True(t, active(t, mach, "Q"))
	assert.Equal(t, "Side-Stick", mach.Display())

	for _, msg := range drain(cmd) {
		m, _ = step(t, m, msg)
	}
	assert.False(t, active(t, mach, "Q"))
	assert.Equal(t, "Side-Stick", mach.Display())
}

func TestAutorepeatKeepsPadHeld(t *testing.T) {
	m, mach := newTestModel(t, nil)
	m.Init()
	mach.TogglePower()

	m, first := step(t, m, runes("Q"))
	m, second := step(t, m, runes("q"))

	// the first release is stale once the key repeats
	for _, msg := range drain(first) {
		m, _ = step(t, m, msg)
	}
	assert.True(t, active(t, mach, "Q"))

	for _, msg := range drain(second) {
		m, _ = step(t, m, msg)
	}
	assert.False(t, active(t, mach, "Q"))
}

func TestPowerGatesPads(t *testing.T) {
	m, mach := newTestModel(t, nil)
	m.Init()

	m, _ = step(t, m, runes("w"))
	assert.False(t, active(t, mach, "W"))
	assert.Equal(t, "", mach.Display())

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.True(t, mach.Power())
	assert.Equal(t, machine.WelcomeText, mach.Display())

	m, _ = step(t, m, runes("w"))
	assert.True(t, active(t, mach, "W"))
	assert.Equal(t, "Snare", mach.Display())
}

func TestUnmappedKeyIsIgnored(t *testing.T) {
	m, mach := newTestModel(t, nil)
	m.Init()
	mach.TogglePower()
	before := mach.State()

	_, cmd := step(t, m, runes("k"))
	assert.Nil(t, cmd)
	assert.Equal(t, before, mach.State())
}

func TestVolumeKeys(t *testing.T) {
	m, mach := newTestModel(t, nil)

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 81, mach.Volume())

	m, _ = step(t, m, runes("-"))
	m, _ = step(t, m, runes("-"))
	assert.Equal(t, 79, mach.Volume())

	// volume works while powered off
	assert.False(t, mach.Power())
}

func TestQuitUnmountsRouter(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.Init()
	require.True(t, m.Router().Mounted())

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.False(t, m.Router().Mounted())
	assert.Equal(t, 0, m.Bus().Len())
	assert.Empty(t, m.View())
}

func TestMousePadPressAndRelease(t *testing.T) {
	m, mach := newTestModel(t, nil)
	m.Init()
	mach.TogglePower()

	r := regionFor(t, m, target{kind: targetPad, key: "S"})
	m, _ = step(t, m, click(r, tea.MouseActionPress))
	assert.True(t, active(t, mach, "S"))
	assert.Equal(t, "Clap", mach.Display())

	m, _ = step(t, m, click(r, tea.MouseActionRelease))
	assert.False(t, active(t, mach, "S"))
}

func TestMousePadPlaysWhenOff(t *testing.T) {
	m, mach, out := newPlayingModel(t)
	m.Init()

	r := regionFor(t, m, target{kind: targetPad, key: "S"})
	m, _ = step(t, m, click(r, tea.MouseActionPress))
	assert.False(t, mach.Power())
	assert.False(t, active(t, mach, "S"))
	assert.Equal(t, "Clap", mach.Display())
	assert.Equal(t, 1, out.plays)

	m, _ = step(t, m, click(r, tea.MouseActionRelease))
	assert.False(t, active(t, mach, "S"))

	// keys stay gated
	m, _ = step(t, m, runes("q"))
	assert.Equal(t, "Clap", mach.Display())
	assert.Equal(t, 1, out.plays)
}

func TestKeyReleaseWhileMouseHoldsPad(t *testing.T) {
	m, mach := newTestModel(t, nil)
	m.Init()
	mach.TogglePower()

	r := regionFor(t, m, target{kind: targetPad, key: "S"})
	m, _ = step(t, m, click(r, tea.MouseActionPress))
	m, cmd := step(t, m, runes("s"))
	for _, msg := range drain(cmd) {
		m, _ = step(t, m, msg)
	}
	assert.True(t, active(t, mach, "S"))

	m, _ = step(t, m, click(r, tea.MouseActionRelease))
	assert.False(t, active(t, mach, "S"))
}

func TestMousePowerButton(t *testing.T) {
	m, mach := newTestModel(t, nil)

	r := regionFor(t, m, target{kind: targetPower})
	m, _ = step(t, m, click(r, tea.MouseActionPress))
	assert.True(t, mach.Power())

	m, _ = step(t, m, click(r, tea.MouseActionPress))
	assert.False(t, mach.Power())
}

func TestMouseVolumeHoldRepeats(t *testing.T) {
	m, mach := newTestModel(t, nil)

	r := regionFor(t, m, target{kind: targetVolumeUp})
	m, cmd := step(t, m, click(r, tea.MouseActionPress))
	assert.Equal(t, 81, mach.Volume())

	msgs := drain(cmd)
	require.Len(t, msgs, 1)
	m, cmd = step(t, m, msgs[0])
	assert.Equal(t, 82, mach.Volume())

	pending := drain(cmd)
	m, _ = step(t, m, click(r, tea.MouseActionRelease))
	for _, msg := range pending {
		m, _ = step(t, m, msg)
	}
	assert.Equal(t, 82, mach.Volume())

	down := regionFor(t, m, target{kind: targetVolumeDown})
	m, _ = step(t, m, click(down, tea.MouseActionPress))
	assert.Equal(t, 81, mach.Volume())
}

func TestSampleLoading(t *testing.T) {
	broken := kit.Default().Pads[2].Source // E
	load := func(ctx context.Context, source string) (*sound.Sample, error) {
		if source == broken {
			return nil, errors.New("404")
		}
		return silentSample(), nil
	}
	m, mach := newTestModel(t, load)

	msgs := drain(m.Init())
	require.Len(t, msgs, 9)
	for _, msg := range msgs {
		m, _ = step(t, m, msg)
	}

	assert.Equal(t, statusDegraded, m.status["E"])
	assert.True(t, m.sounds["Q"].Loaded())
	assert.False(t, m.sounds["E"].Loaded())
	assert.Contains(t, m.View(), "samples 8/9")
	assert.Contains(t, m.View(), "silent: E")

	// a failed sample still updates the display
	mach.TogglePower()
	m, _ = step(t, m, runes("e"))
	assert.Equal(t, "Punchy-Kick", mach.Display())
	assert.True(t, active(t, mach, "E"))
}

func TestNoLoaderMarksPadsSilent(t *testing.T) {
	m, _ := newTestModel(t, nil)
	assert.Nil(t, drain(m.Init()))
	assert.Contains(t, m.View(), "samples 0/9")
}

func TestLaunchpadEvents(t *testing.T) {
	m, mach := newTestModel(t, nil)
	m.Init()
	lp := newFakeController("lp", midi.ControllerLaunchpad)

	m, cmd := step(t, m, DeviceEventMsg{Type: midi.DeviceConnected, Controller: lp, ID: "lp"})
	require.NotNil(t, cmd)
	require.Len(t, lp.batches, 1)
	assert.Len(t, lp.batches[0], 12)

	// power button on the top row
	m, _ = step(t, m, padEventMsg{Controller: lp, Event: midi.PadEvent{Row: midi.TopRow, Col: midi.PowerCol, Velocity: 127}})
	assert.True(t, mach.Power())

	// Q sits top-left of the pad block
	m, _ = step(t, m, padEventMsg{Controller: lp, Event: midi.PadEvent{Row: 2, Col: 0, Velocity: 100}})
	assert.True(t, active(t, mach, "Q"))
	m, _ = step(t, m, padEventMsg{Controller: lp, Event: midi.PadEvent{Row: 2, Col: 0}})
	assert.False(t, active(t, mach, "Q"))

	m, _ = step(t, m, padEventMsg{Controller: lp, Event: midi.PadEvent{Row: 0, Col: 2, Velocity: 100}})
	assert.True(t, active(t, mach, "C"))

	m, _ = step(t, m, padEventMsg{Controller: lp, Event: midi.PadEvent{Row: midi.TopRow, Col: midi.VolumeDownCol, Velocity: 127}})
	assert.Equal(t, 79, mach.Volume())

	// outside the pad block
	before := mach.State()
	m, _ = step(t, m, padEventMsg{Controller: lp, Event: midi.PadEvent{Row: 5, Col: 5, Velocity: 100}})
	assert.Equal(t, before, mach.State())

	m, _ = step(t, m, DeviceEventMsg{Type: midi.DeviceDisconnected, ID: "lp"})
	_, cmd = step(t, m, padEventMsg{Controller: lp, Event: midi.PadEvent{Row: 2, Col: 1, Velocity: 100}})
	assert.Nil(t, cmd)
	assert.False(t, active(t, mach, "W"))
}

func TestLaunchpadLEDsFollowState(t *testing.T) {
	m, mach := newTestModel(t, nil)
	m.Init()
	lp := newFakeController("lp", midi.ControllerLaunchpad)
	m, _ = step(t, m, DeviceEventMsg{Type: midi.DeviceConnected, Controller: lp, ID: "lp"})

	mach.TogglePower()
	require.Len(t, lp.batches, 2)
	assert.Len(t, lp.batches[1], 12)

	m, _ = step(t, m, runes("q"))
	require.Len(t, lp.batches, 3)
	require.Len(t, lp.batches[2], 1)
	assert.Equal(t, 2, lp.batches[2][0].Row)
	assert.Equal(t, 0, lp.batches[2][0].Col)
	assert.Equal(t, [3]uint8(m.theme.RGB(0.7)), lp.batches[2][0].Color)

	// volume changes touch no LEDs
	mach.IncreaseVolume()
	assert.Len(t, lp.batches, 3)
}

func TestKeyboardNotes(t *testing.T) {
	m, mach := newTestModel(t, nil)
	m.Init()
	mach.TogglePower()
	kb := newFakeController("kb", midi.ControllerKeyboard)
	m, _ = step(t, m, DeviceEventMsg{Type: midi.DeviceConnected, Controller: kb, ID: "kb"})
	assert.Empty(t, kb.batches)

	m, cmd := step(t, m, noteEventMsg{Controller: kb, Event: midi.NoteEvent{Note: 38, Velocity: 90}})
	require.NotNil(t, cmd)
	assert.True(t, active(t, mach, "W"))
	assert.Equal(t, "Snare", mach.Display())

	m, _ = step(t, m, noteEventMsg{Controller: kb, Event: midi.NoteEvent{Note: 38}})
	assert.False(t, active(t, mach, "W"))

	// unmapped notes are ignored
	before := mach.State()
	m, _ = step(t, m, noteEventMsg{Controller: kb, Event: midi.NoteEvent{Note: 60, Velocity: 90}})
	assert.Equal(t, before, mach.State())
}

func TestListenStopsOnClosedChannel(t *testing.T) {
	kb := newFakeController("kb", midi.ControllerKeyboard)
	close(kb.notes)
	close(kb.pads)
	assert.Nil(t, ListenForNotes(kb)())
	assert.Nil(t, ListenForPads(kb)())
}

func TestViewShowsState(t *testing.T) {
	m, mach := newTestModel(t, nil)
	view := m.View()
	assert.Contains(t, view, "Heater Kit")
	assert.Contains(t, view, "OFF")
	assert.Contains(t, view, "VOL  80")

	mach.TogglePower()
	view = m.View()
	assert.Contains(t, view, "ON")
	assert.Contains(t, view, machine.WelcomeText)
}

func TestPaletteSwapRepaintsLEDs(t *testing.T) {
	m, _ := newTestModel(t, nil)
	lp := newFakeController("lp", midi.ControllerLaunchpad)
	m, _ = step(t, m, DeviceEventMsg{Type: midi.DeviceConnected, Controller: lp, ID: "lp"})
	require.Len(t, lp.batches, 1)

	mono := &theme.Palette{Name: "mono", Colors: []theme.RGB{{0, 0, 0}, {255, 255, 255}}}
	m, _ = step(t, m, PaletteMsg{Palette: mono})
	require.Len(t, lp.batches, 2)
	assert.Len(t, lp.batches[1], 12)
	assert.Equal(t, "mono", m.theme.Palette.Name)
}
