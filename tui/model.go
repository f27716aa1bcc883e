package tui

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-drumpad/debug"
	"go-drumpad/input"
	"go-drumpad/kit"
	"go-drumpad/machine"
	"go-drumpad/midi"
	"go-drumpad/sound"
	"go-drumpad/theme"
	"go-drumpad/widgets"
)

// LoadFunc fetches and decodes one sample
type LoadFunc func(ctx context.Context, source string) (*sound.Sample, error)

type loadStatus int

const (
	statusLoading loadStatus = iota
	statusReady
	statusDegraded
)

// Options configures a Model
type Options struct {
	Kit       kit.Kit
	Machine   *machine.Machine
	Sounds    map[string]*sound.Controller // keyed by trigger key
	Load      LoadFunc                     // nil leaves every pad silent
	DeviceMgr *midi.DeviceManager          // nil disables MIDI
	Theme     *theme.Theme

	Hold   time.Duration // release delay for keys that report no key-up
	Repeat time.Duration // volume repeat while a button is held
}

type Model struct {
	ctx       context.Context
	kit       kit.Kit
	machine   *machine.Machine
	router    *input.Router
	bus       *input.Bus
	sounds    map[string]*sound.Controller
	load      LoadFunc
	deviceMgr *midi.DeviceManager
	theme     *theme.Theme
	hold      time.Duration
	repeat    time.Duration

	keys    keyMap
	lookup  padLookup
	notes   map[uint8]string
	help    help.Model
	bounds  *layoutBounds
	leds    *ledSync
	status  map[string]loadStatus
	presses map[string]int // latest press per key, for synthesized releases

	pointerKey string // pad held by the mouse button
	volumeDir  int    // +1/-1 while a volume button is held
	holdSeq    int

	controllers map[string]midi.Controller
	quitting    bool
}

// Messages

type sampleLoadedMsg struct {
	Key    string
	Sample *sound.Sample
	Err    error
}

type releaseMsg struct {
	Source input.Source
	Key    string
	Seq    int
}

type repeatMsg struct {
	Seq int
}

type DeviceEventMsg midi.DeviceEvent

// PaletteMsg swaps the palette while running
type PaletteMsg struct {
	Palette *theme.Palette
}

type padEventMsg struct {
	Controller midi.Controller
	Event      midi.PadEvent
}

type noteEventMsg struct {
	Controller midi.Controller
	Event      midi.NoteEvent
}

func NewModel(ctx context.Context, opts Options) Model {
	if opts.Hold <= 0 {
		opts.Hold = 150 * time.Millisecond
	}
	if opts.Repeat <= 0 {
		opts.Repeat = 60 * time.Millisecond
	}
	if opts.Theme == nil {
		opts.Theme = theme.New(theme.Default())
	}

	bus := input.NewBus()
	m := Model{
		ctx:         ctx,
		kit:         opts.Kit,
		machine:     opts.Machine,
		router:      input.NewRouter(opts.Machine),
		bus:         bus,
		sounds:      opts.Sounds,
		load:        opts.Load,
		deviceMgr:   opts.DeviceMgr,
		theme:       opts.Theme,
		hold:        opts.Hold,
		repeat:      opts.Repeat,
		keys:        newKeyMap(opts.Kit),
		lookup:      newPadLookup(opts.Kit),
		notes:       opts.Kit.NoteIndex(),
		help:        help.New(),
		bounds:      &layoutBounds{},
		leds:        newLEDSync(opts.Theme),
		status:      make(map[string]loadStatus),
		presses:     make(map[string]int),
		controllers: make(map[string]midi.Controller),
	}

	for _, p := range opts.Kit.Pads {
		m.status[p.Key] = statusLoading
		if m.load == nil {
			m.status[p.Key] = statusDegraded
		}
	}

	m.styleHelp()
	m.machine.OnChange(m.leds.render)

	return m
}

func (m *Model) styleHelp() {
	m.help.Styles.ShortKey = lipgloss.NewStyle().Foreground(m.theme.FG())
	m.help.Styles.ShortDesc = lipgloss.NewStyle().Foreground(m.theme.Muted())
	m.help.Styles.ShortSeparator = m.help.Styles.ShortDesc
	m.help.Styles.FullKey = m.help.Styles.ShortKey
	m.help.Styles.FullDesc = m.help.Styles.ShortDesc
	m.help.Styles.FullSeparator = m.help.Styles.ShortDesc
}

// Bus is the input port the router listens on
func (m Model) Bus() *input.Bus {
	return m.bus
}

// Router is exposed so the program can unmount it on exit
func (m Model) Router() *input.Router {
	return m.router
}

func LoadSample(ctx context.Context, load LoadFunc, key, source string) tea.Cmd {
	return func() tea.Msg {
		s, err := load(ctx, source)
		return sampleLoadedMsg{Key: key, Sample: s, Err: err}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func ListenForPads(c midi.Controller) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-c.PadEvents()
		if !ok {
			return nil
		}
		return padEventMsg{Controller: c, Event: ev}
	}
}

func ListenForNotes(c midi.Controller) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-c.NoteEvents()
		if !ok {
			return nil
		}
		return noteEventMsg{Controller: c, Event: ev}
	}
}

func (m Model) Init() tea.Cmd {
	m.router.Mount(m.bus)

	var cmds []tea.Cmd
	if m.load != nil {
		for _, p := range m.kit.Pads {
			cmds = append(cmds, LoadSample(m.ctx, m.load, p.Key, p.Source))
		}
	}
	if m.deviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.deviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case releaseMsg:
		// a mouse button still holding the pad outlasts the key
		if msg.Source == input.Keyboard && m.pointerKey == msg.Key {
			break
		}
		if m.presses[msg.Key] == msg.Seq {
			m.bus.Publish(input.Event{Source: msg.Source, Action: input.Release, Key: msg.Key})
		}

	case repeatMsg:
		if msg.Seq == m.holdSeq && m.volumeDir != 0 {
			m.stepVolume(m.volumeDir)
			return m, m.scheduleRepeat(m.repeat)
		}

	case sampleLoadedMsg:
		if msg.Err != nil {
			m.status[msg.Key] = statusDegraded
			debug.Log("sound", "load %s: %v", msg.Key, msg.Err)
			break
		}
		c, ok := m.sounds[msg.Key]
		if !ok {
			m.status[msg.Key] = statusDegraded
			break
		}
		c.Attach(msg.Sample)
		m.status[msg.Key] = statusReady
		debug.Log("sound", "loaded %s (%s)", msg.Key, msg.Sample.Duration())

	case DeviceEventMsg:
		return m.handleDevice(midi.DeviceEvent(msg))

	case PaletteMsg:
		m.theme.Palette = msg.Palette
		m.styleHelp()
		m.leds.refresh(m.machine.State())

	case padEventMsg:
		if _, live := m.controllers[msg.Controller.ID()]; !live {
			return m, nil
		}
		m.handlePad(msg.Event)
		return m, ListenForPads(msg.Controller)

	case noteEventMsg:
		if _, live := m.controllers[msg.Controller.ID()]; !live {
			return m, nil
		}
		if k, ok := m.notes[msg.Event.Note]; ok {
			action := input.Release
			if msg.Event.Pressed() {
				action = input.Press
			}
			m.bus.Publish(input.Event{Source: input.MIDI, Action: action, Key: k})
		}
		return m, ListenForNotes(msg.Controller)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Pads) {
		if k, ok := m.lookup.resolve(msg.String()); ok {
			return m, m.press(input.Keyboard, k)
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.router.Unmount()
		for _, c := range m.sounds {
			c.Stop()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Power):
		m.machine.TogglePower()

	case key.Matches(msg, m.keys.VolumeUp):
		m.stepVolume(1)

	case key.Matches(msg, m.keys.VolumeDown):
		m.stepVolume(-1)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

// press publishes a press and schedules its release. Terminals report no
// key-up, so a key counts as held until Hold passes without a repeat.
func (m *Model) press(src input.Source, k string) tea.Cmd {
	m.bus.Publish(input.Event{Source: src, Action: input.Press, Key: k})

	m.presses[k]++
	seq := m.presses[k]
	return tea.Tick(m.hold, func(time.Time) tea.Msg {
		return releaseMsg{Source: src, Key: k, Seq: seq}
	})
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		t, ok := m.hitTest(msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		switch t.kind {
		case targetPad:
			// held until the button comes up
			m.pointerKey = t.key
			m.presses[t.key]++
			m.bus.Publish(input.Event{Source: input.Pointer, Action: input.Press, Key: t.key})
		case targetPower:
			m.machine.TogglePower()
		case targetVolumeUp, targetVolumeDown:
			m.volumeDir = 1
			if t.kind == targetVolumeDown {
				m.volumeDir = -1
			}
			m.stepVolume(m.volumeDir)
			m.holdSeq++
			// first repeat waits a little longer, like key autorepeat
			return m, m.scheduleRepeat(4 * m.repeat)
		}

	case tea.MouseActionRelease:
		if m.pointerKey != "" {
			m.bus.Publish(input.Event{Source: input.Pointer, Action: input.Release, Key: m.pointerKey})
			m.pointerKey = ""
		}
		m.volumeDir = 0
	}

	return m, nil
}

func (m *Model) scheduleRepeat(d time.Duration) tea.Cmd {
	seq := m.holdSeq
	return tea.Tick(d, func(time.Time) tea.Msg {
		return repeatMsg{Seq: seq}
	})
}

func (m *Model) stepVolume(dir int) {
	if dir > 0 {
		m.machine.IncreaseVolume()
	} else {
		m.machine.DecreaseVolume()
	}
}

func (m Model) handleDevice(event midi.DeviceEvent) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.deviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.deviceMgr))
	}

	switch event.Type {
	case midi.DeviceConnected:
		c := event.Controller
		m.controllers[c.ID()] = c
		debug.Log("tui", "attached %s (%s)", c.ID(), c.Type())
		switch c.Type() {
		case midi.ControllerLaunchpad:
			m.leds.add(c, m.machine.State())
			cmds = append(cmds, ListenForPads(c))
		case midi.ControllerKeyboard:
			cmds = append(cmds, ListenForNotes(c))
		}

	case midi.DeviceDisconnected:
		delete(m.controllers, event.ID)
		m.leds.remove(event.ID)
		debug.Log("tui", "detached %s", event.ID)
	}

	return m, tea.Batch(cmds...)
}

// handlePad maps a Launchpad button to a pad or control
func (m *Model) handlePad(ev midi.PadEvent) {
	if ev.Row == midi.TopRow {
		if !ev.Pressed() {
			return
		}
		switch ev.Col {
		case midi.VolumeUpCol:
			m.stepVolume(1)
		case midi.VolumeDownCol:
			m.stepVolume(-1)
		case midi.PowerCol:
			m.machine.TogglePower()
		}
		return
	}

	i, ok := midi.CellPad(ev.Row, ev.Col, len(m.kit.Pads), kit.Columns)
	if !ok {
		return
	}
	action := input.Release
	if ev.Pressed() {
		action = input.Press
	}
	m.bus.Publish(input.Event{Source: input.MIDI, Action: action, Key: m.kit.Pads[i].Key})
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.machine.State()
	th := m.theme

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())

	deviceStatus := ""
	for _, id := range slices.Sorted(maps.Keys(m.controllers)) {
		if m.controllers[id].Type() == midi.ControllerLaunchpad {
			deviceStatus += "  LP:X"
		} else {
			deviceStatus += "  KEYS"
		}
	}

	header := headerStyle.Render(fmt.Sprintf("go-drumpad  %s", m.kit.Name)) + dimStyle.Render(deviceStatus)

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")

	m.bounds.reset()

	controls, regions := m.renderControls(st)
	top := strings.Count(out.String(), "\n")
	m.bounds.addAll(regions, 0, top)
	out.WriteString(controls)
	out.WriteString("\n\n")

	grid := m.renderPads(st)
	top = strings.Count(out.String(), "\n")
	for i, p := range m.kit.Pads {
		x, y := widgets.PadOrigin(i, kit.Columns)
		m.bounds.add(region{x: x, y: top + y, w: widgets.PadWidth, h: widgets.PadHeight, target: target{kind: targetPad, key: p.Key}})
	}
	out.WriteString(grid)
	out.WriteString("\n\n")

	out.WriteString(m.renderStatus())
	out.WriteString("\n")
	out.WriteString(m.help.View(m.keys))

	return out.String()
}

// renderControls draws display, power and volume side by side and returns
// clickable regions relative to the row's top-left corner
func (m Model) renderControls(st machine.State) (string, []region) {
	th := m.theme

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.Muted()).
		Padding(0, 1)

	display := box.
		Width(18).
		Foreground(th.Success()).
		Render(st.Display)

	powerLabel := fmt.Sprintf("%c OFF", th.Symbols.Power)
	powerStyle := box.Foreground(th.Muted())
	if st.Power {
		powerLabel = fmt.Sprintf("%c ON ", th.Symbols.Power)
		powerStyle = box.Foreground(th.Success()).BorderForeground(th.Success())
	}
	power := powerStyle.Render(powerLabel)

	btn := box.Foreground(th.FG())
	down := btn.Render("-")
	level := box.BorderForeground(th.Surface()).Foreground(th.FG()).Render(fmt.Sprintf("VOL %3d", st.Volume))
	up := btn.Render("+")

	parts := []string{display, power, down, level, up}
	targets := []targetKind{targetNone, targetPower, targetVolumeDown, targetNone, targetVolumeUp}

	var regions []region
	var joined []string
	x := 0
	for i, p := range parts {
		if i > 0 {
			joined = append(joined, " ")
			x++
		}
		w, h := lipgloss.Width(p), lipgloss.Height(p)
		if targets[i] != targetNone {
			regions = append(regions, region{x: x, y: 0, w: w, h: h, target: target{kind: targets[i]}})
		}
		joined = append(joined, p)
		x += w
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, joined...), regions
}

func (m Model) renderPads(st machine.State) string {
	th := m.theme
	boxes := make([]string, len(st.Pads))

	for i, p := range st.Pads {
		label := p.Key
		ps := widgets.PadStyle{Border: th.Muted(), Foreground: th.Muted()}

		switch m.status[p.Key] {
		case statusLoading:
			label += string(th.Symbols.Loading)
		case statusDegraded:
			label += string(th.Symbols.Degraded)
		}

		switch {
		case p.Active:
			ps = widgets.PadStyle{Border: th.Active(), Foreground: th.BG(), Background: th.Active(), Bold: true}
		case st.Power && m.status[p.Key] == statusDegraded:
			ps = widgets.PadStyle{Border: th.Warning(), Foreground: th.Warning()}
		case st.Power:
			ps = widgets.PadStyle{Border: th.Idle(), Foreground: th.FG()}
		}

		boxes[i] = widgets.RenderPadBox(label, ps)
	}

	return widgets.RenderPadRows(boxes, kit.Columns)
}

func (m Model) renderStatus() string {
	dimStyle := lipgloss.NewStyle().Foreground(m.theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.theme.Warning())

	ready := 0
	var degraded []string
	for _, p := range m.kit.Pads {
		switch m.status[p.Key] {
		case statusReady:
			ready++
		case statusDegraded:
			degraded = append(degraded, p.Key)
		}
	}

	line := dimStyle.Render(fmt.Sprintf("samples %d/%d", ready, len(m.kit.Pads)))
	if len(degraded) > 0 {
		line += warnStyle.Render("  silent: " + strings.Join(degraded, " "))
	}

	if len(m.leds.controllers) > 0 {
		th := m.theme
		line += "\n" + widgets.RenderLegendItem(th.RGB(theme.RoleFG), "↑ ↓", "volume") +
			"\n" + widgets.RenderLegendItem(th.RGB(theme.RoleSuccess), "top right", "power")
	}

	return line
}
