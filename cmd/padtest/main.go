package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-drumpad/kit"
	"go-drumpad/midi"
	"go-drumpad/sound"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "detect":
		detect()
	case "leds":
		testLEDs()
	case "pads":
		watchPads()
	case "play":
		if len(os.Args) < 3 {
			usage()
			return
		}
		play(os.Args[2])
	default:
		usage()
	}
}

func usage() {
	fmt.Println("go-drumpad diagnostics")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list         - List all MIDI ports")
	fmt.Println("  detect       - Show which controllers the drum machine would open")
	fmt.Println("  leds         - Light the pad block on a Launchpad")
	fmt.Println("  pads         - Print pad and note events")
	fmt.Println("  play <key>   - Load and play one pad of the default kit (or a file/URL)")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

// connect runs a device manager until the first controller shows up
func connect(ctx context.Context, wait time.Duration) (*midi.DeviceManager, bool) {
	dm := midi.NewDeviceManager()
	go dm.Run(ctx)

	select {
	case ev, ok := <-dm.Events():
		if !ok {
			return dm, false
		}
		fmt.Printf("Connected %s (%s)\n", ev.ID, ev.Controller.Type())
		// give the first scan time to open the rest
		time.Sleep(100 * time.Millisecond)
		return dm, true
	case <-time.After(wait):
		return dm, false
	}
}

func detect() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Println("Scanning...")
	dm, ok := connect(ctx, 3*time.Second)
	if !ok {
		fmt.Println("No controllers found")
		return
	}

	for id, c := range dm.Controllers() {
		fmt.Printf("  %-40s %s\n", id, c.Type())
	}
	if dm.GetLaunchpad() != nil {
		fmt.Println("\nLaunchpad X detected!")
	}
}

func testLEDs() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dm, _ := connect(ctx, 3*time.Second)
	lp := dm.GetLaunchpad()
	if lp == nil {
		fmt.Println("No Launchpad found")
		return
	}

	fmt.Println("Lighting pad block (bottom-left 3x3) and controls...")
	var updates []midi.LEDUpdate
	for row := 0; row < 3; row++ {
		for col := 0; col < kit.Columns; col++ {
			updates = append(updates, midi.LEDUpdate{Row: row, Col: col, Color: [3]uint8{200, 40, 160}})
		}
	}
	updates = append(updates,
		midi.LEDUpdate{Row: 8, Col: 0, Color: [3]uint8{230, 120, 200}},
		midi.LEDUpdate{Row: 8, Col: 1, Color: [3]uint8{230, 120, 200}},
		midi.LEDUpdate{Row: 8, Col: 7, Color: [3]uint8{250, 240, 40}},
	)
	if err := lp.SetLEDBatch(updates); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println("Press Enter to clear...")
	fmt.Scanln()

	for i := range updates {
		updates[i].Color = [3]uint8{}
	}
	lp.SetLEDBatch(updates)

	fmt.Printf("Done! (%d LED messages sent)\n", midi.LEDSendCount())
}

func watchPads() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	notes := kit.Default().NoteIndex()
	dm := midi.NewDeviceManager()
	go dm.Run(ctx)

	fmt.Println("Waiting for controllers. Ctrl+C to exit.")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-dm.Events():
			if !ok {
				return
			}
			if ev.Type == midi.DeviceDisconnected {
				fmt.Printf("Disconnected %s\n", ev.ID)
				continue
			}
			fmt.Printf("Connected %s (%s)\n", ev.ID, ev.Controller.Type())
			go echo(ev.Controller, notes)
		}
	}
}

func echo(c midi.Controller, notes map[uint8]string) {
	pads, keys := c.PadEvents(), c.NoteEvents()
	for pads != nil || keys != nil {
		select {
		case ev, ok := <-pads:
			if !ok {
				pads = nil
				continue
			}
			fmt.Printf("[%s] pad row=%d col=%d velocity=%d\n", c.ID(), ev.Row, ev.Col, ev.Velocity)
		case ev, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			pad := notes[ev.Note]
			if pad == "" {
				pad = "-"
			}
			fmt.Printf("[%s] note=%d velocity=%d pad=%s\n", c.ID(), ev.Note, ev.Velocity, pad)
		}
	}
}

func play(arg string) {
	source := arg
	k := kit.Default()
	if i, ok := k.Index()[strings.ToUpper(arg)]; ok {
		source = k.Pads[i].Source
		fmt.Printf("%s: %s\n", k.Pads[i].Name, source)
	}

	spk, err := sound.OpenSpeaker(sound.DefaultSampleRate, 30*time.Millisecond)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer spk.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	sample, err := sound.Load(ctx, source, spk.SampleRate())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Loaded in %s, %s long\n", time.Since(start).Round(time.Millisecond), sample.Duration().Round(time.Millisecond))

	c := sound.NewController(spk)
	c.Attach(sample)
	if err := c.Trigger(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	time.Sleep(sample.Duration() + 100*time.Millisecond)
}
