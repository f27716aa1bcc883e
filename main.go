package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-drumpad/config"
	"go-drumpad/debug"
	"go-drumpad/kit"
	"go-drumpad/machine"
	"go-drumpad/midi"
	"go-drumpad/sound"
	"go-drumpad/theme"
	"go-drumpad/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/go-drumpad/config.json)")
	kitName := flag.String("kit", "", "kit to load, overrides config")
	debugLog := flag.Bool("debug", false, "write a debug log to ~/.config/go-drumpad/debug.log")
	mute := flag.Bool("mute", false, "run without opening the audio device")
	initConfig := flag.Bool("init-config", false, "write a starter config and exit")
	flag.Parse()

	if err := run(*configPath, *kitName, *debugLog, *mute, *initConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, kitName string, debugLog, mute, initConfig bool) error {
	if initConfig {
		return writeStarterConfig(configPath)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if kitName != "" {
		cfg.Kit = kitName
	}
	if mute {
		cfg.Audio.Mute = true
	}

	if debugLog || cfg.Debug {
		if err := debug.Enable(""); err != nil {
			return err
		}
		defer debug.Disable()
	}

	palette, err := theme.LoadOrDefault(cfg.Palette)
	if err != nil {
		return err
	}
	th := theme.New(palette)

	k, err := cfg.ResolveKit()
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, kit.KitNames())
	}

	var out sound.Output = sound.Discard
	rate := beep.SampleRate(cfg.Audio.SampleRate)
	if !cfg.Audio.Mute {
		spk, err := sound.OpenSpeaker(rate, cfg.Latency())
		if err != nil {
			// pads still light up and update the display
			fmt.Fprintf(os.Stderr, "audio disabled: %v\n", err)
			debug.Log("sound", "open speaker: %v", err)
		} else {
			defer spk.Close()
			out = spk
		}
	}

	sounds := make(map[string]*sound.Controller, len(k.Pads))
	msounds := make(map[string]machine.Sound, len(k.Pads))
	for _, p := range k.Pads {
		c := sound.NewController(out)
		sounds[p.Key] = c
		msounds[p.Key] = c
	}

	mach, err := machine.New(k, msounds, machine.WithVolume(cfg.Volume))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot-plug MIDI controllers
	deviceMgr := midi.NewDeviceManager()
	deviceMgr.Allow = cfg.ShouldConnect
	go deviceMgr.Run(ctx)

	m := tui.NewModel(ctx, tui.Options{
		Kit:       k,
		Machine:   mach,
		Sounds:    sounds,
		DeviceMgr: deviceMgr,
		Theme:     th,
		Hold:      cfg.HoldDuration(),
		Repeat:    cfg.RepeatInterval(),
		Load: func(ctx context.Context, source string) (*sound.Sample, error) {
			return sound.Load(ctx, source, rate)
		},
	})
	defer m.Router().Unmount()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Live palette editing
	if cfg.Palette != "" {
		w, err := theme.NewWatcher(cfg.Palette)
		if err != nil {
			debug.Log("theme", "watch %s: %v", cfg.Palette, err)
		} else {
			go w.Run(ctx, func(pal *theme.Palette) {
				p.Send(tui.PaletteMsg{Palette: pal})
			})
		}
	}

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func writeStarterConfig(path string) error {
	cfg := config.DefaultConfig()
	if path == "" {
		if err := cfg.Save(); err != nil {
			return err
		}
		path, _ = config.ConfigPath()
	} else if err := cfg.SaveFile(path); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}
