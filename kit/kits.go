package kit

const baseURL = "https://s3.amazonaws.com/freecodecamp/drums/"

// Kits contains the built-in kits
var Kits = map[string]Kit{
	"heater": {
		Name: "Heater Kit",
		Pads: []Pad{
			{Key: "Q", Name: "Side-Stick", Source: baseURL + "side_stick_1.mp3", Note: 37},
			{Key: "W", Name: "Snare", Source: baseURL + "Brk_Snr.mp3", Note: 38},
			{Key: "E", Name: "Punchy-Kick", Source: baseURL + "punchy_kick_1.mp3", Note: 36},
			{Key: "A", Name: "Shaker", Source: baseURL + "Give_us_a_light.mp3", Note: 82},
			{Key: "S", Name: "Clap", Source: baseURL + "Heater-6.mp3", Note: 39},
			{Key: "D", Name: "Open-HH", Source: baseURL + "Dsc_Oh.mp3", Note: 46},
			{Key: "Z", Name: "Kick-n'-Hat", Source: baseURL + "Kick_n_Hat.mp3", Note: 44},
			{Key: "X", Name: "Kick", Source: baseURL + "RP4_KICK_1.mp3", Note: 35},
			{Key: "C", Name: "Closed-HH", Source: baseURL + "Cev_H2.mp3", Note: 42},
		},
	},
	"piano": {
		Name: "Smooth Piano Kit",
		Pads: []Pad{
			{Key: "Q", Name: "Chord-1", Source: baseURL + "Chord_1.mp3", Note: 60},
			{Key: "W", Name: "Chord-2", Source: baseURL + "Chord_2.mp3", Note: 62},
			{Key: "E", Name: "Chord-3", Source: baseURL + "Chord_3.mp3", Note: 64},
			{Key: "A", Name: "Shaker", Source: baseURL + "Give_us_a_light.mp3", Note: 82},
			{Key: "S", Name: "Open-HH", Source: baseURL + "Dry_Ohh.mp3", Note: 46},
			{Key: "D", Name: "Closed-HH", Source: baseURL + "Bld_H1.mp3", Note: 42},
			{Key: "Z", Name: "Punchy-Kick", Source: baseURL + "punchy_kick_1.mp3", Note: 36},
			{Key: "X", Name: "Side-Stick", Source: baseURL + "side_stick_1.mp3", Note: 37},
			{Key: "C", Name: "Snare", Source: baseURL + "Brk_Snr.mp3", Note: 38},
		},
	},
}

// DefaultKit is the default kit name
const DefaultKit = "heater"

// KitNames returns the list of built-in kit names
func KitNames() []string {
	return []string{"heater", "piano"}
}

// Get returns a built-in kit by name
func Get(name string) (Kit, bool) {
	k, ok := Kits[name]
	if !ok {
		return Kit{}, false
	}
	return k.Clone(), true
}

// Default returns the default kit
func Default() Kit {
	return Kits[DefaultKit].Clone()
}
