package sound

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// DefaultSampleRate is used when the config does not name one
const DefaultSampleRate beep.SampleRate = 44100

// Output is where triggered samples are played. Lock/Unlock guard any
// streamer that the output may be reading from concurrently.
type Output interface {
	Play(s beep.Streamer)
	Lock()
	Unlock()
}

// Speaker plays through the system audio device
type Speaker struct {
	rate beep.SampleRate
}

// OpenSpeaker initializes the audio device. Only one speaker may be open.
func OpenSpeaker(rate beep.SampleRate, latency time.Duration) (*Speaker, error) {
	if err := speaker.Init(rate, rate.N(latency)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &Speaker{rate: rate}, nil
}

func (s *Speaker) Play(st beep.Streamer) {
	speaker.Play(st)
}

func (s *Speaker) Lock() {
	speaker.Lock()
}

func (s *Speaker) Unlock() {
	speaker.Unlock()
}

// SampleRate is the rate samples must be resampled to
func (s *Speaker) SampleRate() beep.SampleRate {
	return s.rate
}

func (s *Speaker) Close() {
	speaker.Clear()
	speaker.Close()
}

type discard struct {
	mu sync.Mutex
}

func (d *discard) Play(beep.Streamer) {}
func (d *discard) Lock()              { d.mu.Lock() }
func (d *discard) Unlock()            { d.mu.Unlock() }

// Discard accepts and drops everything (headless, -mute, or no audio device)
var Discard Output = &discard{}
