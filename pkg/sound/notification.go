package sound

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/speaker"
)

const sampleRate = beep.SampleRate(44100)

type SoundNotifier struct {
	frequency float64
	duration  time.Duration
}

func NewSoundNotifier() (*SoundNotifier, error) {
	// Initialize speaker with default settings
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("failed to initialize audio: %w", err)
	}

	return &SoundNotifier{frequency: 880, duration: 250 * time.Millisecond}, nil
}

// PlayDropSound plays a short tone and waits for it to finish.
func (s *SoundNotifier) PlayDropSound() error {
	streamer, err := tone(s.frequency, s.duration)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
	case <-time.After(s.duration + time.Second):
		return fmt.Errorf("sound playback timed out")
	}
	return nil
}

func tone(frequency float64, d time.Duration) (beep.Streamer, error) {
	sine, err := generators.SineTone(sampleRate, frequency)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tone: %w", err)
	}
	return beep.Take(sampleRate.N(d), sine), nil
}
