package audio

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// ClipFunc builds a fresh one-shot streamer for a clip at rate.
type ClipFunc func(rate beep.SampleRate) beep.Streamer

// DefaultClips returns the synthesized weapon clips keyed by clip id.
func DefaultClips() map[string]ClipFunc {
	return map[string]ClipFunc{
		"gunshot":       gunshot,
		"empty_click":   emptyClick,
		"slide_pull":    slidePull,
		"slide_release": slideRelease,
		"mag_insert":    magInsert,
		"mag_release":   magRelease,
	}
}

func gunshot(rate beep.SampleRate) beep.Streamer {
	d := rate.N(180 * time.Millisecond)
	return beep.Mix(
		beep.Take(d, withDecay(noise(), rate, 18)),
		beep.Take(d, withDecay(tone(rate, 70), rate, 12)),
	)
}

func emptyClick(rate beep.SampleRate) beep.Streamer {
	return click(rate, 2400)
}

func slidePull(rate beep.SampleRate) beep.Streamer {
	return beep.Seq(
		click(rate, 1800),
		beep.Take(rate.N(70*time.Millisecond), withDecay(noise(), rate, 40)),
	)
}

func slideRelease(rate beep.SampleRate) beep.Streamer {
	return beep.Seq(
		beep.Take(rate.N(40*time.Millisecond), withDecay(noise(), rate, 60)),
		click(rate, 1200),
	)
}

func magInsert(rate beep.SampleRate) beep.Streamer {
	return beep.Seq(
		click(rate, 900),
		beep.Silence(rate.N(30*time.Millisecond)),
		click(rate, 1400),
	)
}

func magRelease(rate beep.SampleRate) beep.Streamer {
	return beep.Seq(
		click(rate, 1100),
		beep.Take(rate.N(120*time.Millisecond), withDecay(noise(), rate, 30)),
	)
}

func click(rate beep.SampleRate, freq float64) beep.Streamer {
	return beep.Take(rate.N(15*time.Millisecond), withDecay(tone(rate, freq), rate, 200))
}

// tone returns an endless sine at freq, or silence when freq is above Nyquist.
func tone(rate beep.SampleRate, freq float64) beep.Streamer {
	s, err := generators.SineTone(rate, freq)
	if err != nil {
		return beep.Silence(-1)
	}
	return s
}

// noise returns endless white noise in [-1, 1].
func noise() beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := rand.Float64()*2 - 1
			samples[i][0] = v
			samples[i][1] = v
		}
		return len(samples), true
	})
}

// decay fades its streamer by exp(-k·t).
type decay struct {
	streamer beep.Streamer
	rate     beep.SampleRate
	k        float64
	pos      int
}

func withDecay(s beep.Streamer, rate beep.SampleRate, k float64) beep.Streamer {
	return &decay{streamer: s, rate: rate, k: k}
}

func (d *decay) Stream(samples [][2]float64) (int, bool) {
	n, ok := d.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		env := math.Exp(-d.k * float64(d.pos) / float64(d.rate))
		samples[i][0] *= env
		samples[i][1] *= env
		d.pos++
	}
	return n, ok
}

func (d *decay) Err() error { return d.streamer.Err() }

// withVolume scales s linearly; zero or negative volume is silent.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
