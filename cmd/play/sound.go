package main

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/sirupsen/logrus"
)

const sampleRate = beep.SampleRate(44100)

// cues plays short sounds for simulation events
type cues interface {
	Push()
	Collect()
	Win()
	Close()
}

type silentCues struct{}

func (silentCues) Push()    {}
func (silentCues) Collect() {}
func (silentCues) Win()     {}
func (silentCues) Close()   {}

type speakerCues struct {
	mixer *beep.Mixer
}

// newCues opens the speaker. Without a sound device it falls back to
// silence and logs why.
func newCues(enabled bool, log *logrus.Entry) cues {
	if !enabled {
		return silentCues{}
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		log.WithError(err).Warn("audio unavailable")
		return silentCues{}
	}
	c := &speakerCues{mixer: &beep.Mixer{}}
	speaker.Play(c.mixer)
	return c
}

func (c *speakerCues) play(s beep.Streamer) {
	speaker.Lock()
	c.mixer.Add(s)
	speaker.Unlock()
}

func (c *speakerCues) Push() {
	c.play(tone(220, 60*time.Millisecond))
}

func (c *speakerCues) Collect() {
	c.play(beep.Seq(tone(660, 50*time.Millisecond), tone(990, 80*time.Millisecond)))
}

func (c *speakerCues) Win() {
	c.play(beep.Seq(
		tone(523, 90*time.Millisecond),
		tone(659, 90*time.Millisecond),
		tone(784, 160*time.Millisecond),
	))
}

func (c *speakerCues) Close() {
	speaker.Lock()
	c.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
}

// toneGenerator is a sine wave with a short linear fade at both ends
type toneGenerator struct {
	freq  float64
	total int
	fade  int
	pos   int
}

func tone(freq float64, d time.Duration) beep.Streamer {
	total := sampleRate.N(d)
	return &toneGenerator{freq: freq, total: total, fade: sampleRate.N(5 * time.Millisecond)}
}

func (g *toneGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if g.pos >= g.total {
			return i, i > 0
		}
		t := float64(g.pos) / float64(sampleRate)
		v := 0.25 * math.Sin(2*math.Pi*g.freq*t)

		if g.fade > 0 {
			env := math.Min(float64(g.pos), float64(g.total-g.pos)) / float64(g.fade)
			v *= math.Min(env, 1)
		}
		samples[i][0] = v
		samples[i][1] = v
		g.pos++
	}
	return len(samples), true
}

func (g *toneGenerator) Err() error { return nil }
