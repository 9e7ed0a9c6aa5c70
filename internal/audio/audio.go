package audio

import (
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/san-kum/spheresim/internal/dynamo"
)

const (
	SampleRate = beep.SampleRate(44100)
	BufferTime = 50 * time.Millisecond

	// MaxVoices caps overlapping clicks; contacts beyond it are dropped.
	MaxVoices = 16

	NoteLength = 120 * time.Millisecond

	// impulses below MinImpulse play the base note
	MinImpulse = 1e-5
	BaseFreq   = 220.0
	Octaves    = 3.0
)

// Cue turns contacts into short plucked notes. It is a dynamo.ContactSink;
// until Start succeeds every contact is ignored.
//
// By default only resolved contacts sound. Two spheres that stay
// interpenetrated while moving apart are reported on every tick, and would
// otherwise retrigger the note at the tick rate. SetEveryOverlap(true) plays
// every reported overlap instead.
type Cue struct {
	mu           sync.Mutex
	mixer        *beep.Mixer
	logger       *log.Logger
	started      bool
	enabled      bool
	everyOverlap bool

	played, dropped int
}

func NewCue(logger *log.Logger) *Cue {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cue{
		mixer:   &beep.Mixer{},
		logger:  logger,
		enabled: true,
	}
}

// Start opens the default output device. Failure leaves the cue silent.
func (c *Cue) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}

	if err := speaker.Init(SampleRate, SampleRate.N(BufferTime)); err != nil {
		c.logger.Warn("audio unavailable, contacts will be silent", "err", err)
		return err
	}

	speaker.Play(c.mixer)
	c.started = true
	c.logger.Debug("audio started", "rate", int(SampleRate))
	return nil
}

func (c *Cue) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return
	}

	speaker.Lock()
	c.mixer.Clear()
	speaker.Unlock()
	speaker.Clear()
	c.started = false
}

func (c *Cue) SetEnabled(on bool) {
	c.mu.Lock()
	c.enabled = on
	c.mu.Unlock()
}

func (c *Cue) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Stats reports how many notes were played and how many were dropped
// because MaxVoices were already sounding.
func (c *Cue) Stats() (played, dropped int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.played, c.dropped
}

// SetEveryOverlap chooses between sounding every reported overlap and only
// those that exchanged an impulse.
func (c *Cue) SetEveryOverlap(on bool) {
	c.mu.Lock()
	c.everyOverlap = on
	c.mu.Unlock()
}

// audible reports whether ct should play. The caller holds c.mu.
func (c *Cue) audible(ct dynamo.Contact) bool {
	return c.everyOverlap || ct.Resolved
}

func (c *Cue) OnContact(ct dynamo.Contact) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || !c.enabled || !c.audible(ct) {
		return
	}

	speaker.Lock()
	defer speaker.Unlock()

	if c.mixer.Len() >= MaxVoices {
		c.dropped++
		return
	}
	c.mixer.Add(Note(Pitch(ct.Impulse), Gain(ct.Impulse), SampleRate))
	c.played++
}

func octave(impulse float64) float64 {
	j := math.Abs(impulse)
	if j <= MinImpulse {
		return 0
	}
	return math.Min(math.Log2(j/MinImpulse)/3, Octaves)
}

// Pitch maps an impulse magnitude to a frequency between BaseFreq and
// Octaves above it. Harder hits sound higher.
func Pitch(impulse float64) float64 {
	return BaseFreq * math.Pow(2, octave(impulse))
}

// Gain is in [0.2, 0.8] and grows with the impulse.
func Gain(impulse float64) float64 {
	return 0.2 + 0.6*octave(impulse)/Octaves
}

// Note is a decaying triangle pluck lasting NoteLength.
func Note(freq, gain float64, rate beep.SampleRate) beep.Streamer {
	return newVolume(NewPluck(freq, NoteLength, rate), gain)
}

func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// pluck is a triangle oscillator with an exponential decay that reaches
// about -60dB at the end of the note.
type pluck struct {
	freq     float64
	phase    float64
	position int
	total    int
	decay    float64
	rate     beep.SampleRate
}

func NewPluck(freq float64, duration time.Duration, rate beep.SampleRate) beep.Streamer {
	total := rate.N(duration)
	decay := 0.0
	if total > 0 {
		decay = math.Log(1000) / float64(total)
	}
	return &pluck{freq: freq, total: total, decay: decay, rate: rate}
}

func (p *pluck) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if p.position >= p.total {
			return i, i > 0
		}

		val := triangle(p.phase) * math.Exp(-p.decay*float64(p.position))
		samples[i][0] = val
		samples[i][1] = val

		p.phase += p.freq / float64(p.rate)
		p.phase -= math.Floor(p.phase)
		p.position++
	}
	return len(samples), true
}

func (p *pluck) Err() error { return nil }

func triangle(phase float64) float64 {
	p := phase - math.Floor(phase)
	return 4.0*math.Abs(p-0.5) - 1.0
}
