package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Spectrum is a one-sided power spectrum. Freqs are in cycles per tick.
type Spectrum struct {
	Freqs []float64
	Power []float64
}

// PowerSpectrum removes the mean of series, applies a Hann window and
// returns the one-sided power. spacing is the number of ticks between
// samples.
func PowerSpectrum(series []float64, spacing float64) Spectrum {
	n := len(series)
	if n < 2 || spacing <= 0 {
		return Spectrum{}
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	x := make([]float64, n)
	for i, v := range series {
		x[i] = v - mean
	}
	window.Apply(x, window.Hann)

	coeffs := fft.FFTReal(x)
	half := n/2 + 1
	s := Spectrum{
		Freqs: make([]float64, half),
		Power: make([]float64, half),
	}
	for k := 0; k < half; k++ {
		mag := cmplx.Abs(coeffs[k])
		s.Freqs[k] = float64(k) / (float64(n) * spacing)
		s.Power[k] = mag * mag / float64(n)
	}
	return s
}

// Dominant returns the strongest non-zero frequency and its power.
func (s Spectrum) Dominant() (freq, power float64) {
	for k := 1; k < len(s.Power); k++ {
		if s.Power[k] > power {
			freq, power = s.Freqs[k], s.Power[k]
		}
	}
	return freq, power
}

// DominantPeriod is the period in ticks of the strongest oscillation, or 0
// when the series is flat.
func DominantPeriod(series []float64, spacing float64) float64 {
	f, p := PowerSpectrum(series, spacing).Dominant()
	if f == 0 || p == 0 {
		return 0
	}
	return 1 / f
}
