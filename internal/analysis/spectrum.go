package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrTooShort = errors.New("analysis: need at least 4 samples")

// Spectrum is the one-sided power spectrum of a uniformly sampled series.
type Spectrum struct {
	SampleRate float64
	Power      []float64
	// Dominant is the frequency of the strongest non-DC bin, 0 if the
	// series is flat.
	Dominant float64
}

// Resolution is the width of one frequency bin.
func (s *Spectrum) Resolution() float64 {
	return s.SampleRate / float64(2*len(s.Power))
}

// PowerSpectrum returns |X(k)| for k < n/2 of the mean-removed series.
func PowerSpectrum(data []float64) []float64 {
	centred := make([]float64, len(data))
	copy(centred, data)
	floats.AddConst(-stat.Mean(data, nil), centred)

	coeffs := fft.FFTReal(centred)
	ps := make([]float64, len(coeffs)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// SampleRate is the inverse mean spacing of times.
func SampleRate(times []float64) float64 {
	if len(times) < 2 {
		return 0
	}
	span := times[len(times)-1] - times[0]
	if span <= 0 {
		return 0
	}
	return float64(len(times)-1) / span
}

// Analyze computes the spectrum of values sampled at times.
func Analyze(times, values []float64) (*Spectrum, error) {
	if len(values) < 4 || len(times) != len(values) {
		return nil, ErrTooShort
	}
	rate := SampleRate(times)
	if rate == 0 {
		return nil, errors.New("analysis: sample times do not advance")
	}

	s := &Spectrum{SampleRate: rate, Power: PowerSpectrum(values)}
	if peak := floats.MaxIdx(s.Power[1:]) + 1; s.Power[peak] > 0 {
		s.Dominant = float64(peak) * s.Resolution()
	}
	return s, nil
}
