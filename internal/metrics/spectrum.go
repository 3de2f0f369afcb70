package metrics

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// Peak is the strongest non-DC component of a series.
type Peak struct {
	Frequency float64 `json:"frequency_hz"`
	Amplitude float64 `json:"amplitude"`
}

// DominantFrequency finds the largest spectral peak of values sampled at
// sampleRate Hz. The mean is removed first. Series shorter than four
// samples, or with a non-positive rate, yield a zero Peak.
func DominantFrequency(values []float64, sampleRate float64) Peak {
	n := len(values)
	if n < 4 || sampleRate <= 0 {
		return Peak{}
	}
	mean := stat.Mean(values, nil)
	centered := make([]float64, n)
	for i, v := range values {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	var best Peak
	for k := 1; k <= n/2; k++ {
		amp := 2 * cmplx.Abs(spectrum[k]) / float64(n)
		if amp > best.Amplitude {
			best = Peak{Frequency: float64(k) * sampleRate / float64(n), Amplitude: amp}
		}
	}
	return best
}

// SampleRate estimates the rate of evenly spaced samples from their times.
func SampleRate(samples []Sample) float64 {
	n := len(samples)
	if n < 2 {
		return 0
	}
	span := samples[n-1].Time - samples[0].Time
	if span <= 0 {
		return 0
	}
	return float64(n-1) / span
}
