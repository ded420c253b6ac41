package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// PeriodicHann returns an n-point Hann window for spectral analysis: the
// symmetric n+1 window without its last point.
func PeriodicHann(n int) []float64 {
	if n <= 1 {
		return window.Hann(1)[:n]
	}
	return window.Hann(n + 1)[:n]
}

// FrameCount is the number of centred STFT frames for a signal of n samples.
func FrameCount(n, hop int) int {
	return 1 + n/hop
}

// STFT returns the power spectrogram |X|^2 of centred, Hann-windowed frames.
// Frame t is centred on sample t*hop; the signal is zero padded by nFFT/2 on
// the left and nFFT-nFFT/2 on the right. The result is indexed [frame][bin] with nFFT/2+1 bins.
func STFT(samples []float64, nFFT, hop int) [][]float64 {
	spectrogram := make([][]float64, 0, FrameCount(len(samples), hop))
	eachFrame(samples, nFFT, hop, func(_ int, power []float64) {
		row := make([]float64, len(power))
		copy(row, power)
		spectrogram = append(spectrogram, row)
	})
	return spectrogram
}

// eachFrame computes the power spectrum of every centred frame and hands it
// to fn. The power slice is reused between calls.
func eachFrame(samples []float64, nFFT, hop int, fn func(t int, power []float64)) {
	// odd nFFT gets the extra sample on the right so every frame fits
	pad := nFFT / 2
	padded := make([]float64, len(samples)+nFFT)
	copy(padded[pad:], samples)

	win := PeriodicHann(nFFT)
	nFrames := FrameCount(len(samples), hop)
	frame := make([]float64, nFFT)
	power := make([]float64, nFFT/2+1)

	for t := 0; t < nFrames; t++ {
		start := t * hop
		for i := range frame {
			frame[i] = padded[start+i] * win[i]
		}

		fftResult := fft.FFTReal(frame)
		for k := range power {
			re, im := real(fftResult[k]), imag(fftResult[k])
			power[k] = re*re + im*im
		}
		fn(t, power)
	}
}

// PowerToDB converts a power spectrogram to decibels relative to ref,
// clamping inputs at amin and flooring the output at (max - topDB). A
// non-positive topDB disables the floor. S is not modified.
func PowerToDB(S [][]float64, ref, amin, topDB float64) [][]float64 {
	refDB := 10 * math.Log10(math.Max(amin, ref))
	maxDB := math.Inf(-1)

	out := make([][]float64, len(S))
	for t, row := range S {
		out[t] = make([]float64, len(row))
		for k, v := range row {
			db := 10*math.Log10(math.Max(amin, v)) - refDB
			out[t][k] = db
			if db > maxDB {
				maxDB = db
			}
		}
	}

	if topDB > 0 {
		floor := maxDB - topDB
		for _, row := range out {
			for k, v := range row {
				if v < floor {
					row[k] = floor
				}
			}
		}
	}
	return out
}
