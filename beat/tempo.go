package beat

import (
	"math"

	"github.com/mjibson/go-dsp/fft"

	"github.com/tayl0r/workout-choreo-creator/config"
	"github.com/tayl0r/workout-choreo-creator/dsp"
)

// smallest positive float64; columns with a smaller peak are left unscaled
const tiny = 2.2250738585072014e-308

// TempoFrequencies returns the tempo in BPM of each autocorrelation lag.
// Lag 0 maps to +Inf.
func TempoFrequencies(n, sampleRate, hop int) []float64 {
	bpms := make([]float64, n)
	if n == 0 {
		return bpms
	}
	bpms[0] = math.Inf(1)
	for k := 1; k < n; k++ {
		bpms[k] = 60.0 * float64(sampleRate) / (float64(hop) * float64(k))
	}
	return bpms
}

// Autocorrelate returns the first maxSize lags of the linear
// autocorrelation of x, computed through a zero-padded FFT.
func Autocorrelate(x []float64, maxSize int) []float64 {
	n := len(x)
	if maxSize > n {
		maxSize = n
	}
	if n == 0 {
		return nil
	}

	nPad := 1
	for nPad < 2*n-1 {
		nPad <<= 1
	}
	padded := make([]float64, nPad)
	copy(padded, x)

	spec := fft.FFTReal(padded)
	for k, c := range spec {
		re, im := real(c), imag(c)
		spec[k] = complex(re*re+im*im, 0)
	}
	ac := fft.IFFT(spec)

	out := make([]float64, maxSize)
	for k := range out {
		out[k] = real(ac[k])
	}
	return out
}

// MeanTempogram computes the local autocorrelation tempogram of an onset
// envelope and averages it over time. The envelope is padded with linear
// ramps to zero by winLength/2 on both sides, framed with hop 1, Hann
// windowed, autocorrelated and each frame scaled by its peak. One frame is
// kept per envelope frame.
func MeanTempogram(onset []float64, winLength int) []float64 {
	n := len(onset)
	mean := make([]float64, winLength)
	if n == 0 || winLength < 1 {
		return mean
	}

	half := winLength / 2
	padded := make([]float64, n+2*half)
	first, last := onset[0], onset[n-1]
	for i := 0; i < half; i++ {
		padded[i] = first * float64(i) / float64(half)
		padded[half+n+i] = last * float64(half-1-i) / float64(half)
	}
	copy(padded[half:], onset)

	win := dsp.PeriodicHann(winLength)
	frame := make([]float64, winLength)

	nFrames := len(padded) - winLength + 1
	if nFrames > n {
		nFrames = n
	}
	if nFrames < 1 {
		return mean
	}

	for f := 0; f < nFrames; f++ {
		for i := range frame {
			frame[i] = padded[f+i] * win[i]
		}
		ac := Autocorrelate(frame, winLength)

		peak := 0.0
		for _, v := range ac {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
		scale := 1.0
		if peak >= tiny {
			scale = 1 / peak
		}
		for k, v := range ac {
			mean[k] += v * scale
		}
	}

	for k := range mean {
		mean[k] /= float64(nFrames)
	}
	return mean
}

// ACWindow is the autocorrelation window length in frames for cfg.
func ACWindow(sampleRate int, cfg config.Config) int {
	return int(math.Floor(cfg.ACSize*float64(sampleRate))) / cfg.HopLength
}

// EstimateTempo picks the global tempo of an onset envelope: the lag whose
// mean tempogram value, weighted by a log-normal prior around StartBPM, is
// largest. Lags at or above MaxTempo are never chosen. Returns 0 when no lag
// qualifies.
func EstimateTempo(onset []float64, sampleRate int, cfg config.Config) float64 {
	winLength := ACWindow(sampleRate, cfg)
	if winLength < 2 {
		return 0
	}

	tg := MeanTempogram(onset, winLength)
	bpms := TempoFrequencies(winLength, sampleRate, cfg.HopLength)
	logStart := math.Log2(cfg.StartBPM)

	best, bestScore := -1, math.Inf(-1)
	for k := 1; k < winLength; k++ {
		if bpms[k] >= cfg.MaxTempo {
			continue
		}
		z := (math.Log2(bpms[k]) - logStart) / cfg.StdBPM
		score := math.Log1p(1e6*tg[k]) - 0.5*z*z
		if score > bestScore {
			best, bestScore = k, score
		}
	}
	if best < 0 {
		return 0
	}
	return bpms[best]
}
