package dsp

import (
	"sort"

	"github.com/tayl0r/workout-choreo-creator/config"
)

const (
	dbRef  = 1.0
	dbAmin = 1e-10
)

// OnsetStrength computes the spectral-flux onset envelope, one value per
// analysis frame: the median over mel bands of the positive dB increase from
// Lag frames earlier. The envelope is shifted right by Lag + NFFT/(2*Hop)
// frames to line up with the centred framing.
func OnsetStrength(samples []float64, sampleRate int, cfg config.Config) []float64 {
	mel := MelSpectrogram(samples, sampleRate, cfg.NFFT, cfg.HopLength, cfg.NMels, cfg.FMin, cfg.FMax)
	return OnsetFromSpectrogram(PowerToDB(mel, dbRef, dbAmin, cfg.TopDB), cfg.Lag, cfg.NFFT/(2*cfg.HopLength))
}

// OnsetFromSpectrogram is the flux step of OnsetStrength on a dB
// spectrogram indexed [frame][band]. The output has one value per frame.
func OnsetFromSpectrogram(S [][]float64, lag, centerShift int) []float64 {
	n := len(S)
	onset := make([]float64, n)
	pad := lag + centerShift

	var flux []float64
	if n > 0 {
		flux = make([]float64, len(S[0]))
	}

	for j := 0; j+lag < n; j++ {
		t := j + pad
		if t >= n {
			break
		}
		cur, prev := S[j+lag], S[j]
		if len(cur) == 0 {
			continue
		}
		for m := range cur {
			flux[m] = 0
			if d := cur[m] - prev[m]; d > 0 {
				flux[m] = d
			}
		}
		onset[t] = median(flux[:len(cur)])
	}
	return onset
}

// median sorts xs in place.
func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sort.Float64s(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}
