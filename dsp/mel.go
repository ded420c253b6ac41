package dsp

import "math"

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

func HzToMel(f float64) float64 {
	if f >= melMinLogHz {
		return melMinLogMel + math.Log(f/melMinLogHz)/melLogStep
	}
	return f / melFSp
}

func MelToHz(m float64) float64 {
	if m >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(m-melMinLogMel))
	}
	return melFSp * m
}

// MelFilter is one triangular band over FFT bins [Start, Start+len(Weights)).
type MelFilter struct {
	Start   int
	Weights []float64
}

// MelFilterBank builds nMels area-normalised triangular filters spaced
// evenly on the mel scale between fMin and fMax (0 means Nyquist) for an
// nFFT-point spectrum.
func MelFilterBank(sampleRate, nFFT, nMels int, fMin, fMax float64) []MelFilter {
	if fMax <= 0 {
		fMax = float64(sampleRate) / 2
	}

	bins := nFFT/2 + 1
	fftFreqs := make([]float64, bins)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(sampleRate) / float64(nFFT)
	}

	minMel, maxMel := HzToMel(fMin), HzToMel(fMax)
	melF := make([]float64, nMels+2)
	for i := range melF {
		melF[i] = MelToHz(minMel + (maxMel-minMel)*float64(i)/float64(nMels+1))
	}

	filters := make([]MelFilter, nMels)
	for i := 0; i < nMels; i++ {
		lowerW := melF[i+1] - melF[i]
		upperW := melF[i+2] - melF[i+1]
		enorm := 2.0 / (melF[i+2] - melF[i])

		start, end := -1, -1
		weights := make([]float64, bins)
		for k, f := range fftFreqs {
			lower := (f - melF[i]) / lowerW
			upper := (melF[i+2] - f) / upperW
			w := math.Max(0, math.Min(lower, upper)) * enorm
			if w > 0 {
				if start < 0 {
					start = k
				}
				end = k + 1
			}
			weights[k] = w
		}
		if start < 0 {
			// band narrower than one bin
			filters[i] = MelFilter{}
			continue
		}
		filters[i] = MelFilter{Start: start, Weights: weights[start:end]}
	}
	return filters
}

// Apply projects one power spectrum onto the filter.
func (f MelFilter) Apply(power []float64) float64 {
	var sum float64
	for j, w := range f.Weights {
		sum += w * power[f.Start+j]
	}
	return sum
}

// MelSpectrogram returns the mel power spectrogram indexed [frame][band].
func MelSpectrogram(samples []float64, sampleRate, nFFT, hop, nMels int, fMin, fMax float64) [][]float64 {
	filters := MelFilterBank(sampleRate, nFFT, nMels, fMin, fMax)
	out := make([][]float64, 0, FrameCount(len(samples), hop))
	eachFrame(samples, nFFT, hop, func(_ int, power []float64) {
		row := make([]float64, len(filters))
		for m, f := range filters {
			row[m] = f.Apply(power)
		}
		out = append(out, row)
	})
	return out
}
