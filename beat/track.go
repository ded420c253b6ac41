package beat

import (
	"math"
	"sort"

	"github.com/tayl0r/workout-choreo-creator/config"
	"github.com/tayl0r/workout-choreo-creator/dsp"
)

// Result is the raw tracker output: tempo in BPM and beat positions as
// analysis-frame indices, strictly increasing.
type Result struct {
	Tempo  float64
	Frames []int
}

// Track estimates the tempo of an onset envelope (unless cfg.BPM fixes it)
// and finds the beat sequence that best matches both the onsets and that
// tempo by dynamic programming.
func Track(onset []float64, sampleRate int, cfg config.Config) Result {
	if !anyNonZero(onset) {
		return Result{}
	}

	bpm := cfg.BPM
	if bpm <= 0 {
		bpm = EstimateTempo(onset, sampleRate, cfg)
	}
	if bpm <= 0 {
		return Result{}
	}

	frameRate := float64(sampleRate) / float64(cfg.HopLength)
	period := int(math.RoundToEven(60.0 * frameRate / bpm))
	if period < 1 {
		period = 1
	}

	localScore := LocalScore(onset, period)
	backlink, cumScore := trackDP(localScore, period, cfg.Tightness)

	beats := []int{lastBeat(cumScore)}
	for backlink[beats[len(beats)-1]] >= 0 {
		beats = append(beats, backlink[beats[len(beats)-1]])
	}
	for i, j := 0, len(beats)-1; i < j; i, j = i+1, j-1 {
		beats[i], beats[j] = beats[j], beats[i]
	}

	return Result{Tempo: bpm, Frames: trimBeats(localScore, beats, cfg.Trim)}
}

// FramesToTime converts frame indices to seconds.
func FramesToTime(frames []int, sampleRate, hop int) []float64 {
	times := make([]float64, len(frames))
	for i, f := range frames {
		times[i] = float64(f*hop) / float64(sampleRate)
	}
	return times
}

// LocalScore smooths the standardised onset envelope with a Gaussian whose
// width follows the beat period.
func LocalScore(onset []float64, period int) []float64 {
	norm := normalizeOnsets(onset)

	kernel := make([]float64, 2*period+1)
	for i := range kernel {
		d := float64(i-period) * 32.0 / float64(period)
		kernel[i] = math.Exp(-0.5 * d * d)
	}
	return convolveSame(norm, kernel)
}

// trackDP fills the cumulative score and back-links. Each frame looks back
// between 2 periods and half a period for the predecessor that maximises its
// cumulative score minus a log-squared penalty on deviating from the period.
// Positions before the start count as a zero score. A back-link below 0 ends
// a chain; chains cannot start until the local score reaches 1% of its max.
func trackDP(localScore []float64, period int, tightness float64) ([]int, []float64) {
	n := len(localScore)
	backlink := make([]int, n)
	cumScore := make([]float64, n)

	p := float64(period)
	lo := -2 * period
	hi := -int(math.RoundToEven(p / 2))
	txwt := make([]float64, 0, hi-lo+1)
	for off := lo; off <= hi; off++ {
		l := math.Log(float64(-off) / p)
		txwt = append(txwt, -tightness*l*l)
	}

	scoreThresh := 0.01 * maxOf(localScore)
	firstBeat := true
	for i, score := range localScore {
		best := 0
		bestScore := math.Inf(-1)
		for k, w := range txwt {
			loc := i + lo + k
			c := w
			if loc >= 0 {
				c += cumScore[loc]
			}
			if c > bestScore {
				best, bestScore = k, c
			}
		}

		cumScore[i] = score + bestScore
		if firstBeat && score < scoreThresh {
			backlink[i] = -1
		} else {
			backlink[i] = i + lo + best
			firstBeat = false
		}
	}
	return backlink, cumScore
}

// lastBeat picks the final local maximum of the cumulative score that
// exceeds half the median of all its local maxima.
func lastBeat(cumScore []float64) int {
	maxes := localMax(cumScore)

	var peaks []float64
	for i, m := range maxes {
		if m {
			peaks = append(peaks, cumScore[i])
		}
	}
	if len(peaks) == 0 {
		return len(cumScore) - 1
	}
	med := medianOf(peaks)

	last := len(cumScore) - 1
	for i := range cumScore {
		v := 0.0
		if maxes[i] {
			v = cumScore[i]
		}
		if v*2 > med {
			last = i
		}
	}
	return last
}

// trimBeats drops weak beats from both ends. Beat strength is the local
// score at each beat smoothed by a 5-point Hann window; with trim enabled
// beats must exceed half its RMS, otherwise just zero. The slice end is
// exclusive of the last qualifying beat.
func trimBeats(localScore []float64, beats []int, trim bool) []int {
	if len(beats) == 0 {
		return beats
	}
	strength := make([]float64, len(beats))
	for i, b := range beats {
		strength[i] = localScore[b]
	}
	smooth := convolveSame(strength, dsp.PeriodicHann(5))

	threshold := 0.0
	if trim {
		var sum float64
		for _, v := range smooth {
			sum += v * v
		}
		threshold = 0.5 * math.Sqrt(sum/float64(len(smooth)))
	}

	first, last := -1, -1
	for i, v := range smooth {
		if v > threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil
	}
	return beats[first:last]
}

// normalizeOnsets divides by the sample standard deviation when it is
// positive.
func normalizeOnsets(onset []float64) []float64 {
	out := make([]float64, len(onset))
	copy(out, onset)
	n := len(onset)
	if n < 2 {
		return out
	}

	var mean float64
	for _, v := range onset {
		mean += v
	}
	mean /= float64(n)
	var ss float64
	for _, v := range onset {
		d := v - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(n-1))
	if std > 0 {
		for i := range out {
			out[i] /= std
		}
	}
	return out
}

// convolveSame is the linear convolution of x and k cropped to len(x),
// centred on the full result.
func convolveSame(x, k []float64) []float64 {
	n, m := len(x), len(k)
	out := make([]float64, n)
	if n == 0 || m == 0 {
		return out
	}
	shift := (m - 1) / 2
	for i := range out {
		full := i + shift
		var sum float64
		for j := 0; j < m; j++ {
			xi := full - j
			if xi < 0 {
				break
			}
			if xi < n {
				sum += x[xi] * k[j]
			}
		}
		out[i] = sum
	}
	return out
}

// localMax marks samples strictly greater than their left neighbour and no
// smaller than their right one. Edges compare against themselves.
func localMax(x []float64) []bool {
	n := len(x)
	out := make([]bool, n)
	for i := range x {
		left, right := x[i], x[i]
		if i > 0 {
			left = x[i-1]
		}
		if i < n-1 {
			right = x[i+1]
		}
		out[i] = x[i] > left && x[i] >= right
	}
	return out
}

func medianOf(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func maxOf(xs []float64) float64 {
	m := math.Inf(-1)
	for _, v := range xs {
		if v > m {
			m = v
		}
	}
	return m
}

func anyNonZero(xs []float64) bool {
	for _, v := range xs {
		if v != 0 {
			return true
		}
	}
	return false
}
