package beat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tayl0r/workout-choreo-creator/config"
)

const (
	testRate = 22050
	testHop  = 512
)

// spikeTrain returns an n-frame envelope with unit spikes every period
// frames starting at offset.
func spikeTrain(n, offset, period int) []float64 {
	env := make([]float64, n)
	for i := offset; i < n; i += period {
		env[i] = 1
	}
	return env
}

func TestTempoFrequencies(t *testing.T) {
	bpms := TempoFrequencies(4, 22050, 512)
	require.Len(t, bpms, 4)
	assert.True(t, math.IsInf(bpms[0], 1))
	assert.InDelta(t, 2583.984375, bpms[1], 1e-9)
	assert.InDelta(t, 1291.9921875, bpms[2], 1e-9)
	assert.Empty(t, TempoFrequencies(0, 22050, 512))
}

func TestAutocorrelate(t *testing.T) {
	x := []float64{1, 2, 3}
	ac := Autocorrelate(x, 3)
	require.Len(t, ac, 3)
	assert.InDelta(t, 14.0, ac[0], 1e-9)
	assert.InDelta(t, 8.0, ac[1], 1e-9)
	assert.InDelta(t, 3.0, ac[2], 1e-9)

	assert.Len(t, Autocorrelate(x, 10), 3)
	assert.Nil(t, Autocorrelate(nil, 4))
}

func TestMeanTempogramPeaksAtPeriod(t *testing.T) {
	tg := MeanTempogram(spikeTrain(400, 5, 25), 128)
	require.Len(t, tg, 128)
	assert.InDelta(t, 1.0, tg[0], 1e-9, "lag 0 is each frame's peak")
	assert.Greater(t, tg[25], tg[24])
	assert.Greater(t, tg[25], tg[26])
	assert.Greater(t, tg[25], tg[50])
}

func TestMeanTempogramSilence(t *testing.T) {
	tg := MeanTempogram(make([]float64, 50), 16)
	for _, v := range tg {
		assert.Equal(t, 0.0, v)
	}
	assert.Len(t, MeanTempogram(nil, 16), 16)
}

func TestACWindow(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 344, ACWindow(22050, cfg))
	assert.Equal(t, 689, ACWindow(44100, cfg))
}

func TestEstimateTempo(t *testing.T) {
	cfg := config.Default()
	tempo := EstimateTempo(spikeTrain(600, 10, 20), testRate, cfg)
	assert.Equal(t, 60.0*testRate/(testHop*20), tempo)
}

func TestEstimateTempoRespectsMaxTempo(t *testing.T) {
	cfg := config.Default()
	cfg.MaxTempo = 100
	tempo := EstimateTempo(spikeTrain(600, 10, 20), testRate, cfg)
	assert.Less(t, tempo, 100.0)
	assert.Greater(t, tempo, 0.0)
}

func TestTrackFixedTempo(t *testing.T) {
	cfg := config.Default()
	cfg.BPM = 60.0 * testRate / (testHop * 20)

	res := Track(spikeTrain(500, 10, 20), testRate, cfg)
	assert.Equal(t, cfg.BPM, res.Tempo)

	var want []int
	for f := 10; f <= 470; f += 20 {
		want = append(want, f)
	}
	assert.Equal(t, want, res.Frames)
}

func TestTrackEstimatesTempo(t *testing.T) {
	res := Track(spikeTrain(500, 10, 20), testRate, config.Default())
	assert.Equal(t, 60.0*testRate/(testHop*20), res.Tempo)
	require.NotEmpty(t, res.Frames)
	for i := 1; i < len(res.Frames); i++ {
		assert.Equal(t, 20, res.Frames[i]-res.Frames[i-1])
	}
}

func TestTrackSilence(t *testing.T) {
	res := Track(make([]float64, 300), testRate, config.Default())
	assert.Equal(t, 0.0, res.Tempo)
	assert.Empty(t, res.Frames)

	res = Track(nil, testRate, config.Default())
	assert.Empty(t, res.Frames)
}

func TestTrackDeterministic(t *testing.T) {
	env := spikeTrain(700, 3, 22)
	for i := range env {
		env[i] += 0.05 * math.Abs(math.Sin(float64(i)))
	}
	a := Track(env, testRate, config.Default())
	b := Track(env, testRate, config.Default())
	assert.Equal(t, a, b)
	for i := 1; i < len(a.Frames); i++ {
		assert.Greater(t, a.Frames[i], a.Frames[i-1])
	}
}

func TestFramesToTime(t *testing.T) {
	got := FramesToTime([]int{0, 43, 86}, 44100, 512)
	require.Len(t, got, 3)
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, 0.499229, got[1], 1e-6)
	assert.InDelta(t, 0.998458, got[2], 1e-6)
	assert.Empty(t, FramesToTime(nil, 44100, 512))
}

func TestConvolveSame(t *testing.T) {
	got := convolveSame([]float64{1, 2, 3, 4}, []float64{1, 1, 1})
	assert.Equal(t, []float64{3, 6, 9, 7}, got)

	got = convolveSame([]float64{0, 0, 1, 0, 0, 0}, []float64{1, 2, 3, 4, 5})
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 0}, got)
}

func TestLocalMax(t *testing.T) {
	got := localMax([]float64{1, 3, 2, 2, 5, 5, 4, 6})
	assert.Equal(t, []bool{false, true, false, false, true, false, false, true}, got)
}

func TestNormalizeOnsets(t *testing.T) {
	got := normalizeOnsets([]float64{0, 2, 4})
	assert.Equal(t, []float64{0, 1, 2}, got)
	assert.Equal(t, []float64{3, 3}, normalizeOnsets([]float64{3, 3}))
}

func TestTrimBeatsDropsWeakEnds(t *testing.T) {
	local := make([]float64, 100)
	beats := []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}
	for _, b := range beats[2:8] {
		local[b] = 1
	}
	local[0], local[10] = 0.001, 0.001
	local[80], local[90] = 0.001, 0.001

	got := trimBeats(local, beats, true)
	require.NotEmpty(t, got)
	assert.GreaterOrEqual(t, got[0], 10)
	assert.Less(t, got[len(got)-1], 80)
}

func TestTrimBeatsWithoutTrimStillDropsLast(t *testing.T) {
	local := []float64{1, 1, 1, 1}
	assert.Equal(t, []int{0, 1, 2}, trimBeats(local, []int{0, 1, 2, 3}, false))
	assert.Nil(t, trimBeats(make([]float64, 3), []int{0, 1, 2}, true))
}
