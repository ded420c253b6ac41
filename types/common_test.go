package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectionResultJSON(t *testing.T) {
	r := DetectionResult{BPM: 120, Beats: []float64{0, 0.5, 1, 1.512}}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"bpm":120.0,"beats":[0.0,0.5,1.0,1.512]}`, string(b))
}

func TestDetectionResultMarshalLayout(t *testing.T) {
	b, err := DetectionResult{BPM: 117.5, Beats: []float64{0.023, 0.534}}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"bpm": 117.5, "beats": [0.023, 0.534]}`, string(b))
}

func TestDetectionResultEmptyBeats(t *testing.T) {
	for _, beats := range [][]float64{nil, {}} {
		b, err := DetectionResult{BPM: 0, Beats: beats}.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, `{"bpm": 0.0, "beats": []}`, string(b))
	}
}

func TestDetectionResultKeys(t *testing.T) {
	b, err := json.Marshal(DetectionResult{BPM: 95.7, Beats: []float64{0.1}})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Len(t, m, 2)
	assert.Contains(t, m, "bpm")
	assert.Contains(t, m, "beats")
	assert.Equal(t, 95.7, m["bpm"])
	assert.Equal(t, []any{0.1}, m["beats"])
}
