package types

import (
	"bytes"
	"strconv"
	"strings"
)

// DetectionResult is the tempo and beat grid for one audio file. BPM is
// rounded to 1 decimal and each beat time (seconds) to 3 decimals.
type DetectionResult struct {
	BPM   float64   `json:"bpm"`
	Beats []float64 `json:"beats"`
}

// MarshalJSON writes the result as {"bpm": 120.2, "beats": [0.5, 1.0]}.
// Numbers always carry a decimal point so whole tempi read as floats.
func (r DetectionResult) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(`{"bpm": `)
	b.WriteString(formatFloat(r.BPM))
	b.WriteString(`, "beats": [`)
	for i, t := range r.Beats {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatFloat(t))
	}
	b.WriteString("]}")
	return b.Bytes(), nil
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

type WavInfo struct {
	Channels   int
	SampleRate int
	BitDepth   int
	Samples    []float64 // mono, normalised to [-1, 1)
	Duration   float64   // seconds
}
