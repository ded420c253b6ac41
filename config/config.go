package config

import (
	"errors"
	"fmt"

	"github.com/mdobak/go-xerrors"
)

var ErrInvalid = errors.New("invalid analysis config")

// Config holds the analysis parameters. The zero value is not usable; start
// from Default.
type Config struct {
	// Spectral front end
	NFFT      int     // STFT window length in samples
	HopLength int     // samples between analysis frames
	NMels     int     // mel bands
	FMin      float64 // lowest mel edge in Hz
	FMax      float64 // highest mel edge in Hz, 0 means Nyquist
	TopDB     float64 // dynamic range kept by the dB conversion

	// Onset envelope
	Lag int // frames between compared spectra

	// Tempo estimation
	StartBPM float64 // centre of the log-normal tempo prior
	StdBPM   float64 // prior width in octaves
	MaxTempo float64 // tempi at or above this are never chosen
	ACSize   float64 // autocorrelation window in seconds

	// Beat tracking
	Tightness float64 // how strictly beats follow the tempo
	Trim      bool    // drop weak leading/trailing beats
	BPM       float64 // fixed tempo, 0 estimates it from the audio
}

// Default returns the parameters the detector was tuned with.
func Default() Config {
	return Config{
		NFFT:      2048,
		HopLength: 512,
		NMels:     128,
		FMin:      0,
		FMax:      0,
		TopDB:     80,

		Lag: 1,

		StartBPM: 120,
		StdBPM:   1,
		MaxTempo: 320,
		ACSize:   8,

		Tightness: 100,
		Trim:      true,
		BPM:       0,
	}
}

// Validate reports the first parameter that cannot produce an analysis.
func (c Config) Validate() error {
	switch {
	case c.NFFT <= 0:
		return invalid("NFFT must be positive, got %d", c.NFFT)
	case c.HopLength <= 0:
		return invalid("HopLength must be positive, got %d", c.HopLength)
	case c.NMels <= 0:
		return invalid("NMels must be positive, got %d", c.NMels)
	case c.FMin < 0:
		return invalid("FMin must not be negative, got %g", c.FMin)
	case c.FMax < 0 || (c.FMax > 0 && c.FMax <= c.FMin):
		return invalid("FMax must be 0 or above FMin, got %g", c.FMax)
	case c.TopDB < 0:
		return invalid("TopDB must not be negative, got %g", c.TopDB)
	case c.Lag <= 0:
		return invalid("Lag must be positive, got %d", c.Lag)
	case c.StartBPM <= 0:
		return invalid("StartBPM must be positive, got %g", c.StartBPM)
	case c.StdBPM <= 0:
		return invalid("StdBPM must be positive, got %g", c.StdBPM)
	case c.MaxTempo <= 0:
		return invalid("MaxTempo must be positive, got %g", c.MaxTempo)
	case c.ACSize <= 0:
		return invalid("ACSize must be positive, got %g", c.ACSize)
	case c.Tightness <= 0:
		return invalid("Tightness must be positive, got %g", c.Tightness)
	case c.BPM < 0:
		return invalid("BPM must not be negative, got %g", c.BPM)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return xerrors.New(fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
}
