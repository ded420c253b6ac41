// Package detector turns a WAV file into a tempo and beat grid.
package detector

import (
	"context"
	"fmt"
	"time"

	"github.com/mdobak/go-xerrors"

	"github.com/tayl0r/workout-choreo-creator/beat"
	"github.com/tayl0r/workout-choreo-creator/config"
	"github.com/tayl0r/workout-choreo-creator/dsp"
	"github.com/tayl0r/workout-choreo-creator/types"
	"github.com/tayl0r/workout-choreo-creator/utils"
	"github.com/tayl0r/workout-choreo-creator/wav"
)

const (
	bpmPlaces  = 1
	beatPlaces = 3
)

// Loader decodes an audio file into mono samples at its native rate.
type Loader interface {
	Load(path string) (*types.WavInfo, error)
}

// Estimator produces a tempo and beat frame indices from samples.
type Estimator interface {
	Estimate(samples []float64, sampleRate int) (beat.Result, error)
}

type LoaderFunc func(path string) (*types.WavInfo, error)

func (f LoaderFunc) Load(path string) (*types.WavInfo, error) { return f(path) }

type EstimatorFunc func(samples []float64, sampleRate int) (beat.Result, error)

func (f EstimatorFunc) Estimate(samples []float64, sampleRate int) (beat.Result, error) {
	return f(samples, sampleRate)
}

// Tracker is the default Estimator: onset envelope, tempo, then dynamic
// programming beat tracking.
type Tracker struct {
	cfg config.Config
}

func NewTracker(cfg config.Config) *Tracker {
	return &Tracker{cfg: cfg}
}

func (t *Tracker) Estimate(samples []float64, sampleRate int) (beat.Result, error) {
	if err := t.cfg.Validate(); err != nil {
		return beat.Result{}, err
	}
	if sampleRate <= 0 {
		return beat.Result{}, xerrors.New(fmt.Errorf("sample rate must be positive, got %d", sampleRate))
	}
	onset := dsp.OnsetStrength(samples, sampleRate, t.cfg)
	return beat.Track(onset, sampleRate, t.cfg), nil
}

type Detector struct {
	cfg       config.Config
	loader    Loader
	estimator Estimator
}

type Option func(*Detector)

func WithLoader(l Loader) Option {
	return func(d *Detector) { d.loader = l }
}

func WithEstimator(e Estimator) Option {
	return func(d *Detector) { d.estimator = e }
}

// New returns a Detector reading WAV files and tracking beats with cfg.
func New(cfg config.Config, opts ...Option) *Detector {
	d := &Detector{
		cfg:       cfg,
		loader:    LoaderFunc(wav.Load),
		estimator: NewTracker(cfg),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect loads path and returns its tempo (1 decimal) and beat times in
// seconds (3 decimals), in order.
func (d *Detector) Detect(ctx context.Context, path string) (*types.DetectionResult, error) {
	if err := d.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, xerrors.New(err)
	}

	start := time.Now()
	info, err := d.loader.Load(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, xerrors.New(err)
	}

	res, err := d.estimator.Estimate(info.Samples, info.SampleRate)
	if err != nil {
		return nil, xerrors.New(fmt.Errorf("estimate beats for %s: %w", path, err))
	}
	if err := ctx.Err(); err != nil {
		return nil, xerrors.New(err)
	}

	times := beat.FramesToTime(res.Frames, info.SampleRate, d.cfg.HopLength)
	result := &types.DetectionResult{
		BPM:   utils.RoundTo(res.Tempo, bpmPlaces),
		Beats: utils.RoundAll(times, beatPlaces),
	}

	utils.Log.Debug("analysed %s in %s: %.1f bpm, %d beats",
		path, time.Since(start).Round(time.Millisecond), result.BPM, len(result.Beats))
	return result, nil
}
