package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
	"github.com/mdobak/go-xerrors"

	"github.com/tayl0r/workout-choreo-creator/types"
	"github.com/tayl0r/workout-choreo-creator/utils"
)

var (
	ErrInvalidFile = errors.New("invalid WAV file")
	ErrNoSamples   = errors.New("WAV file has no samples")
)

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE
)

// Load decodes a WAV file (integer PCM or IEEE float, plain or extensible)
// at its native sample rate and down-mixes it to mono float samples.
func Load(path string) (*types.WavInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.New(fmt.Errorf("open %s: %w", path, err))
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		if derr := d.Err(); derr != nil {
			return nil, xerrors.New(fmt.Errorf("%w: %s: %v", ErrInvalidFile, path, derr))
		}
		return nil, xerrors.New(fmt.Errorf("%w: %s", ErrInvalidFile, path))
	}
	if d.SampleRate == 0 {
		return nil, xerrors.New(fmt.Errorf("%w: %s: sample rate is 0", ErrInvalidFile, path))
	}

	format := d.WavAudioFormat
	if format == formatExtensible {
		if format, err = subFormat(f); err != nil {
			return nil, xerrors.New(fmt.Errorf("%w: %s: read extensible format: %v", ErrInvalidFile, path, err))
		}
	}

	channels := int(d.NumChans)
	var samples []float64
	switch format {
	case formatPCM:
		buf, err := d.FullPCMBuffer()
		if err != nil {
			return nil, xerrors.New(fmt.Errorf("read PCM data from %s: %w", path, err))
		}
		if buf.Format != nil && buf.Format.NumChannels > 0 {
			channels = buf.Format.NumChannels
		}
		samples = downmix(buf.Data, channels, int(d.BitDepth))
	case formatFloat:
		raw, err := readData(d)
		if err != nil {
			return nil, xerrors.New(fmt.Errorf("read float data from %s: %w", path, err))
		}
		if len(raw) < d.PCMSize {
			utils.Log.Warn("%s: data chunk truncated, %d of %d bytes", path, len(raw), d.PCMSize)
		}
		frames, err := decodeFloats(raw, int(d.BitDepth))
		if err != nil {
			return nil, xerrors.New(fmt.Errorf("%w: %s: %v", ErrInvalidFile, path, err))
		}
		samples = downmixFloat(frames, channels)
	default:
		return nil, xerrors.New(fmt.Errorf("%w: %s: unsupported audio format %d",
			ErrInvalidFile, path, format))
	}
	if len(samples) == 0 {
		return nil, xerrors.New(fmt.Errorf("%w: %s", ErrNoSamples, path))
	}

	info := &types.WavInfo{
		Channels:   channels,
		SampleRate: int(d.SampleRate),
		BitDepth:   int(d.BitDepth),
		Samples:    samples,
		Duration:   float64(len(samples)) / float64(d.SampleRate),
	}
	utils.Log.Debug("loaded %s: %d Hz, %d ch, %d bit, %.3fs",
		path, info.SampleRate, info.Channels, info.BitDepth, info.Duration)
	return info, nil
}

// subFormat reads the format code from the SubFormat GUID of an extensible
// fmt chunk. The read position of f is restored afterwards.
func subFormat(f io.ReadSeeker) (uint16, error) {
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	defer f.Seek(pos, io.SeekStart)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	p := riff.New(f)
	if _, _, err := p.IDnSize(); err != nil {
		return 0, err
	}
	var form [4]byte
	if _, err := io.ReadFull(f, form[:]); err != nil {
		return 0, err
	}

	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, err
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}
		// 16 bytes of base header, cbSize, valid bits, channel mask, then
		// the GUID whose first two bytes are the format code
		body := make([]byte, ch.Size)
		if _, err := io.ReadFull(ch, body); err != nil {
			return 0, err
		}
		if len(body) < 26 {
			return 0, fmt.Errorf("fmt chunk is %d bytes, too short for extensible", len(body))
		}
		return binary.LittleEndian.Uint16(body[24:26]), nil
	}
}

// readData returns the bytes of the data chunk. A file cut short returns
// what is there.
func readData(d *wav.Decoder) ([]byte, error) {
	if err := d.FwdToPCM(); err != nil {
		return nil, err
	}
	if d.PCMChunk == nil {
		return nil, wav.ErrPCMChunkNotFound
	}
	return io.ReadAll(io.LimitReader(d.PCMChunk, int64(d.PCMSize)))
}

// decodeFloats reads little-endian IEEE floats of 32 or 64 bits.
func decodeFloats(raw []byte, bitDepth int) ([]float64, error) {
	switch bitDepth {
	case 32:
		out := make([]float64, len(raw)/4)
		for i := range out {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		}
		return out, nil
	case 64:
		out := make([]float64, len(raw)/8)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported float bit depth %d", bitDepth)
}

func downmixFloat(data []float64, channels int) []float64 {
	if channels < 1 {
		return nil
	}
	n := len(data) / channels
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += data[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// downmix averages interleaved channels into one normalised track. A
// trailing partial frame is dropped.
func downmix(data []int, channels, bitDepth int) []float64 {
	if channels < 1 {
		return nil
	}
	n := len(data) / channels
	scale, offset := sampleScale(bitDepth)
	scale /= float64(channels)

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(data[i*channels+c]) - offset
		}
		out[i] = sum * scale
	}
	return out
}

// sampleScale returns the factor and offset mapping an integer sample of the
// given depth onto [-1, 1). 8-bit WAV is unsigned, everything else signed.
func sampleScale(bitDepth int) (scale, offset float64) {
	if bitDepth == 8 {
		return 1.0 / 128.0, 128
	}
	return 1.0 / float64(int64(1)<<(bitDepth-1)), 0
}
