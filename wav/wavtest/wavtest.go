// Package wavtest writes small WAV fixtures for tests.
package wavtest

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Write encodes interleaved integer samples into a WAV file under t.TempDir
// and returns its path.
func Write(t testing.TB, name string, sampleRate, bitDepth, channels int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder %s: %v", path, err)
	}
	return path
}

// Clicks renders a mono click track: a 10 ms decaying 1 kHz burst every
// 60/bpm seconds starting at t=0, scaled to 16-bit integers.
func Clicks(sampleRate int, bpm, seconds float64) []int {
	n := int(seconds * float64(sampleRate))
	out := make([]int, n)
	interval := 60.0 / bpm
	burst := int(0.01 * float64(sampleRate))

	for k := 0; ; k++ {
		start := int(math.Round(float64(k) * interval * float64(sampleRate)))
		if start >= n {
			break
		}
		for i := 0; i < burst && start+i < n; i++ {
			tt := float64(i) / float64(sampleRate)
			v := math.Sin(2*math.Pi*1000*tt) * math.Exp(-tt*500)
			out[start+i] = int(v * 30000)
		}
	}
	return out
}

// Interleave duplicates a mono track across channels.
func Interleave(mono []int, channels int) []int {
	out := make([]int, len(mono)*channels)
	for i, v := range mono {
		for c := 0; c < channels; c++ {
			out[i*channels+c] = v
		}
	}
	return out
}

// Format describes the fmt chunk written by WriteRaw.
type Format struct {
	Tag        uint16 // 1 PCM, 3 IEEE float, 0xFFFE extensible
	SubFormat  uint16 // format code carried in the extensible GUID
	Channels   int
	SampleRate int
	BitDepth   int
	DataSize   int // declared data chunk size, 0 means len(data)
}

// guidTail is the fixed part of the KSDATAFORMAT_SUBTYPE GUIDs after the
// leading format code.
var guidTail = []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// WriteRaw writes a WAV file byte by byte, for formats the go-audio encoder
// does not produce (float, extensible, truncated data).
func WriteRaw(t testing.TB, name string, f Format, data []byte) string {
	t.Helper()

	var fmtChunk bytes.Buffer
	blockAlign := f.Channels * f.BitDepth / 8
	le := func(v any) { binary.Write(&fmtChunk, binary.LittleEndian, v) }
	le(f.Tag)
	le(uint16(f.Channels))
	le(uint32(f.SampleRate))
	le(uint32(f.SampleRate * blockAlign))
	le(uint16(blockAlign))
	le(uint16(f.BitDepth))
	if f.Tag == 0xFFFE {
		le(uint16(22))
		le(uint16(f.BitDepth))
		le(uint32(0))
		le(f.SubFormat)
		fmtChunk.Write(guidTail)
	}

	dataSize := f.DataSize
	if dataSize == 0 {
		dataSize = len(data)
	}

	var out bytes.Buffer
	w := func(v any) { binary.Write(&out, binary.LittleEndian, v) }
	out.WriteString("RIFF")
	w(uint32(4 + 8 + fmtChunk.Len() + 8 + dataSize))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	w(uint32(fmtChunk.Len()))
	out.Write(fmtChunk.Bytes())
	out.WriteString("data")
	w(uint32(dataSize))
	out.Write(data)

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func Float32LE(xs ...float32) []byte {
	b := make([]byte, 4*len(xs))
	for i, x := range xs {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(x))
	}
	return b
}

func Float64LE(xs ...float64) []byte {
	b := make([]byte, 8*len(xs))
	for i, x := range xs {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(x))
	}
	return b
}

func Int16LE(xs ...int16) []byte {
	b := make([]byte, 2*len(xs))
	for i, x := range xs {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(x))
	}
	return b
}
