// Package wav reads and writes 16-bit mono PCM WAV containers for voxgate
// utterances. It is a thin layer over github.com/go-audio/wav that converts
// between the raw little-endian byte buffers used throughout voxgate and the
// go-audio integer buffers.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/MrWong99/voxgate/pkg/audio"
)

const (
	bitDepth = 16

	// formatPCM is the WAVE_FORMAT_PCM audio format tag.
	formatPCM = 1
)

// ErrInvalidFile is returned by [Read] when r does not contain a RIFF/WAVE
// container.
var ErrInvalidFile = errors.New("wav: not a valid WAV file")

// Write encodes pcm (16-bit little-endian mono) as a WAV container at
// sampleRate. The encoder seeks back to patch the header sizes, hence the
// [io.WriteSeeker].
func Write(w io.WriteSeeker, pcm []byte, sampleRate int) error {
	samples := audio.BytesToSamples(pcm)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := gowav.NewEncoder(w, sampleRate, bitDepth, 1, formatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: finalise header: %w", err)
	}
	return nil
}

// WriteFile creates (or truncates) path and writes pcm into it as a WAV file.
func WriteFile(path string, pcm []byte, sampleRate int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wav: create %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("wav: close %q: %w", path, cerr)
		}
	}()
	return Write(f, pcm, sampleRate)
}

// Read decodes a 16-bit PCM WAV container and returns its samples as
// little-endian bytes together with the stream format. Containers with any
// other bit depth are rejected; voxgate does not convert sample formats.
func Read(r io.ReadSeeker) ([]byte, audio.Format, error) {
	dec := gowav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, audio.Format{}, ErrInvalidFile
	}
	if dec.BitDepth != bitDepth {
		return nil, audio.Format{}, fmt.Errorf("wav: unsupported bit depth %d, want %d", dec.BitDepth, bitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("wav: decode pcm: %w", err)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	format := audio.Format{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
	}
	return audio.SamplesToBytes(samples), format, nil
}

// ReadFile opens path and decodes it with [Read].
func ReadFile(path string) ([]byte, audio.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("wav: open %q: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
