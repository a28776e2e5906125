package wav_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MrWong99/voxgate/pkg/audio"
	"github.com/MrWong99/voxgate/pkg/audio/wav"
)

func TestWriteFileThenReadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "utterance.wav")
	pcm := audio.SamplesToBytes([]int16{0, 1000, -1000, 32767, -32768, 42})

	if err := wav.WriteFile(path, pcm, 16000); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, format, err := wav.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if format != audio.Mono(16000) {
		t.Errorf("format = %v, want %v", format, audio.Mono(16000))
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("pcm = %v, want %v", got, pcm)
	}
}

func TestRead_RejectsNonWAV(t *testing.T) {
	t.Parallel()
	_, _, err := wav.Read(bytes.NewReader([]byte("definitely not a riff container")))
	if !errors.Is(err, wav.ErrInvalidFile) {
		t.Fatalf("err = %v, want ErrInvalidFile", err)
	}
}
