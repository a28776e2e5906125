package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrWong99/voxgate/pkg/audio"
	"github.com/MrWong99/voxgate/pkg/audio/wav"
)

// openInput opens the audio source named by path. "-" and "" select stdin.
// A ".wav" file is decoded up front and must match want; anything else is
// streamed as raw PCM.
func openInput(path string, want audio.Format) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		pcm, got, err := wav.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if got != want {
			return nil, fmt.Errorf("input %q is %s, want %s", path, got, want)
		}
		return io.NopCloser(bytes.NewReader(pcm)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}
