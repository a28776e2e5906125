package segment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MrWong99/voxgate/internal/observe"
	"github.com/MrWong99/voxgate/pkg/audio"
	"github.com/MrWong99/voxgate/pkg/audio/wav"
	"github.com/MrWong99/voxgate/pkg/voicecmd"
)

// Utterance is one successfully captured voice command as handed to a [Sink].
type Utterance struct {
	// Index is the zero-based position of the utterance in the stream.
	Index int

	// ID is the attempt ID. It matches the attempt_id span attribute.
	ID string

	// Audio is the captured PCM, trimmed when trimming is enabled.
	Audio []byte

	// Events is the event log of the attempt.
	Events []voicecmd.Event

	// SampleRate of Audio in Hz.
	SampleRate int
}

// Sink consumes captured utterances. Write is called from the segmenter
// goroutine only.
type Sink interface {
	Write(ctx context.Context, u Utterance) error
}

// DirSink writes every utterance as a WAV file into Dir.
type DirSink struct {
	// Dir is created with its parents on the first write.
	Dir string

	// Format is the file name template. "{index}" expands to the utterance
	// index and "{id}" to its attempt ID. Empty means "{index}.wav".
	Format string
}

// Path returns the file path u is written to.
func (d *DirSink) Path(u Utterance) string {
	format := d.Format
	if format == "" {
		format = "{index}.wav"
	}
	name := strings.NewReplacer(
		"{index}", strconv.Itoa(u.Index),
		"{id}", u.ID,
	).Replace(format)
	return filepath.Join(d.Dir, name)
}

// Write implements [Sink].
func (d *DirSink) Write(ctx context.Context, u Utterance) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("segment: create split dir: %w", err)
	}
	path := d.Path(u)
	if err := wav.WriteFile(path, u.Audio, u.SampleRate); err != nil {
		return err
	}
	observe.Logger(ctx).Info("wrote voice command",
		"path", path,
		"bytes", len(u.Audio),
		"events", voicecmd.FormatEvents(u.Events),
	)
	return nil
}

// WriterSink encodes every utterance as a WAV container onto W. The encoder
// needs to seek, so the container is staged in a temporary file first.
type WriterSink struct {
	W io.Writer
}

// Write implements [Sink].
func (s *WriterSink) Write(_ context.Context, u Utterance) (err error) {
	f, err := os.CreateTemp("", "voxgate-*.wav")
	if err != nil {
		return fmt.Errorf("segment: stage wav: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(f.Name())
	}()

	if err := wav.Write(f, u.Audio, u.SampleRate); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("segment: rewind staged wav: %w", err)
	}
	if _, err := io.Copy(s.W, f); err != nil {
		return fmt.Errorf("segment: copy wav: %w", err)
	}
	return nil
}

// LogSink only logs utterances.
type LogSink struct{}

// Write implements [Sink].
func (LogSink) Write(ctx context.Context, u Utterance) error {
	observe.Logger(ctx).Info("voice command captured",
		"index", u.Index,
		"attempt_id", u.ID,
		"duration", durationOf(u),
		"events", voicecmd.FormatEvents(u.Events),
	)
	return nil
}

func durationOf(u Utterance) time.Duration {
	if u.SampleRate <= 0 {
		return 0
	}
	return audio.Mono(u.SampleRate).Duration(len(u.Audio))
}

var (
	_ Sink = (*DirSink)(nil)
	_ Sink = (*WriterSink)(nil)
	_ Sink = LogSink{}
)
