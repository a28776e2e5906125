package voicecmd_test

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/MrWong99/voxgate/pkg/provider/vad/mock"
	"github.com/MrWong99/voxgate/pkg/voicecmd"
)

const (
	testRate  = 16000
	testChunk = 960 // 30 ms at 16 kHz
)

// toneChunks returns n chunks of a continuous 440 Hz sine.
func toneChunks(n int) []byte {
	samples := n * testChunk / 2
	out := make([]byte, 0, samples*2)
	for i := range samples {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/testRate))
		out = binary.LittleEndian.AppendUint16(out, uint16(v))
	}
	return out
}

// silenceChunks returns n chunks of digital silence.
func silenceChunks(n int) []byte {
	return make([]byte, n*testChunk)
}

// square returns one chunk alternating between +amp and -amp. Its debiased
// energy is exactly amp.
func square(amp int16) []byte {
	out := make([]byte, 0, testChunk)
	for i := range testChunk / 2 {
		v := amp
		if i%2 == 1 {
			v = -amp
		}
		out = binary.LittleEndian.AppendUint16(out, uint16(v))
	}
	return out
}

// concat joins byte slices into a fresh slice.
func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// nonZero classifies a frame as speech when any byte is set.
func nonZero(frame []byte) bool {
	for _, b := range frame {
		if b != 0 {
			return true
		}
	}
	return false
}

// newRecorder builds a recorder over a mock session that treats any
// non-silent frame as speech.
func newRecorder(t *testing.T, cfg voicecmd.Config) (*voicecmd.Recorder, *mock.Session) {
	t.Helper()
	sess := &mock.Session{DecideFunc: nonZero}
	rec, err := voicecmd.NewRecorder(cfg, &mock.Engine{Session: sess, Validate: true})
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	t.Cleanup(func() { _ = rec.Close() })
	return rec, sess
}

// feedAll pushes data in increments of step bytes and returns every
// VoiceCommand produced. After each one the recorder is restarted and the
// drained remainder is fed again.
func feedAll(t *testing.T, rec *voicecmd.Recorder, data []byte, step int) []*voicecmd.VoiceCommand {
	t.Helper()
	var cmds []*voicecmd.VoiceCommand
	for len(data) > 0 {
		n := min(step, len(data))
		cmd, err := rec.ProcessChunk(data[:n])
		if err != nil {
			t.Fatalf("ProcessChunk: %v", err)
		}
		data = data[n:]
		if cmd != nil {
			cmds = append(cmds, cmd)
			data = append(rec.Drain(), data...)
			rec.Start()
		}
	}
	return cmds
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
