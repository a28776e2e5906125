package segment

import (
	"bufio"
	"io"
	"strconv"

	"github.com/MrWong99/voxgate/internal/config"
	"github.com/MrWong99/voxgate/pkg/audio"
	"github.com/MrWong99/voxgate/pkg/voicecmd"
)

// Progress renders a running trace of the segmenter to a writer, one token
// per read block. Event symbols of the current attempt are printed as they
// appear, followed by a per-block token selected by the output type.
//
// A nil *Progress renders nothing.
type Progress struct {
	w    *bufio.Writer
	kind config.OutputType

	// fixedMax is the configured max energy; zero means track the maximum.
	fixedMax float64
	peak     float64
	printed  int
}

// NewProgress returns a renderer for kind writing to w. It returns nil for
// [config.OutputNone] or a nil writer. maxEnergy fixes the numerator of the
// max/current ratio; zero tracks the observed maximum.
func NewProgress(w io.Writer, kind config.OutputType, maxEnergy float64) *Progress {
	if w == nil || kind == config.OutputNone {
		return nil
	}
	return &Progress{
		w:        bufio.NewWriter(w),
		kind:     kind,
		fixedMax: maxEnergy,
	}
}

// Block renders the events added since the last call followed by the token
// for block. The output is flushed before returning.
func (p *Progress) Block(rec *voicecmd.Recorder, block []byte) error {
	if p == nil {
		return nil
	}
	events := rec.Events()
	for _, ev := range events[min(p.printed, len(events)):] {
		p.w.WriteRune(ev.Type.Symbol())
	}
	p.printed = len(events)

	switch p.kind {
	case config.OutputSpeechSilence:
		if rec.LastSpeech() {
			p.w.WriteByte('!')
		} else {
			p.w.WriteByte('.')
		}
	case config.OutputCurrentEnergy:
		energy := audio.DebiasedEnergy(block)
		p.w.WriteString(strconv.FormatInt(int64(energy), 10))
		p.w.WriteByte(' ')
	case config.OutputMaxCurrentRatio:
		p.w.WriteString(strconv.FormatFloat(p.ratio(block), 'f', 2, 64))
		p.w.WriteByte(' ')
	}
	return p.w.Flush()
}

func (p *Progress) ratio(block []byte) float64 {
	energy := audio.DebiasedEnergy(block)
	peak := p.fixedMax
	if peak <= 0 {
		p.peak = max(p.peak, energy)
		peak = p.peak
	}
	if energy <= 0 {
		return 0
	}
	return peak / energy
}

// Reset forgets the printed events. Call it whenever the recorder starts a
// new attempt.
func (p *Progress) Reset() {
	if p == nil {
		return
	}
	p.printed = 0
}

// Newline terminates the current progress line.
func (p *Progress) Newline() error {
	if p == nil {
		return nil
	}
	p.w.WriteByte('\n')
	return p.w.Flush()
}
