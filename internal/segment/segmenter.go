// Package segment drives a [voicecmd.Recorder] over an input stream and hands
// every captured voice command to a set of sinks.
//
// A Segmenter reads the input in fixed-size blocks on a dedicated goroutine so
// that [Segmenter.Run] can return promptly when its context is cancelled. Each
// recording attempt gets its own span and attempt ID; successful attempts are
// optionally trimmed and written to every sink, failed attempts are logged.
package segment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/voxgate/internal/observe"
	"github.com/MrWong99/voxgate/pkg/voicecmd"
)

// errLimitReached ends Run after the configured number of utterances.
var errLimitReached = errors.New("segment: utterance limit reached")

// Option configures a [Segmenter].
type Option func(*Segmenter)

// WithSink adds a sink. Sinks are written in the order they were added.
func WithSink(s Sink) Option {
	return func(sg *Segmenter) { sg.sinks = append(sg.sinks, s) }
}

// WithProgress sets the progress renderer. A nil renderer disables progress.
func WithProgress(p *Progress) Option {
	return func(sg *Segmenter) { sg.progress = p }
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(sg *Segmenter) { sg.metrics = m }
}

// WithReadSize sets the number of bytes read per block. Non-positive values
// select one recorder chunk.
func WithReadSize(n int) Option {
	return func(sg *Segmenter) { sg.readSize = n }
}

// WithTrim trims silence from every captured command before it reaches the
// sinks.
func WithTrim(opts voicecmd.TrimOptions) Option {
	return func(sg *Segmenter) { sg.trim = &opts }
}

// WithProvider names the VAD provider in metric attributes.
func WithProvider(name string) Option {
	return func(sg *Segmenter) { sg.provider = name }
}

// WithLimit stops Run after n successful utterances. Zero means no limit.
func WithLimit(n int) Option {
	return func(sg *Segmenter) { sg.limit = n }
}

// Segmenter feeds an input stream through a recorder. It is not safe for
// concurrent use; run one Segmenter per stream.
type Segmenter struct {
	rec      *voicecmd.Recorder
	sinks    []Sink
	progress *Progress
	metrics  *observe.Metrics
	readSize int
	trim     *voicecmd.TrimOptions
	provider string
	limit    int

	index    int
	failures int

	// current attempt
	attemptCtx  context.Context
	attemptSpan trace.Span
	attemptID   string
}

// New returns a Segmenter driving rec. The caller keeps ownership of rec.
func New(rec *voicecmd.Recorder, opts ...Option) *Segmenter {
	sg := &Segmenter{
		rec:      rec,
		metrics:  observe.DefaultMetrics(),
		provider: "unknown",
	}
	for _, o := range opts {
		o(sg)
	}
	if sg.readSize <= 0 {
		sg.readSize = rec.Config().ChunkSize
	}
	return sg
}

// Captured returns the number of utterances handed to the sinks so far.
func (sg *Segmenter) Captured() int { return sg.index }

// Failures returns the number of attempts that ended in a timeout.
func (sg *Segmenter) Failures() int { return sg.failures }

// Run reads r until EOF, the utterance limit, or ctx cancellation. Audio still
// buffered when the input ends is discarded. Cancellation returns ctx.Err();
// a clean end of input returns nil.
func (sg *Segmenter) Run(ctx context.Context, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	streamAttrs := metric.WithAttributes(observe.Attr("provider", sg.provider))
	sg.metrics.ActiveStreams.Add(ctx, 1, streamAttrs)
	defer sg.metrics.ActiveStreams.Add(context.WithoutCancel(ctx), -1, streamAttrs)

	blocks, readErr := sg.readBlocks(ctx, r)

	sg.beginAttempt(ctx)
	defer func() { sg.endAttempt(nil) }()

	for {
		select {
		case <-ctx.Done():
			sg.rec.Stop()
			sg.progress.Newline()
			return ctx.Err()
		case block, ok := <-blocks:
			if !ok {
				if err := ctx.Err(); err != nil {
					sg.rec.Stop()
					return err
				}
				if err := <-readErr; err != nil {
					return fmt.Errorf("segment: read input: %w", err)
				}
				if rest := sg.rec.Stop(); len(rest) > 0 {
					observe.Logger(sg.attemptCtx).Debug("input ended with buffered audio", "bytes", len(rest))
				}
				sg.progress.Newline()
				return nil
			}
			if err := sg.feed(ctx, block); err != nil {
				sg.progress.Newline()
				if errors.Is(err, errLimitReached) {
					return nil
				}
				return err
			}
		}
	}
}

// readBlocks starts the reader goroutine. The block channel is closed at end
// of input; readErr then yields exactly one value, nil on a clean EOF.
func (sg *Segmenter) readBlocks(ctx context.Context, r io.Reader) (<-chan []byte, <-chan error) {
	blocks := make(chan []byte)
	readErr := make(chan error, 1)
	size := sg.readSize
	go func() {
		defer close(blocks)
		for {
			buf := make([]byte, size)
			n, err := io.ReadFull(r, buf)
			if n > 0 {
				select {
				case blocks <- buf[:n]:
				case <-ctx.Done():
					readErr <- nil
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					err = nil
				}
				readErr <- err
				return
			}
		}
	}()
	return blocks, readErr
}

func (sg *Segmenter) feed(ctx context.Context, block []byte) error {
	sg.metrics.AudioBytes.Add(ctx, int64(len(block)))

	// A block may hold the end of one command and the start of the next.
	for len(block) > 0 {
		cmd, err := sg.rec.ProcessChunk(block)
		if perr := sg.progress.Block(sg.rec, block); perr != nil {
			slog.Warn("failed to render progress", "err", perr)
		}
		if err != nil {
			sg.metrics.RecordVADError(ctx, sg.provider)
			sg.endAttempt(err)
			return fmt.Errorf("segment: %w", err)
		}
		if cmd == nil {
			return nil
		}

		werr := sg.handle(ctx, cmd)
		sg.endAttempt(werr)
		if werr != nil {
			return werr
		}

		block = sg.rec.Drain()
		sg.rec.Start()
		sg.progress.Reset()
		if sg.limit > 0 && sg.index >= sg.limit {
			return errLimitReached
		}
		sg.beginAttempt(ctx)
	}
	return nil
}

func (sg *Segmenter) handle(ctx context.Context, cmd *voicecmd.VoiceCommand) error {
	actx := sg.attemptCtx
	log := observe.Logger(actx)
	seconds := sg.rec.Config().Format().Duration(len(cmd.Audio)).Seconds()
	sg.attemptSpan.SetAttributes(
		attribute.String("result", string(cmd.Result)),
		attribute.String("events", voicecmd.FormatEvents(cmd.Events)),
	)

	sg.metrics.RecordCommand(ctx, string(cmd.Result), seconds)

	if !cmd.Succeeded() {
		sg.failures++
		log.Info("voice command attempt failed",
			"attempt_id", sg.attemptID,
			"events", voicecmd.FormatEvents(cmd.Events),
		)
		return nil
	}

	pcm := cmd.Audio
	if sg.trim != nil {
		pcm = voicecmd.TrimSilence(pcm, *sg.trim)
		if removed := len(cmd.Audio) - len(pcm); removed > 0 {
			sg.metrics.TrimmedBytes.Add(ctx, int64(removed))
		}
	}

	u := Utterance{
		Index:      sg.index,
		ID:         sg.attemptID,
		Audio:      pcm,
		Events:     cmd.Events,
		SampleRate: sg.rec.Config().SampleRate,
	}
	for _, s := range sg.sinks {
		if err := s.Write(actx, u); err != nil {
			return fmt.Errorf("segment: write utterance %d: %w", u.Index, err)
		}
	}
	sg.index++
	log.Debug("voice command handled", "attempt_id", u.ID, "index", u.Index, "bytes", len(pcm))
	return nil
}

func (sg *Segmenter) beginAttempt(ctx context.Context) {
	sg.attemptID = uuid.NewString()
	sg.attemptCtx, sg.attemptSpan = observe.StartSpan(ctx, "segment.attempt",
		trace.WithAttributes(attribute.String("attempt_id", sg.attemptID)),
	)
}

// endAttempt ends the current span once. err marks the span as failed.
func (sg *Segmenter) endAttempt(err error) {
	if sg.attemptSpan == nil {
		return
	}
	if err != nil {
		sg.attemptSpan.RecordError(err)
		sg.attemptSpan.SetStatus(codes.Error, err.Error())
	}
	sg.attemptSpan.End()
	sg.attemptSpan = nil
}
