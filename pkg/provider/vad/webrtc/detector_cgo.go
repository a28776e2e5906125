//go:build cgo

package webrtc

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"github.com/MrWong99/voxgate/pkg/provider/vad"
)

// Available reports whether the WebRTC detector was compiled in.
const Available = true

type cgoDetector struct {
	vad *webrtcvad.VAD
}

func newDetector(cfg vad.Config) (detector, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("webrtc: create detector: %w", err)
	}
	if err := v.SetMode(int(cfg.Mode)); err != nil {
		return nil, fmt.Errorf("webrtc: set mode %d: %w", cfg.Mode, err)
	}
	samples := cfg.FrameBytes() / 2
	if !v.ValidRateAndFrameLength(cfg.SampleRate, samples) {
		return nil, fmt.Errorf("%w: %d samples at %d Hz rejected by detector", vad.ErrInvalidConfig, samples, cfg.SampleRate)
	}
	return &cgoDetector{vad: v}, nil
}

func (d *cgoDetector) process(sampleRate int, frame []byte) (bool, error) {
	speech, err := d.vad.Process(sampleRate, frame)
	if err != nil {
		return false, fmt.Errorf("webrtc: process frame: %w", err)
	}
	return speech, nil
}
