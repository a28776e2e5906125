//go:build !cgo

package webrtc

import "github.com/MrWong99/voxgate/pkg/provider/vad"

// Available reports whether the WebRTC detector was compiled in.
const Available = false

func newDetector(vad.Config) (detector, error) {
	return nil, ErrUnavailable
}
