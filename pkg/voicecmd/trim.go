package voicecmd

import "github.com/MrWong99/voxgate/pkg/audio"

// TrimOptions parameterizes [TrimSilence].
type TrimOptions struct {
	// ChunkSize is the analysis unit in bytes.
	ChunkSize int

	// RatioThreshold marks a chunk as speech when max/energy is at or below it.
	RatioThreshold float64

	// KeepBefore and KeepAfter widen the result by whole chunks.
	KeepBefore int
	KeepAfter  int
}

// DefaultTrimOptions returns 30 ms chunks at 16 kHz with a ratio of 20 and no
// padding.
func DefaultTrimOptions() TrimOptions {
	return TrimOptions{ChunkSize: 960, RatioThreshold: 20}
}

// TrimSilence strips leading and trailing silence from a finished recording.
// Chunks are scored by debiased energy against the loudest chunk; a trailing
// partial chunk is scored on its own. The result is a subslice of pcm. When
// no chunk qualifies as speech, or opts cannot be applied, pcm is returned
// unchanged.
func TrimSilence(pcm []byte, opts TrimOptions) []byte {
	if opts.ChunkSize <= 0 || opts.RatioThreshold <= 0 || len(pcm) == 0 {
		return pcm
	}

	n := (len(pcm) + opts.ChunkSize - 1) / opts.ChunkSize
	energies := make([]float64, n)
	maxEnergy := 0.0
	for i := range n {
		end := min((i+1)*opts.ChunkSize, len(pcm))
		energies[i] = audio.DebiasedEnergy(pcm[i*opts.ChunkSize : end])
		maxEnergy = max(maxEnergy, energies[i])
	}

	first, last := -1, -1
	for i, e := range energies {
		if e > 0 && maxEnergy/e <= opts.RatioThreshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return pcm
	}

	start := max(first-max(opts.KeepBefore, 0), 0) * opts.ChunkSize
	end := min((last+1+max(opts.KeepAfter, 0))*opts.ChunkSize, len(pcm))
	return pcm[start:end]
}
