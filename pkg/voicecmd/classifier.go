package voicecmd

import (
	"errors"
	"fmt"

	"github.com/MrWong99/voxgate/pkg/audio"
	"github.com/MrWong99/voxgate/pkg/provider/vad"
)

// Thresholds holds the energy parameters of a [Classifier].
type Thresholds struct {
	// Current is the fixed debiased-energy threshold.
	Current float64

	// MaxEnergy fixes the ratio reference; 0 means running maximum.
	MaxEnergy float64

	// Ratio is the max/current ratio threshold.
	Ratio float64
}

func validateThresholds(m SilenceMethod, th Thresholds) error {
	var errs []error
	if !m.IsValid() {
		errs = append(errs, fmt.Errorf("%w: unknown silence method %q", ErrInvalidConfig, m))
	}
	if m.UsesCurrent() && th.Current <= 0 {
		errs = append(errs, fmt.Errorf("%w: silence method %s requires a current threshold > 0", ErrInvalidConfig, m))
	}
	if m.UsesRatio() && th.Ratio <= 0 {
		errs = append(errs, fmt.Errorf("%w: silence method %s requires a ratio threshold > 0", ErrInvalidConfig, m))
	}
	if th.MaxEnergy < 0 {
		errs = append(errs, fmt.Errorf("%w: max energy %g is negative", ErrInvalidConfig, th.MaxEnergy))
	}
	return errors.Join(errs...)
}

// Classifier turns one chunk into a speech decision according to its
// [SilenceMethod]. It is not safe for concurrent use.
type Classifier struct {
	method  SilenceMethod
	session vad.SessionHandle
	th      Thresholds

	// running maximum energy, used when th.MaxEnergy is 0
	maxEnergy float64
	energy    float64
}

// NewClassifier builds a Classifier. session may be nil when method does not
// use the VAD.
func NewClassifier(method SilenceMethod, session vad.SessionHandle, th Thresholds) (*Classifier, error) {
	if err := validateThresholds(method, th); err != nil {
		return nil, err
	}
	if method.UsesVAD() && session == nil {
		return nil, fmt.Errorf("%w: silence method %s requires a vad session", ErrInvalidConfig, method)
	}
	return &Classifier{method: method, session: session, th: th}, nil
}

// Classify reports whether chunk is speech. Every signal the method names is
// evaluated on every call, so the VAD session and the running maximum see
// the whole stream.
func (c *Classifier) Classify(chunk []byte) (bool, error) {
	speech := true
	if c.method.UsesVAD() {
		v, err := c.session.IsSpeech(chunk)
		if err != nil {
			return false, fmt.Errorf("voicecmd: vad: %w", err)
		}
		speech = v
	}
	if !c.method.UsesCurrent() && !c.method.UsesRatio() {
		return speech, nil
	}

	c.energy = audio.DebiasedEnergy(chunk)
	if c.method.UsesRatio() {
		speech = c.ratioSpeech(c.energy) && speech
	}
	if c.method.UsesCurrent() {
		speech = speech && c.energy >= c.th.Current
	}
	return speech, nil
}

func (c *Classifier) ratioSpeech(energy float64) bool {
	maxEnergy := c.MaxEnergy()
	if c.th.MaxEnergy <= 0 && energy > c.maxEnergy {
		c.maxEnergy = energy
		maxEnergy = energy
	}
	if energy == 0 {
		return false
	}
	return maxEnergy/energy <= c.th.Ratio
}

// MaxEnergy returns the ratio reference: the fixed maximum when configured,
// else the running maximum observed since the last Reset.
func (c *Classifier) MaxEnergy() float64 {
	if c.th.MaxEnergy > 0 {
		return c.th.MaxEnergy
	}
	return c.maxEnergy
}

// LastEnergy returns the debiased energy of the most recent chunk, or 0 when
// the method uses no energy test.
func (c *Classifier) LastEnergy() float64 { return c.energy }

// Method returns the configured method.
func (c *Classifier) Method() SilenceMethod { return c.method }

// Reset forgets the running maximum and resets the VAD session.
func (c *Classifier) Reset() {
	c.maxEnergy = 0
	c.energy = 0
	if c.session != nil {
		c.session.Reset()
	}
}
