package voicecmd

import (
	"fmt"
	"strings"
)

// SilenceMethod selects which signals are combined into the per-chunk speech
// decision.
type SilenceMethod string

const (
	// MethodVADOnly trusts the VAD session alone.
	MethodVADOnly SilenceMethod = "vad_only"

	// MethodRatioOnly compares max/current energy against the ratio threshold.
	MethodRatioOnly SilenceMethod = "ratio_only"

	// MethodCurrentOnly compares the chunk energy against a fixed threshold.
	MethodCurrentOnly SilenceMethod = "current_only"

	// MethodVADAndRatio requires both the VAD and the ratio test.
	MethodVADAndRatio SilenceMethod = "vad_and_ratio"

	// MethodVADAndCurrent requires both the VAD and the current-energy test.
	MethodVADAndCurrent SilenceMethod = "vad_and_current"

	// MethodAll requires the VAD, the current-energy test and the ratio test.
	MethodAll SilenceMethod = "all"
)

// SilenceMethods lists every valid method in declaration order.
var SilenceMethods = []SilenceMethod{
	MethodVADOnly, MethodRatioOnly, MethodCurrentOnly,
	MethodVADAndRatio, MethodVADAndCurrent, MethodAll,
}

// ParseSilenceMethod converts a name such as "vad_and_ratio" to a
// SilenceMethod. Matching is case-insensitive and accepts dashes.
func ParseSilenceMethod(s string) (SilenceMethod, error) {
	m := SilenceMethod(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: unknown silence method %q", ErrInvalidConfig, s)
	}
	return m, nil
}

// IsValid reports whether m is a recognised method.
func (m SilenceMethod) IsValid() bool {
	switch m {
	case MethodVADOnly, MethodRatioOnly, MethodCurrentOnly,
		MethodVADAndRatio, MethodVADAndCurrent, MethodAll:
		return true
	}
	return false
}

// UsesVAD reports whether m consults the VAD session.
func (m SilenceMethod) UsesVAD() bool {
	switch m {
	case MethodVADOnly, MethodVADAndRatio, MethodVADAndCurrent, MethodAll:
		return true
	}
	return false
}

// UsesRatio reports whether m applies the max/current energy ratio test.
func (m SilenceMethod) UsesRatio() bool {
	return m == MethodRatioOnly || m == MethodVADAndRatio || m == MethodAll
}

// UsesCurrent reports whether m applies the fixed current-energy test.
func (m SilenceMethod) UsesCurrent() bool {
	return m == MethodCurrentOnly || m == MethodVADAndCurrent || m == MethodAll
}
