package skemaforge

import "strings"

// UnknownPolicy controls how keys that match no declared field are handled.
//
// Records built by this module default to UnknownStrip: extra keys are
// accepted and dropped from the validated output. Select UnknownStrict to
// reject them with an unknown_key issue.
type UnknownPolicy int

const (
	UnknownStrip       UnknownPolicy = iota // Drop unknown keys (default).
	UnknownStrict                           // Reject unknown keys with an error.
	UnknownPassthrough                      // Keep unknown keys in the output unchanged.
)

func (p UnknownPolicy) String() string {
	switch p {
	case UnknownStrict:
		return "strict"
	case UnknownPassthrough:
		return "passthrough"
	}
	return "strip"
}

// ParseUnknownPolicy accepts "strip", "strict" or "passthrough" (any case).
func ParseUnknownPolicy(s string) (UnknownPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strip", "ignore":
		return UnknownStrip, true
	case "strict", "forbid":
		return UnknownStrict, true
	case "passthrough", "allow":
		return UnknownPassthrough, true
	}
	return UnknownStrip, false
}

// NumberMode dictates how numbers are interpreted by decoding sources.
type NumberMode int

const (
	NumberJSONNumber NumberMode = iota // Preserve json.Number (exact).
	NumberFloat64                      // Decode every number as float64.
)

// ParseOpt bundles parsing options.
type ParseOpt struct {
	MaxBytes int64 // Reject inputs larger than this when > 0.
	FailFast bool  // Stop at the first issue.

	// RejectDuplicateKeys fails JSON input whose objects repeat a key. YAML
	// input always rejects duplicates.
	RejectDuplicateKeys bool
}
