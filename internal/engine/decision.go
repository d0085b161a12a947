package engine

// Reason tags attached to a Decision, one per gate that shaped the outcome.
const (
	ReasonNoFace          = "no_face"
	ReasonMaxTriggers     = "max_triggers"
	ReasonEmbedFailed     = "embed_failed"
	ReasonNoMatch         = "no_match"
	ReasonBelowThreshold  = "below_threshold"
	ReasonExpired         = "expired"
	ReasonOutsideSchedule = "outside_schedule"
	ReasonCooldown        = "cooldown"
)

// Decision is the outcome of processing one frame.
type Decision struct {
	// Allowed reports whether access was granted. It can be true while
	// Triggered is false: a grant inside the cooldown window counts as a
	// success but does not pulse the hardware again.
	Allowed bool

	// Triggered reports whether the hardware was pulsed for this frame.
	Triggered bool

	// Score is the best cosine similarity found, 0 when no embedding ran.
	Score float64

	// Identifier names the matched person once the threshold gate passed;
	// empty otherwise.
	Identifier string

	// Reasons carries the gate tags explaining the outcome.
	Reasons []string
}

// Outcome returns the label used for logging and metrics: "triggered",
// "allowed" (grant suppressed by cooldown), or the first deny reason.
func (d Decision) Outcome() string {
	if d.Triggered {
		return "triggered"
	}
	if d.Allowed {
		return "allowed"
	}
	if len(d.Reasons) > 0 {
		return d.Reasons[0]
	}
	return "denied"
}

// Has reports whether the decision carries the given reason tag.
func (d Decision) Has(reason string) bool {
	for _, r := range d.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}
