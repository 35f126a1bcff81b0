package engine

// State names one phase of the resolution loop.
type State int

const (
	// StateCheckbox clicks the consent checkbox and probes for an
	// immediate auto-solve.
	StateCheckbox State = iota
	// StateClassifying reads the instruction text for target and variant.
	StateClassifying
	// StateSolving runs detection and maps boxes onto tiles.
	StateSolving
	// StateSelecting clicks the solved tile set.
	StateSelecting
	// StateVerifying presses verify and probes for the solved indicator.
	StateVerifying
	// StateSolved is terminal.
	StateSolved
)

func (s State) String() string {
	switch s {
	case StateCheckbox:
		return "CHECKBOX"
	case StateClassifying:
		return "CLASSIFYING"
	case StateSolving:
		return "SOLVING"
	case StateSelecting:
		return "SELECTING"
	case StateVerifying:
		return "VERIFYING"
	case StateSolved:
		return "SOLVED"
	default:
		return "UNKNOWN"
	}
}
