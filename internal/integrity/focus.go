package integrity

import "time"

// FocusEventKind identifies the platform event that signalled focus loss.
type FocusEventKind string

// Focus loss event kinds. A single physical tab switch typically raises
// both, and each independently produces a TAB_SWITCH violation.
const (
	FocusVisibilityHidden FocusEventKind = "visibility_hidden"
	FocusWindowBlur       FocusEventKind = "window_blur"
)

// FocusEvent is one observed focus loss.
type FocusEvent struct {
	Kind FocusEventKind
	At   time.Time
}

// FocusSource delivers focus loss events from the candidate's environment.
type FocusSource interface {
	// Subscribe returns a channel of focus events and a cancel function
	// that releases the subscription. The channel is closed on cancel.
	Subscribe() (<-chan FocusEvent, func())
}
