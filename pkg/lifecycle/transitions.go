package lifecycle

// transitions is the set of allowed status edges. A webhook event that
// would move an account along any other edge is a permanent processing
// failure, not something a retry can fix.
//
// Cancelled is terminal: the only way back is a brand-new checkout,
// which is treated as a fresh signup rather than a transition.
var transitions = map[Status]map[Status]bool{
	StatusTrialing: {
		StatusActive:    true,
		StatusPastDue:   true,
		StatusUnpaid:    true,
		StatusCancelled: true,
	},
	StatusActive: {
		StatusPastDue:   true,
		StatusUnpaid:    true,
		StatusCancelled: true,
	},
	StatusPastDue: {
		StatusActive:    true,
		StatusUnpaid:    true,
		StatusCancelled: true,
	},
	StatusUnpaid: {
		StatusActive:    true,
		StatusCancelled: true,
	},
	StatusCancelled: {},
}

// CanTransitionTo reports whether moving from s to next is a legal
// status change. Staying in the same status is always allowed, since
// provider updates routinely re-report the current state.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	return transitions[s][next]
}

// IsValid reports whether s is one of the five known states.
func (s Status) IsValid() bool {
	switch s {
	case StatusTrialing, StatusActive, StatusPastDue, StatusUnpaid, StatusCancelled:
		return true
	default:
		return false
	}
}
