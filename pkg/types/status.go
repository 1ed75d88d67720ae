package types

// AthleteStatus is the registration review state of an athlete.
type AthleteStatus string

const (
	StatusPending  AthleteStatus = "pending"
	StatusSent     AthleteStatus = "sent"
	StatusApproved AthleteStatus = "approved"
	StatusRejected AthleteStatus = "rejected"
)

// transitions lists the registration states reachable from each state.
// Approved and rejected are not terminal: an admin may flip between them,
// and a rejected athlete may resubmit.
var transitions = map[AthleteStatus][]AthleteStatus{
	StatusPending:  {StatusSent},
	StatusSent:     {StatusApproved, StatusRejected},
	StatusApproved: {StatusRejected},
	StatusRejected: {StatusSent, StatusApproved},
}

// CanTransition reports whether a registration may move from one status to
// another. The service layer does not enforce this; it exists for callers
// that gate UI actions.
func CanTransition(from, to AthleteStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known registration states.
func (s AthleteStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusApproved, StatusRejected:
		return true
	}
	return false
}
