package appointment

// TransitionPolicy decides whether an appointment may move between statuses.
type TransitionPolicy interface {
	Allow(from, to Status) error
}

// AnyTransition lets staff move an appointment to any status from any other.
type AnyTransition struct{}

func (AnyTransition) Allow(from, to Status) error {
	return nil
}
